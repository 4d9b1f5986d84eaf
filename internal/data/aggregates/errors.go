package aggregates

import (
	"context"
	"errors"
	"strings"

	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Sentinels joined into errors raised inside a write transaction. MapError
// turns them into aggregate codes once the transaction has ended.
var (
	ErrValidation     = errors.New("aggregate validation")
	ErrInvariant      = errors.New("aggregate invariant violation")
	ErrConflict       = errors.New("aggregate conflict")
	ErrOptimisticLock = errors.New("aggregate optimistic lock")
	ErrRetryable      = errors.New("aggregate retryable")
)

func tagged(sentinel error, msg string) error {
	return errors.Join(sentinel, errors.New(strings.TrimSpace(msg)))
}

func ValidationError(msg string) error         { return tagged(ErrValidation, msg) }
func InvariantError(msg string) error          { return tagged(ErrInvariant, msg) }
func ConflictError(msg string) error           { return tagged(ErrConflict, msg) }
func OptimisticConflictError(msg string) error { return tagged(ErrOptimisticLock, msg) }
func RetryableError(msg string) error          { return tagged(ErrRetryable, msg) }

// Checked in order; the optimistic lock sentinel comes before the generic
// conflict so a lost version check is never reported as a duplicate.
var sentinelCodes = []struct {
	err  error
	code domainagg.ErrorCode
}{
	{ErrValidation, domainagg.CodeValidation},
	{ErrInvariant, domainagg.CodeInvariantViolation},
	{ErrOptimisticLock, domainagg.CodeOptimisticConflict},
	{ErrConflict, domainagg.CodeConflict},
	{ErrRetryable, domainagg.CodeRetryable},
	{gorm.ErrRecordNotFound, domainagg.CodeNotFound},
	{context.Canceled, domainagg.CodeRetryable},
	{context.DeadlineExceeded, domainagg.CodeRetryable},
}

// Postgres SQLSTATEs with a meaning for errand writes.
var sqlStateCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodePreconditionFailed, // foreign_key_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
}

// Driver messages, mostly sqlite, that carry no structured code.
var messageCodes = []struct {
	fragment string
	code     domainagg.ErrorCode
}{
	{"unique constraint failed", domainagg.CodeConflict},
	{"duplicate key", domainagg.CodeConflict},
	{"already exists", domainagg.CodeConflict},
	{"database is locked", domainagg.CodeRetryable},
	{"deadlock", domainagg.CodeRetryable},
	{"serialization", domainagg.CodeRetryable},
	{"timeout", domainagg.CodeRetryable},
}

// MapError gives err an aggregate code. An error that already is a
// *domainagg.Error passes through untouched; anything unrecognised becomes
// CodeInternal.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.ErrorCode {
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return sc.code
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := sqlStateCodes[pgErr.Code]; ok {
			return code
		}
	}
	msg := strings.ToLower(err.Error())
	for _, mc := range messageCodes {
		if strings.Contains(msg, mc.fragment) {
			return mc.code
		}
	}
	return domainagg.CodeInternal
}

// isUniqueViolation reports a unique violation, limited to the given
// constraint or column names when any are passed.
func isUniqueViolation(err error, names ...string) bool {
	if err == nil {
		return false
	}
	var haystack string
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return false
		}
		haystack = strings.ToLower(pgErr.ConstraintName + " " + pgErr.Detail)
	} else {
		haystack = strings.ToLower(err.Error())
		if !strings.Contains(haystack, "unique constraint failed") && !strings.Contains(haystack, "duplicate key") {
			return false
		}
	}
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
