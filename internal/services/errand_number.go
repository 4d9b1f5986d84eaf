package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

const errandSequenceDigits = 6

// ErrandNumberGenerator assigns {abbreviation}-{year}-{sequence} numbers.
// The sequence restarts at 1 every calendar year.
type ErrandNumberGenerator struct {
	errands repos.ErrandRepo
	log     *logger.Logger
	clock   func() time.Time
}

func NewErrandNumberGenerator(baseLog *logger.Logger, errands repos.ErrandRepo, clock func() time.Time) *ErrandNumberGenerator {
	if clock == nil {
		clock = time.Now
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &ErrandNumberGenerator{
		errands: errands,
		log:     baseLog.With("service", "ErrandNumberGenerator"),
		clock:   clock,
	}
}

func (g *ErrandNumberGenerator) Generate(dbc dbctx.Context, caseType errand.CaseType) (string, error) {
	if g == nil || g.errands == nil {
		return "", fmt.Errorf("errand number generator not configured")
	}
	abbr, ok := caseType.Abbreviation()
	if !ok {
		return "", fmt.Errorf("unknown case type %q", caseType)
	}
	// errands are stamped in UTC, so the number's year follows UTC too
	year := g.clock().UTC().Year()
	prefix := fmt.Sprintf("%s-%d-", abbr, year)

	numbers, err := g.errands.ListNumbersByPrefix(dbc, abbr+"-")
	if err != nil {
		return "", fmt.Errorf("list errand numbers: %w", err)
	}
	next := NextErrandSequence(numbers, abbr, year)
	g.log.Debug("Assigned errand number", "case_type", caseType, "prefix", prefix, "sequence", next)
	return FormatErrandNumber(abbr, year, next), nil
}

// NextErrandSequence returns one past the highest sequence among numbers
// issued for abbr in year. Blank, foreign or malformed numbers are skipped.
func NextErrandSequence(numbers []string, abbr string, year int) int {
	max := 0
	for _, n := range numbers {
		a, y, seq, ok := ParseErrandNumber(n)
		if !ok || a != abbr || y != year {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max + 1
}

func FormatErrandNumber(abbr string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%0*d", abbr, year, errandSequenceDigits, seq)
}

// ParseErrandNumber splits an errand number into its parts. Abbreviations
// never contain '-', so the number has exactly three dash separated fields.
func ParseErrandNumber(s string) (abbr string, year, seq int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || parts[0] == "" {
		return "", 0, 0, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 {
		return "", 0, 0, false
	}
	if parts[2] == "" || strings.TrimLeft(parts[2], "0123456789") != "" {
		return "", 0, 0, false
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, false
	}
	return parts[0], year, seq, true
}
