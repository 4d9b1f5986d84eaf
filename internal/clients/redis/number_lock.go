package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/envutil"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

var ErrLockTimeout = errors.New("errand number lock: timed out waiting")

// releaseScript deletes the key only while it still holds our token, so a
// lock that expired and was taken over is never released by the old holder.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type NumberLockConfig struct {
	Addr      string
	KeyPrefix string
	TTL       time.Duration
	Wait      time.Duration
	Poll      time.Duration
}

func NumberLockConfigFromEnv() NumberLockConfig {
	prefix := strings.TrimSpace(os.Getenv("REDIS_KEY_PREFIX"))
	if prefix == "" {
		prefix = "casedata"
	}
	return NumberLockConfig{
		Addr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KeyPrefix: prefix,
		TTL:       envutil.Millis("REDIS_NUMBER_LOCK_TTL_MS", 10*time.Second),
		Wait:      envutil.Millis("REDIS_NUMBER_LOCK_WAIT_MS", 5*time.Second),
		Poll:      envutil.Millis("REDIS_NUMBER_LOCK_POLL_MS", 25*time.Millisecond),
	}
}

// NumberLock serializes errand number assignment per abbreviation and year
// across service instances.
type NumberLock struct {
	log   *logger.Logger
	rdb   goredis.UniversalClient
	cfg   NumberLockConfig
	clock func() time.Time
}

// NewNumberLock connects to cfg.Addr. It returns nil, nil when no address is
// configured.
func NewNumberLock(log *logger.Logger, cfg NumberLockConfig) (*NumberLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewNumberLockWithClient(log, rdb, cfg), nil
}

func NewNumberLockWithClient(log *logger.Logger, rdb goredis.UniversalClient, cfg NumberLockConfig) *NumberLock {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.Poll <= 0 {
		cfg.Poll = 25 * time.Millisecond
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "casedata"
	}
	return &NumberLock{
		log:   log.With("client", "RedisNumberLock"),
		rdb:   rdb,
		cfg:   cfg,
		clock: time.Now,
	}
}

func (l *NumberLock) Client() goredis.UniversalClient {
	if l == nil {
		return nil
	}
	return l.rdb
}

func (l *NumberLock) key(caseType errand.CaseType) string {
	abbr, ok := caseType.Abbreviation()
	if !ok {
		abbr = string(caseType)
	}
	return fmt.Sprintf("%s:errand-number:%s-%d", l.cfg.KeyPrefix, abbr, l.clock().UTC().Year())
}

// LockNumber blocks until the lock for caseType's current sequence is held,
// ctx ends, or the configured wait elapses.
func (l *NumberLock) LockNumber(ctx context.Context, caseType errand.CaseType) (func(), error) {
	if l == nil || l.rdb == nil {
		return func() {}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	key := l.key(caseType)
	token := uuid.NewString()

	waitCtx := ctx
	if l.cfg.Wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.cfg.Wait)
		defer cancel()
	}

	ticker := time.NewTicker(l.cfg.Poll)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(waitCtx, key, token, l.cfg.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("redis set nx %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		case <-ticker.C:
		}
	}

	return func() {
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.Warn("Failed to release errand number lock", "key", key, "error", err)
		}
	}, nil
}

func (l *NumberLock) Ping(ctx context.Context) error {
	if l == nil || l.rdb == nil {
		return fmt.Errorf("redis not configured")
	}
	return l.rdb.Ping(ctx).Err()
}

func (l *NumberLock) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
