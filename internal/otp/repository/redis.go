package repository

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"portfolio-cms/backend/internal/otp/domain"
)

// keyGrace keeps a challenge in Redis past its expiry so verification can still report Expired
// instead of NotFound for a short while.
const keyGrace = 10 * time.Minute

const maxTxRetries = 4

const (
	fieldCodeHash       = "code_hash"
	fieldExpiresAt      = "expires_at"
	fieldAttempts       = "attempts"
	fieldCreatedAt      = "created_at"
	fieldResetTokenHash = "reset_token_hash"
	fieldTokenExpiresAt = "token_expires_at"
)

// RedisRepository stores each challenge as a hash under <prefix>:<purpose>:<mobile>.
type RedisRepository struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisRepository returns a Redis-backed challenge store. An empty prefix defaults to "otp".
func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "otp"
	}
	return &RedisRepository{redis: client, prefix: prefix}
}

func (r *RedisRepository) key(purpose domain.Purpose, mobile string) string {
	return r.prefix + ":" + string(purpose) + ":" + mobile
}

func (r *RedisRepository) Save(ctx context.Context, c *domain.Challenge) error {
	key := r.key(c.Purpose, c.Mobile)
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldCodeHash, c.CodeHash,
			fieldExpiresAt, c.ExpiresAt.UnixMilli(),
			fieldAttempts, c.Attempts,
			fieldCreatedAt, c.CreatedAt.UnixMilli(),
		)
		pipe.PExpireAt(ctx, key, c.ExpiresAt.Add(keyGrace))
		return nil
	})
	return err
}

func (r *RedisRepository) Get(ctx context.Context, purpose domain.Purpose, mobile string) (*domain.Challenge, error) {
	fields, err := r.redis.HGetAll(ctx, r.key(purpose, mobile)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	c, err := decodeChallenge(fields)
	if err != nil {
		return nil, err
	}
	c.Purpose = purpose
	c.Mobile = mobile
	return c, nil
}

// attemptScript evaluates and counts a guess in one server-side step. Return values match
// domain.Outcome.
var attemptScript = redis.NewScript(`
local f = redis.call('HMGET', KEYS[1], 'code_hash', 'expires_at', 'attempts')
if not f[1] then
  return 1
end
if tonumber(ARGV[2]) > tonumber(f[2]) then
  return 2
end
if tonumber(f[3]) >= tonumber(ARGV[3]) then
  return 3
end
if f[1] ~= ARGV[1] then
  redis.call('HINCRBY', KEYS[1], 'attempts', 1)
  return 4
end
return 0
`)

func (r *RedisRepository) Attempt(ctx context.Context, purpose domain.Purpose, mobile, codeHash string, now time.Time) (domain.Outcome, error) {
	n, err := attemptScript.Run(ctx, r.redis, []string{r.key(purpose, mobile)},
		codeHash, now.UnixMilli(), domain.MaxAttempts,
	).Int()
	if err != nil {
		return domain.NotFound, err
	}
	out := domain.Outcome(n)
	if out < domain.Accepted || out > domain.Mismatch {
		return domain.NotFound, fmt.Errorf("otp: unexpected attempt result %d", n)
	}
	return out, nil
}

func (r *RedisRepository) SetResetToken(ctx context.Context, purpose domain.Purpose, mobile, tokenHash string, expiresAt time.Time) error {
	key := r.key(purpose, mobile)
	return r.watch(ctx, key, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrChallengeNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldResetTokenHash, tokenHash,
				fieldTokenExpiresAt, expiresAt.UnixMilli(),
			)
			pipe.PExpireAt(ctx, key, expiresAt.Add(keyGrace))
			return nil
		})
		return err
	})
}

func (r *RedisRepository) ConsumeResetToken(ctx context.Context, purpose domain.Purpose, mobile, tokenHash string, now time.Time) (bool, error) {
	key := r.key(purpose, mobile)
	consumed := false
	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, key, fieldResetTokenHash, fieldTokenExpiresAt).Result()
		if err != nil {
			return err
		}
		stored, _ := vals[0].(string)
		until, _ := vals[1].(string)
		if stored == "" || until == "" {
			return nil
		}
		ms, err := strconv.ParseInt(until, 10, 64)
		if err != nil {
			return fmt.Errorf("otp: decode %s: %w", fieldTokenExpiresAt, err)
		}
		if now.After(time.UnixMilli(ms)) {
			return nil
		}
		if subtle.ConstantTimeCompare([]byte(stored), []byte(tokenHash)) != 1 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		consumed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return consumed, nil
}

func (r *RedisRepository) Delete(ctx context.Context, purpose domain.Purpose, mobile string) error {
	return r.redis.Del(ctx, r.key(purpose, mobile)).Err()
}

// watch runs fn under WATCH key, retrying when a concurrent writer aborts the transaction.
func (r *RedisRepository) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := r.redis.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}

func decodeChallenge(fields map[string]string) (*domain.Challenge, error) {
	c := &domain.Challenge{
		CodeHash:       fields[fieldCodeHash],
		ResetTokenHash: fields[fieldResetTokenHash],
	}
	var err error
	if c.ExpiresAt, err = parseMillis(fields, fieldExpiresAt); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseMillis(fields, fieldCreatedAt); err != nil {
		return nil, err
	}
	if v, ok := fields[fieldTokenExpiresAt]; ok && v != "" {
		if c.TokenExpiresAt, err = parseMillis(fields, fieldTokenExpiresAt); err != nil {
			return nil, err
		}
	}
	if c.Attempts, err = strconv.Atoi(fields[fieldAttempts]); err != nil {
		return nil, fmt.Errorf("otp: decode %s: %w", fieldAttempts, err)
	}
	return c, nil
}

func parseMillis(fields map[string]string, name string) (time.Time, error) {
	ms, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("otp: decode %s: %w", name, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
