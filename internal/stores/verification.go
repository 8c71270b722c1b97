package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	verificationRecordVersionV1 = "1"
)

var (
	ErrVerificationNotFound         = errors.New("verification record not found")
	ErrVerificationExpired          = errors.New("verification record expired")
	ErrVerificationMismatch         = errors.New("verification code mismatch")
	ErrVerificationRedisUnavailable = errors.New("verification redis unavailable")
)

// issueVerificationLua replaces the record for an email in one step.
// KEYS[1] = record key
// ARGV[1] = record version
// ARGV[2] = code digest
// ARGV[3] = logical expiry (unix ms)
// ARGV[4] = physical expiry (unix ms)
var issueVerificationLua = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'h', ARGV[2], 'exp', ARGV[3], 'ok', '0')
redis.call('PEXPIREAT', KEYS[1], ARGV[4])
return 1
`)

// checkVerificationLua compares a digest and marks the record verified.
// KEYS[1] = record key
// ARGV[1] = submitted code digest
// ARGV[2] = current unix ms
//
// Returns one of "verified", "mismatch", "expired", "not_found".
var checkVerificationLua = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'v', 'h', 'exp')
if not rec[1] then
  return 'not_found'
end
if rec[1] ~= '1' then
  redis.call('DEL', KEYS[1])
  return 'not_found'
end

local expiresAt = tonumber(rec[3])
if expiresAt == nil or tonumber(ARGV[2]) > expiresAt then
  redis.call('DEL', KEYS[1])
  return 'expired'
end

if rec[2] ~= ARGV[1] then
  return 'mismatch'
end

redis.call('HSET', KEYS[1], 'ok', '1')
return 'verified'
`)

// consumeVerificationLua claims a verified, live record for one registration.
// KEYS[1] = record key
// ARGV[1] = code digest that must match, or empty to skip the comparison
// ARGV[2] = current unix ms
//
// Returns 1 when claimed, 2 when another caller already holds the claim, 0 otherwise.
var consumeVerificationLua = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'v', 'h', 'exp', 'ok', 'c')
if not rec[1] then
  return 0
end

local expiresAt = tonumber(rec[3])
if rec[1] ~= '1' or expiresAt == nil or tonumber(ARGV[2]) > expiresAt then
  redis.call('DEL', KEYS[1])
  return 0
end

if rec[4] ~= '1' then
  return 0
end
if ARGV[1] ~= '' and rec[2] ~= ARGV[1] then
  return 0
end
if rec[5] == '1' then
  return 2
end

redis.call('HSET', KEYS[1], 'c', '1')
return 1
`)

// ConsumeResult is the outcome of ConsumeIfVerified.
type ConsumeResult int

const (
	// ConsumeNotVerified means no live, verified record matched.
	ConsumeNotVerified ConsumeResult = iota
	// ConsumeClaimed means this caller now holds the record.
	ConsumeClaimed
	// ConsumeAlreadyClaimed means a concurrent registration holds the record.
	ConsumeAlreadyClaimed
)

// VerificationStore keeps one verification record per email in a Redis hash.
// The key carries a native expiry so records disappear without any sweeper.
type VerificationStore struct {
	redis  redis.UniversalClient
	prefix string
	grace  time.Duration
}

func NewVerificationStore(redisClient redis.UniversalClient, prefix string, grace time.Duration) *VerificationStore {
	if prefix == "" {
		prefix = "sgv"
	}
	if grace < 0 {
		grace = 0
	}
	return &VerificationStore{
		redis:  redisClient,
		prefix: prefix,
		grace:  grace,
	}
}

func (s *VerificationStore) key(email string) string {
	return s.prefix + ":" + email
}

// Issue upserts the record for email with verified reset to false.
func (s *VerificationStore) Issue(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	expiresMs := expiresAt.UnixMilli()
	physicalMs := expiresAt.Add(s.grace).UnixMilli()

	err := issueVerificationLua.Run(ctx, s.redis,
		[]string{s.key(email)},
		verificationRecordVersionV1,
		codeHash,
		expiresMs,
		physicalMs,
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationRedisUnavailable, err)
	}
	return nil
}

// Check compares codeHash with the stored digest at time now. A nil error
// means the record is now marked verified.
func (s *VerificationStore) Check(ctx context.Context, email, codeHash string, now time.Time) error {
	status, err := checkVerificationLua.Run(ctx, s.redis,
		[]string{s.key(email)},
		codeHash,
		now.UnixMilli(),
	).Text()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationRedisUnavailable, err)
	}

	switch status {
	case "verified":
		return nil
	case "mismatch":
		return ErrVerificationMismatch
	case "expired":
		return ErrVerificationExpired
	case "not_found":
		return ErrVerificationNotFound
	default:
		return fmt.Errorf("%w: unexpected lua result %q", ErrVerificationRedisUnavailable, status)
	}
}

// ConsumeIfVerified claims a record that is verified and live at time now.
// An empty codeHash skips the digest comparison. A claimed record is settled
// with Delete once the account exists, or handed back with Release.
func (s *VerificationStore) ConsumeIfVerified(ctx context.Context, email, codeHash string, now time.Time) (ConsumeResult, error) {
	n, err := consumeVerificationLua.Run(ctx, s.redis,
		[]string{s.key(email)},
		codeHash,
		now.UnixMilli(),
	).Int()
	if err != nil {
		return ConsumeNotVerified, fmt.Errorf("%w: %v", ErrVerificationRedisUnavailable, err)
	}
	switch n {
	case 1:
		return ConsumeClaimed, nil
	case 2:
		return ConsumeAlreadyClaimed, nil
	default:
		return ConsumeNotVerified, nil
	}
}

// Release drops a claim so the verified record can be consumed again.
func (s *VerificationStore) Release(ctx context.Context, email string) error {
	if err := s.redis.HDel(ctx, s.key(email), "c").Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationRedisUnavailable, err)
	}
	return nil
}

// Delete removes the record for email. Deleting a missing record is not an error.
func (s *VerificationStore) Delete(ctx context.Context, email string) error {
	if err := s.redis.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationRedisUnavailable, err)
	}
	return nil
}

// Ping checks that Redis answers.
func (s *VerificationStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationRedisUnavailable, err)
	}
	return nil
}
