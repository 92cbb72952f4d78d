package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Actions limited per owner.
const (
	ActionUploads       = "uploads"
	ActionNotifications = "notifications"
)

// takeScript refills the bucket for the elapsed time and consumes one token.
// It returns 1 when a token was taken, 0 otherwise.
var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return allowed
`)

// peekScript returns the token count without consuming one.
var peekScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
	end
	return tokens
`)

// TokenBucket is a per-owner, per-action token bucket kept in Redis.
type TokenBucket struct {
	redis    *redis.Client
	capacity int64
	refill   int64 // tokens added per window
	window   time.Duration
	now      func() time.Time
}

// NewTokenBucket creates a bucket holding capacity tokens that refills
// refillRate tokens per minute.
func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
		now:      time.Now,
	}
}

// Capacity is the burst size of the bucket.
func (tb *TokenBucket) Capacity() int64 {
	return tb.capacity
}

// Window is the refill period.
func (tb *TokenBucket) Window() time.Duration {
	return tb.window
}

// Allow consumes a token for ownerID's action and reports whether one was left.
func (tb *TokenBucket) Allow(ctx context.Context, ownerID, action string) (bool, error) {
	res, err := takeScript.Run(ctx, tb.redis, []string{key(ownerID, action)}, tb.args()...).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return res == 1, nil
}

// GetRemaining returns the tokens left for ownerID's action.
func (tb *TokenBucket) GetRemaining(ctx context.Context, ownerID, action string) (int64, error) {
	res, err := peekScript.Run(ctx, tb.redis, []string{key(ownerID, action)}, tb.args()...).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}
	return res, nil
}

// Reset clears the bucket for ownerID's action.
func (tb *TokenBucket) Reset(ctx context.Context, ownerID, action string) error {
	return tb.redis.Del(ctx, key(ownerID, action)).Err()
}

func (tb *TokenBucket) args() []interface{} {
	return []interface{}{tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.now().Unix()}
}

func key(ownerID, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", ownerID, action)
}
