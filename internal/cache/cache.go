package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/screencast-service/internal/storage"
	"github.com/princekumarofficial/screencast-service/internal/types"
	"github.com/princekumarofficial/screencast-service/internal/types/users"
)

// CacheService wraps storage with Redis caching
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
}

var _ storage.Storage = (*CacheService)(nil)

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	ClipKey        = "clip:%s"       // clip:clipID
	ShortLinkKey   = "clip:short:%s" // clip:short:shortID
	OwnerClipsKey  = "clip:owner:%s" // clip:owner:userID
	ClipKeyPattern = "clip:*"
)

// Cache durations
const (
	ClipCacheDuration       = 10 * time.Minute
	OwnerClipsCacheDuration = 45 * time.Second // dashboard list
)

func (c *CacheService) getJSON(ctx context.Context, key string, dst interface{}) bool {
	cached, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(cached), dst) == nil
}

func (c *CacheService) setJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.redis.Set(ctx, key, data, ttl)
}

// CacheClip stores a clip under both its id and short id.
func (c *CacheService) CacheClip(ctx context.Context, clip types.Clip) {
	c.setJSON(ctx, fmt.Sprintf(ClipKey, clip.ID), clip, ClipCacheDuration)
	if clip.ShortID != "" {
		c.setJSON(ctx, fmt.Sprintf(ShortLinkKey, clip.ShortID), clip, ClipCacheDuration)
	}
}

// InvalidateClip clears every cached view of clip.
func (c *CacheService) InvalidateClip(ctx context.Context, clip types.Clip) {
	keys := []string{
		fmt.Sprintf(ClipKey, clip.ID),
		fmt.Sprintf(OwnerClipsKey, clip.OwnerID),
	}
	if clip.ShortID != "" {
		keys = append(keys, fmt.Sprintf(ShortLinkKey, clip.ShortID))
	}
	c.redis.Del(ctx, keys...)
}

func (c *CacheService) CreateUser(ctx context.Context, email, password string) (string, error) {
	return c.storage.CreateUser(ctx, email, password)
}

func (c *CacheService) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	return c.storage.GetUserByEmail(ctx, email)
}

func (c *CacheService) CreateClip(ctx context.Context, clip types.NewClip) (types.Clip, error) {
	created, err := c.storage.CreateClip(ctx, clip)
	if err != nil {
		return created, err
	}

	c.redis.Del(ctx, fmt.Sprintf(OwnerClipsKey, created.OwnerID))
	c.CacheClip(ctx, created)
	return created, nil
}

// GetClip returns the cached clip or fetches it from the store
func (c *CacheService) GetClip(ctx context.Context, id string) (types.Clip, error) {
	var clip types.Clip
	if c.getJSON(ctx, fmt.Sprintf(ClipKey, id), &clip) {
		return clip, nil
	}

	clip, err := c.storage.GetClip(ctx, id)
	if err != nil {
		return clip, err
	}
	c.CacheClip(ctx, clip)
	return clip, nil
}

func (c *CacheService) GetClipByShortID(ctx context.Context, shortID string) (types.Clip, error) {
	var clip types.Clip
	if c.getJSON(ctx, fmt.Sprintf(ShortLinkKey, shortID), &clip) {
		return clip, nil
	}

	clip, err := c.storage.GetClipByShortID(ctx, shortID)
	if err != nil {
		return clip, err
	}
	c.CacheClip(ctx, clip)
	return clip, nil
}

func (c *CacheService) ListClipsByOwner(ctx context.Context, ownerID string) ([]types.Clip, error) {
	key := fmt.Sprintf(OwnerClipsKey, ownerID)

	var clips []types.Clip
	if c.getJSON(ctx, key, &clips) {
		return clips, nil
	}

	clips, err := c.storage.ListClipsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, clips, OwnerClipsCacheDuration)
	return clips, nil
}

// UpdateClip always goes to the store; the status guard lives there.
func (c *CacheService) UpdateClip(ctx context.Context, id string, patch types.ClipPatch) (types.Clip, error) {
	updated, err := c.storage.UpdateClip(ctx, id, patch)
	if err != nil {
		c.redis.Del(ctx, fmt.Sprintf(ClipKey, id))
		return updated, err
	}

	c.InvalidateClip(ctx, updated)
	c.CacheClip(ctx, updated)
	return updated, nil
}

// DeleteClip reads the row before deleting it so the short link and owner
// list entries can be evicted even when the clip itself was not cached.
func (c *CacheService) DeleteClip(ctx context.Context, id string) error {
	var clip types.Clip
	if !c.getJSON(ctx, fmt.Sprintf(ClipKey, id), &clip) {
		stored, err := c.storage.GetClip(ctx, id)
		if err != nil {
			return err
		}
		clip = stored
	}

	if err := c.storage.DeleteClip(ctx, id); err != nil {
		return err
	}
	c.InvalidateClip(ctx, clip)
	return nil
}

func (c *CacheService) TrackOrphan(ctx context.Context, objectKey, reason string) error {
	return c.storage.TrackOrphan(ctx, objectKey, reason)
}

func (c *CacheService) ListOrphans(ctx context.Context, limit int) ([]types.Orphan, error) {
	return c.storage.ListOrphans(ctx, limit)
}

func (c *CacheService) MarkOrphanAttempt(ctx context.Context, objectKey string) error {
	return c.storage.MarkOrphanAttempt(ctx, objectKey)
}

func (c *CacheService) ResolveOrphan(ctx context.Context, objectKey string) error {
	return c.storage.ResolveOrphan(ctx, objectKey)
}
