package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
)

// Store persists advisory presence records. Implementations must treat
// writes as best-effort: a missing or stale record simply reads offline.
type Store interface {
	Upsert(ctx context.Context, rec models.PresenceRecord) error
	Get(ctx context.Context, userID int) (models.PresenceRecord, error)
	Bulk(ctx context.Context, userIDs []int) (map[int]models.PresenceRecord, error)
	Close() error
}

// RedisStore keeps one JSON record per user with a TTL, so a process that
// dies before writing is_online=false decays to offline on its own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis using a URL and verifies connectivity.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("presence: redis url is empty")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("presence: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("presence: ping: %w", err)
	}
	return &RedisStore{client: c, ttl: ttl}, nil
}

func presenceKey(userID int) string {
	return fmt.Sprintf("presence:%d", userID)
}

// Upsert writes the record with the store TTL.
func (s *RedisStore) Upsert(ctx context.Context, rec models.PresenceRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, presenceKey(rec.UserID), payload, s.ttl).Err()
}

// Get reads one record. A miss reads as offline, not as an error.
func (s *RedisStore) Get(ctx context.Context, userID int) (models.PresenceRecord, error) {
	val, err := s.client.Get(ctx, presenceKey(userID)).Result()
	if err == redis.Nil {
		return models.PresenceRecord{UserID: userID}, nil
	}
	if err != nil {
		return models.PresenceRecord{}, err
	}
	var rec models.PresenceRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return models.PresenceRecord{UserID: userID}, nil
	}
	return rec, nil
}

// Bulk reads many records in one round trip.
func (s *RedisStore) Bulk(ctx context.Context, userIDs []int) (map[int]models.PresenceRecord, error) {
	result := make(map[int]models.PresenceRecord, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, presenceKey(id))
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, raw := range vals {
		rec := models.PresenceRecord{UserID: userIDs[i]}
		if str, ok := raw.(string); ok {
			_ = json.Unmarshal([]byte(str), &rec)
		}
		result[userIDs[i]] = rec
	}
	return result, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
