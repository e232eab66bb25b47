package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calmspace/minigames/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefix for the per-game-type waiting queues
	queueKeyPrefix = "matchqueue:"
)

// Config holds configuration for the Redis queue repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// entryMember is the sorted-set member payload. The enqueue time lives in the
// score, so the member bytes stay deterministic and ZREM can act as a
// compare-and-delete.
type entryMember struct {
	PlayerID   string
	PlayerName string
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed queue repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

func queueKey(gameType models.GameType) string {
	return fmt.Sprintf("%s%s", queueKeyPrefix, gameType)
}

func memberFor(entry *models.WaitingEntry) (string, error) {
	raw, err := json.Marshal(entryMember{
		PlayerID:   entry.PlayerID,
		PlayerName: entry.PlayerName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal queue member: %w", err)
	}
	return string(raw), nil
}

// Enqueue adds a waiting entry to its game type's queue
func (r *redisRepository) Enqueue(ctx context.Context, input *EnqueueInput) error {
	if input == nil || input.Entry == nil {
		return errors.New("input and entry cannot be nil")
	}

	member, err := memberFor(input.Entry)
	if err != nil {
		return err
	}

	// NX keeps the original enqueue time when the same member is added twice
	err = r.client.ZAddNX(ctx, queueKey(input.Entry.GameType), redis.Z{
		Score:  float64(input.Entry.EnqueuedAt.UnixMilli()),
		Member: member,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue waiting entry: %w", err)
	}

	return nil
}

// List returns the queue for a game type in enqueue order
func (r *redisRepository) List(ctx context.Context, input *ListInput) ([]*models.WaitingEntry, error) {
	if input == nil || input.GameType == "" {
		return nil, errors.New("input and game type cannot be empty")
	}

	minScore := "-inf"
	if !input.EnqueuedAfter.IsZero() {
		minScore = fmt.Sprintf("%d", input.EnqueuedAfter.UnixMilli())
	}

	zs, err := r.client.ZRangeByScoreWithScores(ctx, queueKey(input.GameType), &redis.ZRangeBy{
		Min: minScore,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting entries: %w", err)
	}

	entries := make([]*models.WaitingEntry, 0, len(zs))
	for _, z := range zs {
		raw, ok := z.Member.(string)
		if !ok {
			continue
		}

		var m entryMember
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal queue member: %w", err)
		}

		entries = append(entries, &models.WaitingEntry{
			PlayerID:   m.PlayerID,
			PlayerName: m.PlayerName,
			GameType:   input.GameType,
			EnqueuedAt: time.UnixMilli(int64(z.Score)),
		})
	}

	return entries, nil
}

// Claim removes an entry from the queue. ZREM reports how many members it
// removed, which makes it the compare-and-delete: of any number of concurrent
// claimers exactly one sees Claimed=true.
func (r *redisRepository) Claim(ctx context.Context, input *ClaimInput) (*ClaimOutput, error) {
	if input == nil || input.Entry == nil {
		return nil, errors.New("input and entry cannot be nil")
	}

	member, err := memberFor(input.Entry)
	if err != nil {
		return nil, err
	}

	removed, err := r.client.ZRem(ctx, queueKey(input.Entry.GameType), member).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim waiting entry: %w", err)
	}

	return &ClaimOutput{Claimed: removed == 1}, nil
}

// Remove deletes every entry the player has in the game type's queue
func (r *redisRepository) Remove(ctx context.Context, input *RemoveInput) error {
	if input == nil || input.GameType == "" || input.PlayerID == "" {
		return errors.New("input, game type and player ID cannot be empty")
	}

	key := queueKey(input.GameType)
	members, err := r.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to scan queue: %w", err)
	}

	for _, raw := range members {
		var m entryMember
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			continue
		}
		if m.PlayerID != input.PlayerID {
			continue
		}
		if err := r.client.ZRem(ctx, key, raw).Err(); err != nil {
			return fmt.Errorf("failed to remove waiting entry: %w", err)
		}
	}

	return nil
}

// RemoveExpired deletes entries enqueued before the cutoff
func (r *redisRepository) RemoveExpired(ctx context.Context, input *RemoveExpiredInput) (int64, error) {
	if input == nil || input.GameType == "" {
		return 0, errors.New("input and game type cannot be empty")
	}

	maxScore := fmt.Sprintf("(%d", input.EnqueuedBefore.UnixMilli())
	removed, err := r.client.ZRemRangeByScore(ctx, queueKey(input.GameType), "-inf", maxScore).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to remove expired entries: %w", err)
	}

	return removed, nil
}
