package session

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
	// Key prefixes for Redis
	sessionKeyPrefix  = "gamesession:"
	linkKeyPrefix     = "playersession:"
	activeSessionsKey = "active_sessions"
)

// ErrSessionNotFound is returned when a session is not found
var ErrSessionNotFound = errors.New("session not found")

// ErrVersionConflict is returned when a conditional save lost to a concurrent
// writer; callers re-read and re-validate
var ErrVersionConflict = errors.New("session version conflict")

// ErrParticipantLinked is returned when a seat's participant already holds a
// link to a live session; the would-be session was not written
var ErrParticipantLinked = errors.New("participant already linked to a live session")

// createScript writes the session record, both participant links and the
// active index entry only while neither participant is linked to a live
// session. A link pointing at a finished or expired record does not block.
// 0: a participant is already seated, 1: written.
var createScript = redis.NewScript(`
local function seated(link)
  local sid = redis.call("GET", link)
  if not sid then
    return false
  end
  local raw = redis.call("GET", ARGV[4] .. sid)
  if not raw then
    return false
  end
  return cjson.decode(raw)["Status"] ~= ARGV[5]
end
if seated(KEYS[2]) or seated(KEYS[3]) then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "EX", ARGV[2])
redis.call("SET", KEYS[2], ARGV[3], "EX", ARGV[2])
redis.call("SET", KEYS[3], ARGV[3], "EX", ARGV[2])
if ARGV[6] == "1" then
  redis.call("SADD", KEYS[4], ARGV[3])
end
return 1
`)

// casScript replaces the session record only while the stored Version still
// matches. -1: record gone, 0: version moved, 1: written.
var casScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then
  return -1
end
local rec = cjson.decode(cur)
if tostring(rec["Version"]) ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "EX", ARGV[3])
return 1
`)

// unlinkScript deletes a participant link only while it still points at the
// given session, so retiring an old session never drops a link that was
// since redirected to a newer one.
var unlinkScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  redis.call("DEL", KEYS[1])
  return 1
end
return 0
`)

// Config holds configuration for the Redis session repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed session repository
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

func sessionKey(sessionID string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, sessionID)
}

func linkKey(playerID string) string {
	return fmt.Sprintf("%s%s", linkKeyPrefix, playerID)
}

func ttlSeconds(ttl time.Duration) int64 {
	secs := int64(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// CreateSession persists a session, both participant links and the active
// index entry in one atomic step. It refuses to seat a participant who is
// already linked to a live session, so concurrent creates for the same player
// cannot each succeed.
func (r *redisRepository) CreateSession(ctx context.Context, input *CreateSessionInput) error {
	if input == nil || input.Session == nil {
		return errors.New("input and session cannot be nil")
	}

	sessionJSON, err := json.Marshal(input.Session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	active := "0"
	if input.Session.Status == models.SessionStatusActive {
		active = "1"
	}

	res, err := createScript.Run(ctx, r.client,
		[]string{
			sessionKey(input.Session.ID),
			linkKey(input.Session.SeatA.PlayerID),
			linkKey(input.Session.SeatB.PlayerID),
			activeSessionsKey,
		},
		string(sessionJSON),
		ttlSeconds(input.TTL),
		input.Session.ID,
		sessionKeyPrefix,
		string(models.SessionStatusFinished),
		active,
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if res == 0 {
		return ErrParticipantLinked
	}

	return nil
}

// GetSession retrieves a session by ID from Redis
func (r *redisRepository) GetSession(ctx context.Context, input *GetSessionInput) (*models.GameSession, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	sessionJSON, err := r.client.Get(ctx, sessionKey(input.SessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess models.GameSession
	if err := json.Unmarshal([]byte(sessionJSON), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &sess, nil
}

// GetSessionByParticipant resolves the player's link and fetches the session
func (r *redisRepository) GetSessionByParticipant(ctx context.Context, input *GetSessionByParticipantInput) (*models.GameSession, error) {
	if input == nil || input.PlayerID == "" {
		return nil, errors.New("input and player ID cannot be empty")
	}

	sessionID, err := r.client.Get(ctx, linkKey(input.PlayerID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session link: %w", err)
	}

	sess, err := r.GetSession(ctx, &GetSessionInput{SessionID: sessionID})
	if errors.Is(err, ErrSessionNotFound) {
		// The session expired under the link; drop the dangling link
		unlinkScript.Run(ctx, r.client, []string{linkKey(input.PlayerID)}, sessionID)
		return nil, ErrSessionNotFound
	}

	return sess, err
}

// CompareAndSaveSession writes the session through the version-checked script
func (r *redisRepository) CompareAndSaveSession(ctx context.Context, input *CompareAndSaveSessionInput) error {
	if input == nil || input.Session == nil {
		return errors.New("input and session cannot be nil")
	}

	sessionJSON, err := json.Marshal(input.Session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	res, err := casScript.Run(ctx, r.client,
		[]string{sessionKey(input.Session.ID)},
		input.ExpectedVersion, string(sessionJSON), ttlSeconds(input.TTL),
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	switch res {
	case -1:
		return ErrSessionNotFound
	case 0:
		return ErrVersionConflict
	}

	if input.Session.Status == models.SessionStatusFinished {
		// Finished sessions leave the active index; links shrink to the same
		// post-game grace window as the record
		pipe := r.client.TxPipeline()
		pipe.SRem(ctx, activeSessionsKey, input.Session.ID)
		pipe.Expire(ctx, linkKey(input.Session.SeatA.PlayerID), input.TTL)
		pipe.Expire(ctx, linkKey(input.Session.SeatB.PlayerID), input.TTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to retire finished session: %w", err)
		}
	}

	return nil
}

// DeleteSession removes a session, both links and the index entry
func (r *redisRepository) DeleteSession(ctx context.Context, input *DeleteSessionInput) error {
	if input == nil || input.SessionID == "" {
		return errors.New("input and session ID cannot be empty")
	}

	sess, err := r.GetSession(ctx, &GetSessionInput{SessionID: input.SessionID})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}

	// A record that already expired still needs its index entry dropped
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(input.SessionID))
	pipe.SRem(ctx, activeSessionsKey, input.SessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if sess != nil {
		for _, playerID := range []string{sess.SeatA.PlayerID, sess.SeatB.PlayerID} {
			err := unlinkScript.Run(ctx, r.client, []string{linkKey(playerID)}, input.SessionID).Err()
			if err != nil && err != redis.Nil {
				return fmt.Errorf("failed to unlink participant: %w", err)
			}
		}
	}

	return nil
}

// UnlinkParticipant removes a player's session link. With a SessionID the
// delete only happens while the link still points at that session.
func (r *redisRepository) UnlinkParticipant(ctx context.Context, input *UnlinkParticipantInput) error {
	if input == nil || input.PlayerID == "" {
		return errors.New("input and player ID cannot be empty")
	}

	if input.SessionID != "" {
		err := unlinkScript.Run(ctx, r.client, []string{linkKey(input.PlayerID)}, input.SessionID).Err()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("failed to unlink participant: %w", err)
		}
		return nil
	}

	if err := r.client.Del(ctx, linkKey(input.PlayerID)).Err(); err != nil {
		return fmt.Errorf("failed to unlink participant: %w", err)
	}

	return nil
}

// ListActiveSessionIDs returns all session ids in the active index
func (r *redisRepository) ListActiveSessionIDs(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, activeSessionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	return ids, nil
}
