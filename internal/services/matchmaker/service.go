package matchmaker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/calmspace/minigames/internal/models"
	queueRepo "github.com/calmspace/minigames/internal/repositories/queue"
	sessionRepo "github.com/calmspace/minigames/internal/repositories/session"
)

const (
	defaultWaitingTTL    = 60 * time.Second
	defaultSessionTTL    = time.Hour
	defaultClaimAttempts = 5
)

// service implements the Service interface
type service struct {
	config      *Config
	queueRepo   queueRepo.Repository
	sessionRepo sessionRepo.Repository
}

// New creates a new matchmaker service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.QueueRepo == nil {
		return nil, ErrNilQueueRepo
	}

	if cfg.SessionRepo == nil {
		return nil, ErrNilSessionRepo
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	if cfg.UUID == nil {
		return nil, ErrNilUUIDGenerator
	}

	if cfg.WaitingTTL <= 0 {
		cfg.WaitingTTL = defaultWaitingTTL
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if cfg.ClaimAttempts <= 0 {
		cfg.ClaimAttempts = defaultClaimAttempts
	}

	return &service{
		config:      cfg,
		queueRepo:   cfg.QueueRepo,
		sessionRepo: cfg.SessionRepo,
	}, nil
}

// RequestMatch implements the pairing algorithm. The queue scan is optimistic:
// the chosen entry is consumed with a compare-and-delete, and losing that race
// restarts the scan. A waiting entry therefore seeds at most one session, and
// a player with a live session is returned to it instead of being enqueued.
func (s *service) RequestMatch(ctx context.Context, input *RequestMatchInput) (*RequestMatchOutput, error) {
	if input == nil || input.PlayerID == "" || input.GameType == "" {
		return nil, ErrInvalidInput
	}

	// Idempotent rejoin: a live session wins over everything else
	existing, err := s.sessionRepo.GetSessionByParticipant(ctx, &sessionRepo.GetSessionByParticipantInput{
		PlayerID: input.PlayerID,
	})
	if err == nil && existing.Status != models.SessionStatusFinished {
		return &RequestMatchOutput{
			Matched:      true,
			Session:      existing,
			OpponentName: existing.Opponent(input.PlayerID).PlayerName,
		}, nil
	}
	if err != nil && !errors.Is(err, sessionRepo.ErrSessionNotFound) {
		log.Printf("matchmaker: session lookup for %s failed: %v", input.PlayerID, err)
		return nil, ErrStoreUnavailable
	}

	now := s.config.Clock.Now()
	cutoff := now.Add(-s.config.WaitingTTL)
	alreadyQueued := false

	for attempt := 0; attempt < s.config.ClaimAttempts; attempt++ {
		entries, err := s.queueRepo.List(ctx, &queueRepo.ListInput{
			GameType:      input.GameType,
			EnqueuedAfter: cutoff,
		})
		if err != nil {
			log.Printf("matchmaker: queue scan for %s failed: %v", input.GameType, err)
			return nil, ErrStoreUnavailable
		}

		candidate := s.pickCandidate(ctx, entries, input.PlayerID, &alreadyQueued)
		if candidate == nil {
			break
		}

		claimed, err := s.queueRepo.Claim(ctx, &queueRepo.ClaimInput{Entry: candidate})
		if err != nil {
			log.Printf("matchmaker: claim failed: %v", err)
			return nil, ErrStoreUnavailable
		}
		if !claimed.Claimed {
			// Another matcher consumed the entry first; rescan
			continue
		}

		out, err := s.createSession(ctx, input, candidate, now)
		if errors.Is(err, errClaimRescinded) {
			continue
		}
		return out, err
	}

	// Nobody to pair with: wait in the queue. A duplicate click inside the
	// waiting window keeps the original enqueue time; a rejoin after the
	// window clears the aged entry so the wait starts over.
	if !alreadyQueued {
		err = s.queueRepo.Remove(ctx, &queueRepo.RemoveInput{
			GameType: input.GameType,
			PlayerID: input.PlayerID,
		})
		if err != nil {
			log.Printf("matchmaker: failed to clear stale entry for %s: %v", input.PlayerID, err)
			return nil, ErrStoreUnavailable
		}

		err = s.queueRepo.Enqueue(ctx, &queueRepo.EnqueueInput{
			Entry: &models.WaitingEntry{
				PlayerID:   input.PlayerID,
				PlayerName: input.PlayerName,
				GameType:   input.GameType,
				EnqueuedAt: now,
			},
		})
		if err != nil {
			log.Printf("matchmaker: enqueue for %s failed: %v", input.PlayerID, err)
			return nil, ErrStoreUnavailable
		}
	}

	return &RequestMatchOutput{Matched: false}, nil
}

// pickCandidate returns the oldest entry belonging to someone else who is not
// already in a live session. Stale entries for seated players are dropped on
// the way past.
func (s *service) pickCandidate(ctx context.Context, entries []*models.WaitingEntry, playerID string, alreadyQueued *bool) *models.WaitingEntry {
	for _, entry := range entries {
		if entry.PlayerID == playerID {
			*alreadyQueued = true
			continue
		}

		other, err := s.sessionRepo.GetSessionByParticipant(ctx, &sessionRepo.GetSessionByParticipantInput{
			PlayerID: entry.PlayerID,
		})
		if err == nil && other.Status != models.SessionStatusFinished {
			// Entry outlived a match made elsewhere; remove it instead of
			// pairing the player into a second session
			if _, err := s.queueRepo.Claim(ctx, &queueRepo.ClaimInput{Entry: entry}); err != nil {
				log.Printf("matchmaker: failed to drop stale entry for %s: %v", entry.PlayerID, err)
			}
			continue
		}

		return entry
	}

	return nil
}

func (s *service) createSession(ctx context.Context, input *RequestMatchInput, candidate *models.WaitingEntry, now time.Time) (*RequestMatchOutput, error) {
	sess := &models.GameSession{
		ID:       s.config.UUID.NewUUID(),
		GameType: input.GameType,
		SeatA: models.SeatedPlayer{
			PlayerID:   candidate.PlayerID,
			PlayerName: candidate.PlayerName,
		},
		SeatB: models.SeatedPlayer{
			PlayerID:   input.PlayerID,
			PlayerName: input.PlayerName,
		},
		CurrentTurn: candidate.PlayerID,
		Status:      models.SessionStatusActive,
		Version:     1,
		CreatedAt:   now,
		LastMoveAt:  now,
	}

	err := s.sessionRepo.CreateSession(ctx, &sessionRepo.CreateSessionInput{
		Session: sess,
		TTL:     s.config.SessionTTL,
	})
	if errors.Is(err, sessionRepo.ErrParticipantLinked) {
		return s.resolveSeatConflict(ctx, input, candidate)
	}
	if err != nil {
		log.Printf("matchmaker: failed to create session for %s vs %s: %v",
			candidate.PlayerID, input.PlayerID, err)
		return nil, ErrStoreUnavailable
	}

	// The requester may have queued on an earlier click; that entry must not
	// outlive the session
	err = s.queueRepo.Remove(ctx, &queueRepo.RemoveInput{
		GameType: input.GameType,
		PlayerID: input.PlayerID,
	})
	if err != nil {
		log.Printf("matchmaker: failed to remove requester entry for %s: %v", input.PlayerID, err)
	}

	return &RequestMatchOutput{
		Matched:      true,
		Session:      sess,
		OpponentName: candidate.PlayerName,
	}, nil
}

// errClaimRescinded signals that a claimed entry turned out to belong to a
// freshly seated player; the caller rescans for another candidate
var errClaimRescinded = errors.New("claimed entry rescinded")

// resolveSeatConflict untangles a refused create: the store found one of the
// two would-be seats already linked to a live session. When it is the
// requester — two near-simultaneous joins, the other one won — the claimed
// entry goes back with its original enqueue time and the existing session is
// returned. Otherwise the candidate got seated elsewhere between the scan and
// the claim, and the pairing restarts without them.
func (s *service) resolveSeatConflict(ctx context.Context, input *RequestMatchInput, candidate *models.WaitingEntry) (*RequestMatchOutput, error) {
	existing, err := s.sessionRepo.GetSessionByParticipant(ctx, &sessionRepo.GetSessionByParticipantInput{
		PlayerID: input.PlayerID,
	})
	if err != nil && !errors.Is(err, sessionRepo.ErrSessionNotFound) {
		s.requeue(ctx, candidate)
		log.Printf("matchmaker: session lookup for %s failed: %v", input.PlayerID, err)
		return nil, ErrStoreUnavailable
	}

	if err == nil && existing.Status != models.SessionStatusFinished {
		s.requeue(ctx, candidate)
		return &RequestMatchOutput{
			Matched:      true,
			Session:      existing,
			OpponentName: existing.Opponent(input.PlayerID).PlayerName,
		}, nil
	}

	return nil, errClaimRescinded
}

func (s *service) requeue(ctx context.Context, candidate *models.WaitingEntry) {
	err := s.queueRepo.Enqueue(ctx, &queueRepo.EnqueueInput{Entry: candidate})
	if err != nil {
		log.Printf("matchmaker: failed to restore entry for %s: %v", candidate.PlayerID, err)
	}
}

// LeaveQueue removes the player's waiting entry
func (s *service) LeaveQueue(ctx context.Context, input *LeaveQueueInput) (*LeaveQueueOutput, error) {
	if input == nil || input.PlayerID == "" || input.GameType == "" {
		return nil, ErrInvalidInput
	}

	err := s.queueRepo.Remove(ctx, &queueRepo.RemoveInput{
		GameType: input.GameType,
		PlayerID: input.PlayerID,
	})
	if err != nil {
		log.Printf("matchmaker: leave queue for %s failed: %v", input.PlayerID, err)
		return nil, ErrStoreUnavailable
	}

	return &LeaveQueueOutput{Success: true}, nil
}
