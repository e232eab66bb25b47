package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/calmspace/minigames/internal/common/clock"
	"github.com/calmspace/minigames/internal/models"
	queueRepo "github.com/calmspace/minigames/internal/repositories/queue"
	sessionRepo "github.com/calmspace/minigames/internal/repositories/session"
	"github.com/calmspace/minigames/internal/services/play"
	"github.com/go-co-op/gocron/v2"
)

// Reaper is the best-effort cleanup job: it prunes expired waiting entries
// and forfeits active sessions whose current player has gone silent. Missing
// a pass only delays cleanup; expired entries are also filtered out of every
// queue scan, so a stale entry is never matched.
type Reaper struct {
	config    *Config
	scheduler gocron.Scheduler
}

// Config holds everything the reaper needs
type Config struct {
	QueueRepo   queueRepo.Repository
	SessionRepo sessionRepo.Repository
	PlayService play.Service
	Clock       clock.Clock

	// WaitingTTL matches the matchmaker's queue entry lifetime
	WaitingTTL time.Duration

	// Interval between passes
	Interval time.Duration
}

// NewReaper creates a reaper; call Start to begin sweeping
func NewReaper(cfg *Config) (*Reaper, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.QueueRepo == nil || cfg.SessionRepo == nil || cfg.PlayService == nil || cfg.Clock == nil {
		return nil, errors.New("queue repo, session repo, play service and clock are required")
	}

	if cfg.WaitingTTL <= 0 {
		cfg.WaitingTTL = 60 * time.Second
	}

	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}

	return &Reaper{config: cfg}, nil
}

// Start schedules the periodic sweep
func (r *Reaper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(r.config.Interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			r.Sweep(ctx)
		}),
	)
	if err != nil {
		return err
	}

	r.scheduler = sched
	sched.Start()
	return nil
}

// Stop shuts the scheduler down
func (r *Reaper) Stop() error {
	if r.scheduler == nil {
		return nil
	}
	return r.scheduler.Shutdown()
}

// Sweep runs one cleanup pass
func (r *Reaper) Sweep(ctx context.Context) {
	now := r.config.Clock.Now()

	for _, gameType := range models.AllGameTypes {
		removed, err := r.config.QueueRepo.RemoveExpired(ctx, &queueRepo.RemoveExpiredInput{
			GameType:       gameType,
			EnqueuedBefore: now.Add(-r.config.WaitingTTL),
		})
		if err != nil {
			log.Printf("reaper: failed to prune %s queue: %v", gameType, err)
			continue
		}
		if removed > 0 {
			log.Printf("reaper: pruned %d expired %s entries", removed, gameType)
		}
	}

	ids, err := r.config.SessionRepo.ListActiveSessionIDs(ctx)
	if err != nil {
		log.Printf("reaper: failed to list active sessions: %v", err)
		return
	}

	for _, id := range ids {
		// GetSession applies the turn-timeout forfeit; a session that expired
		// from the store just falls out of the index here
		_, err := r.config.PlayService.GetSession(ctx, &play.GetSessionInput{SessionID: id})
		if errors.Is(err, play.ErrSessionNotFound) {
			if delErr := r.config.SessionRepo.DeleteSession(ctx, &sessionRepo.DeleteSessionInput{SessionID: id}); delErr != nil &&
				!errors.Is(delErr, sessionRepo.ErrSessionNotFound) {
				log.Printf("reaper: failed to drop session %s from index: %v", id, delErr)
			}
			continue
		}
		if err != nil {
			log.Printf("reaper: failed to check session %s: %v", id, err)
		}
	}
}
