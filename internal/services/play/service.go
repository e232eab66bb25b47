package play

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/calmspace/minigames/internal/models"
	sessionRepo "github.com/calmspace/minigames/internal/repositories/session"
)

const (
	defaultSessionTTL   = time.Hour
	defaultFinishedTTL  = 5 * time.Minute
	defaultTurnTimeout  = 2 * time.Minute
	defaultSaveAttempts = 3
)

// service implements the Service interface
type service struct {
	config      *Config
	sessionRepo sessionRepo.Repository
}

// New creates a new play service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.SessionRepo == nil {
		return nil, ErrNilSessionRepo
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if cfg.FinishedTTL <= 0 {
		cfg.FinishedTTL = defaultFinishedTTL
	}

	if cfg.TurnTimeout == 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}

	if cfg.SaveAttempts <= 0 {
		cfg.SaveAttempts = defaultSaveAttempts
	}

	return &service{
		config:      cfg,
		sessionRepo: cfg.SessionRepo,
	}, nil
}

// GetSession fetches a session by id
func (s *service) GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, ErrInvalidInput
	}

	sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		SessionID: input.SessionID,
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	return &GetSessionOutput{Session: s.forfeitIfStalled(ctx, sess)}, nil
}

// GetSessionByParticipant fetches the session a player is linked to
func (s *service) GetSessionByParticipant(ctx context.Context, input *GetSessionByParticipantInput) (*GetSessionOutput, error) {
	if input == nil || input.PlayerID == "" {
		return nil, ErrInvalidInput
	}

	sess, err := s.sessionRepo.GetSessionByParticipant(ctx, &sessionRepo.GetSessionByParticipantInput{
		PlayerID: input.PlayerID,
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	return &GetSessionOutput{Session: s.forfeitIfStalled(ctx, sess)}, nil
}

// MakeMove validates and applies a move. The write is conditioned on the
// version observed at read time, so of two near-simultaneous moves for the
// same turn exactly one lands; the other re-reads and fails the turn check.
func (s *service) MakeMove(ctx context.Context, input *MakeMoveInput) (*MakeMoveOutput, error) {
	if input == nil || input.SessionID == "" || input.PlayerID == "" {
		return nil, ErrInvalidInput
	}

	for attempt := 0; attempt < s.config.SaveAttempts; attempt++ {
		sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
			SessionID: input.SessionID,
		})
		if err != nil {
			return nil, s.mapRepoError(err)
		}

		if err := validateMove(sess, input); err != nil {
			return nil, err
		}

		expected := sess.Version
		s.applyMove(sess, input)
		sess.Version = expected + 1

		err = s.sessionRepo.CompareAndSaveSession(ctx, &sessionRepo.CompareAndSaveSessionInput{
			Session:         sess,
			ExpectedVersion: expected,
			TTL:             s.ttlFor(sess),
		})
		if err == nil {
			return &MakeMoveOutput{Session: sess}, nil
		}
		if errors.Is(err, sessionRepo.ErrVersionConflict) {
			continue
		}
		return nil, s.mapRepoError(err)
	}

	return nil, ErrStoreUnavailable
}

// EndGame finishes a session regardless of whose turn it is. Ending a live
// session is a forfeit: the opponent wins. Both players are unlinked so they
// can return to matchmaking immediately.
func (s *service) EndGame(ctx context.Context, input *EndGameInput) (*EndGameOutput, error) {
	if input == nil || input.SessionID == "" || input.PlayerID == "" {
		return nil, ErrInvalidInput
	}

	var final *models.GameSession

	for attempt := 0; attempt < s.config.SaveAttempts; attempt++ {
		sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
			SessionID: input.SessionID,
		})
		if err != nil {
			return nil, s.mapRepoError(err)
		}

		if !sess.HasParticipant(input.PlayerID) {
			return nil, ErrNotParticipant
		}

		if sess.Status == models.SessionStatusFinished {
			final = sess
			break
		}

		expected := sess.Version
		sess.Status = models.SessionStatusFinished
		sess.Winner = sess.Opponent(input.PlayerID).PlayerID
		sess.LastMoveAt = s.config.Clock.Now()
		sess.Version = expected + 1

		err = s.sessionRepo.CompareAndSaveSession(ctx, &sessionRepo.CompareAndSaveSessionInput{
			Session:         sess,
			ExpectedVersion: expected,
			TTL:             s.config.FinishedTTL,
		})
		if err == nil {
			final = sess
			break
		}
		if errors.Is(err, sessionRepo.ErrVersionConflict) {
			continue
		}
		return nil, s.mapRepoError(err)
	}

	if final == nil {
		return nil, ErrStoreUnavailable
	}

	for _, playerID := range []string{final.SeatA.PlayerID, final.SeatB.PlayerID} {
		err := s.sessionRepo.UnlinkParticipant(ctx, &sessionRepo.UnlinkParticipantInput{
			PlayerID:  playerID,
			SessionID: final.ID,
		})
		if err != nil {
			log.Printf("play: failed to unlink %s from %s: %v", playerID, final.ID, err)
		}
	}

	return &EndGameOutput{Success: true, Session: final}, nil
}

// validateMove runs the rejection ladder without mutating anything
func validateMove(sess *models.GameSession, input *MakeMoveInput) error {
	if sess.Status != models.SessionStatusActive {
		return ErrSessionNotActive
	}

	if sess.CurrentTurn != input.PlayerID {
		return ErrNotYourTurn
	}

	if input.Cell < 0 || input.Cell >= models.BoardSize {
		return ErrInvalidPosition
	}

	if sess.Board[input.Cell] != models.MarkEmpty {
		return ErrCellOccupied
	}

	return nil
}

// applyMove writes the mark and resolves win, draw or turn flip
func (s *service) applyMove(sess *models.GameSession, input *MakeMoveInput) {
	mark := sess.MarkFor(input.PlayerID)
	sess.Board[input.Cell] = mark
	sess.LastMoveAt = s.config.Clock.Now()

	switch {
	case sess.Board.WinningMark() == mark:
		sess.Status = models.SessionStatusFinished
		sess.Winner = input.PlayerID
	case sess.Board.Full():
		sess.Status = models.SessionStatusFinished
		sess.Winner = models.WinnerDraw
	default:
		sess.CurrentTurn = sess.Opponent(input.PlayerID).PlayerID
	}
}

// forfeitIfStalled finishes an active session whose current player has been
// silent past the turn timeout, awarding the win to the waiting opponent. It
// goes through the same version-checked write as a move, so a late move that
// races the forfeit cannot be lost silently.
func (s *service) forfeitIfStalled(ctx context.Context, sess *models.GameSession) *models.GameSession {
	if s.config.TurnTimeout <= 0 || sess.Status != models.SessionStatusActive {
		return sess
	}

	now := s.config.Clock.Now()
	if now.Sub(sess.LastMoveAt) <= s.config.TurnTimeout {
		return sess
	}

	forfeited := *sess
	expected := forfeited.Version
	forfeited.Status = models.SessionStatusFinished
	forfeited.Winner = sess.Opponent(sess.CurrentTurn).PlayerID
	forfeited.LastMoveAt = now
	forfeited.Version = expected + 1

	err := s.sessionRepo.CompareAndSaveSession(ctx, &sessionRepo.CompareAndSaveSessionInput{
		Session:         &forfeited,
		ExpectedVersion: expected,
		TTL:             s.config.FinishedTTL,
	})
	if err == nil {
		log.Printf("play: session %s forfeited, %s timed out", sess.ID, sess.CurrentTurn)
		return &forfeited
	}

	// Someone else wrote first; their state wins
	fresh, freshErr := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{SessionID: sess.ID})
	if freshErr != nil {
		return sess
	}
	return fresh
}

func (s *service) ttlFor(sess *models.GameSession) time.Duration {
	if sess.Status == models.SessionStatusFinished {
		return s.config.FinishedTTL
	}
	return s.config.SessionTTL
}

func (s *service) mapRepoError(err error) error {
	if errors.Is(err, sessionRepo.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	log.Printf("play: store error: %v", err)
	return ErrStoreUnavailable
}
