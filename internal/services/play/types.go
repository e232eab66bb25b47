package play

import (
	"time"

	"github.com/calmspace/minigames/internal/common/clock"
	"github.com/calmspace/minigames/internal/models"
	sessionRepo "github.com/calmspace/minigames/internal/repositories/session"
)

// Config holds everything the play service needs
type Config struct {
	SessionRepo sessionRepo.Repository
	Clock       clock.Clock

	// SessionTTL is re-applied to the record on every accepted move
	SessionTTL time.Duration

	// FinishedTTL is the post-game grace window for the losing client to
	// observe the outcome
	FinishedTTL time.Duration

	// TurnTimeout forfeits a session whose current player has gone silent.
	// Zero means the default; negative disables the timeout.
	TurnTimeout time.Duration

	// SaveAttempts bounds the compare-and-swap retry loop
	SaveAttempts int
}

type GetSessionInput struct {
	SessionID string
}

type GetSessionByParticipantInput struct {
	PlayerID string
}

type GetSessionOutput struct {
	Session *models.GameSession
}

type MakeMoveInput struct {
	SessionID string
	PlayerID  string
	Cell      int
}

type MakeMoveOutput struct {
	Session *models.GameSession
}

type EndGameInput struct {
	SessionID string
	PlayerID  string
}

type EndGameOutput struct {
	Success bool
	Session *models.GameSession
}
