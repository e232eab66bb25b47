package matchmaker

import (
	"time"

	"github.com/calmspace/minigames/internal/common/clock"
	"github.com/calmspace/minigames/internal/common/uuid"
	"github.com/calmspace/minigames/internal/models"
	queueRepo "github.com/calmspace/minigames/internal/repositories/queue"
	sessionRepo "github.com/calmspace/minigames/internal/repositories/session"
)

// Config holds everything the matchmaker service needs
type Config struct {
	QueueRepo   queueRepo.Repository
	SessionRepo sessionRepo.Repository
	Clock       clock.Clock
	UUID        uuid.UUID

	// WaitingTTL bounds how long a queue entry may be matched
	WaitingTTL time.Duration

	// SessionTTL bounds an active session record
	SessionTTL time.Duration

	// ClaimAttempts bounds the scan-claim retry loop under contention
	ClaimAttempts int
}

type RequestMatchInput struct {
	PlayerID   string
	PlayerName string
	GameType   models.GameType
}

type RequestMatchOutput struct {
	// Matched is false when the player was enqueued to wait
	Matched bool

	// Session is set when Matched, including on idempotent rejoin
	Session *models.GameSession

	// OpponentName is the display name of the other seat when Matched
	OpponentName string
}

type LeaveQueueInput struct {
	PlayerID string
	GameType models.GameType
}

type LeaveQueueOutput struct {
	Success bool
}
