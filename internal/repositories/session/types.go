package session

import (
	"time"

	"github.com/calmspace/minigames/internal/models"
)

type CreateSessionInput struct {
	Session *models.GameSession

	// TTL bounds the session record and both participant links
	TTL time.Duration
}

type GetSessionInput struct {
	SessionID string
}

type GetSessionByParticipantInput struct {
	PlayerID string
}

type CompareAndSaveSessionInput struct {
	// Session carries the already-incremented Version
	Session *models.GameSession

	// ExpectedVersion is the version the stored record must still have
	ExpectedVersion int64

	// TTL applied to the record on success; finished sessions get the short
	// post-game grace TTL
	TTL time.Duration
}

type DeleteSessionInput struct {
	SessionID string
}

type UnlinkParticipantInput struct {
	PlayerID string

	// SessionID, when set, makes the unlink conditional: the link is only
	// removed while it still points at this session
	SessionID string
}
