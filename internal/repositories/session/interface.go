package session

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/calmspace/minigames/internal/repositories/session Repository

import (
	"context"

	"github.com/calmspace/minigames/internal/models"
)

// Repository defines the interface for game session persistence
type Repository interface {
	// CreateSession persists a new session and both participant links in one
	// atomic step; ErrParticipantLinked when a seat already has a live session
	CreateSession(ctx context.Context, input *CreateSessionInput) error

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, input *GetSessionInput) (*models.GameSession, error)

	// GetSessionByParticipant retrieves the session a player is linked to
	GetSessionByParticipant(ctx context.Context, input *GetSessionByParticipantInput) (*models.GameSession, error)

	// CompareAndSaveSession replaces the session record only when the stored
	// version still matches ExpectedVersion
	CompareAndSaveSession(ctx context.Context, input *CompareAndSaveSessionInput) error

	// DeleteSession removes a session, its links and its index entry
	DeleteSession(ctx context.Context, input *DeleteSessionInput) error

	// UnlinkParticipant removes a player's session link
	UnlinkParticipant(ctx context.Context, input *UnlinkParticipantInput) error

	// ListActiveSessionIDs returns the ids in the active-session index
	ListActiveSessionIDs(ctx context.Context) ([]string, error)
}
