package play

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/calmspace/minigames/internal/services/play Service

import "context"

// Service defines the interface for session reads and move processing
type Service interface {
	// GetSession fetches a session by id, forfeiting it first when the
	// current player has been silent past the turn timeout
	GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error)

	// GetSessionByParticipant fetches the session a player is linked to
	GetSessionByParticipant(ctx context.Context, input *GetSessionByParticipantInput) (*GetSessionOutput, error)

	// MakeMove validates and applies a move, detecting win and draw
	MakeMove(ctx context.Context, input *MakeMoveInput) (*MakeMoveOutput, error)

	// EndGame finishes a session regardless of turn and unlinks both players;
	// ending a live game forfeits it to the opponent
	EndGame(ctx context.Context, input *EndGameInput) (*EndGameOutput, error)
}
