package matchmaker

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/calmspace/minigames/internal/services/matchmaker Service

import "context"

// Service defines the interface for matchmaking operations
type Service interface {
	// RequestMatch pairs the player with the oldest waiting opponent, or
	// enqueues them when nobody is waiting. Rejoining with a live session
	// returns that session unchanged.
	RequestMatch(ctx context.Context, input *RequestMatchInput) (*RequestMatchOutput, error)

	// LeaveQueue removes the player's waiting entry
	LeaveQueue(ctx context.Context, input *LeaveQueueInput) (*LeaveQueueOutput, error)
}
