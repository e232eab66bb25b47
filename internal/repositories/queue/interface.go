package queue

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/calmspace/minigames/internal/repositories/queue Repository

import (
	"context"

	"github.com/calmspace/minigames/internal/models"
)

// Repository defines the interface for waiting queue persistence
type Repository interface {
	// Enqueue adds a waiting entry; re-enqueueing the same player is a no-op
	Enqueue(ctx context.Context, input *EnqueueInput) error

	// List returns the queue for a game type, oldest first, skipping entries
	// enqueued before the given cutoff
	List(ctx context.Context, input *ListInput) ([]*models.WaitingEntry, error)

	// Claim atomically removes an entry; Claimed is false when another caller
	// removed it first
	Claim(ctx context.Context, input *ClaimInput) (*ClaimOutput, error)

	// Remove deletes any entry the player has in the game type's queue
	Remove(ctx context.Context, input *RemoveInput) error

	// RemoveExpired deletes entries enqueued before the given cutoff
	RemoveExpired(ctx context.Context, input *RemoveExpiredInput) (int64, error)
}
