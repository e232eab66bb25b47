package queue

import (
	"time"

	"github.com/calmspace/minigames/internal/models"
)

type EnqueueInput struct {
	Entry *models.WaitingEntry
}

type ListInput struct {
	GameType models.GameType

	// EnqueuedAfter filters out stale entries; zero means no filter
	EnqueuedAfter time.Time
}

type ClaimInput struct {
	Entry *models.WaitingEntry
}

type ClaimOutput struct {
	Claimed bool
}

type RemoveInput struct {
	GameType models.GameType
	PlayerID string
}

type RemoveExpiredInput struct {
	GameType models.GameType

	// EnqueuedBefore is the staleness cutoff
	EnqueuedBefore time.Time
}
