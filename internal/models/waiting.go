package models

import (
	"time"
)

// WaitingEntry is one player waiting in the matchmaking queue for a game type
type WaitingEntry struct {
	// PlayerID is the opaque participant identifier
	PlayerID string

	// PlayerName is the display name carried into the session on match
	PlayerName string

	// GameType is the game the player wants to play
	GameType GameType

	// EnqueuedAt is when the player joined the queue
	EnqueuedAt time.Time
}
