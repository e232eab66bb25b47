package models

import (
	"time"
)

// GameType identifies which game a queue entry or session belongs to
type GameType string

const (
	// GameTypeTicTacToe is the 3x3 turn-based game
	GameTypeTicTacToe GameType = "tic_tac_toe"
)

// AllGameTypes lists every game type the engine serves. The reaper iterates
// this to prune each per-type queue.
var AllGameTypes = []GameType{GameTypeTicTacToe}

// SessionStatus represents the current state of a game session
type SessionStatus string

const (
	// SessionStatusWaiting indicates a session that is not yet fully seated
	SessionStatusWaiting SessionStatus = "waiting"

	// SessionStatusActive indicates a session being played
	SessionStatusActive SessionStatus = "active"

	// SessionStatusFinished indicates a session that has ended
	SessionStatusFinished SessionStatus = "finished"
)

// WinnerDraw is the winner value for a finished session nobody won.
// Participant ids are uuids, so it can never collide with a real player.
const WinnerDraw = "draw"

// SeatedPlayer is one of the two participants in a session
type SeatedPlayer struct {
	// PlayerID is the opaque participant identifier
	PlayerID string

	// PlayerName is the display name shown to the opponent
	PlayerName string
}

// GameSession is the authoritative record of a two-player match
type GameSession struct {
	// ID is the unique identifier for the session
	ID string

	// GameType is the game being played
	GameType GameType

	// SeatA is the first-matched participant; plays MarkX and moves first
	SeatA SeatedPlayer

	// SeatB is the second participant; plays MarkO
	SeatB SeatedPlayer

	// CurrentTurn is the player id whose move it is while the session is active
	CurrentTurn string

	// Board holds the 9 cells
	Board Board

	// Status is the current state of the session
	Status SessionStatus

	// Winner is the winning player id, or WinnerDraw; set only once finished
	Winner string

	// Version counts accepted writes; every save is conditioned on it
	Version int64

	// CreatedAt is when the session was created
	CreatedAt time.Time

	// LastMoveAt is when the last accepted move happened
	LastMoveAt time.Time
}

// HasParticipant reports whether the given player occupies a seat.
func (g *GameSession) HasParticipant(playerID string) bool {
	return g.SeatA.PlayerID == playerID || g.SeatB.PlayerID == playerID
}

// Opponent returns the seat opposite the given player id.
func (g *GameSession) Opponent(playerID string) SeatedPlayer {
	if g.SeatA.PlayerID == playerID {
		return g.SeatB
	}
	return g.SeatA
}

// MarkFor returns the symbol the given player writes on the board.
func (g *GameSession) MarkFor(playerID string) Mark {
	if g.SeatA.PlayerID == playerID {
		return MarkX
	}
	return MarkO
}
