package httpapi

import (
	"time"

	"github.com/calmspace/minigames/internal/models"
)

type joinRequest struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	GameType   string `json:"gameType"`
}

type joinResponse struct {
	Matched      bool        `json:"matched"`
	SessionID    string      `json:"sessionId,omitempty"`
	OpponentName string      `json:"opponentName,omitempty"`
	Session      *sessionDTO `json:"session,omitempty"`
}

type leaveRequest struct {
	PlayerID string `json:"playerId"`
	GameType string `json:"gameType"`
}

type ackResponse struct {
	Success bool `json:"success"`
}

type moveRequest struct {
	PlayerID string `json:"playerId"`

	// Cell is a pointer so an absent field is distinguishable from cell 0
	Cell *int `json:"cell"`
}

type endRequest struct {
	PlayerID string `json:"playerId"`
}

type playerDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type sessionDTO struct {
	SessionID   string    `json:"sessionId"`
	GameType    string    `json:"gameType"`
	SeatA       playerDTO `json:"seatA"`
	SeatB       playerDTO `json:"seatB"`
	CurrentTurn string    `json:"currentTurn,omitempty"`
	Board       []string  `json:"board"`
	Status      string    `json:"status"`
	Winner      string    `json:"winner,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	LastMoveAt  time.Time `json:"lastMoveAt"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toSessionDTO(sess *models.GameSession) *sessionDTO {
	if sess == nil {
		return nil
	}

	board := make([]string, len(sess.Board))
	for i, cell := range sess.Board {
		board[i] = string(cell)
	}

	dto := &sessionDTO{
		SessionID:   sess.ID,
		GameType:    string(sess.GameType),
		SeatA:       playerDTO{ID: sess.SeatA.PlayerID, Name: sess.SeatA.PlayerName},
		SeatB:       playerDTO{ID: sess.SeatB.PlayerID, Name: sess.SeatB.PlayerName},
		Board:       board,
		Status:      string(sess.Status),
		Winner:      sess.Winner,
		CreatedAt:   sess.CreatedAt,
		LastMoveAt:  sess.LastMoveAt,
	}

	if sess.Status == models.SessionStatusActive {
		dto.CurrentTurn = sess.CurrentTurn
	}

	return dto
}
