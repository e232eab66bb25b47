package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWinningMark(t *testing.T) {
	lines := [][3]int{
		{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
		{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
		{0, 4, 8}, {2, 4, 6},
	}

	for _, line := range lines {
		for _, mark := range []Mark{MarkX, MarkO} {
			var b Board
			for _, cell := range line {
				b[cell] = mark
			}
			assert.Equal(t, mark, b.WinningMark(), "line %v for %s", line, mark)
		}
	}
}

func TestWinningMarkEmptyBoard(t *testing.T) {
	var b Board
	assert.Equal(t, MarkEmpty, b.WinningMark())
}

func TestWinningMarkNoLine(t *testing.T) {
	// X O X / X O O / O X X - a finished game nobody won
	b := Board{MarkX, MarkO, MarkX, MarkX, MarkO, MarkO, MarkO, MarkX, MarkX}
	assert.Equal(t, MarkEmpty, b.WinningMark())
	assert.True(t, b.Full())
}

func TestFull(t *testing.T) {
	var b Board
	assert.False(t, b.Full())

	for i := range b {
		b[i] = MarkX
	}
	assert.True(t, b.Full())

	b[4] = MarkEmpty
	assert.False(t, b.Full())
}

func TestSessionHelpers(t *testing.T) {
	sess := &GameSession{
		SeatA: SeatedPlayer{PlayerID: "player-a", PlayerName: "Alice"},
		SeatB: SeatedPlayer{PlayerID: "player-b", PlayerName: "Bob"},
	}

	assert.True(t, sess.HasParticipant("player-a"))
	assert.True(t, sess.HasParticipant("player-b"))
	assert.False(t, sess.HasParticipant("player-c"))

	assert.Equal(t, "player-b", sess.Opponent("player-a").PlayerID)
	assert.Equal(t, "player-a", sess.Opponent("player-b").PlayerID)

	assert.Equal(t, MarkX, sess.MarkFor("player-a"))
	assert.Equal(t, MarkO, sess.MarkFor("player-b"))
}
