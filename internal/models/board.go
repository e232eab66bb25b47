package models

// Mark is a single board cell value
type Mark string

const (
	// MarkEmpty is an unplayed cell
	MarkEmpty Mark = ""

	// MarkX is seat A's symbol
	MarkX Mark = "X"

	// MarkO is seat B's symbol
	MarkO Mark = "O"
)

// BoardSize is the number of cells on the board
const BoardSize = 9

// Board is the 3x3 grid, row-major: cells 0-2 top row, 6-8 bottom row
type Board [BoardSize]Mark

// winningLines are the 3 rows, 3 columns and 2 diagonals.
var winningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// WinningMark returns the mark owning a completed line, or MarkEmpty when no
// line is complete.
func (b Board) WinningMark() Mark {
	for _, line := range winningLines {
		if b[line[0]] != MarkEmpty && b[line[0]] == b[line[1]] && b[line[1]] == b[line[2]] {
			return b[line[0]]
		}
	}
	return MarkEmpty
}

// Full reports whether every cell has been played.
func (b Board) Full() bool {
	for _, cell := range b {
		if cell == MarkEmpty {
			return false
		}
	}
	return true
}
