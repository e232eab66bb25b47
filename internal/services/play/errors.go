package play

// PlayError is a custom error type for move processing errors
type PlayError string

// Error implements the error interface
func (e PlayError) Error() string {
	return string(e)
}

// Define errors. The validation errors are terminal for a request: retrying
// an invalid move cannot make it valid.
const (
	ErrSessionNotFound  PlayError = "session not found"
	ErrSessionNotActive PlayError = "session is not active"
	ErrNotYourTurn      PlayError = "not your turn"
	ErrInvalidPosition  PlayError = "cell index out of range"
	ErrCellOccupied     PlayError = "cell already occupied"
	ErrNotParticipant   PlayError = "player is not in this session"
	ErrStoreUnavailable PlayError = "store unavailable"
	ErrNilConfig        PlayError = "config cannot be nil"
	ErrNilSessionRepo   PlayError = "session repository cannot be nil"
	ErrNilClock         PlayError = "clock cannot be nil"
	ErrInvalidInput     PlayError = "session ID and player ID are required"
)
