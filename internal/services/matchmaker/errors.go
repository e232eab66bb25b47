package matchmaker

// MatchError is a custom error type for matchmaking errors
type MatchError string

// Error implements the error interface
func (e MatchError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrStoreUnavailable MatchError = "store unavailable"
	ErrNilConfig        MatchError = "config cannot be nil"
	ErrNilQueueRepo     MatchError = "queue repository cannot be nil"
	ErrNilSessionRepo   MatchError = "session repository cannot be nil"
	ErrNilClock         MatchError = "clock cannot be nil"
	ErrNilUUIDGenerator MatchError = "UUID generator cannot be nil"
	ErrInvalidInput     MatchError = "player ID and game type are required"
)
