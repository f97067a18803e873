package pipeline

import "sync/atomic"

// currentTurnID is a process-wide correlation ID for the turn in flight,
// set by the state machine observer when a new utterance begins and read
// by the ASR and Brain stages so their log lines can be grepped together
// across goroutines without threading an ID through every queue payload.
var currentTurnID atomic.Value

func init() {
	currentTurnID.Store("-")
}

// SetTurnID records the correlation ID for the turn now in flight.
func SetTurnID(id string) {
	currentTurnID.Store(id)
}

// TurnID returns the correlation ID of the turn currently in flight, or
// "-" before the first one begins.
func TurnID() string {
	return currentTurnID.Load().(string)
}
