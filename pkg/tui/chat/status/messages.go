package status

import "time"

// StartMsg activates the bar and starts the spinner and timer
type StartMsg struct {
	Status string
}

// SetStatusMsg changes the text of an active bar
type SetStatusMsg struct {
	Status string
}

// UpdateTokensMsg sets the token counts of the exchange in flight
type UpdateTokensMsg struct {
	Sent int
	Recv int
}

// StopMsg hides the bar
type StopMsg struct{}

// TickMsg updates the timer
type TickMsg time.Time
