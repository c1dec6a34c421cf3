package chat

// Event is an input the Orchestrator reacts to. The set is closed: only the
// types in this file implement it.
type Event interface {
	isEvent()
}

// Key names carried by KeyPressed.
const (
	KeyEnter = "Enter"
)

// TextChanged replaces the input buffer.
type TextChanged struct {
	Text string
}

// KeyPressed reports a key press in the input field. Enter submits when the
// buffer is non-empty and is swallowed otherwise.
type KeyPressed struct {
	Key string
}

// Submitted submits the current input buffer.
type Submitted struct{}

// ResetRequested clears the conversation back to the greeting.
type ResetRequested struct{}

// ErrorDismissed hides the current error banner.
type ErrorDismissed struct{}

func (TextChanged) isEvent()    {}
func (KeyPressed) isEvent()     {}
func (Submitted) isEvent()      {}
func (ResetRequested) isEvent() {}
func (ErrorDismissed) isEvent() {}
