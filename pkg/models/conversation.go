package models

// Conversation is one chat thread scraped from the rendered conversation
// list. The ID is opaque and owned by the remote application; it is only
// stable for the lifetime of the thread itself.
type Conversation struct {
	ID   string `json:"id"`
	Href string `json:"href"`
}

// DeletionState tracks one conversation through the deletion loop.
type DeletionState string

const (
	StatePending    DeletionState = "PENDING"
	StateAttempting DeletionState = "ATTEMPTING"
	StateConfirmed  DeletionState = "CONFIRMED"
	StateDone       DeletionState = "DONE"
	StateFailed     DeletionState = "FAILED"
	StateSkipped    DeletionState = "SKIPPED"
)

// Terminal reports whether a conversation in this state will be touched again
// by the current run.
func (s DeletionState) Terminal() bool {
	return s == StateDone || s == StateSkipped
}
