package models

import "time"

// State is the position of a sender inside the conversation flow.
type State string

const (
	StateMenu               State = "menu"
	StateCollectingName     State = "collecting_name"
	StateCollectingDocument State = "collecting_document"
	StateSelectingRoute     State = "selecting_route"
	StateSelectingTime      State = "selecting_time"
	StateAwaitingPayment    State = "awaiting_payment"
)

// Collecting reports whether s is one of the booking input states, where raw
// text is taken literally instead of being classified.
func (s State) Collecting() bool {
	switch s {
	case StateCollectingName, StateCollectingDocument, StateSelectingRoute, StateSelectingTime:
		return true
	default:
		return false
	}
}

// Draft is the partially filled reservation of an ongoing booking.
type Draft struct {
	Name          string
	DocumentID    string
	RouteKey      string
	DepartureTime string
	Fare          int64
}

// Session is the in-memory conversation state of one sender.
type Session struct {
	SenderID     string
	State        State
	Draft        Draft
	LastActivity time.Time
}

// Reset returns the session to the menu with an empty draft.
func (s *Session) Reset() {
	s.State = StateMenu
	s.Draft = Draft{}
}
