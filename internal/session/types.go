// Package session provides the live view of a user's negotiation session
// and its message history, backed by Firestore.
package session

import "time"

// Status is the server-owned phase of a negotiation session.
type Status string

const (
	StatusNone           Status = "" // no session document
	StatusInfoCollection Status = "info_collection"
	StatusStrategizing   Status = "strategizing"
	StatusNegotiating    Status = "negotiating"
	StatusCompleted      Status = "completed"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Session mirrors the users/{uid} document. The backend owns every field;
// the client only reads it or deletes the whole document.
type Session struct {
	Status         Status         `firestore:"status" json:"status"`
	CustomerInfo   map[string]any `firestore:"customerInfo,omitempty" json:"customerInfo,omitempty"`
	Movers         []Provider     `firestore:"movers,omitempty" json:"movers,omitempty"`
	MoverRationale string         `firestore:"moverRationale,omitempty" json:"moverRationale,omitempty"`
	Strategy       string         `firestore:"strategy,omitempty" json:"strategy,omitempty"`
	CallSummaries  []string       `firestore:"callSummaries,omitempty" json:"callSummaries,omitempty"`
	Recommendation string         `firestore:"recommendation,omitempty" json:"recommendation,omitempty"`
}

// Provider is a service company selected for negotiation.
type Provider struct {
	Name        string `firestore:"name" json:"name"`
	Phone       string `firestore:"phone,omitempty" json:"phone,omitempty"`
	Contact     string `firestore:"contact,omitempty" json:"contact,omitempty"`
	Specialties string `firestore:"specialties,omitempty" json:"specialties,omitempty"`
	Icon        string `firestore:"icon,omitempty" json:"icon,omitempty"`
}

// ContactLine returns the phone number, falling back to the free-form contact.
func (p Provider) ContactLine() string {
	if p.Phone != "" {
		return p.Phone
	}
	return p.Contact
}

// Message is one entry of the append-only users/{uid}/messages collection.
type Message struct {
	ID        string    `firestore:"-" json:"id,omitempty"`
	Role      Role      `firestore:"role" json:"role"`
	Content   string    `firestore:"content" json:"content"`
	Category  string    `firestore:"category,omitempty" json:"category,omitempty"`
	ClientID  string    `firestore:"clientId,omitempty" json:"clientId,omitempty"`
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

// StatusOf returns the status of s, or StatusNone when there is no session.
func StatusOf(s *Session) Status {
	if s == nil {
		return StatusNone
	}
	return s.Status
}

// UpdateKind tells which part of the live view an Update carries.
type UpdateKind int

const (
	KindSession UpdateKind = iota
	KindMessages
	KindError
	KindRecovered
)

// Stream names a listener in error updates.
type Stream string

const (
	StreamSession  Stream = "session"
	StreamMessages Stream = "messages"
)

// Update is a single delivery from a Client to its consumer.
type Update struct {
	Kind      UpdateKind
	Session   *Session // nil means no session document
	Messages  []Message
	Stream    Stream
	Err       error
	Degraded  bool // set on errors once the breaker has tripped
	FromCache bool
}
