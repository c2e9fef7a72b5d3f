package domain

// Message is one entry in a session's conversation timeline. Messages are
// immutable once created; the conversation grows by append only.
type Message struct {
	ID        MessageID
	SessionID SessionID
	Role      Role
	Content   string
	CreatedAt Timestamp
}
