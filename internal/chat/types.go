// Package chat holds the conversation and message state engine. It is
// deliberately free of any UI or transport dependency so the ordering
// and single-flight invariants can be tested in isolation.
package chat

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is one entry of the server-ordered directory.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn of the active thread. InteractionID is set only
// on assistant turns that came back from a completed answer; the
// pending placeholder and user turns never carry one.
type Message struct {
	Role            Role
	Content         string
	InteractionID   *int64
	SourceDocuments []string
	Feedback        *bool
	Pending         bool
}
