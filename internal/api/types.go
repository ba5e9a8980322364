package api

import "time"

// Wire shapes of the decree Q&A service (API v1).

type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type conversationList struct {
	Conversations []Conversation `json:"conversations"`
}

// ThreadMessage is one element of GET /conversations/{id}/messages.
// InteractionID and Feedback are present only on assistant turns the
// server has correlated with an interaction.
type ThreadMessage struct {
	Role            string   `json:"role"`
	Content         string   `json:"content"`
	InteractionID   *int64   `json:"interactionId,omitempty"`
	Feedback        *bool    `json:"feedback,omitempty"`
	SourceDocuments []string `json:"sourceDocuments,omitempty"`
}

type Document struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Answer is the response to POST /chat/message/{conversation_id}.
type Answer struct {
	Text            string     `json:"answer"`
	InteractionID   int64      `json:"interaction_id"`
	SourceDocuments []Document `json:"source_documents"`
}

type RejectedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"error"`
}

// UploadResult is the service's per-file partial-success verdict for
// one submitted batch.
type UploadResult struct {
	Accepted []Document     `json:"successful_uploads"`
	Rejected []RejectedFile `json:"failed_uploads"`
}

type messageRequest struct {
	Question string `json:"question"`
}

type feedbackRequest struct {
	InteractionID int64 `json:"interaction_id"`
	IsPositive    bool  `json:"is_positive"`
}

type conversationRequest struct {
	Title string `json:"title"`
}

type errorDetail struct {
	Detail string `json:"detail"`
}
