package chat

import (
	"errors"
	"strings"
)

type SendState int

const (
	SendIdle SendState = iota
	SendInFlight
)

var (
	// ErrSendInFlight rejects a second submit while one is outstanding.
	ErrSendInFlight = errors.New("a send is already in flight for this thread")
	// ErrEmptyInput rejects submits whose trimmed input is empty.
	ErrEmptyInput = errors.New("empty input")
)

// FailedAnswer is shown in place of the pending placeholder when a
// send fails. It carries no interaction id, so it offers no feedback.
const FailedAnswer = "Sorry, I could not answer that. Please try again."

// Thread owns the message list of the active conversation and drives
// the optimistic send protocol. At most one message is pending at any
// time and it is always the last element; a resolution replaces it in
// place, never appends.
//
// Every mutation that resolves an asynchronous round trip takes the
// conversation id the call was issued for and is discarded when the
// thread has since been retargeted. The feedback overlay is shared
// across retargets on purpose: interaction ids are global and local
// clicks must survive reloads.
type Thread struct {
	conversationID string
	messages       []Message
	state          SendState
	overlay        *FeedbackOverlay
}

func NewThread() *Thread {
	return &Thread{overlay: NewFeedbackOverlay()}
}

func (t *Thread) ConversationID() string { return t.conversationID }
func (t *Thread) State() SendState       { return t.state }

func (t *Thread) Messages() []Message {
	return append([]Message(nil), t.messages...)
}

// Retarget points the thread at another conversation (or at none, with
// an empty id). The displayed list is cleared until a load lands. A
// send still in flight for the previous target is not aborted; its
// completion will fail the id guard and be discarded.
func (t *Thread) Retarget(conversationID string) {
	t.conversationID = conversationID
	t.messages = nil
	t.state = SendIdle
}

// StartExchange appends the user turn and the pending placeholder and
// moves the thread to SendInFlight. The caller must have resolved the
// target conversation first.
func (t *Thread) StartExchange(conversationID, input string) error {
	if strings.TrimSpace(input) == "" {
		return ErrEmptyInput
	}
	if t.state == SendInFlight {
		return ErrSendInFlight
	}
	if conversationID == "" || conversationID != t.conversationID {
		return errors.New("exchange target does not match thread target")
	}
	t.messages = append(t.messages,
		Message{Role: RoleUser, Content: input},
		Message{Role: RoleAssistant, Pending: true},
	)
	t.state = SendInFlight
	return nil
}

// ResolveSend replaces the pending placeholder with the completed
// answer. Returns false when the result is stale (retargeted thread,
// or a reload already removed the placeholder); a stale result is
// discarded without touching the list.
func (t *Thread) ResolveSend(conversationID, answer string, interactionID int64, sources []string) bool {
	if !t.settleSend(conversationID) {
		return false
	}
	last := len(t.messages) - 1
	t.messages[last] = Message{
		Role:            RoleAssistant,
		Content:         answer,
		InteractionID:   &interactionID,
		SourceDocuments: append([]string(nil), sources...),
	}
	return true
}

// FailSend replaces the pending placeholder with the fixed error
// answer so the user is never left staring at an endless placeholder.
func (t *Thread) FailSend(conversationID string) bool {
	if !t.settleSend(conversationID) {
		return false
	}
	last := len(t.messages) - 1
	t.messages[last] = Message{Role: RoleAssistant, Content: FailedAnswer}
	return true
}

// settleSend returns the thread to idle and reports whether the
// completion may commit its result.
func (t *Thread) settleSend(conversationID string) bool {
	if t.state != SendInFlight || conversationID != t.conversationID {
		return false
	}
	t.state = SendIdle
	last := len(t.messages) - 1
	if last < 0 || !t.messages[last].Pending {
		// A reload replaced the list mid-send; drop the result.
		return false
	}
	return true
}

// ApplyLoad commits a fetched message list. Stale loads, for an id the
// view has since left, are discarded: the last-selected conversation
// wins regardless of arrival order.
func (t *Thread) ApplyLoad(conversationID string, messages []Message) bool {
	if conversationID == "" || conversationID != t.conversationID {
		return false
	}
	t.messages = append(messages[:0:0], messages...)
	return true
}

// FailLoad clears the list rather than leaving a stale thread
// displayed.
func (t *Thread) FailLoad(conversationID string) bool {
	if conversationID == "" || conversationID != t.conversationID {
		return false
	}
	t.messages = nil
	return true
}

// SetFeedback records a local feedback click. The overlay is updated
// unconditionally; the remote submission happens elsewhere and is not
// rolled back on failure.
func (t *Thread) SetFeedback(interactionID int64, positive bool) {
	t.overlay.Set(interactionID, positive)
}

// FeedbackFor merges the overlay over the message's server-reported
// feedback. Messages without an interaction id have no feedback.
func (t *Thread) FeedbackFor(m Message) FeedbackValue {
	if m.InteractionID == nil {
		return FeedbackUnset
	}
	return t.overlay.Value(*m.InteractionID, m.Feedback)
}

// LastInteraction returns the most recent completed assistant turn
// that can receive feedback.
func (t *Thread) LastInteraction() (Message, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		m := t.messages[i]
		if m.Role == RoleAssistant && m.InteractionID != nil {
			return m, true
		}
	}
	return Message{}, false
}

// HasPending reports whether a placeholder is displayed.
func (t *Thread) HasPending() bool {
	for _, m := range t.messages {
		if m.Pending {
			return true
		}
	}
	return false
}
