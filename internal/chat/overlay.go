package chat

type FeedbackValue int

const (
	FeedbackUnset FeedbackValue = iota
	FeedbackPositive
	FeedbackNegative
)

// FeedbackOverlay shadows server-reported feedback with the user's
// local choices. Entries live for the process lifetime: a reload that
// still reports stale feedback for an interaction must not erase what
// the user already clicked.
type FeedbackOverlay struct {
	local map[int64]bool
}

func NewFeedbackOverlay() *FeedbackOverlay {
	return &FeedbackOverlay{local: make(map[int64]bool)}
}

// Set records the latest local choice for an interaction.
func (o *FeedbackOverlay) Set(interactionID int64, positive bool) {
	o.local[interactionID] = positive
}

// Value merges the local overlay over the server-reported value: the
// local edit wins if one exists, else the server value, else unset.
func (o *FeedbackOverlay) Value(interactionID int64, server *bool) FeedbackValue {
	if v, ok := o.local[interactionID]; ok {
		return asFeedback(v)
	}
	if server != nil {
		return asFeedback(*server)
	}
	return FeedbackUnset
}

func asFeedback(positive bool) FeedbackValue {
	if positive {
		return FeedbackPositive
	}
	return FeedbackNegative
}
