package ui

import (
	"fmt"
	"strings"
	"time"

	"decreechat/internal/archive"
	"decreechat/internal/chat"
)

const pendingNotice = "_Consulting the decree corpus..._"

// buildThreadMarkdown renders the active thread for display. Feedback
// markers come from the thread's overlay merge, never from the raw
// server value.
func buildThreadMarkdown(t *chat.Thread) string {
	messages := t.Messages()
	if len(messages) == 0 {
		return "_No messages yet. Ask something about a decree._"
	}

	var b strings.Builder
	for _, m := range messages {
		switch {
		case m.Role == chat.RoleUser:
			b.WriteString("## You\n\n")
			b.WriteString(strings.TrimSpace(m.Content) + "\n\n")
		case m.Pending:
			b.WriteString("## Assistant\n\n")
			b.WriteString(pendingNotice + "\n\n")
		default:
			b.WriteString("## Assistant\n\n")
			b.WriteString(strings.TrimSpace(m.Content) + "\n\n")
			if len(m.SourceDocuments) > 0 {
				b.WriteString("_Sources: " + strings.Join(m.SourceDocuments, ", ") + "_\n\n")
			}
			switch t.FeedbackFor(m) {
			case chat.FeedbackPositive:
				b.WriteString("_You marked this answer helpful._\n\n")
			case chat.FeedbackNegative:
				b.WriteString("_You marked this answer unhelpful._\n\n")
			}
		}
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func buildArchiveMarkdown(query string, results []archive.Exchange) string {
	var b strings.Builder
	if strings.TrimSpace(query) == "" {
		b.WriteString("# Recent exchanges\n\n")
	} else {
		fmt.Fprintf(&b, "# Archive matches for %q\n\n", query)
	}
	if len(results) == 0 {
		b.WriteString("_Nothing in the local archive matches._\n")
		return b.String()
	}

	for _, e := range results {
		fmt.Fprintf(&b, "## %s\n\n", e.CreatedAt.Local().Format("2006-01-02 15:04"))
		b.WriteString("**Q:** " + strings.TrimSpace(e.Question) + "\n\n")
		b.WriteString(strings.TrimSpace(e.Answer) + "\n\n")
		if len(e.Sources) > 0 {
			b.WriteString("_Sources: " + strings.Join(e.Sources, ", ") + "_\n\n")
		}
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Local().Format("2006-01-02 15:04")
}
