// Package export writes conversation transcripts as markdown files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"decreechat/internal/chat"
)

type Exporter struct {
	dir string
}

func New(dir string) (*Exporter, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("export directory not configured")
	}
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve cwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}
	return &Exporter{dir: dir}, nil
}

// Export writes the conversation transcript and returns the file path.
func (e *Exporter) Export(conv chat.Conversation, messages []chat.Message, now time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(e.dir, safeFileName(conv)+".md")

	md := BuildConversationMarkdown(conv, messages, now)
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// BuildConversationMarkdown renders the full document, header plus
// transcript.
func BuildConversationMarkdown(conv chat.Conversation, messages []chat.Message, now time.Time) string {
	var b strings.Builder
	title := strings.TrimSpace(conv.Title)
	if title == "" {
		title = conv.ID
	}
	b.WriteString("# " + title + "\n\n")
	b.WriteString("Exported: " + now.Format(time.RFC3339) + "\n\n")
	b.WriteString("```text\n")
	b.WriteString("conversation: " + conv.ID + "\n")
	b.WriteString(fmt.Sprintf("messages: %d\n", len(messages)))
	b.WriteString("```\n\n")
	b.WriteString(BuildTranscriptMarkdown(messages))
	return b.String()
}

// BuildTranscriptMarkdown renders the turns. Pending placeholders are
// skipped; they are display state, not content.
func BuildTranscriptMarkdown(messages []chat.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Pending {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}

		switch m.Role {
		case chat.RoleUser:
			b.WriteString("## You\n\n")
		default:
			b.WriteString("## Assistant\n\n")
		}
		b.WriteString(content + "\n\n")

		if len(m.SourceDocuments) > 0 {
			b.WriteString("Sources: " + strings.Join(m.SourceDocuments, ", ") + "\n\n")
		}
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func safeFileName(conv chat.Conversation) string {
	base := strings.TrimSpace(conv.Title)
	if base == "" {
		base = conv.ID
	}
	if base == "" {
		base = "conversation"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	base = replacer.Replace(base)
	if len(base) > 80 {
		base = base[:80]
	}
	return base
}
