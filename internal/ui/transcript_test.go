package ui

import (
	"strings"
	"testing"

	"decreechat/internal/chat"
)

func TestBuildThreadMarkdown(t *testing.T) {
	id := int64(7)
	thread := chat.NewThread()
	thread.Retarget("c1")
	thread.ApplyLoad("c1", []chat.Message{
		{Role: chat.RoleUser, Content: "What changed for rentals?"},
		{
			Role:            chat.RoleAssistant,
			Content:         "The rental law was repealed.",
			InteractionID:   &id,
			SourceDocuments: []string{"decreto_70_2023.pdf"},
		},
	})
	thread.SetFeedback(id, false)

	md := buildThreadMarkdown(thread)

	if !strings.Contains(md, "## You\n\nWhat changed for rentals?") {
		t.Errorf("missing user turn:\n%s", md)
	}
	if !strings.Contains(md, "The rental law was repealed.") {
		t.Errorf("missing answer:\n%s", md)
	}
	if !strings.Contains(md, "_Sources: decreto_70_2023.pdf_") {
		t.Errorf("missing sources line:\n%s", md)
	}
	if !strings.Contains(md, "unhelpful") {
		t.Errorf("local feedback mark not rendered:\n%s", md)
	}
}

func TestBuildThreadMarkdownPendingPlaceholder(t *testing.T) {
	thread := chat.NewThread()
	thread.Retarget("c1")
	if err := thread.StartExchange("c1", "q"); err != nil {
		t.Fatalf("StartExchange: %v", err)
	}

	md := buildThreadMarkdown(thread)
	if !strings.Contains(md, pendingNotice) {
		t.Errorf("pending placeholder not rendered:\n%s", md)
	}
}

func TestBuildThreadMarkdownEmpty(t *testing.T) {
	md := buildThreadMarkdown(chat.NewThread())
	if !strings.Contains(md, "No messages yet") {
		t.Errorf("empty thread notice missing:\n%s", md)
	}
}
