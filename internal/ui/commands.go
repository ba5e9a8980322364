package ui

import (
	"context"
	"time"

	"decreechat/internal/api"
	"decreechat/internal/archive"
	"decreechat/internal/chat"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"decreechat/internal/config"
)

// Result messages. Each one that resolves a remote round trip carries
// the conversation id it was issued for; Update drops results whose id
// is no longer active.
type conversationsMsg struct {
	conversations []chat.Conversation
	err           error
}

type threadMsg struct {
	conversationID string
	messages       []chat.Message
	err            error
}

type createdMsg struct {
	conversation chat.Conversation
	question     string
	err          error
}

type renamedMsg struct {
	id    string
	title string
	err   error
}

type deletedMsg struct {
	id  string
	err error
}

type answerMsg struct {
	conversationID string
	question       string
	answer         api.Answer
	err            error
}

type feedbackMsg struct {
	interactionID int64
	err           error
}

type renderMsg struct {
	rendered string
	nonce    int
}

type exportMsg struct {
	path string
	err  error
}

type copyMsg struct {
	err error
}

type archiveSearchMsg struct {
	query   string
	results []archive.Exchange
	err     error
}

type archivedMsg struct {
	err error
}

func (m Model) listCmd() tea.Cmd {
	return func() tea.Msg {
		conversations, err := m.client.ListConversations(context.Background())
		return conversationsMsg{conversations: fromAPIConversations(conversations), err: err}
	}
}

func (m Model) loadCmd(conversationID string) tea.Cmd {
	if conversationID == "" {
		return nil
	}
	return func() tea.Msg {
		messages, err := m.client.ListMessages(context.Background(), conversationID)
		if err != nil {
			return threadMsg{conversationID: conversationID, err: err}
		}
		return threadMsg{conversationID: conversationID, messages: fromAPIMessages(messages)}
	}
}

func (m Model) createCmd(title, question string) tea.Cmd {
	return func() tea.Msg {
		conversation, err := m.client.CreateConversation(context.Background(), title)
		return createdMsg{conversation: fromAPIConversation(conversation), question: question, err: err}
	}
}

func (m Model) sendCmd(conversationID, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.client.Ask(context.Background(), conversationID, question)
		return answerMsg{conversationID: conversationID, question: question, answer: answer, err: err}
	}
}

func (m Model) renameCmd(conversationID, title string) tea.Cmd {
	return func() tea.Msg {
		updated, err := m.client.RenameConversation(context.Background(), conversationID, title)
		if err != nil {
			return renamedMsg{id: conversationID, err: err}
		}
		return renamedMsg{id: updated.ID, title: updated.Title}
	}
}

func (m Model) deleteCmd(conversationID string) tea.Cmd {
	return func() tea.Msg {
		err := m.client.DeleteConversation(context.Background(), conversationID)
		return deletedMsg{id: conversationID, err: err}
	}
}

func (m Model) feedbackCmd(interactionID int64, positive bool) tea.Cmd {
	return func() tea.Msg {
		err := m.client.SubmitFeedback(context.Background(), interactionID, positive)
		return feedbackMsg{interactionID: interactionID, err: err}
	}
}

func (m Model) exportCmd(conv chat.Conversation, messages []chat.Message) tea.Cmd {
	return func() tea.Msg {
		path, err := m.exporter.Export(conv, messages, time.Now().UTC())
		return exportMsg{path: path, err: err}
	}
}

func (m Model) archiveRecordCmd(e archive.Exchange) tea.Cmd {
	if m.archive == nil {
		return nil
	}
	return func() tea.Msg {
		err := m.archive.Record(context.Background(), e)
		return archivedMsg{err: err}
	}
}

func (m Model) archiveSearchCmd(query string) tea.Cmd {
	if m.archive == nil {
		return nil
	}
	return func() tea.Msg {
		results, err := m.archive.Search(context.Background(), query, 50)
		return archiveSearchMsg{query: query, results: results, err: err}
	}
}

// renderCmd renders markdown off the update loop. The nonce plays the
// same role as the conversation-id guard: only the newest render may
// land. Render failures fall back to the raw markdown.
func (m Model) renderCmd(markdown string, wrap, nonce int) tea.Cmd {
	return func() tea.Msg {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(config.DefaultGlamourStyle),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return renderMsg{rendered: markdown, nonce: nonce}
		}
		out, err := r.Render(markdown)
		if err != nil {
			return renderMsg{rendered: markdown, nonce: nonce}
		}
		return renderMsg{rendered: out, nonce: nonce}
	}
}

func fromAPIConversation(c api.Conversation) chat.Conversation {
	return chat.Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromAPIConversations(in []api.Conversation) []chat.Conversation {
	out := make([]chat.Conversation, 0, len(in))
	for _, c := range in {
		out = append(out, fromAPIConversation(c))
	}
	return out
}

func fromAPIMessages(in []api.ThreadMessage) []chat.Message {
	out := make([]chat.Message, 0, len(in))
	for _, m := range in {
		out = append(out, chat.Message{
			Role:            chat.Role(m.Role),
			Content:         m.Content,
			InteractionID:   m.InteractionID,
			Feedback:        m.Feedback,
			SourceDocuments: append([]string(nil), m.SourceDocuments...),
		})
	}
	return out
}

func documentNames(docs []api.Document) []string {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Filename)
	}
	return names
}

func logError(logger *zap.Logger, what string, err error) {
	if logger != nil && err != nil {
		logger.Warn(what, zap.Error(err))
	}
}
