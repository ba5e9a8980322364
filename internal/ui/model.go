// Package ui wires the chat engine to the terminal. All remote work
// happens in commands; Update owns every state transition.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"decreechat/internal/api"
	"decreechat/internal/archive"
	"decreechat/internal/chat"
	"decreechat/internal/clipboard"
	"decreechat/internal/config"
	"decreechat/internal/export"
	"decreechat/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"decreechat/internal/highlight"
)

type inputMode int

const (
	modeCompose inputMode = iota
	modeRename
	modeSearch
	modeConfirmDelete
)

type viewKind int

const (
	viewTranscript viewKind = iota
	viewArchive
)

type Model struct {
	cfg      config.AppConfig
	client   *api.Client
	archive  *archive.Archive
	exporter *export.Exporter
	logger   *zap.Logger
	user     session.User

	directory *chat.Directory
	thread    *chat.Thread

	list     list.Model
	viewport viewport.Model
	input    textinput.Model
	prompt   textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	width  int
	height int

	mode         inputMode
	view         viewKind
	focusOnList  bool
	loadingList  bool
	creating     bool
	renderNonce  int
	archiveQuery string

	status string
	err    error

	now func() time.Time
}

type conversationItem struct {
	c      chat.Conversation
	bucket chat.BucketLabel
}

func (i conversationItem) Title() string {
	title := strings.TrimSpace(i.c.Title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

func (i conversationItem) Description() string {
	return string(i.bucket) + " | " + formatTime(i.c.UpdatedAt)
}

func (i conversationItem) FilterValue() string {
	return strings.ToLower(i.c.Title)
}

func NewModel(
	cfg config.AppConfig,
	client *api.Client,
	arch *archive.Archive,
	exporter *export.Exporter,
	logger *zap.Logger,
	user session.User,
) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 40, 20)
	l.Title = "Conversations"
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	vp := viewport.New(60, 20)
	vp.SetContent("Loading conversations...")

	input := textinput.New()
	input.Placeholder = "Ask about a decree..."
	input.Prompt = "> "
	input.CharLimit = 2000
	input.Focus()

	prompt := textinput.New()
	prompt.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.Points

	h := help.New()
	h.ShowAll = false

	if logger == nil {
		logger = zap.NewNop()
	}

	return Model{
		cfg:      cfg,
		client:   client,
		archive:  arch,
		exporter: exporter,
		logger:   logger,
		user:     user,

		directory: chat.NewDirectory(),
		thread:    chat.NewThread(),

		list:     l,
		viewport: vp,
		input:    input,
		prompt:   prompt,
		spinner:  sp,
		help:     h,
		keys:     defaultKeys(),

		loadingList: true,
		now:         time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.listCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		cmds = append(cmds, m.rerender())

	case conversationsMsg:
		m.loadingList = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "Could not load conversations"
			logError(m.logger, "list conversations", msg.err)
			break
		}
		m.directory.SetConversations(msg.conversations)
		if m.directory.ActiveID() == "" && m.thread.ConversationID() != "" {
			// The displayed conversation vanished server-side.
			m.thread.Retarget("")
			cmds = append(cmds, m.rerender())
		}
		m.applyConversations()
		if m.directory.ActiveID() == "" && m.directory.Len() > 0 {
			first := m.directory.Conversations()[0]
			m.directory.Select(first.ID)
			m.thread.Retarget(first.ID)
			m.syncListSelection()
			cmds = append(cmds, m.loadCmd(first.ID))
		}

	case threadMsg:
		if msg.conversationID != m.directory.ActiveID() {
			// A load for a conversation the user already left.
			break
		}
		if msg.err != nil {
			m.thread.FailLoad(msg.conversationID)
			m.err = msg.err
			m.status = "Could not load the conversation"
			logError(m.logger, "load messages", msg.err)
			cmds = append(cmds, m.rerender())
			break
		}
		m.thread.ApplyLoad(msg.conversationID, msg.messages)
		cmds = append(cmds, m.rerender())

	case createdMsg:
		m.creating = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "Could not create a conversation"
			logError(m.logger, "create conversation", msg.err)
			break
		}
		m.directory.Insert(msg.conversation)
		m.thread.Retarget(msg.conversation.ID)
		m.applyConversations()
		if msg.question != "" {
			if err := m.thread.StartExchange(msg.conversation.ID, msg.question); err == nil {
				cmds = append(cmds, m.sendCmd(msg.conversation.ID, msg.question))
			}
		}
		cmds = append(cmds, m.rerender())

	case answerMsg:
		if msg.err != nil {
			logError(m.logger, "send message", msg.err)
			if m.thread.FailSend(msg.conversationID) {
				m.status = "The question could not be answered"
				cmds = append(cmds, m.rerender())
			}
			break
		}
		sources := documentNames(msg.answer.SourceDocuments)
		if m.thread.ResolveSend(msg.conversationID, msg.answer.Text, msg.answer.InteractionID, sources) {
			cmds = append(cmds,
				m.rerender(),
				m.archiveRecordCmd(archive.Exchange{
					ConversationID: msg.conversationID,
					InteractionID:  msg.answer.InteractionID,
					Question:       msg.question,
					Answer:         msg.answer.Text,
					Sources:        sources,
					CreatedAt:      m.now(),
				}),
				m.listCmd(),
			)
		}

	case renamedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Rename failed"
			logError(m.logger, "rename conversation", msg.err)
			break
		}
		m.directory.ApplyRename(msg.id, msg.title)
		m.applyConversations()
		m.status = "Renamed"

	case deletedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Delete failed"
			logError(m.logger, "delete conversation", msg.err)
			break
		}
		wasActive := m.directory.ActiveID() == msg.id
		m.directory.Remove(msg.id)
		m.applyConversations()
		if wasActive {
			m.thread.Retarget("")
			cmds = append(cmds, m.rerender())
		}
		m.status = "Deleted"

	case feedbackMsg:
		// The overlay already holds the click; failures are only logged.
		if msg.err != nil {
			logError(m.logger, "submit feedback", msg.err)
			m.status = "Feedback could not be delivered"
		}

	case renderMsg:
		if msg.nonce != m.renderNonce {
			break
		}
		content := msg.rendered
		if m.view == viewArchive && strings.TrimSpace(m.archiveQuery) != "" {
			res := highlight.Apply(content, m.archiveQuery, func(s string) string {
				return searchMatchStyle.Render(s)
			})
			content = res.Text
			m.status = fmt.Sprintf("%d matches", res.Count)
		}
		m.viewport.SetContent(content)
		m.viewport.GotoBottom()
		if m.view == viewArchive {
			m.viewport.GotoTop()
		}

	case exportMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Export failed"
			logError(m.logger, "export transcript", msg.err)
		} else {
			m.status = "Exported: " + msg.path
		}

	case copyMsg:
		if msg.err != nil {
			if errors.Is(msg.err, clipboard.ErrToolNotFound) {
				m.status = "Could not copy: clipboard tool not found"
			} else {
				m.status = "Could not copy: " + msg.err.Error()
			}
		} else {
			m.status = "Answer copied"
		}

	case archiveSearchMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Archive search failed"
			logError(m.logger, "archive search", msg.err)
			break
		}
		m.view = viewArchive
		m.archiveQuery = msg.query
		cmds = append(cmds, m.render(buildArchiveMarkdown(msg.query, msg.results)))

	case archivedMsg:
		logError(m.logger, "archive record", msg.err)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.loadingList || m.creating || m.thread.State() == chat.SendInFlight {
		var spin tea.Cmd
		m.spinner, spin = m.spinner.Update(msg)
		cmds = append(cmds, spin)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeRename:
		return m.handleRenameKey(msg)
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	}
	return m.handleComposeKey(msg)
}

func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeCompose
		m.prompt.Blur()
		m.input.Focus()
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.prompt.Value())
		m.mode = modeCompose
		m.prompt.Blur()
		m.input.Focus()
		if title == "" || m.directory.ActiveID() == "" {
			return m, nil
		}
		return m, m.renameCmd(m.directory.ActiveID(), title)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeCompose
		m.view = viewTranscript
		m.archiveQuery = ""
		m.prompt.Blur()
		m.input.Focus()
		return m, m.rerender()
	case "enter":
		query := strings.TrimSpace(m.prompt.Value())
		m.mode = modeCompose
		m.prompt.Blur()
		m.input.Focus()
		return m, m.archiveSearchCmd(query)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeCompose
	if msg.String() == "y" && m.directory.ActiveID() != "" {
		return m, m.deleteCmd(m.directory.ActiveID())
	}
	m.status = "Delete cancelled"
	return m, nil
}

func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()

	case key.Matches(msg, m.keys.Tab):
		m.focusOnList = !m.focusOnList
		return m, nil

	case key.Matches(msg, m.keys.NewConversation):
		if m.creating {
			return m, nil
		}
		m.creating = true
		return m, m.createCmd("New conversation", "")

	case key.Matches(msg, m.keys.Rename):
		if conv, ok := m.directory.Get(m.directory.ActiveID()); ok {
			m.mode = modeRename
			m.prompt.Placeholder = "New title"
			m.prompt.SetValue(conv.Title)
			m.prompt.CursorEnd()
			m.prompt.Focus()
			m.input.Blur()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.directory.ActiveID() != "" {
			m.mode = modeConfirmDelete
			m.status = "Delete this conversation? (y/n)"
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkHelpful):
		return m, m.markFeedback(true)

	case key.Matches(msg, m.keys.MarkUnhelpful):
		return m, m.markFeedback(false)

	case key.Matches(msg, m.keys.Export):
		if conv, ok := m.directory.Get(m.directory.ActiveID()); ok {
			return m, m.exportCmd(conv, m.thread.Messages())
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if last, ok := m.thread.LastInteraction(); ok {
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				return copyMsg{err: clipboard.CopyAnswer(ctx, last.Content, last.SourceDocuments)}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.SearchArchive):
		m.mode = modeSearch
		m.prompt.Placeholder = "Search past answers..."
		m.prompt.SetValue(m.archiveQuery)
		m.prompt.CursorEnd()
		m.prompt.Focus()
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focusOnList {
		switch msg.String() {
		case "up", "down", "k", "j":
			prev := m.directory.ActiveID()
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			cmds = append(cmds, cmd)
			selected := m.currentSelectedID()
			if selected != "" && selected != prev {
				m.directory.Select(selected)
				m.thread.Retarget(selected)
				m.view = viewTranscript
				m.archiveQuery = ""
				m.viewport.SetContent("Loading conversation...")
				cmds = append(cmds, m.loadCmd(selected))
			}
			return m, tea.Batch(cmds...)
		}
	} else {
		switch msg.String() {
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit drives transition 1-3 of the send protocol: resolve a target
// conversation (creating one seeded from the input when none is
// active), append the user turn plus placeholder, and issue the send.
// The creating flag extends the single-flight rule across the create
// round trip: until the conversation exists, a second submit has no
// target and must be refused, not queued.
func (m *Model) submit() tea.Cmd {
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return nil
	}
	if m.thread.State() == chat.SendInFlight {
		m.status = "Still answering the previous question"
		return nil
	}
	activeID := m.directory.ActiveID()
	if activeID == "" && m.creating {
		m.status = "Still setting up the conversation"
		return nil
	}

	m.input.SetValue("")
	m.view = viewTranscript
	m.archiveQuery = ""

	if activeID == "" {
		m.creating = true
		return tea.Batch(m.createCmd(chat.TitleFromInput(question), question), m.spinner.Tick)
	}

	if err := m.thread.StartExchange(activeID, question); err != nil {
		m.status = err.Error()
		return nil
	}
	return tea.Batch(m.rerender(), m.sendCmd(activeID, question), m.spinner.Tick)
}

// markFeedback applies the click locally first, then reports it. No
// rollback on failure.
func (m *Model) markFeedback(positive bool) tea.Cmd {
	last, ok := m.thread.LastInteraction()
	if !ok {
		m.status = "No answer to rate yet"
		return nil
	}
	m.thread.SetFeedback(*last.InteractionID, positive)
	return tea.Batch(m.rerender(), m.feedbackCmd(*last.InteractionID, positive))
}

// applyConversations rebuilds the visible list, grouped into recency
// buckets, preserving the active selection.
func (m *Model) applyConversations() {
	groups := chat.GroupByRecency(m.now(), m.directory.Conversations())
	items := make([]list.Item, 0, m.directory.Len())
	for _, g := range groups {
		for _, c := range g.Conversations {
			items = append(items, conversationItem{c: c, bucket: g.Label})
		}
	}
	m.list.SetItems(items)
	m.syncListSelection()
}

func (m *Model) syncListSelection() {
	active := m.directory.ActiveID()
	if active == "" {
		return
	}
	for idx, item := range m.list.Items() {
		if ci, ok := item.(conversationItem); ok && ci.c.ID == active {
			m.list.Select(idx)
			return
		}
	}
}

func (m *Model) currentSelectedID() string {
	item, ok := m.list.SelectedItem().(conversationItem)
	if !ok {
		return ""
	}
	return item.c.ID
}

// rerender queues an async markdown render of the current transcript.
func (m *Model) rerender() tea.Cmd {
	m.view = viewTranscript
	return m.render(buildThreadMarkdown(m.thread))
}

func (m *Model) render(markdown string) tea.Cmd {
	m.renderNonce++
	wrap := m.viewport.Width - 2
	if wrap < 20 {
		wrap = 20
	}
	return m.renderCmd(markdown, wrap, m.renderNonce)
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	left, right := m.paneWidths()

	bodyHeight := m.height - 4
	if bodyHeight < 8 {
		bodyHeight = 8
	}

	m.list.SetSize(left-2, bodyHeight-2)
	m.viewport.Width = right - 2
	m.viewport.Height = bodyHeight - 2
	m.input.Width = m.width - 4
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	status := m.statusLine()
	left, right := m.paneWidths()
	bodyHeight := m.height - 4
	if bodyHeight < 8 {
		bodyHeight = 8
	}
	leftPane := panelStyle(m.focusOnList).Width(left).Height(bodyHeight).Render(m.list.View())
	rightPane := panelStyle(!m.focusOnList).Width(right).Height(bodyHeight).Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	inputLine := m.input.View()
	switch m.mode {
	case modeRename:
		inputLine = "rename: " + m.prompt.View()
	case modeSearch:
		inputLine = "archive: " + m.prompt.View()
	case modeConfirmDelete:
		inputLine = "delete? press y to confirm"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		body,
		inputLine,
		m.help.View(m.keys),
	)
}

func (m Model) statusLine() string {
	parts := []string{}
	if m.user.Email != "" {
		who := m.user.Email
		if m.user.Superuser {
			who += " (admin)"
		}
		parts = append(parts, who)
	}
	if conv, ok := m.directory.Get(m.directory.ActiveID()); ok {
		parts = append(parts, shorten(conv.Title, 40))
	}
	if m.loadingList {
		parts = append(parts, m.spinner.View()+" loading...")
	}
	if m.thread.State() == chat.SendInFlight {
		parts = append(parts, m.spinner.View()+" answering...")
	}
	if m.view == viewArchive {
		parts = append(parts, "[archive]")
	}
	if strings.TrimSpace(m.status) != "" {
		parts = append(parts, shorten(strings.TrimSpace(m.status), 60))
	}
	if m.err != nil {
		parts = append(parts, "err="+shorten(m.err.Error(), 60))
	}
	return statusStyle.Render(strings.Join(parts, "  "))
}

func (m *Model) paneWidths() (int, int) {
	left := m.width / 3
	if left < 28 {
		left = 28
	}
	if left > m.width-32 {
		left = m.width - 32
	}
	if left < 20 {
		left = 20
	}
	right := m.width - left - 1
	if right < 20 {
		right = 20
	}
	return left, right
}

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
	searchMatchStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("16")).
				Background(lipgloss.Color("220"))
)

func panelStyle(active bool) lipgloss.Style {
	border := lipgloss.NormalBorder()
	if active {
		return lipgloss.NewStyle().
			Border(border, true).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	}
	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
}

type keyMap struct {
	Submit          key.Binding
	Tab             key.Binding
	NewConversation key.Binding
	Rename          key.Binding
	Delete          key.Binding
	MarkHelpful     key.Binding
	MarkUnhelpful   key.Binding
	Export          key.Binding
	Copy            key.Binding
	SearchArchive   key.Binding
	PageUp          key.Binding
	PageDown        key.Binding
	Quit            key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle focus"),
		),
		NewConversation: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new conversation"),
		),
		Rename: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "rename"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "delete"),
		),
		MarkHelpful: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "helpful"),
		),
		MarkUnhelpful: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "unhelpful"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "copy answer"),
		),
		SearchArchive: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "archive search"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Tab, k.NewConversation, k.MarkHelpful, k.MarkUnhelpful, k.SearchArchive, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Tab, k.NewConversation, k.Rename, k.Delete},
		{k.MarkHelpful, k.MarkUnhelpful, k.Export, k.Copy},
		{k.SearchArchive, k.PageUp, k.PageDown, k.Quit},
	}
}
