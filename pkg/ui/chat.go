package ui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/grove/internal/vault"
	"github.com/vanderheijden86/grove/pkg/debug"
	"github.com/vanderheijden86/grove/pkg/model"
	"github.com/vanderheijden86/grove/pkg/ui/tree"
)

// chatRefreshMsg asks the chat screen to rebuild its rows from the store.
type chatRefreshMsg struct{ err error }

// messageSentMsg reports a confirmed send, resolving the pseudo cursor.
type messageSentMsg struct {
	id  model.MessageID
	err error
}

// chatModel is the chat screen: a tree of messages with a cursor, plus a
// compose area when a reply is open.
type chatModel struct {
	room *vault.RoomVault
	vs   *tree.ViewState
	nick string

	editor    textarea.Model
	composing bool

	nickInput  textinput.Model
	nickPrompt bool
	forceNick  bool

	rows      []row
	cursorIdx int // index into rows, -1 when cursor is Bottom and has no row

	width  int
	height int
	errMsg string
}

func newChatModel(room *vault.RoomVault, nick string, forceNick bool) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Reply..."
	ta.CharLimit = 0
	ta.SetHeight(3)
	ni := textinput.New()
	ni.Placeholder = "nick"
	ni.CharLimit = 36
	return chatModel{
		room:      room,
		vs:        tree.NewViewState(room),
		nick:      nick,
		forceNick: forceNick,
		editor:    ta,
		nickInput: ni,
		cursorIdx: -1,
	}
}

func (m chatModel) Init() tea.Cmd {
	return func() tea.Msg { return chatRefreshMsg{} }
}

// viewHeight is the number of message rows, leaving room for the title,
// status bar, and any open compose area.
func (m chatModel) viewHeight() int {
	h := m.height - 2
	if m.composing {
		h -= m.editor.Height() + 1
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editor.SetWidth(msg.Width - 2)
		m.layout()
		return m, nil

	case chatRefreshMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		m.layout()
		return m, nil

	case messageSentMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.layout()
			return m, nil
		}
		m.vs.ResolvePseudo(msg.id)
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if m.nickPrompt {
			return m.updateNickPrompt(msg)
		}
		if m.composing {
			return m.updateCompose(msg)
		}
		return m.updateNav(msg)
	}
	return m, nil
}

func (m chatModel) updateNav(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	ctx := context.Background()
	m.errMsg = ""
	var err error

	switch msg.String() {
	case "k", "up":
		err = m.vs.MoveUp(ctx)
	case "j", "down":
		err = m.vs.MoveDown(ctx)
	case "K":
		err = m.vs.MoveUpSibling(ctx)
	case "J":
		err = m.vs.MoveDownSibling(ctx)
	case "h", "left":
		err = m.vs.MoveToParent(ctx)
	case "H":
		err = m.vs.MoveToRoot(ctx)
	case "p":
		err = m.vs.MoveOlder(ctx)
	case "n":
		err = m.vs.MoveNewer(ctx)
	case "P":
		err = m.vs.MoveOlderUnseen(ctx)
	case "N":
		err = m.vs.MoveNewerUnseen(ctx)
	case "g":
		err = m.vs.MoveToTop(ctx)
	case "G", "esc":
		m.vs.MoveToBottom()
	case "ctrl+y":
		m.vs.ScrollUp(1)
	case "ctrl+e":
		m.vs.ScrollDown(1)
	case "ctrl+u":
		m.vs.ScrollUp(m.viewHeight() / 2)
	case "ctrl+d":
		m.vs.ScrollDown(m.viewHeight() / 2)
	case "z":
		m.vs.CenterCursor()
	case " ", "tab":
		m.vs.ToggleFold()
	case "r", "enter":
		return m.startReply(ctx, false)
	case "R":
		return m.startReply(ctx, true)
	case "y":
		m.yank()
	case "i":
		if m.forceNick {
			m.errMsg = "nick is pinned by config"
			break
		}
		m.nickPrompt = true
		m.nickInput.SetValue(m.nick)
		m.nickInput.Focus()
		return m, textinput.Blink
	case "s":
		if id, ok := cursorID(m.vs.Cursor()); ok {
			return m, m.markSeenCmd(id)
		}
	case "S":
		return m, m.markAllSeenCmd()
	case "d":
		if id, ok := cursorID(m.vs.Cursor()); ok {
			return m, m.deleteCmd(id)
		}
	}

	if err != nil {
		m.errMsg = err.Error()
	}
	m.layout()

	// Landing on a message marks it seen, like reading it.
	if id, ok := cursorID(m.vs.Cursor()); ok {
		return m, m.markSeenCmd(id)
	}
	return m, nil
}

func (m chatModel) startReply(ctx context.Context, alternate bool) (chatModel, tea.Cmd) {
	ok, err := m.vs.StartReply(ctx, alternate)
	if err != nil {
		m.errMsg = err.Error()
		m.layout()
		return m, nil
	}
	if !ok {
		return m, nil
	}
	m.composing = true
	m.editor.Reset()
	m.editor.Focus()
	m.layout()
	return m, textarea.Blink
}

func (m chatModel) updateCompose(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.composing = false
		m.editor.Blur()
		m.vs.AbortEditor()
		m.layout()
		return m, nil
	case "ctrl+s", "alt+enter":
		body := strings.TrimRight(m.editor.Value(), "\n")
		if body == "" {
			return m, nil
		}
		var parent *model.MessageID
		if ed, ok := m.vs.Cursor().(tree.Editor); ok {
			parent = ed.Parent
		}
		m.composing = false
		m.editor.Blur()
		m.vs.ConfirmEditor()
		m.layout()
		return m, m.sendCmd(parent, body)
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m chatModel) updateNickPrompt(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.nickPrompt = false
		m.nickInput.Blur()
		return m, nil
	case "enter":
		nick := strings.TrimSpace(m.nickInput.Value())
		m.nickPrompt = false
		m.nickInput.Blur()
		if nick != "" {
			m.nick = nick
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.nickInput, cmd = m.nickInput.Update(msg)
	return m, cmd
}

func (m *chatModel) yank() {
	id, ok := cursorID(m.vs.Cursor())
	if !ok {
		return
	}
	msg, err := m.room.Msg(context.Background(), id)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	if err := clipboard.WriteAll(msg.Content()); err != nil {
		debug.Log("chat: clipboard write failed: %v", err)
		m.errMsg = "clipboard unavailable"
	}
}

func (m chatModel) sendCmd(parent *model.MessageID, body string) tea.Cmd {
	room, nick := m.room, m.nick
	return func() tea.Msg {
		id := model.NewMessageID(time.Now())
		err := room.AddMessage(context.Background(), model.Msg{
			MsgID:  id,
			Parent: parent,
			At:     time.Now(),
			Author: nick,
			Body:   body,
			Seen:   true,
		}, nil)
		return messageSentMsg{id: id, err: err}
	}
}

func (m chatModel) markSeenCmd(id model.MessageID) tea.Cmd {
	room := m.room
	return func() tea.Msg {
		return chatRefreshMsg{err: room.MarkSeen(context.Background(), id)}
	}
}

func (m chatModel) markAllSeenCmd() tea.Cmd {
	room := m.room
	return func() tea.Msg {
		return chatRefreshMsg{err: room.MarkAllSeen(context.Background())}
	}
}

func (m chatModel) deleteCmd(id model.MessageID) tea.Cmd {
	room := m.room
	return func() tea.Msg {
		return chatRefreshMsg{err: room.DeleteMessage(context.Background(), id)}
	}
}

// layout rebuilds the row slice from the store, locates the cursor row, and
// resolves any pending correction against the viewport geometry.
func (m *chatModel) layout() {
	ctx := context.Background()
	m.rows = m.rows[:0]
	m.cursorIdx = -1

	draft := m.editor.Value()
	rootID, haveRoot, err := m.room.FirstRootID(ctx)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	for haveRoot {
		t, err := m.room.Tree(ctx, rootID)
		if err != nil {
			m.errMsg = err.Error()
			return
		}
		m.rows = append(m.rows, buildTreeRows(t, m.vs, m.nick, draft)...)
		rootID, haveRoot, err = m.room.NextRootID(ctx, rootID)
		if err != nil {
			m.errMsg = err.Error()
			return
		}
	}
	if r, ok := topLevelVirtualRow(m.vs.Cursor(), m.nick, draft); ok {
		m.rows = append(m.rows, r)
	}

	for i, r := range m.rows {
		if rowUnderCursor(r, m.vs.Cursor()) {
			m.cursorIdx = i
			break
		}
	}

	m.applyCorrection()
}

// applyCorrection resolves the view state's pending correction exactly once
// against the current rows. Scroll is the number of rows hidden below the
// viewport, so 0 keeps the view anchored to the live edge.
func (m *chatModel) applyCorrection() {
	height := m.viewHeight()
	total := len(m.rows)

	maxScroll := total - 1
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.vs.Scroll() > maxScroll {
		m.vs.SetScroll(maxScroll)
	}
	if m.vs.Scroll() < 0 {
		m.vs.SetScroll(0)
	}

	switch m.vs.TakeCorrection() {
	case tree.MakeCursorVisible:
		if m.cursorIdx < 0 {
			m.vs.SetScroll(0) // Bottom cursor anchors to the live edge
			return
		}
		fromBottom := total - 1 - m.cursorIdx
		if fromBottom < m.vs.Scroll() {
			m.vs.SetScroll(fromBottom)
		} else if fromBottom >= m.vs.Scroll()+height {
			m.vs.SetScroll(fromBottom - height + 1)
		}

	case tree.CenterCursor:
		if m.cursorIdx < 0 {
			return
		}
		fromBottom := total - 1 - m.cursorIdx
		s := fromBottom - height/2
		if s < 0 {
			s = 0
		}
		if s > maxScroll {
			s = maxScroll
		}
		m.vs.SetScroll(s)

	case tree.MoveCursorToVisibleArea:
		if total == 0 {
			return
		}
		lo, hi := m.visibleRange()
		if m.cursorIdx >= lo && m.cursorIdx < hi {
			return
		}
		idx := lo
		if m.cursorIdx >= hi {
			idx = hi - 1
		}
		for i := idx; i >= lo; i-- {
			if m.rows[i].kind == rowMsg {
				m.vs.SetCursorTo(m.rows[i].id)
				m.cursorIdx = i
				return
			}
		}
		for i := idx; i < hi; i++ {
			if m.rows[i].kind == rowMsg {
				m.vs.SetCursorTo(m.rows[i].id)
				m.cursorIdx = i
				return
			}
		}
	}
}

// visibleRange returns the [lo, hi) row window currently on screen.
func (m *chatModel) visibleRange() (int, int) {
	height := m.viewHeight()
	total := len(m.rows)
	hi := total - m.vs.Scroll()
	if hi > total {
		hi = total
	}
	lo := hi - height
	if lo < 0 {
		lo = 0
	}
	return lo, hi
}

func (m chatModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("&"+m.room.Name()) + "\n")

	lo, hi := m.visibleRange()
	lines := make([]string, 0, m.viewHeight())
	for i := lo; i < hi; i++ {
		lines = append(lines, renderRow(m.rows[i], m.width, i == m.cursorIdx))
	}
	for len(lines) < m.viewHeight() {
		lines = append([]string{""}, lines...)
	}
	b.WriteString(strings.Join(lines, "\n"))

	if m.composing {
		b.WriteString("\n" + m.editor.View())
	}
	if m.nickPrompt {
		b.WriteString("\nNick: " + m.nickInput.View())
	}
	b.WriteString("\n" + m.statusLine())
	return b.String()
}

func (m chatModel) statusLine() string {
	if m.errMsg != "" {
		return ErrStyle.Render(m.errMsg)
	}
	status := "j/k move · h parent · r reply · space fold · n/p chrono · N/P unseen · q rooms"
	if _, ok := m.vs.Cursor().(tree.Bottom); ok {
		status = "at the live edge · " + status
	}
	return StatusBarStyle.Render(status)
}

// cursorID extracts the message id a cursor points at, if any.
func cursorID(c tree.Cursor) (model.MessageID, bool) {
	if msg, ok := c.(tree.Msg); ok {
		return msg.ID, true
	}
	return 0, false
}
