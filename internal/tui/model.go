package tui

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/supportchat/internal/chat"
	"github.com/diogo/supportchat/internal/config"
	"github.com/diogo/supportchat/internal/models"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// replyMsg carries the result of a turn's request back to Update
	replyMsg struct {
		turn  *chat.Turn
		reply string
		err   error
	}
	// noticeClearMsg clears the transient notice in the status bar
	noticeClearMsg struct{}
)

// Layout constants
const (
	headerHeight   = 2
	inputHeight    = 3
	statusHeight   = 1
	settingsHeight = 9
	minViewport    = 4
)

// Model represents the chat TUI state. It is a view of the Store: every
// rendered message, the loading indicator and the settings panel are read
// back from the store rather than kept locally.
type Model struct {
	pipeline *chat.Pipeline
	store    *chat.Store
	host     string

	ctx    context.Context
	cancel context.CancelFunc

	// UI components
	viewport    viewport.Model
	input       textinput.Model
	instruction textarea.Model

	// State
	ready          bool
	revision       uint64
	animationFrame int
	lastErr        error
	notice         string

	// Persona picker inside the settings panel
	personas       PersonaStore
	pickingPersona bool
	personaList    []config.Persona
	personaCursor  int

	copyToClipboard func(string) error

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a chat model driving pipeline. endpoint is shown in
// the header.
func NewChatModel(pipeline *chat.Pipeline, endpoint string) Model {
	store := pipeline.Store()

	in := textinput.New()
	in.Placeholder = "Type your message..."
	in.CharLimit = 4000
	in.Prompt = ""
	in.TextStyle = lipgloss.NewStyle().Foreground(colorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(colorTextDim)
	in.SetValue(store.Draft())
	in.Focus()

	ta := textarea.New()
	ta.Placeholder = "System instruction"
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.SetValue(store.SystemInstruction())
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.BlurredStyle = ta.FocusedStyle

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		pipeline:        pipeline,
		store:           store,
		host:            endpointHost(endpoint),
		ctx:             ctx,
		cancel:          cancel,
		input:           in,
		instruction:     ta,
		personas:        NewPersonaStore(),
		copyToClipboard: clipboard.WriteAll,
	}
}

func endpointHost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*300, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

func clearNotice(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return noticeClearMsg{}
	})
}

// execute runs the turn's request off the event loop
func (m Model) execute(turn *chat.Turn) tea.Cmd {
	pipeline, ctx := m.pipeline, m.ctx
	return func() tea.Msg {
		reply, err := pipeline.Execute(ctx, turn)
		return replyMsg{turn: turn, reply: reply, err: err}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refreshViewport()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		if m.store.SettingsVisible() {
			cmd = m.updateSettings(msg)
			return m.afterUpdate(), cmd
		}

		switch msg.String() {
		case "esc":
			m.cancel()
			return m, tea.Quit

		case "ctrl+s":
			m.openSettings()
			return m.afterUpdate(), textarea.Blink

		case "ctrl+y":
			return m.copyLastReply()

		case "enter":
			m.store.SetDraft(m.input.Value())
			turn, ok := m.pipeline.Begin(m.store.Draft())
			if !ok {
				return m, nil
			}
			m.input.Reset()
			m.animationFrame = 0
			m.lastErr = nil
			return m.afterUpdate(), tea.Batch(m.execute(turn), animationTick())

		case "pgup", "pgdown", "up", "down":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		// Typing stays enabled while a request is in flight
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		m.store.SetDraft(m.input.Value())

	case replyMsg:
		out := m.pipeline.Finish(msg.turn, msg.reply, msg.err)
		if out.Failed {
			m.lastErr = out.Err
		}

	case animationTickMsg:
		if m.store.Loading() {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}

	case noticeClearMsg:
		m.notice = ""

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m.afterUpdate(), tea.Batch(cmds...)
}

// updateSettings handles keys while the settings panel is open
func (m *Model) updateSettings(msg tea.KeyMsg) tea.Cmd {
	if m.pickingPersona {
		return m.updatePersonaPicker(msg)
	}

	switch msg.String() {
	case "esc", "ctrl+s":
		m.closeSettings()
		return nil
	case "ctrl+p":
		return m.openPersonaPicker()
	case "ctrl+r":
		m.store.Reset()
		m.lastErr = nil
		m.notice = "Chat reset"
		return clearNotice(2 * time.Second)
	}

	var cmd tea.Cmd
	m.instruction, cmd = m.instruction.Update(msg)
	if v := m.instruction.Value(); v != m.store.SystemInstruction() {
		m.store.SetSystemInstruction(v)
	}
	return cmd
}

func (m *Model) openPersonaPicker() tea.Cmd {
	list, err := m.personas.List()
	if err != nil {
		m.notice = "Personas unavailable: " + err.Error()
		return clearNotice(2 * time.Second)
	}
	if len(list) == 0 {
		return nil
	}
	m.personaList = list
	m.personaCursor = 0
	m.pickingPersona = true
	return nil
}

// updatePersonaPicker moves through the persona list. Enter replaces the
// system instruction with the persona's prompt.
func (m *Model) updatePersonaPicker(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "ctrl+p":
		m.pickingPersona = false
	case "up", "k":
		if m.personaCursor > 0 {
			m.personaCursor--
		}
	case "down", "j":
		if m.personaCursor < len(m.personaList)-1 {
			m.personaCursor++
		}
	case "enter":
		p := m.personaList[m.personaCursor]
		m.store.SetSystemInstruction(p.SystemPrompt)
		m.instruction.SetValue(p.SystemPrompt)
		m.pickingPersona = false
		m.notice = "Persona: " + p.Name
		return clearNotice(2 * time.Second)
	}
	return nil
}

func (m *Model) openSettings() {
	m.store.SetSettingsVisible(true)
	m.instruction.SetValue(m.store.SystemInstruction())
	m.instruction.Focus()
	m.input.Blur()
	m.resize()
}

func (m *Model) closeSettings() {
	m.store.SetSettingsVisible(false)
	m.pickingPersona = false
	m.instruction.Blur()
	m.input.Focus()
	m.resize()
}

func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	reply, ok := m.store.LastReply()
	if !ok {
		return m, nil
	}
	if err := m.copyToClipboard(reply); err != nil {
		m.notice = "Copy failed: " + err.Error()
	} else {
		m.notice = "Copied last reply"
	}
	return m, clearNotice(2 * time.Second)
}

// afterUpdate re-renders the transcript when the store changed and keeps
// it scrolled to the latest message
func (m Model) afterUpdate() Model {
	if rev := m.store.Revision(); rev != m.revision {
		m.revision = rev
		m.refreshViewport()
	}
	return m
}

func (m *Model) resize() {
	if m.width == 0 {
		return
	}
	contentWidth := m.width - 2

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - 2
	if m.store.SettingsVisible() {
		vpHeight -= settingsHeight
	}
	if vpHeight < minViewport {
		vpHeight = minViewport
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth-2, vpHeight)
	} else {
		m.viewport.Width = contentWidth - 2
		m.viewport.Height = vpHeight
	}
	m.input.Width = contentWidth - 8
	m.instruction.SetWidth(contentWidth - 4)
}

// refreshViewport renders every stored message and scrolls to the bottom
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	width := m.viewport.Width
	bubbleWidth := width * 3 / 4
	if bubbleWidth < 10 {
		bubbleWidth = width
	}

	var sections []string
	for _, msg := range m.store.Messages() {
		sections = append(sections, renderBubble(msg, width, bubbleWidth))
	}
	return strings.Join(sections, "\n\n")
}

// renderBubble draws one message as plain text. User messages align right.
func renderBubble(msg models.Message, width, bubbleWidth int) string {
	text := msg.Content
	if lipgloss.Width(text) > bubbleWidth {
		text = lipgloss.NewStyle().Width(bubbleWidth - 2).Render(text)
	}

	if msg.Role == models.RoleUser {
		block := lipgloss.JoinVertical(lipgloss.Right,
			userLabelStyle.Render("You"),
			userBubbleStyle.Render(text),
		)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		assistantLabelStyle.Render("Assistant"),
		assistantBubbleStyle.Render(text),
	)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 2
	sections := []string{m.renderHeader(contentWidth)}

	if m.store.SettingsVisible() {
		sections = append(sections, m.renderSettings(contentWidth))
	}

	sections = append(sections, messagesAreaStyle.Width(contentWidth).Render(m.viewport.View()))

	var inputContent string
	if m.store.Loading() {
		inputContent = lipgloss.JoinHorizontal(lipgloss.Center,
			m.renderLoadingAnimation(),
			hintStyle.Render("  "+m.input.Value()),
		)
	} else {
		inputContent = lipgloss.JoinHorizontal(lipgloss.Center,
			inputLabelStyle.Render("›"),
			m.input.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))
	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(width int) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("AI Chat Assistant"),
		subtitleStyle.Render("Powered by "+m.host),
	)
	return headerStyle.Width(width).Render(content)
}

func (m Model) renderSettings(width int) string {
	body := m.instruction.View()
	if m.pickingPersona {
		body = m.renderPersonaPicker()
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		settingsTitleStyle.Render("System Instructions"),
		body,
		hintStyle.Render("ctrl+p Personas  •  ctrl+r Reset Chat  •  esc Done"),
	)
	return settingsPanelStyle.Width(width).Render(content)
}

// renderPersonaPicker shows a window of the persona list around the cursor
func (m Model) renderPersonaPicker() string {
	const visible = 4
	start := 0
	if m.personaCursor >= visible {
		start = m.personaCursor - visible + 1
	}
	end := start + visible
	if end > len(m.personaList) {
		end = len(m.personaList)
	}

	var lines []string
	for i := start; i < end; i++ {
		p := m.personaList[i]
		cursor := "  "
		style := configMenuItemStyle
		if i == m.personaCursor {
			cursor = configCursorStyle.Render("▸ ")
			style = configMenuSelectedStyle
		}
		lines = append(lines, cursor+style.Render(p.Name)+configValueStyle.Render("  "+p.Description))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderLoadingAnimation renders three dots that light up in turn
func (m Model) renderLoadingAnimation() string {
	var dots strings.Builder
	lit := m.animationFrame % 3
	for i := 0; i < 3; i++ {
		style := lipgloss.NewStyle().Foreground(colorTextMute)
		if i == lit {
			style = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
		}
		dots.WriteString(style.Render("●"))
	}
	return dots.String()
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	if m.notice != "" {
		return statusBarStyle.Width(width).Render(noticeStyle.Render(m.notice))
	}
	if m.lastErr != nil {
		return statusBarStyle.Width(width).Render(errorStyle.Render("Last request failed: " + firstLine(m.lastErr.Error())))
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+S", "Settings"},
		{"Ctrl+Y", "Copy"},
		{"Esc", "Quit"},
	}
	if m.store.SettingsVisible() {
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"Ctrl+P", "Personas"},
			{"Ctrl+R", "Reset"},
			{"Esc", "Done"},
		}
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// RunChat starts the chat TUI
func RunChat(pipeline *chat.Pipeline, endpoint string) error {
	m := NewChatModel(pipeline, endpoint)
	defer m.cancel()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
