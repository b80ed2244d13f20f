package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/supportchat/internal/chat"
	"github.com/diogo/supportchat/internal/config"
	"github.com/diogo/supportchat/internal/theme"
)

// configView represents the current view in the config menu
type configView int

const (
	viewMain configView = iota
	viewThemeSelect
)

// Menu item indices for main view
const (
	menuHistoryMode = iota
	menuCopyToClipboard
	menuVerbose
	menuTheme
	menuExit
	menuItemCount
)

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// ConfigModel represents the config TUI state
type ConfigModel struct {
	config     config.Config
	configPath string
	logPath    string
	save       func(config.Config) error

	// Navigation
	view        configView
	cursor      int
	themeCursor int

	// Feedback
	feedback        string
	feedbackTimeout time.Duration

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewConfigModel creates a config menu over cfg. Changes are persisted
// with config.SaveConfig as they are made.
func NewConfigModel(cfg config.Config) ConfigModel {
	configPath, _ := config.GetConfigPath()
	logPath, _ := config.GetLogPath(cfg)

	current := cfg.TUITheme
	if current == "" {
		current = theme.DefaultName
	}
	themeCursor := 0
	for i, name := range theme.Names() {
		if name == current {
			themeCursor = i
			break
		}
	}
	ApplyTheme(current)

	return ConfigModel{
		config:          cfg,
		configPath:      configPath,
		logPath:         logPath,
		save:            config.SaveConfig,
		view:            viewMain,
		themeCursor:     themeCursor,
		feedbackTimeout: 2 * time.Second,
	}
}

// Config returns the configuration as edited so far
func (m ConfigModel) Config() config.Config {
	return m.config
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

// clearFeedback returns a command that clears the feedback message after a delay
func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.view == viewThemeSelect {
				m.view = viewMain
			} else {
				return m, tea.Quit
			}

		case "up", "k":
			if m.view == viewMain {
				m.cursor = wrap(m.cursor-1, menuItemCount)
			} else {
				m.themeCursor = wrap(m.themeCursor-1, len(theme.Names()))
			}

		case "down", "j":
			if m.view == viewMain {
				m.cursor = wrap(m.cursor+1, menuItemCount)
			} else {
				m.themeCursor = wrap(m.themeCursor+1, len(theme.Names()))
			}

		case "enter", " ":
			return m.handleSelect()
		}
	}

	return m, nil
}

func wrap(i, n int) int {
	if i < 0 {
		return n - 1
	}
	if i >= n {
		return 0
	}
	return i
}

// persist saves the config and sets the feedback line
func (m *ConfigModel) persist(success string) tea.Cmd {
	if err := m.save(m.config); err != nil {
		m.feedback = fmt.Sprintf("Error: %v", err)
	} else {
		m.feedback = success
	}
	return clearFeedback(m.feedbackTimeout)
}

// handleSelect handles menu item selection
func (m ConfigModel) handleSelect() (tea.Model, tea.Cmd) {
	if m.view == viewThemeSelect {
		selected := theme.Names()[m.themeCursor]
		m.config.TUITheme = selected
		ApplyTheme(selected)
		m.view = viewMain
		return m, m.persist(fmt.Sprintf("Theme set to %s", selected))
	}

	switch m.cursor {
	case menuHistoryMode:
		if m.config.HistoryMode == string(chat.HistorySnapshot) {
			m.config.HistoryMode = string(chat.HistoryLive)
		} else {
			m.config.HistoryMode = string(chat.HistorySnapshot)
		}
		return m, m.persist(fmt.Sprintf("History mode set to %s", m.config.HistoryMode))

	case menuCopyToClipboard:
		m.config.CopyToClipboard = !m.config.CopyToClipboard
		return m, m.persist(fmt.Sprintf("Copy to clipboard %s", enabledWord(m.config.CopyToClipboard)))

	case menuVerbose:
		m.config.Verbose = !m.config.Verbose
		return m, m.persist(fmt.Sprintf("Verbose logging %s", enabledWord(m.config.Verbose)))

	case menuTheme:
		m.view = viewThemeSelect
		return m, nil

	case menuExit:
		return m, tea.Quit
	}

	return m, nil
}

func enabledWord(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

// View renders the TUI
func (m ConfigModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	sections := []string{
		configHeaderStyle.Width(contentWidth).Render(configTitleStyle.Render("Configuration")),
	}

	paths := lipgloss.JoinVertical(lipgloss.Left,
		configSectionTitleStyle.Render("Paths"),
		fmt.Sprintf("   Config:   %s", configPathStyle.Render(m.configPath)),
		fmt.Sprintf("   Log:      %s", configPathStyle.Render(m.logPath)),
		fmt.Sprintf("   Endpoint: %s", configValueStyle.Render(m.config.Endpoint)),
	)
	sections = append(sections, configPanelStyle.Width(contentWidth).Render(paths))

	var settings string
	if m.view == viewThemeSelect {
		settings = m.renderThemeSelect()
	} else {
		settings = m.renderMainMenu()
	}
	sections = append(sections, configPanelStyle.Width(contentWidth).Render(settings))

	if m.feedback != "" {
		sections = append(sections, configFeedbackStyle.Render("✓ "+m.feedback))
	}

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ConfigModel) menuLine(index int, label, value string) string {
	cursor := "  "
	style := configMenuItemStyle
	if m.cursor == index {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	if value == "" {
		return cursor + style.Render(label)
	}
	return fmt.Sprintf("%s%-20s%s", cursor, style.Render(label), value)
}

// renderMainMenu renders the main settings menu
func (m ConfigModel) renderMainMenu() string {
	currentTheme := m.config.TUITheme
	if currentTheme == "" {
		currentTheme = theme.DefaultName
	}
	mode := m.config.HistoryMode
	if mode == "" {
		mode = string(chat.HistoryLive)
	}

	items := []string{
		configSectionTitleStyle.Render("Settings"),
		"",
		m.menuLine(menuHistoryMode, "History Mode", configValueStyle.Render(mode)),
		m.menuLine(menuCopyToClipboard, "Copy to Clipboard", m.renderBoolValue(m.config.CopyToClipboard)),
		m.menuLine(menuVerbose, "Verbose Logging", m.renderBoolValue(m.config.Verbose)),
		m.menuLine(menuTheme, "Theme", configValueStyle.Render(currentTheme)),
		"",
		m.menuLine(menuExit, "Exit", ""),
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// renderThemeSelect renders the theme selection sub-menu
func (m ConfigModel) renderThemeSelect() string {
	items := []string{configSectionTitleStyle.Render("Select Theme"), ""}

	currentTheme := m.config.TUITheme
	if currentTheme == "" {
		currentTheme = theme.DefaultName
	}

	for i, t := range theme.All() {
		cursor := "  "
		style := configMenuItemStyle
		if m.themeCursor == i {
			cursor = configCursorStyle.Render("▸ ")
			style = configMenuSelectedStyle
		}

		current := ""
		if t.Name == currentTheme {
			current = configStatusOkStyle.Render(" (current)")
		}

		items = append(items, cursor+style.Render(fmt.Sprintf("%s - %s", t.Name, t.Description))+current)
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// renderBoolValue renders a boolean value with appropriate styling
func (m ConfigModel) renderBoolValue(value bool) string {
	if value {
		return configEnabledStyle.Render("enabled")
	}
	return configDisabledStyle.Render("disabled")
}

// renderStatusBar renders the bottom status bar
func (m ConfigModel) renderStatusBar(width int) string {
	back := "Exit"
	if m.view == viewThemeSelect {
		back = "Back"
	}
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"↑↓", "Navigate"},
		{"Enter", "Select"},
		{"Esc", back},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return configStatusBarStyle.Width(width).Render(strings.Join(items, "  │  "))
}

// RunConfig starts the config TUI
func RunConfig(cfg config.Config) error {
	p := tea.NewProgram(NewConfigModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
