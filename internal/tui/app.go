package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bazlabs/baz/internal/agent"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	agentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	toolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// responseMsg delivers the result of one completed user turn
type responseMsg struct {
	result *agent.ChatResult
	err    error
}

// Model is the chat TUI model
type Model struct {
	agent       *agent.Agent
	personaName string
	modelName   string

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	lines    []string
	thinking bool
	ready    bool
	width    int
	height   int
}

// New creates a new chat TUI model
func New(ag *agent.Agent, personaName, modelName string) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask Baz something... (/help for commands)"
	ta.Focus()
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.CharLimit = 4000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		agent:       ag,
		personaName: personaName,
		modelName:   modelName,
		textarea:    ta,
		spinner:     sp,
	}
}

// Init initializes the TUI
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "ctrl+l":
			m.lines = nil
			m.refreshViewport()
			return m, nil

		case "enter":
			if m.thinking {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.addLine(userStyle.Render("You: ") + input)
			m.thinking = true
			return m, tea.Batch(m.spinner.Tick, m.sendMessage(input))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		statusHeight := 1
		inputHeight := 4
		viewportHeight := msg.Height - headerHeight - statusHeight - inputHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewportHeight
		}
		m.textarea.SetWidth(msg.Width)
		m.refreshViewport()

	case responseMsg:
		m.thinking = false
		if msg.err != nil {
			m.addLine(errorStyle.Render("Error: " + msg.err.Error()))
			return m, nil
		}
		for _, tc := range msg.result.ToolCalls {
			line := fmt.Sprintf("  ⚙ %s(%s) → %s", tc.Name, compactArgs(tc.Args), tc.Output)
			if tc.IsError {
				line = fmt.Sprintf("  ⚙ %s(%s) → error: %s", tc.Name, compactArgs(tc.Args), tc.Output)
			}
			m.addLine(toolStyle.Render(line))
		}
		m.addLine(agentStyle.Render("Baz: ") + msg.result.Response)
		return m, nil

	case spinner.TickMsg:
		if m.thinking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleCommand processes slash commands
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch input {
	case "/quit", "/exit", "/q":
		return m, tea.Quit
	case "/clear", "/reset":
		m.agent.Reset()
		m.lines = nil
		m.addLine(statusStyle.Render("Conversation cleared."))
	case "/help":
		m.addLine(statusStyle.Render("Commands: /help  /clear (reset conversation)  /quit"))
	default:
		m.addLine(statusStyle.Render("Unknown command: " + input))
	}
	return m, nil
}

// sendMessage runs one user turn off the update loop
func (m Model) sendMessage(text string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.agent.Chat(context.Background(), text)
		return responseMsg{result: result, err: err}
	}
}

func (m *Model) addLine(line string) {
	m.lines = append(m.lines, line, "")
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// compactArgs shortens a raw JSON argument string for inline display
func compactArgs(args string) string {
	args = strings.TrimSpace(args)
	if args == "{}" || args == "" {
		return ""
	}
	if len(args) > 60 {
		return args[:57] + "..."
	}
	return args
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	header := titleStyle.Render("baz") + statusStyle.Render(fmt.Sprintf("  %s · %s", m.personaName, m.modelName))

	status := ""
	if m.thinking {
		status = m.spinner.View() + statusStyle.Render(" thinking...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		m.viewport.View(),
		status,
		m.textarea.View(),
	)
}
