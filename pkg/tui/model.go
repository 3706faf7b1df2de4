package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

// Service is the multi-agent system as seen by the chat UI.
type Service interface {
	ProcessQuery(ctx context.Context, query, conversationID string) (contractx.QueryResult, error)
	ClearHistory()
	Agents() []a2a.Descriptor
}

const (
	title     = "Customer Service Agents"
	inputHint = "Ask about a customer or a support issue"
	helpLine  = "enter send · /agents list agents · /logs toggle agent logs · /clear reset · esc quit"
)

type styles struct {
	header    lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	meta      lipgloss.Style
	errorText lipgloss.Style
	logLine   lipgloss.Style
	footer    lipgloss.Style
}

func defaultStyles() styles {
	blue := lipgloss.Color("#5FAFFF")
	pink := lipgloss.Color("#FF5F87")
	muted := lipgloss.Color("#6C6C6C")
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#005F87")).
			Padding(0, 1),
		user:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("#87D787")).Bold(true),
		meta:      lipgloss.NewStyle().Foreground(muted).Italic(true),
		errorText: lipgloss.NewStyle().Foreground(pink).Bold(true),
		logLine:   lipgloss.NewStyle().Foreground(muted),
		footer:    lipgloss.NewStyle().Foreground(muted),
	}
}

type queryDoneMsg struct {
	query  string
	result contractx.QueryResult
	err    error
}

type model struct {
	ctx context.Context
	svc Service

	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model
	styles   styles

	transcript []string
	busy       bool
	showLogs   bool
	width      int
	height     int
}

func newModel(ctx context.Context, svc Service) model {
	input := textinput.New()
	input.Placeholder = inputHint
	input.Prompt = "› "
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := model{
		ctx:      ctx,
		svc:      svc,
		input:    input,
		timeline: viewport.New(80, 20),
		spinner:  sp,
		styles:   defaultStyles(),
		width:    80,
		height:   24,
	}
	m.appendLine(m.styles.meta.Render(fmt.Sprintf("%d agents ready. %s", len(svc.Agents()), helpLine)))
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case queryDoneMsg:
		m.busy = false
		m.renderResult(msg)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.timeline, cmd = m.timeline.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit handles the current input line and returns the query command, if any.
func (m *model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return nil
	}

	switch strings.ToLower(text) {
	case "/quit", "exit", "quit":
		return tea.Quit
	case "/clear":
		m.svc.ClearHistory()
		m.transcript = nil
		m.appendLine(m.styles.meta.Render("History cleared."))
		return nil
	case "/logs":
		m.showLogs = !m.showLogs
		m.appendLine(m.styles.meta.Render(fmt.Sprintf("Agent logs: %t", m.showLogs)))
		return nil
	case "/agents":
		for _, d := range m.svc.Agents() {
			m.appendLine(m.styles.meta.Render(fmt.Sprintf("%s: %s [%s]", d.Name, d.Description, strings.Join(d.Capabilities, ", "))))
		}
		return nil
	}

	if m.busy {
		m.appendLine(m.styles.errorText.Render("Still working on the previous query."))
		return nil
	}
	m.busy = true
	m.appendLine(m.styles.user.Render("You: ") + text)
	return m.queryCmd(text)
}

func (m model) queryCmd(query string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		result, err := svc.ProcessQuery(ctx, query, "")
		return queryDoneMsg{query: query, result: result, err: err}
	}
}

func (m *model) renderResult(msg queryDoneMsg) {
	if msg.err != nil {
		m.appendLine(m.styles.errorText.Render("Error: ") + msg.err.Error())
		return
	}
	m.appendLine(m.styles.assistant.Render("Agents: ") + msg.result.Response)

	agents := "none"
	if len(msg.result.AgentsUsed) > 0 {
		agents = strings.Join(msg.result.AgentsUsed, ", ")
	}
	m.appendLine(m.styles.meta.Render(fmt.Sprintf("agents used: %s · analysis: %s", agents, msg.result.Analysis.Source)))

	if m.showLogs {
		for _, line := range msg.result.AgentLogs {
			m.appendLine(m.styles.logLine.Render(line))
		}
	}
}

func (m *model) appendLine(line string) {
	m.transcript = append(m.transcript, line)
	m.timeline.SetContent(lipgloss.NewStyle().Width(m.timeline.Width).Render(strings.Join(m.transcript, "\n")))
	m.timeline.GotoBottom()
}

func (m *model) resize() {
	// header, input and footer take one line each
	m.timeline.Width = m.width
	m.timeline.Height = max(m.height-4, 3)
	m.input.Width = max(m.width-4, 10)
	m.timeline.SetContent(lipgloss.NewStyle().Width(m.timeline.Width).Render(strings.Join(m.transcript, "\n")))
	m.timeline.GotoBottom()
}

func (m model) View() string {
	status := ""
	if m.busy {
		status = " " + m.spinner.View() + " thinking"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.header.Render(title)+status,
		m.timeline.View(),
		m.input.View(),
		m.styles.footer.Render(helpLine),
	)
}

// Run starts the interactive chat and blocks until the user quits or ctx ends.
func Run(ctx context.Context, svc Service) error {
	p := tea.NewProgram(newModel(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run chat ui: %w", err)
	}
	return nil
}
