// Package tui renders a reasoning session in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/internal/session"
	"github.com/bizmatters/reasoning-console/internal/status"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	eventBuffer   = 256
	actionTimeout = 30 * time.Second
	// rows taken by header, progress, input and footer
	chromeHeight = 8
)

// Session is the part of the session controller the terminal UI drives
type Session interface {
	View() session.View
	Submit(ctx context.Context, req session.PromptRequest) error
	Reconnect(ctx context.Context) models.ConnectivityState
	RefreshStatus(ctx context.Context) (models.StatusSnapshot, error)
	ClearMessages() error
	Subscribe(buffer int) (<-chan models.SessionEvent, func())
}

type sessionEventMsg models.SessionEvent

type sessionClosedMsg struct{}

type actionDoneMsg struct {
	action string
	err    error
}

// Model is the bubbletea model of the console
type Model struct {
	session     Session
	params      session.PromptRequest
	events      <-chan models.SessionEvent
	unsubscribe func()

	view     session.View
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	progress progress.Model

	width  int
	height int
	notice string
	ready  bool
}

// New creates the model. params carries the generation settings applied to every
// prompt; its Prompt field is ignored.
func New(s Session, params session.PromptRequest) *Model {
	input := textinput.New()
	input.Placeholder = "Ask something..."
	input.CharLimit = 2000
	input.Focus()

	events, unsubscribe := s.Subscribe(eventBuffer)

	return &Model{
		session:     s,
		params:      params,
		events:      events,
		unsubscribe: unsubscribe,
		view:        s.View(),
		input:       input,
		viewport:    viewport.New(80, 20),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func waitEvent(ch <-chan models.SessionEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionEventMsg(event)
	}
}

func runAction(action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitEvent(m.events))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 3)
		m.input.Width = max(msg.Width-6, 10)
		m.progress.Width = max(msg.Width-20, 10)
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, Keys.Quit):
			m.unsubscribe()
			return m, tea.Quit
		case key.Matches(msg, Keys.Submit):
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case key.Matches(msg, Keys.Reconnect):
			m.notice = "Reconnecting..."
			cmds = append(cmds, runAction("reconnect", func(ctx context.Context) error {
				if !m.session.Reconnect(ctx).Reachable {
					return errors.New("inference service is still unreachable")
				}
				return nil
			}))
		case key.Matches(msg, Keys.Refresh):
			cmds = append(cmds, runAction("refresh", func(ctx context.Context) error {
				_, err := m.session.RefreshStatus(ctx)
				return err
			}))
		case key.Matches(msg, Keys.Clear):
			if err := m.session.ClearMessages(); err != nil {
				m.notice = err.Error()
			}
			m.refresh()
		case key.Matches(msg, Keys.ScrollUp), key.Matches(msg, Keys.ScrollDn):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case sessionEventMsg:
		m.refresh()
		cmds = append(cmds, waitEvent(m.events))

	case sessionClosedMsg:
		m.events = nil
		m.notice = "Session closed"

	case actionDoneMsg:
		m.notice = actionNotice(msg)
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.view.Busy {
			m.renderMessages()
		}

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) submit() tea.Cmd {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return nil
	}

	if reason := blockedReason(m.view); reason != "" {
		m.notice = reason
		return nil
	}

	req := m.params
	req.Prompt = prompt
	m.input.Reset()
	m.notice = ""

	return runAction("submit", func(ctx context.Context) error {
		return m.session.Submit(ctx, req)
	})
}

// blockedReason explains why the input is disabled, or returns ""
func blockedReason(view session.View) string {
	switch {
	case view.CanSubmit:
		return ""
	case !view.Connectivity.Reachable:
		return "Service unreachable; press C-r to reconnect"
	case view.Busy:
		return "A response is still being generated"
	case view.Status == nil || !view.Status.Trained():
		return "No trained model is available"
	default:
		return ""
	}
}

func actionNotice(msg actionDoneMsg) string {
	switch {
	case msg.err == nil && msg.action == "reconnect":
		return "Connected"
	case msg.err == nil:
		return ""
	case errors.Is(msg.err, status.ErrUnreachable):
		return "Service unreachable; press C-r to reconnect"
	default:
		// rejections already appear in the transcript as system messages
		var verr *session.ValidationError
		if errors.As(msg.err, &verr) {
			return ""
		}
		return msg.err.Error()
	}
}

func (m *Model) refresh() {
	m.view = m.session.View()
	m.renderMessages()
}

func (m *Model) renderMessages() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderTranscript(m.view.Messages, m.spinner.View(), m.viewport.Width))
	if atBottom || m.view.Busy {
		m.viewport.GotoBottom()
	}
}

func renderTranscript(messages []models.DisplayMessage, spin string, width int) string {
	if len(messages) == 0 {
		return DimStyle.Render("No messages yet. Type a prompt and press enter.")
	}

	wrap := max(width-4, 20)
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(kindLabel(msg.Kind))
		if !msg.ProducedAt.IsZero() && !msg.Pending {
			b.WriteString(DimStyle.Render(" " + msg.ProducedAt.Local().Format("15:04:05")))
		}
		b.WriteString("\n")
		if msg.Pending {
			b.WriteString(PendingStyle.Render(spin + " thinking..."))
		} else {
			b.WriteString(ContentStyle.Width(wrap).Render(msg.Content))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) header() string {
	conn := OfflineStyle.Render("○ Disconnected")
	if m.view.Connectivity.Reachable {
		conn = OnlineStyle.Render("● Connected")
	}

	model := DimStyle.Render("model: unknown")
	if m.view.Status != nil {
		model = DimStyle.Render(fmt.Sprintf("model: %s", m.view.Status.State))
		if m.view.Status.State == models.ModelTraining {
			model = DimStyle.Render(fmt.Sprintf("model: training %d%%", m.view.Status.Progress))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Center,
		HeaderStyle.Render("Reasoning Console"), " ", conn, "  ", model)
}

func (m *Model) progressLine() string {
	if !m.view.Busy {
		return ""
	}
	total := m.view.Progress.Total
	if total == 0 {
		// the batch length is unknown until the reply arrives
		total = max(m.view.NominalSteps, 1)
	}
	ratio := float64(m.view.Progress.Current) / float64(total)
	return fmt.Sprintf("%s %s Step %d of %d", m.spinner.View(), m.progress.ViewAs(ratio), m.view.Progress.Current, total)
}

func (m *Model) footer() string {
	var parts []string
	for _, b := range Keys.ShortHelp() {
		parts = append(parts, HelpKeyStyle.Render(b.Help().Key)+" "+HelpDescStyle.Render(b.Help().Desc))
	}
	help := strings.Join(parts, DimStyle.Render(" • "))
	if m.notice != "" {
		return ErrorStyle.Render(m.notice) + "\n" + help
	}
	return help
}

func (m *Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	input := m.input.View()
	if !m.view.CanSubmit {
		input = DimStyle.Render(input)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.viewport.View(),
		m.progressLine(),
		InputStyle.Width(max(m.width-2, 10)).Render(input),
		m.footer(),
	)
}
