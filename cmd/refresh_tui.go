package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mod-catalog-mirror/logger"
	"mod-catalog-mirror/refresh"
	"mod-catalog-mirror/ui"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const statusStarting = "Initializing..."

// refreshProgressMsg is one stage change reported by the pipeline.
type refreshProgressMsg refresh.Event

// refreshDoneMsg carries the outcome of the cycle.
type refreshDoneMsg struct {
	report refresh.Report
	err    error
}

// refreshModel controls the UI for the refresh command
type refreshModel struct {
	spinner spinner.Model
	events  chan tea.Msg
	run     func(progress func(refresh.Event)) (refresh.Report, error)

	status    string
	completed []string
	report    refresh.Report
	err       error
	done      bool
}

func newRefreshModel(run func(progress func(refresh.Event)) (refresh.Report, error)) refreshModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ui.ColorSpinner))

	return refreshModel{
		spinner: s,
		events:  make(chan tea.Msg, 16),
		run:     run,
		status:  statusStarting,
	}
}

func (m refreshModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.start(),
		m.waitForActivity(),
	)
}

func (m refreshModel) start() tea.Cmd {
	return func() tea.Msg {
		go func() {
			defer close(m.events)
			report, err := m.run(func(e refresh.Event) {
				m.events <- refreshProgressMsg(e)
			})
			m.events <- refreshDoneMsg{report: report, err: err}
		}()
		return nil
	}
}

func (m refreshModel) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m refreshModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" || m.done {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshProgressMsg:
		if m.status != statusStarting {
			m.completed = append(m.completed, m.status)
		}
		m.status = msg.Message
		return m, m.waitForActivity()

	case refreshDoneMsg:
		m.done = true
		m.report = msg.report
		m.err = msg.err
		if msg.err != nil {
			m.status = "Refresh failed"
			return m, tea.Quit
		}
		if m.status != statusStarting {
			m.completed = append(m.completed, m.status)
		}
		m.status = "Finished"
		return m, tea.Quit
	}

	return m, nil
}

func (m refreshModel) View() string {
	var symbol string
	switch {
	case m.done && m.err != nil:
		symbol = ui.Cross()
	case m.done:
		symbol = ui.Check()
	default:
		symbol = m.spinner.View()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n %s %s\n\n", symbol, m.status)

	for _, c := range m.completed {
		fmt.Fprintf(&b, "  %s %s\n", ui.Success.Render("•"), c)
	}
	if len(m.completed) > 0 {
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(ui.Error.Render("Error:") + "\n")
		fmt.Fprintf(&b, "  %v\n\n", m.err)
	} else if m.done {
		printReport(&b, m.report)
	}
	return b.String()
}

// runRefreshTUI runs p under a bubbletea program and exits non-zero when the
// cycle fails.
func runRefreshTUI(ctx context.Context, p *refresh.Pipeline) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newRefreshModel(func(progress func(refresh.Event)) (refresh.Report, error) {
		p.Progress = progress
		return p.Run(ctx)
	})

	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		logger.Log.Warn("Refresh interrupted")
		return
	}
	if err != nil {
		logger.Log.Fatalw("Refresh view failed", zap.Error(err))
	}
	m := final.(refreshModel)
	if !m.done {
		// Quit early; cancel rolls back an import in flight.
		cancel()
		logger.Log.Warn("Refresh interrupted")
		return
	}
	if m.err != nil {
		logger.Log.Fatalw("Refresh failed", "kind", errorKind(m.err), zap.Error(m.err))
	}
}
