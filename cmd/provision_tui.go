// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/thermoprof/pkg/console"
	"github.com/Thermoquad/thermoprof/pkg/profile"
	"github.com/Thermoquad/thermoprof/pkg/provision"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// Event log entry
type eventEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for warnings and errors
}

// logRelay carries formatted log lines from the provisioning goroutine to
// the TUI. Lines are dropped when the TUI falls behind.
type logRelay struct {
	lines chan string
}

func newLogRelay() *logRelay {
	return &logRelay{lines: make(chan string, 256)}
}

func (r *logRelay) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	select {
	case r.lines <- line:
	default:
	}
	return len(p), nil
}

// listen waits for the next log line
func (r *logRelay) listen() tea.Cmd {
	return func() tea.Msg {
		return logLineMsg(<-r.lines)
	}
}

// Messages
type provisionProgressMsg provision.Progress
type logLineMsg string
type provisionDoneMsg struct {
	report provision.Report
	err    error
}

// provisionModel is the Bubble Tea model for the provisioning TUI
type provisionModel struct {
	connInfo string
	table    *profile.Table
	cancel   context.CancelFunc
	relay    *logRelay

	bar      progress.Model
	current  provision.Progress
	started  time.Time
	done     bool
	report   provision.Report
	err      error
	events   []eventEntry
	maxLog   int
	width    int
	height   int
	quitting bool
}

func initialProvisionModel(connInfo string, table *profile.Table, cancel context.CancelFunc, relay *logRelay) provisionModel {
	return provisionModel{
		connInfo: connInfo,
		table:    table,
		cancel:   cancel,
		relay:    relay,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(60)),
		started:  time.Now(),
		maxLog:   100,
		width:    80,
		height:   24,
	}
}

func (m provisionModel) Init() tea.Cmd {
	return m.relay.listen()
}

func (m provisionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.done {
				m.quitting = true
				return m, tea.Quit
			}
			// Stop the run; the sequencer reports back with a cancellation
			m.cancel()
			m.addEvent("Cancelling...", true)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - 8; w > 10 {
			m.bar.Width = w
		}

	case provisionProgressMsg:
		if msg.Phase != m.current.Phase {
			m.addEvent(phaseTitle(msg.Phase), false)
		}
		m.current = provision.Progress(msg)

	case logLineMsg:
		m.addEvent(string(msg), isWarningLine(string(msg)))
		return m, m.relay.listen()

	case provisionDoneMsg:
		m.done = true
		m.report = msg.report
		m.err = msg.err
		if msg.err != nil {
			m.addEvent(fmt.Sprintf("FAILED: %v", msg.err), true)
		} else {
			m.addEvent(fmt.Sprintf("Wrote %d registers", msg.report.Registers), false)
		}
	}

	return m, nil
}

func (m *provisionModel) addEvent(message string, isError bool) {
	m.events = append(m.events, eventEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.events) > m.maxLog {
		m.events = m.events[len(m.events)-m.maxLog:]
	}
}

// isWarningLine reports whether a console-formatted log line is WRN or worse
func isWarningLine(line string) bool {
	for _, lvl := range []string{" WRN ", " ERR ", " FTL "} {
		if strings.Contains(line, lvl) {
			return true
		}
	}
	return false
}

func (m provisionModel) View() string {
	if m.quitting {
		return ""
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("THERMOPROF - PROVISIONING"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Profiles: %d | Press 'q' to %s",
		m.connInfo, len(m.table.Profiles), func() string {
			if m.done {
				return "quit"
			}
			return "cancel"
		}())))
	s.WriteString("\n\n")

	// Progress
	status := strings.Builder{}
	phase := phaseTitle(m.current.Phase)
	if m.current.Phase == "" {
		phase = "Starting"
	}
	status.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Phase:"), valueStyle.Render(phase)))
	status.WriteString(m.bar.ViewAs(m.current.Percentage / 100))
	status.WriteString("\n")

	profileName := "-"
	if m.current.Phase == provision.PhaseWriting && m.current.Profile < len(m.table.Profiles) {
		profileName = fmt.Sprintf("%d %q", m.current.Profile, m.table.Profiles[m.current.Profile].Name)
	}
	status.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Registers:"), valueStyle.Render(fmt.Sprintf("%d/%d", m.current.Register, m.current.TotalRegisters)),
		labelStyle.Render("Profile:"), valueStyle.Render(profileName),
	))

	elapsed := m.current.ElapsedTime
	if m.done {
		elapsed = m.report.Elapsed
	}
	status.WriteString(fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("Timeouts:"), func() string {
			if m.current.Timeouts > 0 {
				return warningStyle.Render(fmt.Sprintf("%d", m.current.Timeouts))
			}
			return valueStyle.Render("0")
		}(),
		labelStyle.Render("Elapsed:"), valueStyle.Render(elapsed.Round(100*time.Millisecond).String()),
	))

	s.WriteString(boxStyle.Render(status.String()))
	s.WriteString("\n\n")

	// Result
	if m.done {
		if m.err != nil {
			s.WriteString(errorStyle.Render("✗ Provisioning failed"))
		} else {
			s.WriteString(valueStyle.Render("✓ Provisioning complete"))
			if m.report.Faults > 0 {
				s.WriteString(warningStyle.Render(fmt.Sprintf(" (%d rejected writes)", m.report.Faults)))
			}
		}
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 16 // Reserve space for header and progress
	if logHeight < 5 {
		logHeight = 5
	}
	startIdx := len(m.events) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	if len(m.events) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for _, entry := range m.events[startIdx:] {
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), warningStyle.Render("✗ "+entry.message)))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), "ℹ "+entry.message))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

// runProvisionTUI runs the sequencer in the background and renders its
// progress until the user quits.
func runProvisionTUI(ctx context.Context, con *console.Console, connInfo string, table *profile.Table, relay *logRelay, opts []provision.Option) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := initialProvisionModel(connInfo, table, cancel, relay)
	p := tea.NewProgram(m, tea.WithAltScreen())

	opts = append(opts,
		provision.WithLogger(log.Logger),
		provision.WithProgressCallback(func(pr provision.Progress) {
			p.Send(provisionProgressMsg(pr))
		}),
	)

	go func() {
		report, err := provision.New(con, opts...).Run(ctx, table.Profiles)
		p.Send(provisionDoneMsg{report: report, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fm := final.(provisionModel)
	if !fm.done {
		return fmt.Errorf("provisioning interrupted")
	}
	if fm.err != nil {
		return fmt.Errorf("provisioning failed after %d registers: %w", fm.report.Registers, fm.err)
	}

	printReport(fm.report)
	return nil
}
