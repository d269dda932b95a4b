package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer drives the bubbletea build display.
type TUIRenderer struct {
	mu       sync.Mutex
	cfg      Config
	program  *tea.Program
	model    *buildModel
	started  bool
	finished chan struct{}
}

// NewTUIRenderer creates a TUI renderer. Fails when the output is not
// a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	model := newBuildModel(cfg.ProjectDir)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:      cfg,
		model:    model,
		finished: make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}
	r.started = true

	var opts []tea.ProgramOption
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	// Inline rendering keeps the completion panel on screen after the
	// program exits, unlike the alternate screen buffer.
	r.program = tea.NewProgram(r.model, opts...)

	go func() {
		defer close(r.finished)
		_, _ = r.program.Run()
	}()

	return nil
}

// send delivers a message to the running program, if any.
func (r *TUIRenderer) send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(msg)
	}
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) { r.send(progressUpdateMsg(event)) }

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) { r.send(errorMsg(event)) }

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) { r.send(completeMsg(stats)) }

// Stop implements Renderer. Waits briefly for the program loop to
// drain so the final frame lands before the process exits.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program == nil {
		return nil
	}
	r.program.Quit()

	select {
	case <-r.finished:
	case <-time.After(2 * time.Second):
	}
	return nil
}

type progressUpdateMsg ProgressEvent
type errorMsg ErrorEvent
type completeMsg CompletionStats
type tickMsg time.Time

// buildModel is the bubbletea model for index build progress.
type buildModel struct {
	styles     Styles
	spinner    spinner.Model
	projectDir string
	width      int
	startedAt  time.Time

	stage    Stage
	parsed   int
	lastFile string
	errs     int
	warns    int

	quitting bool
	complete bool
	stats    CompletionStats
}

func newBuildModel(projectDir string) *buildModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	return &buildModel{
		styles:     DefaultStyles(),
		spinner:    sp,
		projectDir: projectDir,
		width:      80,
		startedAt:  time.Now(),
		stage:      StageScanning,
	}
}

// Init implements tea.Model.
func (m *buildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// tickCmd keeps the elapsed-time display moving between progress events.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "q" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case progressUpdateMsg:
		m.stage = msg.Stage
		if msg.Current > 0 {
			m.parsed = msg.Current
		}
		if msg.CurrentFile != "" {
			m.lastFile = msg.CurrentFile
		}

	case errorMsg:
		if msg.IsWarn {
			m.warns++
		} else {
			m.errs++
		}

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *buildModel) View() string {
	switch {
	case m.quitting:
		return "Cancelled.\n"
	case m.complete:
		return m.completionPanel()
	}

	width := m.contentWidth()
	divider := m.styles.Border.Render(strings.Repeat("─", width))

	rows := []string{m.stageRow(), divider, m.progressRow()}
	if m.lastFile != "" {
		rows = append(rows, divider, m.styles.Dim.Render(truncatePath(m.lastFile, width-2)))
	}

	title := "codescope"
	if m.projectDir != "" {
		title += " • " + m.projectDir
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorDarkGray)).
		Padding(0, 1).
		Width(width)

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(title),
		panel.Render(strings.Join(rows, "\n")),
	)
	return body + "\n" + m.statusBar()
}

func (m *buildModel) contentWidth() int {
	if w := m.width - 4; w >= 40 {
		return w
	}
	return 40
}

// stageRow renders the scan → parse → save pipeline with the active
// stage spinning.
func (m *buildModel) stageRow() string {
	labels := []struct {
		stage Stage
		short string
	}{
		{StageScanning, "Scan"},
		{StageParsing, "Parse"},
		{StageSaving, "Save"},
	}

	parts := make([]string, len(labels))
	for i, l := range labels {
		switch {
		case l.stage < m.stage:
			parts[i] = m.styles.Success.Render("● " + l.short)
		case l.stage == m.stage:
			parts[i] = m.styles.Active.Render(m.spinner.View() + " " + l.short)
		default:
			parts[i] = m.styles.Dim.Render("○ " + l.short)
		}
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

// progressRow renders the parse counter and elapsed time. The walk
// discovers files as it goes, so there is no total to show a bar
// against.
func (m *buildModel) progressRow() string {
	if m.parsed == 0 {
		return fmt.Sprintf("%s %s...\n%s",
			m.spinner.View(), m.stage, m.styles.Dim.Render("Preparing..."))
	}

	count := m.styles.Active.Render(fmt.Sprintf("%d files parsed", m.parsed))
	elapsed := m.styles.Label.Render("Elapsed: " + formatDuration(time.Since(m.startedAt)))
	return count + m.styles.Dim.Render("  •  ") + elapsed
}

// statusBar renders the bottom line with error and warning counts.
func (m *buildModel) statusBar() string {
	sep := m.styles.Dim.Render("  │  ")
	quit := m.styles.Dim.Render("q to quit")

	var parts []string
	if m.warns > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("⚠ %d warnings", m.warns)))
	}
	if m.errs > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("✗ %d errors", m.errs)))
	}
	if len(parts) == 0 {
		return quit
	}
	return strings.Join(parts, sep) + sep + quit
}

// completionPanel renders the final summary box.
func (m *buildModel) completionPanel() string {
	row := func(label string, value string) string {
		return m.styles.Label.Render(fmt.Sprintf("%-9s", label)) + " " + m.styles.Active.Render(value)
	}

	lines := []string{
		m.styles.Success.Render("✓ Index Complete"),
		"",
		row("Files:", fmt.Sprintf("%d", m.stats.Files)),
		row("Symbols:", fmt.Sprintf("%d", m.stats.Symbols)),
		row("Duration:", formatDuration(m.stats.Duration)),
	}

	if m.stats.Errors > 0 || m.stats.Warnings > 0 {
		lines = append(lines, "")
		if m.stats.Errors > 0 {
			lines = append(lines, m.styles.Error.Render(fmt.Sprintf("✗ %d errors", m.stats.Errors)))
		}
		if m.stats.Warnings > 0 {
			lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("⚠ %d warnings", m.stats.Warnings)))
		}
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorLime)).
		Padding(1, 2).
		Width(m.contentWidth())

	return panel.Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration renders a duration at the precision a human watching
// a build cares about.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// truncatePath shortens path to at most max characters. The filename is
// kept whole when it fits, with leading directories elided; otherwise
// only the path tail survives.
func truncatePath(path string, max int) string {
	if len(path) <= max {
		return path
	}
	if max <= 3 {
		return "..."
	}

	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		name := path[i+1:]
		if keep := max - len(name) - 4; keep > 0 {
			return path[:keep] + ".../" + name
		}
	}
	return "..." + path[len(path)-max+3:]
}

var _ Renderer = (*TUIRenderer)(nil)
