// Package tui provides a Bubble Tea terminal user interface for browsing
// the spike trains of a recording.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/handiism/spikeview/internal/config"
	"github.com/handiism/spikeview/internal/model"
	"github.com/handiism/spikeview/internal/pipeline"
	"github.com/handiism/spikeview/internal/report"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	blockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is the number of log lines kept on screen.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateLoading
	StateBrowse
	StateDetail
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   pipeline.ProgressLevel
}

// trainRow is one spike train shown in the table.
type trainRow struct {
	dataset int
	segment string
	train   *model.SpikeTrain
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	table     table.Model
	settings  *config.Settings
	logs      []LogEntry
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	manager *pipeline.Manager
	rows    []trainRow
	events  chan pipeline.ProgressEvent

	raster  bool
	block   bool
	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model. A nil settings uses the defaults.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "recording.nev or recording.json"
	ti.SetValue(settings.Dataset)
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		table:     newTable(nil, 10),
		settings:  settings,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan pipeline.ProgressEvent, 64),
		raster:    settings.PlotMode == "raster",
		block:     settings.PlotScope == "block",
	}
}

func newTable(rows []table.Row, height int) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Recording", Width: 18},
		{Title: "Segment", Width: 10},
		{Title: "Train", Width: 14},
		{Title: "Spikes", Width: 8},
		{Title: "Rate", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4ECDC4")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#1D1D1D")).
		Background(lipgloss.Color("#F8B500"))
	t.SetStyles(s)

	return t
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForEvent(m.events))
}

// Message types
type (
	// ProgressMsg is sent for each pipeline progress event.
	ProgressMsg struct {
		Event pipeline.ProgressEvent
	}

	// LoadDoneMsg is sent when every dataset is loaded and extracted.
	LoadDoneMsg struct {
		Manager *pipeline.Manager
		Err     error
	}

	// PlotSavedMsg is sent when the plots have been written.
	PlotSavedMsg struct {
		Paths []string
		Err   error
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := msg.Height - 16
		if h < 5 {
			h = 5
		}
		m.table.SetHeight(h)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			switch m.state {
			case StateInput:
				return m, tea.Quit
			case StateLoading:
				m.cancel()
				m.state = StateError
				m.err = errors.New("cancelled by user")
			case StateDetail:
				m.state = StateBrowse
			}
			return m, nil

		case "enter":
			switch m.state {
			case StateInput:
				if strings.TrimSpace(m.textInput.Value()) != "" {
					m.state = StateLoading
					return m, tea.Batch(m.load(), m.spinner.Tick)
				}
			case StateBrowse:
				if len(m.rows) > 0 {
					m.state = StateDetail
				}
				return m, nil
			}

		case "ctrl+t":
			if m.state == StateInput {
				m.raster = !m.raster
			}
			return m, nil

		case "ctrl+b":
			if m.state == StateInput {
				m.block = !m.block
			}
			return m, nil

		case "ctrl+o":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}
			return m, nil

		case "s":
			if (m.state == StateBrowse || m.state == StateDetail) && m.manager != nil {
				return m, m.savePlots()
			}

		case "q":
			if m.state == StateBrowse || m.state == StateDetail || m.state == StateError {
				m.cancel()
				return m, tea.Quit
			}

		case "r":
			if m.state == StateBrowse || m.state == StateError {
				m.cancel()
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.manager = nil
				m.rows = nil
				m.table.SetRows(nil)
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, waitForEvent(m.events))
		if msg.Event.Level == pipeline.LevelVerbose && !m.verbose {
			return m, tea.Batch(cmds...)
		}
		m.addLog(msg.Event)

	case LoadDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.manager = msg.Manager
		m.rows = trainRows(msg.Manager.Datasets())
		m.table.SetRows(tableRows(m.rows, msg.Manager.Datasets()))
		m.table.GotoTop()
		m.state = StateBrowse

	case PlotSavedMsg:
		if msg.Err != nil {
			m.addLog(pipeline.ProgressEvent{Message: fmt.Sprintf("Error saving plot: %v", msg.Err), Level: pipeline.LevelError})
			break
		}
		for _, p := range msg.Paths {
			m.addLog(pipeline.ProgressEvent{Message: "Saved plot: " + p, Level: pipeline.LevelSuccess})
		}
	}

	switch m.state {
	case StateInput:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	case StateBrowse:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) addLog(event pipeline.ProgressEvent) {
	m.logs = append(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// selected returns the spike train under the table cursor.
func (m Model) selected() (trainRow, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return trainRow{}, false
	}
	return m.rows[i], true
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("spikeview"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Browse the spike trains of a recording"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateLoading:
		b.WriteString(m.viewLoading())
	case StateBrowse:
		b.WriteString(m.viewBrowse())
	case StateDetail:
		b.WriteString(m.viewDetail())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter recording path(s):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Raster plot (ctrl+t)\n", check(m.raster)))
	b.WriteString(fmt.Sprintf("  %s Plot every segment (ctrl+b)\n", check(m.block)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+o)\n", check(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Plot path: %s", m.settings.PlotPath)))
	b.WriteString("\n")

	return b.String()
}

func check(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewLoading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Loading recording..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewBrowse() string {
	var b strings.Builder

	if m.manager != nil {
		for _, ds := range m.manager.Datasets() {
			b.WriteString(blockStyle.Render(ds.Block.Name))
			b.WriteString(dimStyle.Render(fmt.Sprintf("  %d segment(s), %d spike(s)", len(ds.Block.Segments), ds.Block.SpikeCount())))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.table.View())
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDetail() string {
	row, ok := m.selected()
	if !ok {
		return ""
	}
	tr := row.train

	units := tr.Units
	if units == "" {
		units = model.DefaultTimeUnits
	}

	width := m.width - 8
	if width < 40 {
		width = 72
	}

	body := fmt.Sprintf(
		"Train:    %s\n"+
			"Segment:  %s\n"+
			"Channel:  %d  Unit: %d\n"+
			"Window:   [%s, %s] %s\n"+
			"Spikes:   %d  Rate: %s\n\n"+
			"%s",
		tr.Label(),
		row.segment,
		tr.ChannelID, tr.UnitID,
		formatFloat(tr.TStart), formatFloat(tr.TStop), units,
		tr.Len(), formatRate(tr),
		wrap(report.FormatTimes(tr.Times, units), width),
	)

	var b strings.Builder
	b.WriteString(boxStyle.Render(body))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case pipeline.LevelError:
			style = errorStyle
			prefix = "✗"
		case pipeline.LevelWarning:
			style = warningStyle
			prefix = "!"
		case pipeline.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case pipeline.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: load • ctrl+t: raster • ctrl+b: all segments • ctrl+o: verbose • esc: quit"
	case StateLoading:
		return "esc: cancel"
	case StateBrowse:
		return "↑/↓: select • enter: timestamps • s: save plot • r: new recording • q: quit"
	case StateDetail:
		return "esc: back • s: save plot • q: quit"
	case StateError:
		return "r: try again • q: quit"
	}
	return ""
}

// load runs the pipeline initialization for the entered paths.
func (m Model) load() tea.Cmd {
	settings := *m.settings
	settings.Dataset = m.textInput.Value()
	settings.PlotMode = "identity"
	if m.raster {
		settings.PlotMode = "raster"
	}
	settings.PlotScope = "first_segment"
	if m.block {
		settings.PlotScope = "block"
	}

	ctx := m.ctx
	events := m.events

	return func() tea.Msg {
		manager := pipeline.NewManager(&settings, func(event pipeline.ProgressEvent) {
			select {
			case events <- event:
			default:
			}
		})

		if err := manager.Initialize(ctx, settings.Dataset); err != nil {
			return LoadDoneMsg{Err: err}
		}
		return LoadDoneMsg{Manager: manager}
	}
}

// savePlots writes the plot of every loaded dataset.
func (m Model) savePlots() tea.Cmd {
	ctx := m.ctx
	manager := m.manager

	return func() tea.Msg {
		var paths []string
		for i, ds := range manager.Datasets() {
			path, err := manager.Plotter().Save(ctx, ds.Block, i, ds.Trains)
			if err != nil {
				return PlotSavedMsg{Paths: paths, Err: err}
			}
			paths = append(paths, path)
		}
		return PlotSavedMsg{Paths: paths}
	}
}

// waitForEvent delivers the next progress event as a ProgressMsg.
func waitForEvent(events <-chan pipeline.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		return ProgressMsg{Event: <-events}
	}
}

func trainRows(datasets []*pipeline.Dataset) []trainRow {
	var rows []trainRow
	for i, ds := range datasets {
		for _, seg := range ds.Block.Segments {
			name := seg.Name
			if name == "" {
				name = strconv.Itoa(seg.Index)
			}
			for _, tr := range seg.SpikeTrains {
				rows = append(rows, trainRow{dataset: i, segment: name, train: tr})
			}
		}
	}
	return rows
}

func tableRows(rows []trainRow, datasets []*pipeline.Dataset) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row{
			strconv.Itoa(i),
			datasets[r.dataset].Block.Name,
			r.segment,
			r.train.Label(),
			strconv.Itoa(r.train.Len()),
			formatRate(r.train),
		}
	}
	return out
}

func formatRate(tr *model.SpikeTrain) string {
	if tr.Duration() <= 0 {
		return "-"
	}
	units := tr.Units
	if units == "" {
		units = model.DefaultTimeUnits
	}
	return fmt.Sprintf("%.2f/%s", tr.Rate(), units)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// wrap breaks s on spaces so no line exceeds width.
func wrap(s string, width int) string {
	var b strings.Builder
	line := 0
	for i, word := range strings.Fields(s) {
		if i > 0 {
			if line+1+len(word) > width {
				b.WriteString("\n")
				line = 0
			} else {
				b.WriteString(" ")
				line++
			}
		}
		b.WriteString(word)
		line += len(word)
	}
	return b.String()
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
