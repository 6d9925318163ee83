package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"swiftwinrt/internal/buildpipeline"
)

const (
	rowQueued     = "queued"
	rowGenerating = "generating"
	rowDone       = "done"
	rowCached     = "cached"
	rowError      = "error"
)

var rowStyles = map[string]lipgloss.Style{
	rowDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	rowCached:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	rowError:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	rowGenerating: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
}

// moduleRow is one line of the view. Rows appear in the order modules first
// show up in events, which is the generation order.
type moduleRow struct {
	module string
	state  string
	tasks  int
	ended  int
	reason string
}

// fraction is how much of the module is finished, in [0,1].
func (r moduleRow) fraction() float64 {
	switch {
	case r.state == rowDone || r.state == rowCached:
		return 1
	case r.tasks == 0:
		return 0
	}
	return float64(r.ended) / float64(r.tasks)
}

type progressModel struct {
	title    string
	feed     <-chan buildpipeline.Event
	spin     spinner.Model
	bar      progress.Model
	rows     []moduleRow
	byName   map[string]int
	phase    string
	width    int
	finished bool
}

type eventMsg buildpipeline.Event
type feedClosedMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders generation
// progress until events is closed.
func NewProgressModel(title string, events <-chan buildpipeline.Event) tea.Model {
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	spin.Style = rowStyles[rowGenerating]
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(76))
	return &progressModel{
		title:  title,
		feed:   events,
		spin:   spin,
		bar:    bar,
		byName: make(map[string]int),
		width:  80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.next())
}

// next waits for one event from the pipeline.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-m.feed; ok {
			return eventMsg(ev)
		}
		return feedClosedMsg{}
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(buildpipeline.Event(msg)), m.next())
	case feedClosedMsg:
		m.finished = true
		return m, tea.Quit
	case spinner.TickMsg:
		if !m.finished {
			m.spin, cmd = m.spin.Update(msg)
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		var bar tea.Model
		bar, cmd = m.bar.Update(msg)
		m.bar = bar.(progress.Model)
	}
	return m, cmd
}

func (m *progressModel) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")
	nameWidth := max(m.width-27, 20)
	for _, r := range m.rows {
		b.WriteString(m.renderRow(r, nameWidth))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if m.finished {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

func (m *progressModel) header() string {
	text := m.title
	if m.phase != "" {
		text += " (" + m.phase + ")"
	}
	if m.finished {
		text = "done: " + text
	} else {
		text = m.spin.View() + " " + text
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Render(text)
}

func (m *progressModel) renderRow(r moduleRow, nameWidth int) string {
	style, ok := rowStyles[r.state]
	if !ok {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
	line := fmt.Sprintf("  %s %4d/%-4d %s", style.Render(fmt.Sprintf("%12s", r.state)), r.ended, r.tasks, truncate(r.module, nameWidth))
	if r.reason != "" {
		room := max(m.width-runewidth.StringWidth(line)-2, 10)
		line += "  " + truncate(r.reason, room)
	}
	return line
}

func (m *progressModel) row(module string) *moduleRow {
	i, ok := m.byName[module]
	if !ok {
		i = len(m.rows)
		m.byName[module] = i
		m.rows = append(m.rows, moduleRow{module: module, state: rowQueued})
	}
	return &m.rows[i]
}

// applyEvent folds ev into the rows. Events without a module only move the
// phase label; events without a task close the module.
func (m *progressModel) applyEvent(ev buildpipeline.Event) tea.Cmd {
	if ev.Module == "" {
		if p := phaseLabel(ev); p != "" {
			m.phase = p
		}
		return nil
	}
	r := m.row(ev.Module)
	if ev.Task == "" {
		switch ev.Status {
		case buildpipeline.StatusCached:
			r.state = rowCached
		case buildpipeline.StatusDone:
			r.state = rowDone
		case buildpipeline.StatusError:
			r.state = rowError
		}
		return m.syncBar()
	}
	switch ev.Status {
	case buildpipeline.StatusQueued:
		r.tasks++
	case buildpipeline.StatusWorking:
		if r.state == rowQueued {
			r.state = rowGenerating
		}
	case buildpipeline.StatusDone:
		r.ended++
	case buildpipeline.StatusError:
		r.ended++
		r.state = rowError
		if r.reason == "" && ev.Err != nil {
			r.reason = ev.Err.Error()
		}
	}
	return m.syncBar()
}

func (m *progressModel) syncBar() tea.Cmd {
	if len(m.rows) == 0 {
		return nil
	}
	sum := 0.0
	for _, r := range m.rows {
		sum += r.fraction()
	}
	return m.bar.SetPercent(sum / float64(len(m.rows)))
}

func phaseLabel(ev buildpipeline.Event) string {
	if ev.Status != buildpipeline.StatusWorking {
		return ""
	}
	switch ev.Stage {
	case buildpipeline.StageLoad:
		return "loading metadata"
	case buildpipeline.StageCompile:
		return "compiling"
	case buildpipeline.StageComponent:
		return "component"
	}
	return ""
}

// truncate shortens value to width display cells, marking the cut with "...".
func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
