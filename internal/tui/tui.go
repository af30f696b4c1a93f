// Package tui is the terminal front end: a tool selector, the live output
// table and an on-demand plot of two numeric columns.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bpfmon/internal/config"
	"bpfmon/internal/models"
	"bpfmon/internal/service"
)

// Options configure the Bubble Tea program.
type Options struct {
	InitialTool string
	AutoStart   bool
}

// Run launches the Bubble Tea UI and blocks until the user quits. The
// running tool is stopped on the way out.
func Run(ctx context.Context, mon *service.Monitor, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(mon, opts)
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())

	// Table mutations happen on ingestion goroutines. Coalesce them and hand
	// them to the program loop, which is the only place the view is rebuilt.
	dirty := make(chan struct{}, 1)
	mon.Table().OnChange(func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
				program.Send(tableChangedMsg{})
				time.Sleep(50 * time.Millisecond)
			}
		}
	}()

	_, err := program.Run()
	if stopErr := mon.Stop(); err == nil {
		err = stopErr
	}
	return err
}

type tableChangedMsg struct{}

type statusMsg struct {
	status models.SessionStatus
}

type actionMsg struct {
	action string
	err    error
	status models.SessionStatus
}

type model struct {
	mon     *service.Monitor
	tools   []config.Tool
	toolIdx int

	table     table.Model
	columnKey string
	status    models.SessionStatus

	showGraph bool
	graph     models.Graph

	message  string
	err      error
	width    int
	height   int
	autoTool string
}

func newModel(mon *service.Monitor, opts Options) model {
	tools := mon.Tools()
	idx := 0
	for i, t := range tools {
		if t.ID == opts.InitialTool {
			idx = i
		}
	}

	tbl := table.New(table.WithFocused(true), table.WithHeight(10))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	tbl.SetStyles(styles)

	m := model{
		mon:     mon,
		tools:   tools,
		toolIdx: idx,
		table:   tbl,
		width:   80,
		height:  24,
	}
	if opts.AutoStart && len(tools) > 0 {
		m.autoTool = tools[idx].ID
	}
	m.refreshTable()
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.mon)}
	if m.autoTool != "" {
		cmds = append(cmds, m.startCmd(m.autoTool))
	}
	return tea.Batch(cmds...)
}

// tickCmd samples the session status off the program loop, since it
// shells out to ps.
func tickCmd(mon *service.Monitor) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return statusMsg{status: mon.Status()}
	})
}

func (m model) startCmd(id string) tea.Cmd {
	return func() tea.Msg {
		err := m.mon.Start(id)
		return actionMsg{action: "start " + id, err: err, status: m.mon.Status()}
	}
}

func (m model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.mon.Stop()
		return actionMsg{action: "stop", err: err, status: m.mon.Status()}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.columnKey = ""
		m.refreshTable()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tableChangedMsg:
		m.refreshTable()
		return m, nil
	case statusMsg:
		m.status = msg.status
		return m, tickCmd(m.mon)
	case actionMsg:
		m.err = msg.err
		m.message = ""
		if msg.err == nil {
			m.message = msg.action + ": ok"
		}
		m.status = msg.status
		m.refreshTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Sequence(m.stopCmd(), tea.Quit)
	case "left", "h":
		if len(m.tools) > 0 {
			m.toolIdx = (m.toolIdx + len(m.tools) - 1) % len(m.tools)
		}
		return m, nil
	case "right", "l":
		if len(m.tools) > 0 {
			m.toolIdx = (m.toolIdx + 1) % len(m.tools)
		}
		return m, nil
	case "s", "enter":
		if len(m.tools) == 0 {
			return m, nil
		}
		m.showGraph = false
		return m, m.startCmd(m.tools[m.toolIdx].ID)
	case "x":
		return m, m.stopCmd()
	case "c":
		m.mon.Clear()
		m.showGraph = false
		m.refreshTable()
		return m, nil
	case "g":
		if m.showGraph {
			m.showGraph = false
			return m, nil
		}
		g, err := m.mon.Graph()
		m.err = err
		if err == nil {
			m.graph = g
			m.showGraph = true
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// refreshTable rebuilds the widget from the monitor's table. The widget
// needs every row to match the column count, so rows are fitted for
// display only.
func (m *model) refreshTable() {
	schema := m.mon.Table().Schema()
	rows := m.mon.Table().Snapshot()

	headers := schema
	if len(headers) == 0 {
		headers = []string{"Output"}
	}

	follow := m.table.Cursor() >= len(m.table.Rows())-1

	key := strings.Join(headers, "\x00")
	if key != m.columnKey {
		m.table.SetRows(nil)
		m.table.SetColumns(buildColumns(headers, m.width))
		m.columnKey = key
	}

	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, displayRow(r, len(headers)))
	}
	m.table.SetRows(out)
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(m.height-8, 3))

	if follow {
		m.table.GotoBottom()
	}
}

func buildColumns(headers []string, width int) []table.Column {
	w := max(width/len(headers)-2, 8)
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: max(w, len(h))}
	}
	return cols
}

// displayRow fits a row to n cells. Error rows get an "ERROR:" lead cell and
// extra fields are folded into the last cell.
func displayRow(r models.Row, n int) table.Row {
	cells := r.Fields
	if r.Kind == models.RowError {
		cells = append([]string{"ERROR:"}, cells...)
	}

	out := make(table.Row, n)
	for i := 0; i < n && i < len(cells); i++ {
		out[i] = cells[i]
	}
	if len(cells) > n {
		out[n-1] = strings.Join(cells[n-1:], " ")
	}
	return out
}

func (m model) View() string {
	var b strings.Builder

	label := "(no tools configured)"
	if len(m.tools) > 0 {
		label = m.tools[m.toolIdx].Label
	}
	fmt.Fprintf(&b, "%s  Select Monitoring Tool: %s\n",
		titleStyle.Render("bpfmon"), toolStyle.Render("◀ "+label+" ▶"))

	if m.status.Active {
		b.WriteString(runningStyle.Render(fmt.Sprintf("● %s running, pid %d, up %s, cpu %s, mem %s",
			m.status.Tool, m.status.Pid, m.status.Uptime, m.status.CPU, m.status.Memory)))
	} else {
		b.WriteString(idleStyle.Render("○ idle"))
	}
	b.WriteString("\n\n")

	if m.showGraph {
		b.WriteString(plotStyle.Render(renderPlot(m.graph, max(m.width-16, 10), max(m.height-14, 4))))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case m.message != "":
		b.WriteString(idleStyle.Render(m.message))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←/→ tool · s start · x stop · c clear · g graph · ↑/↓ scroll · q quit"))

	return b.String()
}
