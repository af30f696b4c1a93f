package tui

import (
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpfmon/internal/config"
	"bpfmon/internal/models"
	"bpfmon/internal/service"
)

func newTestMonitor(t *testing.T) *service.Monitor {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	catalog := config.DefaultCatalog()
	catalog.InstallDir = t.TempDir()
	return service.NewMonitor(catalog, logger)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDisplayRow(t *testing.T) {
	assert.Equal(t, []string{"1", "2", ""},
		[]string(displayRow(models.Row{Kind: models.RowNormal, Fields: []string{"1", "2"}}, 3)))
	assert.Equal(t, []string{"1", "2 3 4"},
		[]string(displayRow(models.Row{Kind: models.RowNormal, Fields: []string{"1", "2", "3", "4"}}, 2)))
	assert.Equal(t, []string{"ERROR:", "permission denied", ""},
		[]string(displayRow(models.Row{Kind: models.RowError, Fields: []string{"permission denied"}}, 3)))
	assert.Equal(t, []string{"ERROR: permission denied"},
		[]string(displayRow(models.Row{Kind: models.RowError, Fields: []string{"permission denied"}}, 1)))
}

func TestRenderPlot(t *testing.T) {
	g := models.Graph{
		Title:  "Graph of TIME vs HITS",
		XLabel: "TIME",
		YLabel: "HITS",
		Points: []models.Point{{X: 0, Y: 0}, {X: 10, Y: 100}},
	}

	out := renderPlot(g, 20, 5)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "Graph of TIME vs HITS", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "100 │"))
	assert.True(t, strings.HasSuffix(lines[1], "•"), "max point is top right")
	assert.Contains(t, lines[5], "  0 │•")
	assert.Contains(t, out, "x: TIME   y: HITS")
}

func TestToolSelection(t *testing.T) {
	m := newModel(newTestMonitor(t), Options{InitialTool: "cachestat"})
	assert.Equal(t, 4, m.toolIdx)

	next, _ := m.Update(key("right"))
	m = next.(model)
	assert.Equal(t, 0, m.toolIdx)

	next, _ = m.Update(key("left"))
	m = next.(model)
	assert.Equal(t, 4, m.toolIdx)
	assert.Contains(t, m.View(), "Cache Statistics")
}

func TestStartFailureIsShown(t *testing.T) {
	mon := newTestMonitor(t)
	m := newModel(mon, Options{})

	_, cmd := m.Update(key("s"))
	require.NotNil(t, cmd)
	msg := cmd()
	action, ok := msg.(actionMsg)
	require.True(t, ok)
	var spawnErr *service.SpawnError
	assert.True(t, errors.As(action.err, &spawnErr))

	next, _ := m.Update(msg)
	m = next.(model)
	assert.Contains(t, m.View(), "Execution failed:")
	assert.Contains(t, m.View(), "start tcpconnect")
	assert.False(t, mon.IsActive())
}

func TestTableFollowsSchemaAndGraphToggle(t *testing.T) {
	mon := newTestMonitor(t)
	m := newModel(mon, Options{})

	mon.Table().SetSchema([]string{"TIME", "HITS"})
	mon.Table().AppendRow([]string{"1", "5"}, models.RowNormal)
	mon.Table().AppendRow([]string{"2", "9", "extra"}, models.RowNormal)

	next, _ := m.Update(tableChangedMsg{})
	m = next.(model)
	require.Len(t, m.table.Columns(), 2)
	assert.Equal(t, "TIME", m.table.Columns()[0].Title)
	require.Len(t, m.table.Rows(), 2)
	assert.Equal(t, "9 extra", m.table.Rows()[1][1])

	next, _ = m.Update(key("g"))
	m = next.(model)
	require.True(t, m.showGraph)
	assert.Contains(t, m.View(), "Graph of TIME vs HITS")

	next, _ = m.Update(key("g"))
	m = next.(model)
	assert.False(t, m.showGraph)

	next, _ = m.Update(key("c"))
	m = next.(model)
	assert.Empty(t, m.table.Rows())
	assert.Equal(t, "TIME", m.table.Columns()[0].Title)

	next, _ = m.Update(key("g"))
	m = next.(model)
	assert.False(t, m.showGraph)
	assert.True(t, errors.Is(m.err, service.ErrInsufficientData))
}
