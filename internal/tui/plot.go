package tui

import (
	"fmt"
	"strings"

	"bpfmon/internal/models"
)

// renderPlot draws the graph points on a width x height character grid
// with the axis ranges printed around it.
func renderPlot(g models.Graph, width, height int) string {
	width = max(width, 10)
	height = max(height, 4)

	minX, maxX := g.Points[0].X, g.Points[0].X
	minY, maxY := g.Points[0].Y, g.Points[0].Y
	for _, p := range g.Points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	scale := func(v, lo, hi float64, n int) int {
		if hi == lo {
			return n / 2
		}
		return int((v - lo) / (hi - lo) * float64(n-1))
	}
	for _, p := range g.Points {
		col := scale(p.X, minX, maxX, width)
		row := height - 1 - scale(p.Y, minY, maxY, height)
		grid[row][col] = '•'
	}

	yTop := fmt.Sprintf("%g", maxY)
	yBottom := fmt.Sprintf("%g", minY)
	gutter := max(len(yTop), len(yBottom))

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", g.Title)
	for i, line := range grid {
		label := ""
		switch i {
		case 0:
			label = yTop
		case height - 1:
			label = yBottom
		}
		fmt.Fprintf(&b, "%*s │%s\n", gutter, label, string(line))
	}
	fmt.Fprintf(&b, "%*s └%s\n", gutter, "", strings.Repeat("─", width))

	xLeft := fmt.Sprintf("%g", minX)
	xRight := fmt.Sprintf("%g", maxX)
	pad := max(width-len(xLeft)-len(xRight), 1)
	fmt.Fprintf(&b, "%*s  %s%s%s\n", gutter, "", xLeft, strings.Repeat(" ", pad), xRight)
	fmt.Fprintf(&b, "%*s  x: %s   y: %s", gutter, "", g.XLabel, g.YLabel)
	return b.String()
}
