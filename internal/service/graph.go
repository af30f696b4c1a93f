package service

import (
	"fmt"
	"math"
	"strconv"

	"bpfmon/internal/models"
)

// BuildGraph plots column x against column y of the normal rows. Rows whose
// fields at x or y are missing or non-numeric are skipped.
func BuildGraph(schema []string, rows []models.Row, x, y int) (models.Graph, error) {
	var data []models.Row
	for _, r := range rows {
		if r.Kind == models.RowNormal {
			data = append(data, r)
		}
	}

	if len(data) < 2 {
		return models.Graph{}, &GraphDataError{Err: ErrInsufficientData}
	}

	g := models.Graph{
		XLabel: columnLabel(schema, x),
		YLabel: columnLabel(schema, y),
	}
	g.Title = fmt.Sprintf("Graph of %s vs %s", g.XLabel, g.YLabel)

	for _, r := range data {
		if x >= len(r.Fields) || y >= len(r.Fields) {
			continue
		}
		xv, ok := parseNumber(r.Fields[x])
		if !ok {
			continue
		}
		yv, ok := parseNumber(r.Fields[y])
		if !ok {
			continue
		}
		g.Points = append(g.Points, models.Point{X: xv, Y: yv})
	}

	switch len(g.Points) {
	case 0:
		return models.Graph{}, &GraphDataError{Err: ErrNoNumericData}
	case 1:
		return models.Graph{}, &GraphDataError{Err: ErrInsufficientData}
	}

	return g, nil
}

func columnLabel(schema []string, i int) string {
	if i < len(schema) {
		return schema[i]
	}
	return fmt.Sprintf("Column %d", i+1)
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
