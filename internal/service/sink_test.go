package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpfmon/internal/models"
)

func TestTableBoundsRows(t *testing.T) {
	table := NewTable(3)
	for _, v := range []string{"1", "2", "3", "4", "5"} {
		table.AppendRow([]string{v}, models.RowNormal)
	}

	rows := table.Snapshot()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"3"}, rows[0].Fields)
	assert.Equal(t, uint64(5), rows[2].Seq)
}

func TestTableSince(t *testing.T) {
	table := NewTable(10)
	table.SetSchema([]string{"A"})
	table.AppendRow([]string{"1"}, models.RowNormal)
	table.AppendRow([]string{"2"}, models.RowError)
	table.AppendRow([]string{"3"}, models.RowNormal)

	page := table.Since(1)
	assert.Equal(t, []string{"A"}, page.Schema)
	assert.Equal(t, uint64(3), page.LastSeq)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, models.RowError, page.Rows[0].Kind)

	assert.Empty(t, table.Since(3).Rows)
	assert.NotNil(t, table.Since(3).Rows)
}

func TestTableClearBumpsGeneration(t *testing.T) {
	table := NewTable(10)
	gen := table.Generation()

	table.SetSchema([]string{"A", "B"})
	table.AppendRow([]string{"1", "2"}, models.RowNormal)
	assert.Greater(t, table.Generation(), gen)

	gen = table.Generation()
	table.Clear()
	assert.Greater(t, table.Generation(), gen)
	assert.Nil(t, table.Schema())
	assert.Empty(t, table.Snapshot())

	// Sequence numbers keep growing across clears.
	table.AppendRow([]string{"x"}, models.RowNormal)
	assert.Equal(t, uint64(2), table.Snapshot()[0].Seq)
}

func TestTableClearRowsKeepsSchema(t *testing.T) {
	table := NewTable(10)
	table.SetSchema([]string{"A", "B"})
	table.AppendRow([]string{"1", "2"}, models.RowNormal)

	gen := table.Generation()
	table.ClearRows()
	assert.Greater(t, table.Generation(), gen)
	assert.Equal(t, []string{"A", "B"}, table.Schema())
	assert.Empty(t, table.Snapshot())

	table.AppendRow([]string{"3", "4"}, models.RowNormal)
	page := table.Since(1)
	assert.Equal(t, []string{"A", "B"}, page.Schema)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, []string{"3", "4"}, page.Rows[0].Fields)
}

func TestNewTableNegativeLimit(t *testing.T) {
	table := NewTable(-1)
	table.AppendRow([]string{"1"}, models.RowNormal)
	assert.Len(t, table.Snapshot(), 1)
}

func TestTableCopiesFields(t *testing.T) {
	table := NewTable(10)
	fields := []string{"a", "b"}
	table.AppendRow(fields, models.RowNormal)
	fields[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, table.Snapshot()[0].Fields)
}

func TestTableOnChange(t *testing.T) {
	table := NewTable(10)
	calls := 0
	table.OnChange(func() { calls++ })

	table.SetSchema([]string{"A"})
	table.AppendRow([]string{"1"}, models.RowNormal)
	table.Clear()

	assert.Equal(t, 3, calls)
}
