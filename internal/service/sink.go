package service

import (
	"sync"
	"time"

	"bpfmon/internal/models"
)

// Sink receives parsed output. Implementations must be safe for use from
// the ingestion goroutines.
type Sink interface {
	SetSchema(columns []string)
	AppendRow(fields []string, kind models.RowKind)
	Clear()
	Snapshot() []models.Row
}

// Table is a bounded in-memory Sink. Once maxRows is reached the oldest
// rows are dropped.
type Table struct {
	mu         sync.RWMutex
	schema     []string
	rows       []models.Row
	maxRows    int
	seq        uint64
	generation uint64
	listeners  []func()
}

func NewTable(maxRows int) *Table {
	return &Table{
		rows:    make([]models.Row, 0, min(max(maxRows, 0), 1024)),
		maxRows: maxRows,
	}
}

// OnChange registers fn to be called after every mutation. fn runs on the
// mutating goroutine and must not block.
func (t *Table) OnChange(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.listeners = append(t.listeners, fn)
}

func (t *Table) notify() {
	t.mu.RLock()
	listeners := make([]func(), len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

func (t *Table) SetSchema(columns []string) {
	t.mu.Lock()
	t.schema = append([]string(nil), columns...)
	t.generation++
	t.mu.Unlock()

	t.notify()
}

func (t *Table) AppendRow(fields []string, kind models.RowKind) {
	t.mu.Lock()
	t.seq++
	t.rows = append(t.rows, models.Row{
		Seq:    t.seq,
		Kind:   kind,
		Fields: append([]string(nil), fields...),
		Time:   time.Now(),
	})
	if t.maxRows > 0 && len(t.rows) > t.maxRows {
		t.rows = t.rows[len(t.rows)-t.maxRows:]
	}
	t.mu.Unlock()

	t.notify()
}

func (t *Table) Clear() {
	t.mu.Lock()
	t.schema = nil
	t.rows = t.rows[:0]
	t.generation++
	t.mu.Unlock()

	t.notify()
}

// ClearRows drops the rows but keeps the schema of the running session.
func (t *Table) ClearRows() {
	t.mu.Lock()
	t.rows = t.rows[:0]
	t.generation++
	t.mu.Unlock()

	t.notify()
}

func (t *Table) Snapshot() []models.Row {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]models.Row, len(t.rows))
	copy(result, t.rows)
	return result
}

// Schema returns the column headers, or nil before the first line.
func (t *Table) Schema() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.schema == nil {
		return nil
	}
	return append([]string(nil), t.schema...)
}

// Generation changes whenever the schema is set or the table is cleared.
func (t *Table) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.generation
}

// Since returns the rows with a sequence number greater than seq.
func (t *Table) Since(seq uint64) models.RowsPage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	page := models.RowsPage{
		Generation: t.generation,
		Schema:     append([]string{}, t.schema...),
		Rows:       []models.Row{},
		LastSeq:    t.seq,
	}
	for i := range t.rows {
		if t.rows[i].Seq > seq {
			page.Rows = append(page.Rows, t.rows[i:]...)
			break
		}
	}
	return page
}
