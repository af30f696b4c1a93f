package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"bpfmon/internal/config"
	"bpfmon/internal/models"
)

// Monitor ties the supervisor, the ingestor and the table together. It is
// what the presentation shells talk to.
type Monitor struct {
	mu       sync.Mutex
	catalog  *config.Catalog
	sup      *Supervisor
	ingestor *Ingestor
	table    *Table
	events   *EventLog
	log      logrus.FieldLogger
}

func NewMonitor(catalog *config.Catalog, log logrus.FieldLogger, opts ...SupervisorOption) *Monitor {
	if log == nil {
		log = logrus.StandardLogger()
	}

	m := &Monitor{
		catalog: catalog,
		table:   NewTable(catalog.MaxRows),
		events:  NewEventLog(1000),
		log:     log,
	}

	opts = append([]SupervisorOption{WithLogger(log), WithExitCallback(m.handleExit)}, opts...)
	m.sup = NewSupervisor(catalog, opts...)
	m.ingestor = NewIngestor(m.table, m.sup, log)

	return m
}

func (m *Monitor) Tools() []config.Tool {
	return append([]config.Tool(nil), m.catalog.Tools...)
}

func (m *Monitor) Table() *Table { return m.table }

func (m *Monitor) Catalog() *config.Catalog { return m.catalog }

// Start clears the table and launches toolID, replacing any running tool.
// Failures are also written to the table as an error row.
func (m *Monitor) Start(toolID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.catalog.Lookup(toolID); !ok {
		err := &SpawnError{Tool: toolID, Err: ErrUnknownTool}
		m.reportSpawnFailure(toolID, err)
		return err
	}

	if err := m.sup.Stop(); err != nil {
		m.log.WithError(err).Warn("Failed to stop previous tool")
	}
	m.table.Clear()

	proc, err := m.sup.Start(toolID)
	if err != nil {
		m.reportSpawnFailure(toolID, err)
		return err
	}

	m.events.Record("info", toolID, fmt.Sprintf("Tool %s started with PID %d", toolID, proc.Pid))

	done := m.ingestor.Begin(proc)
	go func() {
		<-done
		proc.Drained()
	}()

	return nil
}

func (m *Monitor) reportSpawnFailure(toolID string, err error) {
	m.table.AppendRow([]string{"Execution failed:", err.Error()}, models.RowError)
	m.events.Record("error", toolID, err.Error())
}

// Stop terminates the running tool. Stopping an idle monitor is a no-op.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := m.sup.Status()
	if !status.Active {
		return nil
	}

	err := m.sup.Stop()
	m.table.AppendRow([]string{"Process stopped."}, models.RowNotice)
	if err != nil {
		m.events.Record("error", status.Tool, err.Error())
	} else {
		m.events.Record("info", status.Tool, fmt.Sprintf("Tool %s stopped", status.Tool))
	}
	return err
}

func (m *Monitor) handleExit(proc *Process, natural bool) {
	if !natural {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	code, err := proc.ExitStatus()
	msg := fmt.Sprintf("Process exited with status %d.", code)
	level := "info"
	if err != nil {
		level = "warning"
	}
	m.events.Record(level, proc.Tool.ID, fmt.Sprintf("Tool %s exited with status %d", proc.Tool.ID, code))

	// A newer session owns the table by now.
	if m.sup.Status().Session != proc.Session {
		return
	}
	m.table.AppendRow([]string{msg}, models.RowNotice)
}

// Clear empties the table. The column headers stay until the next Start.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.table.ClearRows()
}

func (m *Monitor) Graph() (models.Graph, error) {
	return BuildGraph(m.table.Schema(), m.table.Snapshot(), m.catalog.Graph.X, m.catalog.Graph.Y)
}

func (m *Monitor) Rows(since uint64) models.RowsPage {
	page := m.table.Since(since)
	page.Active = m.sup.IsActive()
	return page
}

func (m *Monitor) IsActive() bool {
	return m.sup.IsActive()
}

func (m *Monitor) Status() models.SessionStatus {
	status := m.sup.Status()
	status.Memory = "N/A"
	status.CPU = "N/A"
	if status.Active && status.Pid > 0 {
		status.Memory = getProcessMemory(status.Pid)
		status.CPU = getProcessCPU(status.Pid)
	}
	return status
}

func (m *Monitor) Logs(limit int, level, tool string) []models.LogEntry {
	return m.events.Last(limit, level, tool)
}

// Shutdown stops the running tool and waits for its group to go away.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sup.Shutdown(ctx)
}
