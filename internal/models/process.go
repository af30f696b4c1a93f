package models

import "time"

// RowKind tags a row delivered to a presentation sink.
type RowKind string

const (
	RowNormal RowKind = "normal"
	RowError  RowKind = "error"
	RowNotice RowKind = "notice"
)

// Row is one parsed line of tool output.
type Row struct {
	Seq    uint64    `json:"seq"`
	Kind   RowKind   `json:"kind"`
	Fields []string  `json:"fields"`
	Time   time.Time `json:"time"`
}

// SessionStatus describes the currently monitored process, if any.
type SessionStatus struct {
	Active    bool      `json:"active"`
	Session   uint64    `json:"session"`
	Tool      string    `json:"tool,omitempty"`
	Label     string    `json:"label,omitempty"`
	Pid       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Uptime    string    `json:"uptime"`
	Memory    string    `json:"memory"`
	CPU       string    `json:"cpu"`
}

// RowsPage is an incremental view of the table since a sequence number.
type RowsPage struct {
	Generation uint64   `json:"generation"`
	Schema     []string `json:"schema"`
	Rows       []Row    `json:"rows"`
	LastSeq    uint64   `json:"last_seq"`
	Active     bool     `json:"active"`
}

// Point is one plotted sample.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Graph is a line series extracted from the table.
type Graph struct {
	Title  string  `json:"title"`
	XLabel string  `json:"x_label"`
	YLabel string  `json:"y_label"`
	Points []Point `json:"points"`
}

// LogEntry represents a log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Level     string `json:"level"`
	Tool      string `json:"tool,omitempty"`
}
