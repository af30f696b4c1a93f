package service

import (
	"sync"
	"time"

	"bpfmon/internal/models"
)

// EventLog keeps the most recent supervisor events for display.
type EventLog struct {
	mu      sync.RWMutex
	entries []models.LogEntry
	limit   int
}

func NewEventLog(limit int) *EventLog {
	return &EventLog{
		entries: make([]models.LogEntry, 0, limit),
		limit:   limit,
	}
}

func (l *EventLog) Record(level, tool, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, models.LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Tool:      tool,
	})
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
}

// Last returns up to n of the newest entries matching level and tool.
// Empty filters match everything.
func (l *EventLog) Last(n int, level, tool string) []models.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := []models.LogEntry{}
	if n <= 0 {
		return result
	}

	for i := len(l.entries) - 1; i >= 0 && len(result) < n; i-- {
		e := l.entries[i]
		if level != "" && e.Level != level {
			continue
		}
		if tool != "" && e.Tool != tool {
			continue
		}
		result = append(result, e)
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}
