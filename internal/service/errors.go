package service

import (
	"errors"
	"fmt"

	"bpfmon/internal/config"
)

var (
	ErrUnknownTool      = config.ErrUnknownTool
	ErrSupervisorClosed = errors.New("supervisor shut down")
	ErrInsufficientData = errors.New("not enough data to generate graph")
	ErrNoNumericData    = errors.New("no numeric data found for graph generation")
)

// SpawnError reports a tool that could not be started.
type SpawnError struct {
	Tool string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Tool, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// StopError reports a failure to signal the process group.
type StopError struct {
	Pgid int
	Err  error
}

func (e *StopError) Error() string {
	return fmt.Sprintf("signal process group %d: %v", e.Pgid, e.Err)
}

func (e *StopError) Unwrap() error { return e.Err }

// StreamReadError reports an I/O failure on stdout or stderr.
type StreamReadError struct {
	Stream string
	Err    error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Stream, e.Err)
}

func (e *StreamReadError) Unwrap() error { return e.Err }

// GraphDataError reports that the table cannot be plotted.
type GraphDataError struct {
	Err error
}

func (e *GraphDataError) Error() string { return e.Err.Error() }

func (e *GraphDataError) Unwrap() error { return e.Err }
