package service

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"bpfmon/internal/models"
)

// Source is the read side of a monitored process.
type Source interface {
	SessionID() uint64
	Stdout() io.Reader
	Stderr() io.Reader
}

// Gate decides whether output of a session may still reach the sink.
type Gate interface {
	Deliver(session uint64, fn func()) bool
}

// Ingestor turns a process's output streams into sink rows.
type Ingestor struct {
	sink Sink
	gate Gate
	log  logrus.FieldLogger
}

func NewIngestor(sink Sink, gate Gate, log logrus.FieldLogger) *Ingestor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ingestor{sink: sink, gate: gate, log: log}
}

// Begin reads stdout and stderr concurrently. The returned channel is closed
// once both loops have finished.
func (in *Ingestor) Begin(src Source) <-chan struct{} {
	done := make(chan struct{})
	session := src.SessionID()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		in.readStdout(session, src.Stdout())
	}()
	go func() {
		defer wg.Done()
		in.readStderr(session, src.Stderr())
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	return done
}

func (in *Ingestor) readStdout(session uint64, r io.Reader) {
	headerSet := false
	in.readLines(session, "stdout", r, func(line string) {
		fields := strings.Fields(line)
		if !headerSet {
			in.sink.SetSchema(fields)
			headerSet = true
			return
		}
		in.sink.AppendRow(fields, models.RowNormal)
	})
}

func (in *Ingestor) readStderr(session uint64, r io.Reader) {
	in.readLines(session, "stderr", r, func(line string) {
		in.sink.AppendRow([]string{line}, models.RowError)
	})
}

// readLines calls emit with every trimmed, non-blank line while the session
// is live. An unterminated last line is still emitted.
func (in *Ingestor) readLines(session uint64, stream string, r io.Reader, emit func(line string)) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if !in.gate.Deliver(session, func() { emit(line) }) {
				return
			}
		}

		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
			return
		}

		readErr := &StreamReadError{Stream: stream, Err: err}
		in.gate.Deliver(session, func() {
			in.log.WithField("session", session).WithError(readErr).Warn("Stream read failed")
			in.sink.AppendRow([]string{readErr.Error()}, models.RowError)
		})
		return
	}
}
