package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"bpfmon/internal/config"
	"bpfmon/internal/models"
)

// Process is the handle of a running tool. Its output streams are handed to
// an Ingestor; its lifecycle stays with the Supervisor.
type Process struct {
	Tool      config.Tool
	Session   uint64
	Pid       int
	Pgid      int
	StartTime time.Time

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	stopped   chan struct{}
	drained   chan struct{}
	exited    chan struct{}
	stopOnce  sync.Once
	drainOnce sync.Once

	exitCode int
	exitErr  error
}

func (p *Process) SessionID() uint64 { return p.Session }
func (p *Process) Stdout() io.Reader { return p.stdout }
func (p *Process) Stderr() io.Reader { return p.stderr }

// Drained reports that both output streams have been consumed to the end.
// The process is only reaped after Drained or Stop so no output is lost.
func (p *Process) Drained() {
	p.drainOnce.Do(func() { close(p.drained) })
}

// Exited is closed once the process has been reaped.
func (p *Process) Exited() <-chan struct{} { return p.exited }

// ExitStatus is valid after Exited is closed.
func (p *Process) ExitStatus() (int, error) { return p.exitCode, p.exitErr }

func (p *Process) markStopped() {
	p.stopOnce.Do(func() { close(p.stopped) })
}

// Supervisor owns at most one running tool at a time.
type Supervisor struct {
	mu      sync.Mutex
	catalog *config.Catalog
	active  *Process
	session uint64
	closed  bool

	stopSignal  syscall.Signal
	stopTimeout time.Duration
	onExit      func(p *Process, natural bool)
	log         logrus.FieldLogger
}

type SupervisorOption func(*Supervisor)

// WithExitCallback is called after a process has been reaped. natural is
// true when the process ended on its own rather than through Stop.
func WithExitCallback(fn func(p *Process, natural bool)) SupervisorOption {
	return func(s *Supervisor) {
		s.onExit = fn
	}
}

func WithStopTimeout(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.stopTimeout = d
	}
}

func WithLogger(l logrus.FieldLogger) SupervisorOption {
	return func(s *Supervisor) {
		s.log = l
	}
}

func NewSupervisor(catalog *config.Catalog, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		catalog:     catalog,
		stopSignal:  parseSignal(catalog.StopSignal),
		stopTimeout: time.Duration(catalog.StopTimeout) * time.Second,
		log:         logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func parseSignal(name string) syscall.Signal {
	switch name {
	case "SIGKILL":
		return syscall.SIGKILL
	case "SIGINT":
		return syscall.SIGINT
	default:
		return syscall.SIGTERM
	}
}

// Start launches a tool in its own process group. A tool that is already
// running is stopped first.
func (s *Supervisor) Start(toolID string) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &SpawnError{Tool: toolID, Err: ErrSupervisorClosed}
	}

	tool, ok := s.catalog.Lookup(toolID)
	if !ok {
		return nil, &SpawnError{Tool: toolID, Err: ErrUnknownTool}
	}

	binary := s.catalog.BinaryPath(tool)
	if _, err := os.Stat(binary); err != nil {
		return nil, &SpawnError{Tool: toolID, Err: err}
	}

	argv, err := s.catalog.Command(toolID)
	if err != nil {
		return nil, &SpawnError{Tool: toolID, Err: err}
	}

	if s.active != nil {
		s.log.WithField("tool", s.active.Tool.ID).Info("Replacing running tool")
		if err := s.stopLocked(); err != nil {
			s.log.WithError(err).Warn("Failed to stop previous tool")
		}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Tool: toolID, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Tool: toolID, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		s.log.WithField("tool", toolID).WithError(err).Error("Failed to start tool")
		return nil, &SpawnError{Tool: toolID, Err: err}
	}

	s.session++
	proc := &Process{
		Tool:      tool,
		Session:   s.session,
		Pid:       cmd.Process.Pid,
		Pgid:      cmd.Process.Pid,
		StartTime: time.Now(),
		cmd:       cmd,
		stdout:    stdout,
		stderr:    stderr,
		stopped:   make(chan struct{}),
		drained:   make(chan struct{}),
		exited:    make(chan struct{}),
	}
	s.active = proc

	s.log.WithFields(logrus.Fields{
		"tool":    toolID,
		"pid":     proc.Pid,
		"session": proc.Session,
	}).Info("Tool started")

	go s.monitorProcess(proc)

	return proc, nil
}

func (s *Supervisor) monitorProcess(proc *Process) {
	select {
	case <-proc.drained:
	case <-proc.stopped:
	}

	err := proc.cmd.Wait()
	if proc.cmd.ProcessState != nil {
		proc.exitCode = proc.cmd.ProcessState.ExitCode()
	}
	proc.exitErr = err
	close(proc.exited)

	s.mu.Lock()
	natural := s.active == proc
	if natural {
		s.active = nil
	}
	s.mu.Unlock()

	entry := s.log.WithFields(logrus.Fields{"tool": proc.Tool.ID, "pid": proc.Pid, "session": proc.Session})
	if err != nil && natural {
		entry.WithError(err).Warn("Tool exited with error")
	} else {
		entry.Info("Tool exited")
	}

	if s.onExit != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Errorf("exit callback panicked: %v", r)
				}
			}()
			s.onExit(proc, natural)
		}()
	}
}

// Stop signals the whole process group of the running tool. It is a no-op
// when nothing is running.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopLocked()
}

func (s *Supervisor) stopLocked() error {
	proc := s.active
	if proc == nil {
		return nil
	}

	s.active = nil
	proc.markStopped()
	go s.escalate(proc)

	s.log.WithFields(logrus.Fields{
		"tool":   proc.Tool.ID,
		"pgid":   proc.Pgid,
		"signal": s.stopSignal.String(),
	}).Info("Stopping tool")

	if err := signalGroup(proc.Pgid, s.stopSignal); err != nil {
		return &StopError{Pgid: proc.Pgid, Err: err}
	}
	return nil
}

// escalate kills the group if it outlives the stop timeout.
func (s *Supervisor) escalate(proc *Process) {
	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()

	select {
	case <-proc.exited:
		if !groupAlive(proc.Pgid) {
			return
		}
		<-timer.C
	case <-timer.C:
	}

	if !groupAlive(proc.Pgid) {
		return
	}

	s.log.WithField("pgid", proc.Pgid).Warn("Tool did not stop in time, killing process group")
	if err := signalGroup(proc.Pgid, syscall.SIGKILL); err != nil {
		s.log.WithField("pgid", proc.Pgid).WithError(err).Error("Failed to kill process group")
	}
}

// Shutdown stops the running tool and refuses further starts. If ctx ends
// before the tool has exited, its group is killed.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	proc := s.active
	err := s.stopLocked()
	s.mu.Unlock()

	if proc == nil {
		return err
	}

	select {
	case <-proc.exited:
	case <-ctx.Done():
		if kerr := signalGroup(proc.Pgid, syscall.SIGKILL); kerr != nil && err == nil {
			err = &StopError{Pgid: proc.Pgid, Err: kerr}
		}
	}
	return err
}

func (s *Supervisor) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active != nil
}

// Deliver runs fn only while session is still the running session. The
// check and fn happen under the same lock as Start and Stop.
func (s *Supervisor) Deliver(session uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.Session != session {
		return false
	}
	fn()
	return true
}

func (s *Supervisor) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return models.SessionStatus{Session: s.session, Uptime: "N/A"}
	}

	return models.SessionStatus{
		Active:    true,
		Session:   s.active.Session,
		Tool:      s.active.Tool.ID,
		Label:     s.active.Tool.Label,
		Pid:       s.active.Pid,
		StartedAt: s.active.StartTime,
		Uptime:    formatDuration(time.Since(s.active.StartTime)),
	}
}
