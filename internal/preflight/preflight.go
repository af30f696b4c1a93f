// Package preflight checks whether the host can run the configured tools.
package preflight

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/features"

	"bpfmon/internal/config"
)

type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

type Check struct {
	Name   string `json:"name"`
	Target string `json:"target,omitempty"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

type Report struct {
	Checks []Check `json:"checks"`
	OK     bool    `json:"ok"`
}

// Prober holds the host hooks used by the checks.
type Prober struct {
	Euid        func() int
	LookPath    func(file string) (string, error)
	KernelProbe func() error
}

func DefaultProber() Prober {
	return Prober{
		Euid:     os.Geteuid,
		LookPath: exec.LookPath,
		KernelProbe: func() error {
			return features.HaveProgramType(ebpf.Kprobe)
		},
	}
}

func Run(c *config.Catalog) Report {
	return DefaultProber().Run(c)
}

func (p Prober) Run(c *config.Catalog) Report {
	checks := []Check{p.privilege(c), p.kernel()}
	for _, t := range c.Tools {
		checks = append(checks, binary(c, t))
	}

	r := Report{Checks: checks, OK: true}
	for _, ch := range checks {
		if ch.Status == StatusFail {
			r.OK = false
		}
	}
	return r
}

func (p Prober) privilege(c *config.Catalog) Check {
	ch := Check{Name: "privilege"}
	if p.Euid() == 0 {
		ch.Status, ch.Detail = StatusOK, "running as root"
		return ch
	}

	if len(c.Privilege) == 0 {
		ch.Status, ch.Detail = StatusWarn, "not root and no privilege escalation configured"
		return ch
	}

	ch.Target = c.Privilege[0]
	path, err := p.LookPath(c.Privilege[0])
	if err != nil {
		ch.Status, ch.Detail = StatusFail, err.Error()
		return ch
	}
	ch.Status, ch.Detail = StatusOK, "escalating with "+path
	return ch
}

func (p Prober) kernel() Check {
	ch := Check{Name: "kernel", Target: "kprobe programs"}
	err := p.KernelProbe()
	switch {
	case err == nil:
		ch.Status, ch.Detail = StatusOK, "supported"
	case errors.Is(err, ebpf.ErrNotSupported):
		ch.Status, ch.Detail = StatusFail, err.Error()
	default:
		ch.Status, ch.Detail = StatusWarn, fmt.Sprintf("could not probe: %v", err)
	}
	return ch
}

func binary(c *config.Catalog, t config.Tool) Check {
	path := c.BinaryPath(t)
	ch := Check{Name: "binary", Target: path}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		ch.Status, ch.Detail = StatusFail, "not found"
	case info.IsDir():
		ch.Status, ch.Detail = StatusFail, "is a directory"
	case info.Mode().Perm()&0o111 == 0:
		ch.Status, ch.Detail = StatusFail, "not executable"
	default:
		ch.Status, ch.Detail = StatusOK, t.Label
	}
	return ch
}
