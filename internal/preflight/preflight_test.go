package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cilium/ebpf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpfmon/internal/config"
)

func fakeProber(euid int, lookErr, probeErr error) Prober {
	return Prober{
		Euid: func() int { return euid },
		LookPath: func(file string) (string, error) {
			if lookErr != nil {
				return "", lookErr
			}
			return "/usr/bin/" + file, nil
		},
		KernelProbe: func() error { return probeErr },
	}
}

func catalogIn(t *testing.T) *config.Catalog {
	t.Helper()
	dir := t.TempDir()
	c := config.DefaultCatalog()
	c.InstallDir = dir
	c.Tools = []config.Tool{
		{ID: "tcpconnect", Label: "TCP Connection Statistics"},
		{ID: "cachestat", Label: "Cache Statistics"},
		{ID: "sockstat", Label: "Socket Statistics"},
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tcpconnect-bpfcc"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cachestat-bpfcc"), []byte("#!/bin/sh\n"), 0o644))
	return c
}

func find(r Report, name, target string) Check {
	for _, c := range r.Checks {
		if c.Name == name && (target == "" || filepath.Base(c.Target) == target) {
			return c
		}
	}
	return Check{}
}

func TestRunAllGood(t *testing.T) {
	c := catalogIn(t)
	c.Tools = c.Tools[:1]

	r := fakeProber(1000, nil, nil).Run(c)
	assert.True(t, r.OK)
	assert.Equal(t, StatusOK, find(r, "privilege", "").Status)
	assert.Equal(t, "escalating with /usr/bin/sudo", find(r, "privilege", "").Detail)
	assert.Equal(t, StatusOK, find(r, "kernel", "").Status)
	assert.Equal(t, StatusOK, find(r, "binary", "tcpconnect-bpfcc").Status)
}

func TestRunBinaries(t *testing.T) {
	r := fakeProber(0, nil, nil).Run(catalogIn(t))

	assert.False(t, r.OK)
	assert.Equal(t, StatusOK, find(r, "binary", "tcpconnect-bpfcc").Status)
	assert.Equal(t, "not executable", find(r, "binary", "cachestat-bpfcc").Detail)
	assert.Equal(t, "not found", find(r, "binary", "sockstat-bpfcc").Detail)
}

func TestRunPrivilege(t *testing.T) {
	c := catalogIn(t)
	c.Tools = nil

	r := fakeProber(1000, errors.New("executable file not found in $PATH"), nil).Run(c)
	assert.Equal(t, StatusFail, find(r, "privilege", "").Status)
	assert.False(t, r.OK)

	c.Privilege = nil
	r = fakeProber(1000, nil, nil).Run(c)
	assert.Equal(t, StatusWarn, find(r, "privilege", "").Status)
	assert.True(t, r.OK)

	r = fakeProber(0, nil, nil).Run(c)
	assert.Equal(t, "running as root", find(r, "privilege", "").Detail)
}

func TestRunKernel(t *testing.T) {
	c := catalogIn(t)
	c.Tools = nil

	r := fakeProber(0, nil, fmt.Errorf("kprobe: %w", ebpf.ErrNotSupported)).Run(c)
	assert.Equal(t, StatusFail, find(r, "kernel", "").Status)
	assert.False(t, r.OK)

	r = fakeProber(0, nil, errors.New("operation not permitted")).Run(c)
	assert.Equal(t, StatusWarn, find(r, "kernel", "").Status)
	assert.True(t, r.OK)
}
