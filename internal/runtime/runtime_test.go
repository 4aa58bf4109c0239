package runtime

import (
	"bytes"
	"context"
	"os/exec"
	goruntime "runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if goruntime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestMeasure(t *testing.T) {
	requireShell(t)
	var out bytes.Buffer
	u, err := Measure(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo hello; sleep 0.05"}, Stdout: &out})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out.String())
	assert.GreaterOrEqual(t, u.WallTime, 50*time.Millisecond)
	assert.Equal(t, 0, u.ExitCode)
	assert.GreaterOrEqual(t, u.CPUTime, time.Duration(0))
	if goruntime.GOOS == "linux" {
		assert.Greater(t, u.PeakRSSBytes, int64(0))
	}
}

func TestMeasureExitError(t *testing.T) {
	requireShell(t)
	u, err := Measure(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	require.Error(t, err)
	var exitErr *exec.ExitError
	assert.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, u.ExitCode)
}

func TestMeasureCanceled(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Measure(ctx, Command{Name: "sh", Args: []string{"-c", "sleep 5"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMeasureMissingCommand(t *testing.T) {
	_, err := Measure(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"})
	assert.Error(t, err)
	_, err = Measure(context.Background(), Command{})
	assert.Error(t, err)
}

func TestUsageDerived(t *testing.T) {
	u := Usage{CPUTime: 3 * time.Second, WallTime: 2 * time.Second, PeakRSSBytes: 3 * 1024 * 1024}
	assert.Equal(t, 150.0, u.CPUPercent())
	assert.Equal(t, 3.0, u.PeakRSSMB())
	assert.Equal(t, 0.0, Usage{}.CPUPercent())
}

func TestParseMemTotal(t *testing.T) {
	kb, err := parseMemTotal([]byte("MemFree:  100 kB\nMemTotal:       16318412 kB\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(16318412), kb)

	_, err = parseMemTotal([]byte("MemFree: 1 kB\n"))
	assert.Error(t, err)
	_, err = parseMemTotal([]byte("MemTotal: lots kB\n"))
	assert.Error(t, err)
}

func TestHostInfo(t *testing.T) {
	if goruntime.GOOS != "linux" {
		t.Skip("reads /proc/meminfo")
	}
	info, err := HostInfo()
	require.NoError(t, err)
	assert.Greater(t, info.TotalRAMGB, 0.0)
	assert.GreaterOrEqual(t, info.CPUCores, 1)
}
