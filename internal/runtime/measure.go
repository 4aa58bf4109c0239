package runtime

import (
	"context"
	"io"
	"os/exec"
	"time"

	"github.com/pkg/errors"
)

// Usage is the resource footprint of one finished child process.
type Usage struct {
	CPUTime      time.Duration
	WallTime     time.Duration
	PeakRSSBytes int64
	ExitCode     int
}

func (u Usage) CPUSeconds() float64  { return u.CPUTime.Seconds() }
func (u Usage) WallSeconds() float64 { return u.WallTime.Seconds() }
func (u Usage) PeakRSSMB() float64   { return float64(u.PeakRSSBytes) / (1024 * 1024) }

// CPUPercent is CPU time over wall time. It exceeds 100 for multi-threaded
// children.
func (u Usage) CPUPercent() float64 {
	if u.WallTime <= 0 {
		return 0
	}
	return u.CPUSeconds() / u.WallSeconds() * 100
}

// Command is a process to measure.
type Command struct {
	Name   string
	Args   []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Measure runs cmd to completion and reports its CPU time (user + system),
// wall time and peak resident set size. A non-zero exit still returns the
// usage together with the *exec.ExitError. Cancelling ctx kills the child.
func Measure(ctx context.Context, cmd Command) (Usage, error) {
	if cmd.Name == "" {
		return Usage{}, errors.New("no command to measure")
	}
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = cmd.Stdout
	c.Stderr = cmd.Stderr

	start := time.Now()
	if err := c.Start(); err != nil {
		return Usage{}, errors.Wrapf(err, "start %s", cmd.Name)
	}
	runErr := c.Wait()
	u := Usage{WallTime: time.Since(start), ExitCode: -1}
	if st := c.ProcessState; st != nil {
		u.CPUTime = st.UserTime() + st.SystemTime()
		u.PeakRSSBytes = peakRSS(st)
		u.ExitCode = st.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return u, ctxErr
	}
	if runErr != nil {
		return u, errors.Wrapf(runErr, "%s", cmd.Name)
	}
	return u, nil
}
