package audio

import (
	"context"
	"time"
)

// Engine runs the external audio tool. It is the only place a process is spawned, so
// tests swap it for a fake.
type Engine interface {
	Run(ctx context.Context, args []string, timeout time.Duration) Outcome
	Available(ctx context.Context) bool
}

// Outcome describes one engine invocation.
type Outcome struct {
	Args     []string
	ExitCode int
	TimedOut bool
	NotFound bool // the executable could not be started at all
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
	Err      error
}

// Succeeded is true only when the process exited with status 0 inside its timeout.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && !o.TimedOut && !o.NotFound && o.ExitCode == 0
}

// Diagnostic is the text worth logging for a failed run.
func (o Outcome) Diagnostic() string {
	switch {
	case o.NotFound:
		return "engine executable not found"
	case o.TimedOut:
		return "engine timed out after " + o.Elapsed.Round(time.Millisecond).String()
	case o.Stderr != "":
		return o.Stderr
	case o.Err != nil:
		return o.Err.Error()
	default:
		return ""
	}
}
