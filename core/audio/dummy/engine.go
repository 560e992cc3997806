package dummy

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"AudioEditor/core/audio"
)

var _ audio.Engine = &Engine{}

// placeholder bytes written when the input cannot be read
var fallbackOutput = []byte("dummy audio output")

func NewDummyEngine() *Engine {
	return &Engine{}
}

// Engine pretends to be ffmpeg: it copies the -i input to the last argument.
type Engine struct {
	Unavailable bool
	// EmptyOutput makes every run succeed but leave a zero byte output.
	EmptyOutput bool
	// FailWhen makes matching runs exit with status 1 without writing anything.
	FailWhen func(args []string) bool
	// Delay is slept inside Run, honouring ctx.
	Delay time.Duration

	mutex  sync.Mutex
	calls  [][]string
	probes int
}

func (e *Engine) Available(_ context.Context) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.probes++
	return !e.Unavailable
}

func (e *Engine) Run(ctx context.Context, args []string, _ time.Duration) audio.Outcome {
	e.mutex.Lock()
	e.calls = append(e.calls, append([]string(nil), args...))
	e.mutex.Unlock()

	outcome := audio.Outcome{Args: args}
	if e.Unavailable {
		outcome.NotFound = true
		outcome.ExitCode = -1
		return outcome
	}
	if e.Delay > 0 {
		select {
		case <-time.After(e.Delay):
		case <-ctx.Done():
			outcome.ExitCode = -1
			outcome.Err = ctx.Err()
			return outcome
		}
	}
	if e.FailWhen != nil && e.FailWhen(args) {
		outcome.ExitCode = 1
		outcome.Stderr = "Invalid data found when processing input"
		return outcome
	}
	if len(args) == 0 {
		return outcome
	}

	content := []byte{}
	if !e.EmptyOutput {
		content = fallbackOutput
		if input := InputOf(args); input != "" {
			if data, err := os.ReadFile(input); err == nil && len(data) > 0 {
				content = data
			}
		}
	}
	if err := os.WriteFile(args[len(args)-1], content, 0644); err != nil {
		outcome.ExitCode = 1
		outcome.Stderr = err.Error()
	}
	return outcome
}

// Calls returns a copy of every argument list Run received.
func (e *Engine) Calls() [][]string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return append([][]string(nil), e.calls...)
}

func (e *Engine) Probes() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.probes
}

// InputOf returns the value following -i.
func InputOf(args []string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-i" {
			return args[i+1]
		}
	}
	return ""
}

// FilterContains matches runs whose -af value contains substr.
func FilterContains(substr string) func([]string) bool {
	return func(args []string) bool {
		for i := 0; i+1 < len(args); i++ {
			if args[i] == "-af" && strings.Contains(args[i+1], substr) {
				return true
			}
		}
		return false
	}
}
