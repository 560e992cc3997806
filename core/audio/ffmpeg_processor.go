package audio

import (
	"bytes"
	"context"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"AudioEditor/logger"

	"github.com/cockroachdb/errors"
)

const (
	defaultProbeTimeout = 10 * time.Second
	// processes that ignore the kill signal still release their pipes after this
	waitDelay = 2 * time.Second
)

// FFmpegEngine implements Engine by executing ffmpeg.
type FFmpegEngine struct {
	ffmpegPath   string
	probeTimeout time.Duration
}

// NewFFmpegEngine creates a new FFmpegEngine. A zero probeTimeout means 10 seconds.
func NewFFmpegEngine(ffmpegPath string, probeTimeout time.Duration) *FFmpegEngine {
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &FFmpegEngine{ffmpegPath: ffmpegPath, probeTimeout: probeTimeout}
}

func (e *FFmpegEngine) Path() string {
	return e.ffmpegPath
}

// Run executes ffmpeg with args, bounded by timeout and by ctx.
func (e *FFmpegEngine) Run(ctx context.Context, args []string, timeout time.Duration) Outcome {
	logger.Info("Executing engine command",
		logger.String("bin", e.ffmpegPath),
		logger.String("args", strings.Join(args, " ")),
		logger.Duration("timeout", timeout))

	outcome := e.run(ctx, args, timeout)

	switch {
	case outcome.Succeeded():
		logger.Debug("Engine command finished", logger.Duration("elapsed", outcome.Elapsed))
	case outcome.NotFound:
		logger.Error("Engine executable not found",
			logger.String("bin", e.ffmpegPath), logger.ErrorField(outcome.Err))
	case outcome.TimedOut:
		logger.Error("Engine command timed out",
			logger.Duration("timeout", timeout), logger.Duration("elapsed", outcome.Elapsed))
	default:
		logger.Error("Engine command failed",
			logger.Int("exit_code", outcome.ExitCode),
			logger.String("stderr", outcome.Stderr),
			logger.ErrorField(outcome.Err))
	}
	return outcome
}

func (e *FFmpegEngine) run(ctx context.Context, args []string, timeout time.Duration) Outcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	outcome := Outcome{
		Args:    args,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}
	if err == nil {
		return outcome
	}

	outcome.Err = err
	outcome.ExitCode = -1
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		outcome.NotFound = true
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		outcome.TimedOut = true
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		}
	}
	return outcome
}

// Available probes the engine with -version. Failures are logged at debug level only,
// callers decide how loud an unavailable engine should be.
func (e *FFmpegEngine) Available(ctx context.Context) bool {
	outcome := e.run(ctx, []string{"-version"}, e.probeTimeout)
	if !outcome.Succeeded() {
		logger.Debug("Engine probe failed",
			logger.String("bin", e.ffmpegPath), logger.String("reason", outcome.Diagnostic()))
		return false
	}
	return true
}

// Version returns the first line of -version output.
func (e *FFmpegEngine) Version(ctx context.Context) (string, error) {
	outcome := e.run(ctx, []string{"-version"}, e.probeTimeout)
	if !outcome.Succeeded() {
		return "", errors.Newf("probing %s: %s", e.ffmpegPath, outcome.Diagnostic())
	}
	line, _, _ := strings.Cut(outcome.Stdout, "\n")
	return strings.TrimSpace(line), nil
}
