// Package extractor resolves page URLs to direct media stream URLs by
// invoking an external resolver under a bounded wall-clock budget.
package extractor

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/streamcast/internal/types"
)

// CommandRunner interface for command execution (enables mocking in tests)
type CommandRunner interface {
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
}

// DefaultCommandRunner implements CommandRunner using os/exec. Command
// cancellation kills the process, which bounds the resolver's lifetime.
type DefaultCommandRunner struct{}

// Run executes a command using os/exec
func (r *DefaultCommandRunner) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	command := exec.CommandContext(ctx, cmd, args...)
	return command.Output()
}

// Extractor resolves source URLs via an external tool (yt-dlp by default)
type Extractor struct {
	logger     hclog.Logger
	runner     CommandRunner
	binaryPath string
	timeout    time.Duration
}

// DefaultTimeout bounds a single extraction when no timeout is configured
const DefaultTimeout = 30 * time.Second

// New creates an extractor using the real command runner
func New(logger hclog.Logger, binaryPath string, timeout time.Duration) *Extractor {
	return NewWithRunner(logger, &DefaultCommandRunner{}, binaryPath, timeout)
}

// NewWithRunner creates an extractor with a custom command runner (for testing)
func NewWithRunner(logger hclog.Logger, runner CommandRunner, binaryPath string, timeout time.Duration) *Extractor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{
		logger:     logger,
		runner:     runner,
		binaryPath: binaryPath,
		timeout:    timeout,
	}
}

// Extract resolves a source URL to a direct media URL. The resolver
// process is force-terminated when it exceeds the budget, and exactly one
// of the timeout error and the normal result reaches the caller.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", types.NewValidationError("url is required")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.logger.Debug("resolving stream url", "url", url, "timeout", e.timeout)
	output, err := e.runner.Run(ctx, e.binaryPath, "-g", "-f", "best", url)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			e.logger.Warn("stream extraction timed out", "url", url)
			return "", types.NewExtractTimeoutError(url, err)
		}
		return "", types.NewAppErrorWithCause(types.ErrorCodeExtractFailed, "failed to extract stream url", 500, err)
	}

	streamURL := firstNonEmptyLine(string(output))
	if streamURL == "" {
		return "", types.NewAppError(types.ErrorCodeExtractFailed, "resolver returned no stream url", 500)
	}

	e.logger.Info("stream url resolved", "url", url)
	return streamURL, nil
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
