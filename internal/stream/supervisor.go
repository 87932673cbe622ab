package stream

import (
	"context"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/streamcast/internal/events"
	"github.com/mantonx/streamcast/internal/types"
)

// Supervisor owns exactly one encoder process per active session. It
// launches the process, consumes its progress output, reacts to its exit,
// and keeps the registry consistent with what is actually running.
type Supervisor struct {
	logger        hclog.Logger
	registry      *Registry
	broadcaster   *events.Broadcaster
	ffmpegPath    string
	gracePeriod   time.Duration
	statsInterval time.Duration
}

// NewSupervisor creates a process supervisor
func NewSupervisor(logger hclog.Logger, registry *Registry, broadcaster *events.Broadcaster, ffmpegPath string, gracePeriod, statsInterval time.Duration) *Supervisor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if gracePeriod <= 0 {
		gracePeriod = 5 * time.Second
	}
	if statsInterval <= 0 {
		statsInterval = time.Second
	}
	return &Supervisor{
		logger:        logger,
		registry:      registry,
		broadcaster:   broadcaster,
		ffmpegPath:    ffmpegPath,
		gracePeriod:   gracePeriod,
		statsInterval: statsInterval,
	}
}

// Launch starts the encoder process for a session, registers the session,
// and begins supervising it. On spawn failure the session is never
// registered and no goroutines are left behind.
func (sv *Supervisor) Launch(session *Session, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, sv.ffmpegPath, args...)

	// ffmpeg emits progress text on stderr by convention
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return types.NewSpawnError("failed to create stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return types.NewSpawnError("failed to start encoder process", err)
	}

	session.attach(cmd, cancel)
	sv.registry.Put(session)

	sv.logger.Info("encoder process started",
		"session_id", session.ID,
		"pid", cmd.Process.Pid,
		"source", session.SourceURL)

	go sv.consumeOutput(session, stderr)
	go sv.reap(session, cmd)

	return nil
}

// Terminate requests a graceful shutdown of the session's process. It
// does not block waiting for exit; the exit-reaction path performs the
// final cleanup. Terminating an already-exited session is a no-op.
func (sv *Supervisor) Terminate(session *Session) {
	session.markStopRequested()

	cmd, cancel := session.handle()
	if cmd == nil || cmd.Process == nil {
		return
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		sv.logger.Debug("signal failed, process likely exited", "session_id", session.ID, "error", err)
	}

	// Hard kill if the process ignores SIGTERM past the grace period.
	if cancel != nil {
		time.AfterFunc(sv.gracePeriod, cancel)
	}
}

// consumeOutput streams encoder progress text and broadcasts parsed
// telemetry. Each chunk is parsed independently; a chunk without stats
// is ignored. The encoder rewrites its progress line far more often than
// observers need it, so publishing is throttled to the stats interval.
func (sv *Supervisor) consumeOutput(session *Session, r io.Reader) {
	buf := make([]byte, 4096)
	var lastPublish time.Time
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if stats, ok := ParseTelemetry(string(buf[:n])); ok {
				if now := time.Now(); now.Sub(lastPublish) >= sv.statsInterval {
					lastPublish = now
					sv.broadcaster.Publish(events.EventStreamStats, session.ID, stats)
				}
			}
		}
		if err != nil {
			return
		}
	}
}

// reap waits for the process to exit and performs the terminal
// transition exactly once, even when an explicit stop races with it.
func (sv *Supervisor) reap(session *Session, cmd *exec.Cmd) {
	err := cmd.Wait()

	if err != nil && !session.wasStopRequested() {
		sv.finalize(session, StatusErrored, types.NewRuntimeError("encoder process exited abnormally", err))
		return
	}
	sv.finalize(session, StatusStopped, nil)
}

// finalize removes the session from the registry and emits the terminal
// event. Guarded so the stop path and the exit path cannot both run it.
func (sv *Supervisor) finalize(session *Session, status Status, cause error) {
	session.terminal.Do(func() {
		session.detach(status)
		sv.registry.Remove(session.ID)

		switch status {
		case StatusErrored:
			msg := "stream process failed"
			if cause != nil {
				msg = cause.Error()
			}
			sv.logger.Error("stream errored", "session_id", session.ID, "error", msg)
			sv.broadcaster.PublishEvent(events.Event{
				Type:     events.EventStreamError,
				StreamID: session.ID,
				Message:  msg,
			})
		default:
			sv.logger.Info("stream stopped", "session_id", session.ID)
			sv.broadcaster.Publish(events.EventStreamStopped, session.ID, nil)
		}
	})
}

// Finalize is the stop-path entry into the terminal transition. The
// caller has already signalled the process; whichever of this call and
// the exit reaper runs first wins.
func (sv *Supervisor) Finalize(session *Session, status Status) {
	sv.finalize(session, status, nil)
}
