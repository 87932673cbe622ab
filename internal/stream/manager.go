package stream

import (
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/streamcast/internal/events"
	"github.com/mantonx/streamcast/internal/types"
)

// RecordingStore receives the recording path of sessions started with
// recording enabled. Implemented by the recordings catalog.
type RecordingStore interface {
	Track(sessionID, path string) error
}

// Manager exposes the public stream operations and coordinates the
// registry, the supervisor and the broadcaster.
type Manager struct {
	logger      hclog.Logger
	registry    *Registry
	supervisor  *Supervisor
	broadcaster *events.Broadcaster
	recordings  RecordingStore
	recordDir   string
}

// ManagerOptions configures a Manager
type ManagerOptions struct {
	Logger        hclog.Logger
	Broadcaster   *events.Broadcaster
	Recordings    RecordingStore
	RecordingsDir string
	FFmpegPath    string
	GracePeriod   time.Duration
	StatsInterval time.Duration
}

// NewManager creates a stream manager
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	broadcaster := opts.Broadcaster
	if broadcaster == nil {
		broadcaster = events.NewBroadcaster(logger.Named("events"))
	}

	registry := NewRegistry()
	return &Manager{
		logger:      logger,
		registry:    registry,
		supervisor:  NewSupervisor(logger.Named("supervisor"), registry, broadcaster, opts.FFmpegPath, opts.GracePeriod, opts.StatsInterval),
		broadcaster: broadcaster,
		recordings:  opts.Recordings,
		recordDir:   opts.RecordingsDir,
	}
}

// Start validates the request, constructs the encoder invocation, launches
// the process and registers the session. The returned id is valid for
// status queries and stop requests as soon as Start returns.
func (m *Manager) Start(sourceURL string, destinations []Destination, settings Settings) (string, error) {
	if sourceURL == "" {
		return "", types.NewValidationError("sourceUrl is required")
	}

	enabled := 0
	for _, d := range destinations {
		if d.valid() {
			enabled++
		}
	}
	if enabled == 0 {
		return "", types.NewValidationError("at least one enabled destination is required")
	}

	session := &Session{
		ID:           newSessionID(),
		StartTime:    time.Now(),
		SourceURL:    sourceURL,
		Destinations: destinations,
		Settings:     settings.withDefaults(),
	}

	if session.Settings.Record {
		// The encoder will not create the output directory itself.
		if err := os.MkdirAll(m.recordDir, 0755); err != nil {
			return "", types.NewSpawnError("failed to create recordings directory", err)
		}
		session.RecordingPath = recordingPath(m.recordDir, session.ID, session.StartTime)
	}

	args := BuildInvocation(session)
	m.logger.Debug("constructed encoder invocation", "session_id", session.ID, "args", args)

	if err := m.supervisor.Launch(session, args); err != nil {
		return "", err
	}

	if session.RecordingPath != "" && m.recordings != nil {
		if err := m.recordings.Track(session.ID, session.RecordingPath); err != nil {
			m.logger.Warn("failed to track recording", "session_id", session.ID, "error", err)
		}
	}

	m.logger.Info("stream started",
		"session_id", session.ID,
		"destinations", enabled,
		"recording", session.Settings.Record)
	return session.ID, nil
}

// Stop terminates a session's process, removes it from the registry and
// publishes the terminal event. Safe to call concurrently with the
// session's own process exit.
func (m *Manager) Stop(id string) error {
	session, ok := m.registry.Get(id)
	if !ok {
		return types.NewSessionNotFoundError(id)
	}

	m.supervisor.Terminate(session)
	m.supervisor.Finalize(session, StatusStopped)
	return nil
}

// List returns a read-only snapshot of all registered sessions
func (m *Manager) List() []Summary {
	return m.registry.List()
}

// Get returns the session for the given id, if present
func (m *Manager) Get(id string) (*Session, bool) {
	return m.registry.Get(id)
}

// ActiveCount returns the number of currently registered sessions
func (m *Manager) ActiveCount() int {
	return m.registry.Len()
}

// Broadcaster returns the event broadcaster used for session events
func (m *Manager) Broadcaster() *events.Broadcaster {
	return m.broadcaster
}

// Shutdown stops all active sessions. Called on process shutdown.
func (m *Manager) Shutdown() {
	for _, summary := range m.registry.List() {
		if err := m.Stop(summary.ID); err != nil {
			m.logger.Warn("failed to stop session during shutdown", "session_id", summary.ID, "error", err)
		}
	}
}
