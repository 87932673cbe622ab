package stream

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/streamcast/internal/events"
	"github.com/mantonx/streamcast/internal/types"
)

// writeFakeEncoder writes an executable that ignores its arguments,
// emits one ffmpeg-style progress line on stderr, and then either sleeps
// (a long-running stream) or exits with the given code.
func writeFakeEncoder(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake encoder scripts require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

const longRunningEncoder = `#!/bin/sh
echo "frame=  120 fps=30 q=23.0 size= 512kB time=00:00:04 bitrate=1234.5kbits/s" 1>&2
sleep 30
`

const crashingEncoder = `#!/bin/sh
echo "boom" 1>&2
exit 1
`

// recordingEncoder must be able to create its final output argument,
// the way the real encoder opens its recording file before streaming.
const recordingEncoder = `#!/bin/sh
for last in "$@"; do :; done
touch "$last" || exit 1
echo "frame=  120 fps=30 q=23.0 size= 512kB time=00:00:04 bitrate=1234.5kbits/s" 1>&2
sleep 30
`

func newTestManager(t *testing.T, encoderPath string) (*Manager, *events.Broadcaster) {
	t.Helper()
	broadcaster := events.NewBroadcaster(nil)
	m := NewManager(ManagerOptions{
		Broadcaster:   broadcaster,
		RecordingsDir: t.TempDir(),
		FFmpegPath:    encoderPath,
		GracePeriod:   time.Second,
	})
	return m, broadcaster
}

func waitForEvent(t *testing.T, obs *events.Observer, eventType events.EventType) events.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-obs.Events():
			require.True(t, ok, "observer channel closed while waiting for %s", eventType)
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %s", eventType)
		}
	}
}

func TestStartRequiresSourceURL(t *testing.T) {
	m, _ := newTestManager(t, "/nonexistent/encoder")

	_, err := m.Start("", []Destination{{Enabled: true, RTMPURL: "rtmp://a", StreamKey: "k"}}, Settings{})
	require.Error(t, err)
	assert.Equal(t, types.ErrorCodeValidation, types.CodeFromError(err))
	assert.Equal(t, 0, m.ActiveCount())
}

func TestStartRequiresEnabledDestination(t *testing.T) {
	m, _ := newTestManager(t, "/nonexistent/encoder")

	tests := []struct {
		name         string
		destinations []Destination
	}{
		{"empty list", nil},
		{"all disabled", []Destination{{Enabled: false, RTMPURL: "rtmp://a", StreamKey: "k"}}},
		{"enabled but malformed", []Destination{{Enabled: true, RTMPURL: "", StreamKey: "k"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Start("rtsp://src", tt.destinations, Settings{})
			require.Error(t, err)
			assert.Equal(t, types.ErrorCodeValidation, types.CodeFromError(err))
			assert.Equal(t, 0, m.ActiveCount(), "failed start must leave the registry unchanged")
		})
	}
}

func TestStartSpawnFailureNeverRegisters(t *testing.T) {
	m, _ := newTestManager(t, "/nonexistent/encoder")

	_, err := m.Start("rtsp://src", []Destination{{Enabled: true, RTMPURL: "rtmp://a", StreamKey: "k"}}, Settings{})
	require.Error(t, err)
	assert.Equal(t, types.ErrorCodeSpawnFailed, types.CodeFromError(err))
	assert.Equal(t, 0, m.ActiveCount())
}

func TestStartStopLifecycle(t *testing.T) {
	encoder := writeFakeEncoder(t, longRunningEncoder)
	m, broadcaster := newTestManager(t, encoder)

	obs := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(obs)

	first := <-obs.Events()
	assert.Equal(t, events.EventConnected, first.Type)

	id, err := m.Start("rtsp://src", []Destination{
		{Enabled: true, RTMPURL: "rtmp://a.example/live", StreamKey: "k1"},
	}, Settings{})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// The id is valid for queries as soon as Start returns
	session, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusActive, session.Status())

	summaries := m.List()
	require.Len(t, summaries, 1)
	assert.Equal(t, id, summaries[0].ID)
	assert.Equal(t, DefaultPreset, session.Settings.Preset)
	assert.Equal(t, DefaultVideoBitrate, session.Settings.VideoBitrate)

	// Progress output becomes a stats event
	statsEv := waitForEvent(t, obs, events.EventStreamStats)
	assert.Equal(t, id, statsEv.StreamID)
	stats, ok := statsEv.Data.(TelemetryStats)
	require.True(t, ok)
	assert.Equal(t, 1234.5, stats.Bitrate)
	assert.Equal(t, 30, stats.FPS)
	assert.Equal(t, "00:00:04", stats.Time)

	require.NoError(t, m.Stop(id))

	// Stop immediately removes the session from the registry
	assert.Empty(t, m.List())

	stoppedEv := waitForEvent(t, obs, events.EventStreamStopped)
	assert.Equal(t, id, stoppedEv.StreamID)

	// Second stop fails with not-found and never double-terminates
	err = m.Stop(id)
	require.Error(t, err)
	assert.Equal(t, types.ErrorCodeSessionNotFound, types.CodeFromError(err))
}

func TestAbnormalExitRemovesSessionOnce(t *testing.T) {
	encoder := writeFakeEncoder(t, crashingEncoder)
	m, broadcaster := newTestManager(t, encoder)

	obs := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(obs)

	id, err := m.Start("rtsp://src", []Destination{
		{Enabled: true, RTMPURL: "rtmp://a.example/live", StreamKey: "k1"},
	}, Settings{})
	require.NoError(t, err)

	errorEv := waitForEvent(t, obs, events.EventStreamError)
	assert.Equal(t, id, errorEv.StreamID)
	assert.NotEmpty(t, errorEv.Message)

	// The exit path removed the session; a racing stop sees not-found
	require.Eventually(t, func() bool {
		_, ok := m.Get(id)
		return !ok
	}, 5*time.Second, 10*time.Millisecond)

	err = m.Stop(id)
	require.Error(t, err)
	assert.Equal(t, types.ErrorCodeSessionNotFound, types.CodeFromError(err))

	// Exactly one terminal event: no stopped event may follow the error
	select {
	case ev, ok := <-obs.Events():
		if ok {
			assert.NotEqual(t, events.EventStreamStopped, ev.Type)
			assert.NotEqual(t, events.EventStreamError, ev.Type)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestStopDuringExitRace(t *testing.T) {
	encoder := writeFakeEncoder(t, crashingEncoder)
	m, broadcaster := newTestManager(t, encoder)

	obs := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(obs)

	id, err := m.Start("rtsp://src", []Destination{
		{Enabled: true, RTMPURL: "rtmp://a.example/live", StreamKey: "k1"},
	}, Settings{})
	require.NoError(t, err)

	// Race an explicit stop against the process's own exit. Whichever
	// path wins, the session ends up removed and exactly one terminal
	// event is published.
	_ = m.Stop(id)

	require.Eventually(t, func() bool {
		_, ok := m.Get(id)
		return !ok
	}, 5*time.Second, 10*time.Millisecond)

	terminal := 0
	timeout := time.After(time.Second)
drain:
	for {
		select {
		case ev, ok := <-obs.Events():
			if !ok {
				break drain
			}
			if ev.Type == events.EventStreamStopped || ev.Type == events.EventStreamError {
				terminal++
			}
		case <-timeout:
			break drain
		}
	}
	assert.Equal(t, 1, terminal, "exactly one terminal event per session")
}

func TestRecordingSettingsProduceRecordingPath(t *testing.T) {
	encoder := writeFakeEncoder(t, longRunningEncoder)
	m, _ := newTestManager(t, encoder)

	id1, err := m.Start("rtsp://src", []Destination{
		{Enabled: true, RTMPURL: "rtmp://a.example/live", StreamKey: "k1"},
	}, Settings{Record: true})
	require.NoError(t, err)
	id2, err := m.Start("rtsp://src", []Destination{
		{Enabled: true, RTMPURL: "rtmp://a.example/live", StreamKey: "k1"},
	}, Settings{Record: true})
	require.NoError(t, err)
	defer m.Shutdown()

	s1, ok := m.Get(id1)
	require.True(t, ok)
	s2, ok := m.Get(id2)
	require.True(t, ok)

	assert.NotEmpty(t, s1.RecordingPath)
	assert.NotEmpty(t, s2.RecordingPath)
	assert.NotEqual(t, s1.RecordingPath, s2.RecordingPath)
}

func TestRecordingDirCreatedOnStart(t *testing.T) {
	encoder := writeFakeEncoder(t, recordingEncoder)
	dir := filepath.Join(t.TempDir(), "recordings")

	broadcaster := events.NewBroadcaster(nil)
	m := NewManager(ManagerOptions{
		Broadcaster:   broadcaster,
		RecordingsDir: dir,
		FFmpegPath:    encoder,
		GracePeriod:   time.Second,
	})

	obs := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(obs)

	id, err := m.Start("rtsp://src", []Destination{
		{Enabled: true, RTMPURL: "rtmp://a.example/live", StreamKey: "k1"},
	}, Settings{Record: true})
	require.NoError(t, err)
	defer m.Shutdown()

	assert.DirExists(t, dir)

	// The encoder opened its recording output and keeps running
	waitForEvent(t, obs, events.EventStreamStats)
	assert.Equal(t, 1, m.ActiveCount())

	session, ok := m.Get(id)
	require.True(t, ok)
	assert.FileExists(t, session.RecordingPath)
}

func TestShutdownStopsAllSessions(t *testing.T) {
	encoder := writeFakeEncoder(t, longRunningEncoder)
	m, _ := newTestManager(t, encoder)

	for i := 0; i < 3; i++ {
		_, err := m.Start("rtsp://src", []Destination{
			{Enabled: true, RTMPURL: "rtmp://a.example/live", StreamKey: "k1"},
		}, Settings{})
		require.NoError(t, err)
	}
	require.Equal(t, 3, m.ActiveCount())

	m.Shutdown()
	assert.Equal(t, 0, m.ActiveCount())
}
