package stream

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/streamcast/internal/events"
)

func TestStatsPublishingHonorsInterval(t *testing.T) {
	broadcaster := events.NewBroadcaster(nil)
	obs := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(obs)

	sv := NewSupervisor(nil, NewRegistry(), broadcaster, "ffmpeg", time.Second, time.Minute)
	session := newTestSession("stream_throttle")

	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		sv.consumeOutput(session, pr)
		close(done)
	}()

	// The encoder rewrites its progress line in rapid bursts; only the
	// first within the interval may reach observers.
	line := []byte("frame=  30 fps=30 q=23.0 time=00:00:01 bitrate=1000.0kbits/s\n")
	for i := 0; i < 5; i++ {
		_, err := pw.Write(line)
		require.NoError(t, err)
	}
	require.NoError(t, pw.Close())
	<-done

	statsEvents := 0
drain:
	for {
		select {
		case ev := <-obs.Events():
			if ev.Type == events.EventStreamStats {
				statsEvents++
			}
		default:
			break drain
		}
	}
	assert.Equal(t, 1, statsEvents, "stats publishing is throttled to the interval")
}

func TestStatsIntervalDefault(t *testing.T) {
	sv := NewSupervisor(nil, NewRegistry(), events.NewBroadcaster(nil), "ffmpeg", 0, 0)
	assert.Equal(t, time.Second, sv.statsInterval)
	assert.Equal(t, 5*time.Second, sv.gracePeriod)
}
