package stream

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(id string) *Session {
	return &Session{
		ID:        id,
		StartTime: time.Now(),
		SourceURL: "rtsp://example/src",
		Destinations: []Destination{
			{Enabled: true, RTMPURL: "rtmp://a.example/live", StreamKey: "k1"},
		},
		Settings: Settings{}.withDefaults(),
		status:   StatusActive,
	}
}

func TestRegistryPutGetRemove(t *testing.T) {
	r := NewRegistry()

	s := newTestSession("stream_1")
	r.Put(s)

	got, ok := r.Get("stream_1")
	require.True(t, ok)
	assert.Equal(t, s, got)

	assert.True(t, r.Remove("stream_1"))
	_, ok = r.Get("stream_1")
	assert.False(t, ok)
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Put(newTestSession("stream_1"))

	assert.True(t, r.Remove("stream_1"))
	// A stop request and a process-exit callback may both remove the
	// same id; the second removal must be a harmless no-op.
	assert.False(t, r.Remove("stream_1"))
	assert.False(t, r.Remove("never_existed"))
}

func TestRegistryListSnapshot(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.List())

	r.Put(newTestSession("stream_1"))
	r.Put(newTestSession("stream_2"))

	summaries := r.List()
	assert.Len(t, summaries, 2)

	ids := map[string]bool{}
	for _, s := range summaries {
		ids[s.ID] = true
		assert.Equal(t, StatusActive, s.Status)
		assert.Len(t, s.Destinations, 1)
	}
	assert.True(t, ids["stream_1"])
	assert.True(t, ids["stream_2"])
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("stream_%d", n)
			r.Put(newTestSession(id))
			r.List()
			r.Remove(id)
			r.Remove(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}
