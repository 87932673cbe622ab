// Package stream implements the stream session manager: session registry,
// encoder process supervision, telemetry parsing, and the public
// start/stop/list operations.
package stream

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// Status represents the lifecycle state of a stream session
type Status string

const (
	StatusActive  Status = "active"
	StatusStopped Status = "stopped"
	StatusErrored Status = "errored"
)

// Destination is one outbound ingest target for a session
type Destination struct {
	Enabled   bool   `json:"enabled"`
	RTMPURL   string `json:"rtmpUrl"`
	StreamKey string `json:"streamKey"`
}

// valid reports whether the destination should be attached to the encoder
// invocation. Malformed destinations are skipped, never fatal.
func (d Destination) valid() bool {
	return d.Enabled && d.RTMPURL != "" && d.StreamKey != ""
}

// Settings holds the encoding configuration for one session. All fields
// are optional at the API boundary; defaults are applied before the
// encoder invocation is constructed.
type Settings struct {
	Preset       string `json:"preset,omitempty"`
	VideoBitrate int    `json:"videoBitrate,omitempty"` // kbps
	Resolution   string `json:"resolution,omitempty"`
	Framerate    int    `json:"framerate,omitempty"`
	AudioBitrate int    `json:"audioBitrate,omitempty"` // kbps
	Record       bool   `json:"record,omitempty"`
}

// Encoding defaults applied when a start request omits a field.
const (
	DefaultPreset       = "veryfast"
	DefaultVideoBitrate = 2500
	DefaultResolution   = "1280x720"
	DefaultFramerate    = 30
	DefaultAudioBitrate = 128
)

// withDefaults returns a copy of the settings with defaults filled in
func (s Settings) withDefaults() Settings {
	if s.Preset == "" {
		s.Preset = DefaultPreset
	}
	if s.VideoBitrate <= 0 {
		s.VideoBitrate = DefaultVideoBitrate
	}
	if s.Resolution == "" {
		s.Resolution = DefaultResolution
	}
	if s.Framerate <= 0 {
		s.Framerate = DefaultFramerate
	}
	if s.AudioBitrate <= 0 {
		s.AudioBitrate = DefaultAudioBitrate
	}
	return s
}

// Session is one active or terminated instance of source to
// multi-destination encoding. The process handle is non-nil exactly
// while the session is active.
type Session struct {
	ID            string
	StartTime     time.Time
	SourceURL     string
	Destinations  []Destination
	Settings      Settings
	RecordingPath string

	mu     sync.Mutex
	status Status
	cmd    *exec.Cmd
	cancel context.CancelFunc

	stopRequested bool
	terminal      sync.Once
}

// newSessionID derives a unique identifier from the current time.
// UnixNano is monotonic enough for uniqueness within a process lifetime.
func newSessionID() string {
	return fmt.Sprintf("stream_%d", time.Now().UnixNano())
}

// Status returns the current lifecycle state
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// attach records the running process handle and marks the session active
func (s *Session) attach(cmd *exec.Cmd, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusActive
	s.cmd = cmd
	s.cancel = cancel
}

// detach clears the process handle and records the terminal status
func (s *Session) detach(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.cmd = nil
	s.cancel = nil
}

// handle returns the process handle while the session is active
func (s *Session) handle() (*exec.Cmd, context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd, s.cancel
}

// markStopRequested flags that an explicit stop was issued, so the exit
// path reports the session as stopped rather than errored.
func (s *Session) markStopRequested() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopRequested = true
}

func (s *Session) wasStopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

// Summary is the read-only session view returned by list operations
type Summary struct {
	ID           string        `json:"id"`
	Status       Status        `json:"status"`
	StartTime    time.Time     `json:"startTime"`
	Destinations []Destination `json:"destinations"`
}

// Summary returns the read-only view of the session
func (s *Session) Summary() Summary {
	return Summary{
		ID:           s.ID,
		Status:       s.Status(),
		StartTime:    s.StartTime,
		Destinations: s.Destinations,
	}
}
