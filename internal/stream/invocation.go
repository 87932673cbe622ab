package stream

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// BuildInvocation constructs the encoder argument list for a session.
// Arguments are passed as a structured list, never interpolated through a
// shell, so user-supplied URLs and keys cannot inject options. The same
// encoded stream is fanned out once per enabled destination; a recording
// output is appended when the session has one.
func BuildInvocation(s *Session) []string {
	args := []string{
		"-re",
		"-i", s.SourceURL,
	}

	set := s.Settings
	args = append(args,
		"-c:v", "libx264",
		"-preset", set.Preset,
		"-b:v", fmt.Sprintf("%dk", set.VideoBitrate),
		"-maxrate", fmt.Sprintf("%dk", set.VideoBitrate),
		"-bufsize", fmt.Sprintf("%dk", set.VideoBitrate*2),
		"-s", set.Resolution,
		"-r", fmt.Sprintf("%d", set.Framerate),
		"-g", fmt.Sprintf("%d", set.Framerate*2),
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", set.AudioBitrate),
		"-ar", "44100",
	)

	for _, dest := range s.Destinations {
		if !dest.valid() {
			continue
		}
		args = append(args, "-f", "flv", destinationTarget(dest))
	}

	if s.RecordingPath != "" {
		args = append(args, s.RecordingPath)
	}

	return args
}

// destinationTarget joins the base ingest URL and stream key into the
// full publish target.
func destinationTarget(d Destination) string {
	return strings.TrimRight(d.RTMPURL, "/") + "/" + d.StreamKey
}

// recordingPath derives a per-session recording output path. The session
// id embeds a nanosecond timestamp, so paths never collide under rapid
// sequential starts.
func recordingPath(dir, sessionID string, start time.Time) string {
	name := fmt.Sprintf("recording_%s_%s.mp4", sessionID, start.Format("20060102_150405"))
	return filepath.Join(dir, name)
}
