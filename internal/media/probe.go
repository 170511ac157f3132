package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Prober reads media durations through ffprobe.
type Prober struct {
	FFprobe string
}

// NewProber creates a prober with the configured binary path.
func NewProber(ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{FFprobe: ffprobePath}
}

// ProbeFile returns the duration of a media file in seconds.
func (p *Prober) ProbeFile(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.FFprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned an unparseable duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("ffprobe returned a non-positive duration %f for %s", duration, path)
	}
	return duration, nil
}

// ProbeBytes writes the media bytes to a workspace temp file and probes it.
func (p *Prober) ProbeBytes(ctx context.Context, ws *Workspace, name string, data []byte) (float64, error) {
	path, err := ws.WriteFile(name, data)
	if err != nil {
		return 0, err
	}
	return p.ProbeFile(ctx, path)
}
