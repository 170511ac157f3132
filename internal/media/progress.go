package media

import (
	"regexp"
	"strconv"
)

var encodeTimePattern = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d+)`)

// parseEncodedSeconds extracts the encoded position from one chunk of ffmpeg
// stderr output. The second return value reports whether a position was
// found.
func parseEncodedSeconds(chunk string) (float64, bool) {
	m := encodeTimePattern.FindStringSubmatch(chunk)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	frac, _ := strconv.ParseFloat("0."+m[4], 64)
	return float64(h*3600+min*60+sec) + frac, true
}

// progressTracker converts encoded positions into percentages, reporting at
// most once per five seconds of encoded time.
type progressTracker struct {
	total    float64
	lastStep float64
	report   func(percent float64)
}

func newProgressTracker(totalSeconds float64, report func(float64)) *progressTracker {
	return &progressTracker{total: totalSeconds, report: report}
}

func (t *progressTracker) observe(chunk string) {
	if t.report == nil || t.total <= 0 {
		return
	}
	seconds, ok := parseEncodedSeconds(chunk)
	if !ok {
		return
	}
	if seconds-t.lastStep < 5 {
		return
	}
	t.lastStep = seconds
	percent := seconds / t.total * 100
	if percent > 100 {
		percent = 100
	}
	t.report(percent)
}
