package media

import "fmt"

// stderrTailLimit bounds how much encoder output an error carries.
const stderrTailLimit = 2048

// EncodeError reports an ffmpeg run that exited non-zero, keeping the tail
// of its stderr for diagnosis.
type EncodeError struct {
	Operation  string
	Cause      error
	StderrTail string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s failed: %v: %s", e.Operation, e.Cause, e.StderrTail)
}

func (e *EncodeError) Unwrap() error { return e.Cause }

// tail returns the last limit bytes of s.
func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
