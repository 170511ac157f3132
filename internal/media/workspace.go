package media

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/lofiradio/automation/internal/model"
)

// Workspace tracks the temp files of one pipeline run so cleanup removes
// them all regardless of how far the run got. File names carry the slot so
// concurrent runs of different slots never collide.
type Workspace struct {
	dir   string
	slot  model.Slot
	files []string
}

// NewWorkspace creates a workspace rooted at dir. An empty dir falls back to
// the system temp directory.
func NewWorkspace(dir string, slot model.Slot) *Workspace {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Workspace{dir: dir, slot: slot}
}

// Path returns the slot-qualified path for a named temp file and registers
// it for cleanup. The file itself may or may not exist yet.
func (w *Workspace) Path(name string) string {
	p := filepath.Join(w.dir, fmt.Sprintf("lofiradio_%s_%s", w.slot, name))
	w.register(p)
	return p
}

// WriteFile writes data to a named temp file and registers it for cleanup.
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	p := w.Path(name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write temp file %s: %w", p, err)
	}
	return p, nil
}

func (w *Workspace) register(path string) {
	for _, f := range w.files {
		if f == path {
			return
		}
	}
	w.files = append(w.files, path)
}

// Cleanup removes every registered file. Removal errors are logged, never
// returned; a missing file is not an error.
func (w *Workspace) Cleanup() {
	for _, f := range w.files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			log.Printf("[media] failed to remove temp file %s: %v", f, err)
		}
	}
	w.files = nil
}
