package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lofiradio/automation/internal/model"
)

// fakeFFmpeg installs a stand-in ffmpeg that records its argument vector and
// writes a marker byte to the output path (the last argument).
func fakeFFmpeg(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	script := filepath.Join(dir, "ffmpeg")
	content := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > " + argsFile + "\n" +
		"for last; do :; done\n" +
		"printf 'x' > \"$last\"\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatalf("failed to write fake ffmpeg: %v", err)
	}
	return script, argsFile
}

func recordedArgs(t *testing.T, argsFile string) []string {
	t.Helper()
	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("failed to read recorded args: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestStillComposeBoundsDurationWhenLimited(t *testing.T) {
	ffmpeg, argsFile := fakeFFmpeg(t)
	c := NewComposer(ffmpeg, "", "")
	ws := NewWorkspace(t.TempDir(), model.SlotNight)
	defer ws.Cleanup()

	out, err := c.StillCompose(context.Background(), ws, []byte("png"), []byte("mp3"), true, ShortClipSeconds, nil)
	if err != nil {
		t.Fatalf("StillCompose returned error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("StillCompose returned no output bytes")
	}

	args := recordedArgs(t, argsFile)
	if !hasArgPair(args, "-t", "45") {
		t.Errorf("bounded still rendition must pass -t 45, got args: %v", args)
	}
	if !hasArgPair(args, "-vf", "scale=1080:1920") {
		t.Errorf("vertical rendition must scale to 1080x1920, got args: %v", args)
	}
}

func TestStillComposeUnboundedByDefault(t *testing.T) {
	ffmpeg, argsFile := fakeFFmpeg(t)
	c := NewComposer(ffmpeg, "", "")
	ws := NewWorkspace(t.TempDir(), model.SlotMorning)
	defer ws.Cleanup()

	if _, err := c.StillCompose(context.Background(), ws, []byte("png"), []byte("mp3"), false, 0, nil); err != nil {
		t.Fatalf("StillCompose returned error: %v", err)
	}

	args := recordedArgs(t, argsFile)
	for _, a := range args {
		if a == "-t" {
			t.Errorf("full-length still rendition must not bound duration, got args: %v", args)
		}
	}
	if !hasArgPair(args, "-vf", "scale=1920:1080") {
		t.Errorf("horizontal rendition must scale to 1920x1080, got args: %v", args)
	}
}

func TestClipBoundsDuration(t *testing.T) {
	ffmpeg, argsFile := fakeFFmpeg(t)
	c := NewComposer(ffmpeg, "", "")
	ws := NewWorkspace(t.TempDir(), model.SlotMidday)
	defer ws.Cleanup()

	if _, err := c.Clip(context.Background(), ws, []byte("mp4")); err != nil {
		t.Fatalf("Clip returned error: %v", err)
	}

	args := recordedArgs(t, argsFile)
	if !hasArgPair(args, "-t", "45") {
		t.Errorf("clip must pass -t 45, got args: %v", args)
	}
}
