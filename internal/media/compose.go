// Package media drives ffmpeg and ffprobe for the audio/video assembly
// steps of a run. All ffmpeg work happens on temp files registered with a
// Workspace so a failed run leaves nothing behind.
package media

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ShortClipSeconds is the length of short-form companion clips cut from a
// long-form rendition.
const ShortClipSeconds = 45

// Composer runs the ffmpeg encodes of a pipeline run.
type Composer struct {
	FFmpeg string
	Preset string
	CRF    string
}

// NewComposer creates a composer with the configured binary path and
// encoding parameters.
func NewComposer(ffmpegPath, preset, crf string) *Composer {
	c := &Composer{FFmpeg: ffmpegPath, Preset: preset, CRF: crf}
	if c.FFmpeg == "" {
		c.FFmpeg = "ffmpeg"
	}
	if c.Preset == "" {
		c.Preset = "slow"
	}
	if c.CRF == "" {
		c.CRF = "18"
	}
	return c
}

// Compose loops the video clip under the full audio track and returns the
// muxed file bytes. The audio stream is copied without re-encoding; the
// output stops at the audio length. onProgress, when non-nil, receives
// percentages as encoding advances.
func (c *Composer) Compose(ctx context.Context, ws *Workspace, video, audio []byte, audioDuration float64, onProgress func(float64)) ([]byte, error) {
	videoPath, err := ws.WriteFile("loop.mp4", video)
	if err != nil {
		return nil, err
	}
	audioPath, err := ws.WriteFile("audio.mp3", audio)
	if err != nil {
		return nil, err
	}
	outputPath := ws.Path("final.mp4")

	args := []string{
		"-stream_loop", "-1",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "libx264",
		"-preset", c.Preset,
		"-crf", c.CRF,
		"-c:a", "copy",
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-vf", "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2",
		"-y", outputPath,
	}

	if err := c.run(ctx, "video composition", args, audioDuration, onProgress); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read composed video: %w", err)
	}
	log.Printf("[media] composed video (%.1f MB)", float64(len(data))/(1024*1024))
	return data, nil
}

// StillCompose renders a static-image video from cover art and the audio
// track. Vertical output (1080x1920) is used for short-form, horizontal
// (1920x1080) for long-form. A positive maxSeconds bounds the output length
// below the audio length.
func (c *Composer) StillCompose(ctx context.Context, ws *Workspace, image, audio []byte, vertical bool, maxSeconds float64, onProgress func(float64)) ([]byte, error) {
	imagePath, err := ws.WriteFile("cover.png", image)
	if err != nil {
		return nil, err
	}
	audioPath, err := ws.WriteFile("audio.mp3", audio)
	if err != nil {
		return nil, err
	}
	outputPath := ws.Path("still.mp4")

	scale := "1920:1080"
	if vertical {
		scale = "1080:1920"
	}

	args := []string{
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
	}
	if maxSeconds > 0 {
		args = append(args, "-t", strconv.FormatFloat(maxSeconds, 'f', -1, 64))
	}
	args = append(args,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-preset", c.Preset,
		"-crf", c.CRF,
		"-c:a", "aac",
		"-b:a", "256k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-vf", "scale="+scale,
		"-y", outputPath,
	)

	if err := c.run(ctx, "still composition", args, 0, onProgress); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read still video: %w", err)
	}
	return data, nil
}

// Clip cuts the first 45 seconds of a video into a vertical short-form
// rendition.
func (c *Composer) Clip(ctx context.Context, ws *Workspace, video []byte) ([]byte, error) {
	inputPath, err := ws.WriteFile("clip_src.mp4", video)
	if err != nil {
		return nil, err
	}
	outputPath := ws.Path("clip.mp4")

	args := []string{
		"-i", inputPath,
		"-t", strconv.Itoa(ShortClipSeconds),
		"-c:v", "libx264",
		"-preset", c.Preset,
		"-crf", c.CRF,
		"-c:a", "aac",
		"-b:a", "256k",
		"-pix_fmt", "yuv420p",
		"-vf", "scale=1080:1920:force_original_aspect_ratio=decrease,pad=1080:1920:(ow-iw)/2:(oh-ih)/2",
		"-y", outputPath,
	}

	if err := c.run(ctx, "short clip", args, 0, nil); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read short clip: %w", err)
	}
	return data, nil
}

func (c *Composer) run(ctx context.Context, operation string, args []string, totalSeconds float64, onProgress func(float64)) error {
	cmd := exec.CommandContext(ctx, c.FFmpeg, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open ffmpeg stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tracker := newProgressTracker(totalSeconds, onProgress)
	var captured strings.Builder
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanCarriageLines)
	for scanner.Scan() {
		line := scanner.Text()
		captured.WriteString(line)
		captured.WriteString("\n")
		tracker.observe(line)
	}

	if err := cmd.Wait(); err != nil {
		return &EncodeError{
			Operation:  operation,
			Cause:      err,
			StderrTail: tail(captured.String(), stderrTailLimit),
		}
	}
	return nil
}

// scanCarriageLines splits on both \n and \r since ffmpeg writes progress
// updates with bare carriage returns.
func scanCarriageLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
