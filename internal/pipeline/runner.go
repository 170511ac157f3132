// Package pipeline runs the content generation pipeline for one slot: music
// prompt, metadata, audio, cover art, optional looping video, composition
// and publishing. Generation stages are fatal; the video stages degrade to
// an audio-plus-cover run instead of failing it.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/lofiradio/automation/internal/media"
	"github.com/lofiradio/automation/internal/model"
	"github.com/lofiradio/automation/internal/publish"
)

// PromptGenerator produces every prompt artifact of a run.
type PromptGenerator interface {
	GenerateBundle(ctx context.Context, slot model.Slot) (*model.PromptBundle, error)
	GenerateMetadata(ctx context.Context, slot model.Slot, musicPrompt string) (*model.Metadata, error)
	ImagePrompt(bundle *model.PromptBundle, slot model.Slot) string
	VideoPrompt(bundle *model.PromptBundle, slot model.Slot) string
}

// TrackGenerator produces the instrumental audio track.
type TrackGenerator interface {
	GenerateInstrumental(ctx context.Context, prompt string) ([]byte, error)
}

// CoverGenerator produces the cover artwork.
type CoverGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// VideoGenerator produces the looping background clip.
type VideoGenerator interface {
	GenerateLoop(ctx context.Context, prompt string, onProgress func(float64)) ([]byte, error)
	IsConfigured() bool
}

// DurationProber reads the duration of generated audio.
type DurationProber interface {
	ProbeBytes(ctx context.Context, ws *media.Workspace, name string, data []byte) (float64, error)
}

// VideoComposer loops the clip under the audio track.
type VideoComposer interface {
	Compose(ctx context.Context, ws *media.Workspace, video, audio []byte, audioDuration float64, onProgress func(float64)) ([]byte, error)
}

// ProgressFunc observes stage transitions. It must not block.
type ProgressFunc func(stage model.Stage, percent int, message string)

// Runner wires the pipeline collaborators together.
type Runner struct {
	Prompts    PromptGenerator
	Track      TrackGenerator
	Cover      CoverGenerator
	Video      VideoGenerator
	Prober     DurationProber
	Composer   VideoComposer
	Publishers []publish.Publisher
	TempDir    string
}

// Run executes the full pipeline for a slot. The returned run record is
// always non-nil; on a fatal stage failure it carries the failed status and
// the error is returned alongside it. Temp files are removed on every path.
func (r *Runner) Run(ctx context.Context, slot model.Slot, observe ProgressFunc) (*model.PipelineRun, error) {
	if _, ok := model.SlotRegistry[slot]; !ok {
		return nil, fmt.Errorf("invalid slot %q: must be one of morning, midday, night", slot)
	}
	if observe == nil {
		observe = func(model.Stage, int, string) {}
	}

	now := time.Now().UTC()
	run := &model.PipelineRun{
		ID:        uuid.New().String(),
		Slot:      slot,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		StartedAt: &now,
	}

	ws := media.NewWorkspace(r.TempDir, slot)
	defer func() {
		ws.Cleanup()
		done := time.Now().UTC()
		run.CompletedAt = &done
	}()

	fail := func(stage model.Stage, err error) (*model.PipelineRun, error) {
		wrapped := fmt.Errorf("stage %s failed: %w", stage, err)
		msg := wrapped.Error()
		run.Status = model.RunStatusFailed
		run.Error = &msg
		run.CurrentStage = stage
		log.Printf("[pipeline] run %s (%s) failed: %v", run.ID, slot, wrapped)
		return run, wrapped
	}

	log.Printf("[pipeline] starting %s run %s", slot, run.ID)

	// Stage 1: the prompt bundle is generated exactly once and shared by
	// every later stage.
	observe(model.StagePrompt, 5, "generating music prompt")
	run.CurrentStage = model.StagePrompt
	bundle, err := r.Prompts.GenerateBundle(ctx, slot)
	if err != nil {
		return fail(model.StagePrompt, err)
	}
	run.Prompt = bundle
	log.Printf("[pipeline] music prompt ready (genre=%s)", bundle.Genre)

	// Stage 2: metadata from the same bundle.
	observe(model.StageMetadata, 12, "generating metadata")
	run.CurrentStage = model.StageMetadata
	meta, err := r.Prompts.GenerateMetadata(ctx, slot, bundle.MusicPrompt)
	if err != nil {
		return fail(model.StageMetadata, err)
	}
	run.Metadata = meta
	log.Printf("[pipeline] metadata ready: %s", meta.Title)

	// Stage 3: instrumental audio.
	observe(model.StageAudio, 20, "generating audio track")
	run.CurrentStage = model.StageAudio
	audio, err := r.Track.GenerateInstrumental(ctx, bundle.MusicPrompt)
	if err != nil {
		return fail(model.StageAudio, err)
	}
	observe(model.StageAudio, 45, "audio track ready")

	// Stage 4: measured duration drives composition and publishing form.
	observe(model.StageProbe, 50, "probing audio duration")
	run.CurrentStage = model.StageProbe
	duration, err := r.Prober.ProbeBytes(ctx, ws, "probe.mp3", audio)
	if err != nil {
		return fail(model.StageProbe, err)
	}
	run.AudioDuration = duration
	log.Printf("[pipeline] audio duration %.1fs", duration)

	// Stage 5: cover art.
	observe(model.StageCover, 58, "generating cover art")
	run.CurrentStage = model.StageCover
	cover, err := r.Cover.GenerateImage(ctx, r.Prompts.ImagePrompt(bundle, slot))
	if err != nil {
		return fail(model.StageCover, err)
	}

	// Stages 6-7: video is best effort. Any failure here downgrades the
	// run to audio plus cover instead of aborting it.
	var composed []byte
	if r.Video != nil && r.Video.IsConfigured() {
		observe(model.StageVideo, 60, "generating looping video")
		run.CurrentStage = model.StageVideo
		clip, err := r.Video.GenerateLoop(ctx, r.Prompts.VideoPrompt(bundle, slot), func(p float64) {
			observe(model.StageVideo, 60+int(p/100*20), "rendering video")
		})
		if err != nil {
			log.Printf("[pipeline] video generation failed, continuing without video: %v", err)
			run.Degraded = true
		} else {
			run.VideoGenerated = true
			observe(model.StageCompose, 80, "composing video with audio")
			run.CurrentStage = model.StageCompose
			composed, err = r.Composer.Compose(ctx, ws, clip, audio, duration, func(p float64) {
				observe(model.StageCompose, 80+int(p/100*12), "encoding")
			})
			if err != nil {
				log.Printf("[pipeline] composition failed, continuing without video: %v", err)
				run.Degraded = true
				composed = nil
			}
		}
	} else {
		log.Printf("[pipeline] video generation disabled, publishing audio with cover only")
		run.Degraded = true
	}

	if ctx.Err() != nil {
		return fail(run.CurrentStage, ctx.Err())
	}

	// Generation temp files are gone before publishing starts; publishers
	// manage their own temp files.
	observe(model.StageCleanup, 94, "removing temp files")
	run.CurrentStage = model.StageCleanup
	ws.Cleanup()

	// Publish to every platform; per-platform failures are recorded, not
	// fatal.
	observe(model.StagePublish, 95, "publishing")
	run.CurrentStage = model.StagePublish
	run.PublishResults = publish.Dispatch(ctx, r.Publishers, &publish.Request{
		Slot:          slot,
		Audio:         audio,
		Cover:         cover,
		Video:         composed,
		Metadata:      meta,
		AudioDuration: duration,
	})

	run.Status = model.RunStatusSucceeded
	run.Progress = 100
	observe(model.StagePublish, 100, "run complete")
	log.Printf("[pipeline] run %s (%s) complete (degraded=%v)", run.ID, slot, run.Degraded)
	return run, nil
}
