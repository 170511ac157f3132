// Package worker executes queued pipeline runs and relays progress to the
// run store and WebSocket subscribers.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/lofiradio/automation/internal/model"
	"github.com/lofiradio/automation/internal/pipeline"
	"github.com/lofiradio/automation/internal/service"
	"github.com/lofiradio/automation/internal/websocket"
)

// PipelineWorker processes pipeline run tasks.
type PipelineWorker struct {
	runner     *pipeline.Runner
	runService *service.RunService
	hub        *websocket.Hub
}

// NewPipelineWorker creates a pipeline worker.
func NewPipelineWorker(runner *pipeline.Runner, runService *service.RunService, hub *websocket.Hub) *PipelineWorker {
	return &PipelineWorker{
		runner:     runner,
		runService: runService,
		hub:        hub,
	}
}

// ProcessTask runs one pipeline task. Scheduler tasks carry no run ID, so
// the worker assigns one and registers the record before starting.
func (w *PipelineWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.RunJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal pipeline payload: %w", err)
	}

	runID := payload.RunID
	if runID == "" {
		runID = uuid.New().String()
		if err := w.runService.RegisterScheduledRun(ctx, &model.PipelineRun{
			ID:        runID,
			Slot:      payload.Slot,
			Status:    model.RunStatusQueued,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("failed to register scheduled run: %w", err)
		}
	}

	log.Printf("[worker] starting pipeline run %s (%s)", runID, payload.Slot)

	observe := func(stage model.Stage, percent int, message string) {
		if err := w.runService.UpdateProgress(ctx, runID, stage, percent); err != nil {
			log.Printf("[worker] failed to store progress for run %s: %v", runID, err)
		}
		w.hub.BroadcastProgress(runID, stage, percent, message)
	}

	run, err := w.runner.Run(ctx, payload.Slot, observe)
	if err != nil {
		if run != nil {
			run.ID = runID
			if ferr := w.runService.FailRun(ctx, runID, errString(run)); ferr != nil {
				log.Printf("[worker] failed to mark run %s failed: %v", runID, ferr)
			}
		}
		w.hub.BroadcastError(runID, "PIPELINE_FAILED", err.Error())
		// Error is already recorded; returning it would only trigger
		// asynq's failure bookkeeping for a run that never retries.
		log.Printf("[worker] pipeline run %s failed: %v", runID, err)
		return nil
	}

	run.ID = runID
	if err := w.runService.CompleteRun(ctx, run); err != nil {
		log.Printf("[worker] failed to store run %s result: %v", runID, err)
	}
	w.hub.BroadcastComplete(runID, run)

	log.Printf("[worker] pipeline run %s complete", runID)
	return nil
}

func errString(run *model.PipelineRun) string {
	if run.Error != nil {
		return *run.Error
	}
	return "pipeline run failed"
}
