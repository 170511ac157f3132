package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/lofiradio/automation/internal/model"
)

// TaskTypePipeline is the asynq task type for a pipeline run.
const TaskTypePipeline = "pipeline:run"

// QueuePipeline is the asynq queue for pipeline runs.
const QueuePipeline = "pipeline"

// runKeyTTL bounds how long finished run records stay in redis.
const runKeyTTL = 7 * 24 * time.Hour

// recentRunsKey holds the run IDs of the latest runs, newest first.
const recentRunsKey = "runs:recent"

// recentRunsLimit caps the recent-runs list length.
const recentRunsLimit = 50

// RunService stores run state in redis and enqueues pipeline tasks. Runs
// never retry automatically; a failed slot waits for its next scheduled
// trigger or a manual one.
type RunService struct {
	redis *redis.Client
	asynq *asynq.Client
}

// NewRunService creates a run service.
func NewRunService(redisClient *redis.Client, asynqClient *asynq.Client) *RunService {
	return &RunService{redis: redisClient, asynq: asynqClient}
}

func runKey(runID string) string {
	return fmt.Sprintf("run:%s", runID)
}

// StartRun records a queued run and enqueues its pipeline task.
func (s *RunService) StartRun(ctx context.Context, slot model.Slot) (*model.RunStartResponse, error) {
	if _, ok := model.SlotRegistry[slot]; !ok {
		return nil, fmt.Errorf("invalid slot %q: must be one of morning, midday, night", slot)
	}

	run := &model.PipelineRun{
		ID:        uuid.New().String(),
		Slot:      slot,
		Status:    model.RunStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.saveRun(ctx, run); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(model.RunJobPayload{RunID: run.ID, Slot: slot})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run payload: %w", err)
	}

	task := asynq.NewTask(TaskTypePipeline, payload)
	if _, err := s.asynq.EnqueueContext(ctx, task,
		asynq.Queue(QueuePipeline),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	); err != nil {
		return nil, fmt.Errorf("failed to enqueue pipeline task: %w", err)
	}

	s.redis.LPush(ctx, recentRunsKey, run.ID)
	s.redis.LTrim(ctx, recentRunsKey, 0, recentRunsLimit-1)

	return &model.RunStartResponse{
		RunID:     run.ID,
		Slot:      slot,
		Status:    run.Status,
		CreatedAt: run.CreatedAt,
	}, nil
}

// RegisterScheduledRun records a run that a scheduler task created itself.
func (s *RunService) RegisterScheduledRun(ctx context.Context, run *model.PipelineRun) error {
	if err := s.saveRun(ctx, run); err != nil {
		return err
	}
	s.redis.LPush(ctx, recentRunsKey, run.ID)
	s.redis.LTrim(ctx, recentRunsKey, 0, recentRunsLimit-1)
	return nil
}

// UpdateProgress advances the stored run state for one stage transition.
func (s *RunService) UpdateProgress(ctx context.Context, runID string, stage model.Stage, progress int) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	run.Status = model.RunStatusRunning
	run.CurrentStage = stage
	run.Progress = progress
	if run.StartedAt == nil {
		now := time.Now().UTC()
		run.StartedAt = &now
	}
	return s.saveRun(ctx, run)
}

// CompleteRun stores the final record of a successful run.
func (s *RunService) CompleteRun(ctx context.Context, run *model.PipelineRun) error {
	return s.saveRun(ctx, run)
}

// FailRun marks a run failed with an error message.
func (s *RunService) FailRun(ctx context.Context, runID, errMsg string) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	run.Status = model.RunStatusFailed
	run.Error = &errMsg
	now := time.Now().UTC()
	run.CompletedAt = &now
	return s.saveRun(ctx, run)
}

// GetRun loads one run record.
func (s *RunService) GetRun(ctx context.Context, runID string) (*model.PipelineRun, error) {
	data, err := s.redis.Get(ctx, runKey(runID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	var run model.PipelineRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run %s: %w", runID, err)
	}
	return &run, nil
}

// GetRecentRuns loads the latest run records, newest first.
func (s *RunService) GetRecentRuns(ctx context.Context, limit int) ([]*model.PipelineRun, error) {
	if limit <= 0 || limit > recentRunsLimit {
		limit = recentRunsLimit
	}
	ids, err := s.redis.LRange(ctx, recentRunsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load recent runs: %w", err)
	}

	runs := make([]*model.PipelineRun, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(ctx, id)
		if err != nil {
			// Expired records simply drop out of the listing.
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *RunService) saveRun(ctx context.Context, run *model.PipelineRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}
	if err := s.redis.Set(ctx, runKey(run.ID), data, runKeyTTL).Err(); err != nil {
		return fmt.Errorf("failed to store run %s: %w", run.ID, err)
	}
	return nil
}
