// Package scheduler registers the recurring slot runs. Each slot fires once
// a day at its configured local time; the scheduled task carries only the
// slot, and the worker creates the run record when it picks the task up.
package scheduler

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lofiradio/automation/internal/config"
	"github.com/lofiradio/automation/internal/model"
	"github.com/lofiradio/automation/internal/service"
)

// New builds an asynq scheduler with one cron entry per slot.
func New(redisOpt asynq.RedisClientOpt, cfg config.ScheduleConfig) (*asynq.Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone %q: %w", cfg.Timezone, err)
	}

	sched := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: loc,
	})

	entries := map[model.Slot]string{
		model.SlotMorning: cfg.Morning,
		model.SlotMidday:  cfg.Midday,
		model.SlotNight:   cfg.Night,
	}
	for slot, spec := range entries {
		payload, err := json.Marshal(model.RunJobPayload{Slot: slot})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", slot, err)
		}

		task := asynq.NewTask(service.TaskTypePipeline, payload)
		entryID, err := sched.Register(spec, task,
			asynq.Queue(service.QueuePipeline),
			asynq.MaxRetry(0),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s schedule %q: %w", slot, spec, err)
		}
		log.Printf("[scheduler] registered %s run at %q (%s) entry=%s", slot, spec, cfg.Timezone, entryID)
	}

	return sched, nil
}
