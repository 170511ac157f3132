package model

import "time"

// PromptBundle is the single generated description of the music to produce.
// It is created exactly once per run and shared by every downstream
// generation stage so that all artifacts describe the same track.
type PromptBundle struct {
	MusicPrompt string `json:"musicPrompt"`
	Genre       string `json:"genre"`
	Mood        string `json:"mood"`
}

// Metadata is the publish-time title/description/tags record derived from
// the prompt bundle. Immutable once produced.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// PublishResult is the per-platform outcome of the publish stage. A failure
// on one platform never invalidates the results of the others.
type PublishResult struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	RemoteID string `json:"remoteId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PipelineRun is the stored record of one slot run.
type PipelineRun struct {
	ID             string          `json:"id"`
	Slot           Slot            `json:"slot"`
	Status         RunStatus       `json:"status"`
	Progress       int             `json:"progress"`
	CurrentStage   Stage           `json:"currentStage,omitempty"`
	Error          *string         `json:"error,omitempty"`
	Prompt         *PromptBundle   `json:"prompt,omitempty"`
	Metadata       *Metadata       `json:"metadata,omitempty"`
	AudioDuration  float64         `json:"audioDuration,omitempty"`
	VideoGenerated bool            `json:"videoGenerated"`
	Degraded       bool            `json:"degraded"`
	PublishResults []PublishResult `json:"publishResults,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

// RunJobPayload is the asynq task payload for a pipeline run. RunID is empty
// for scheduler-originated tasks; the worker then assigns a fresh one.
type RunJobPayload struct {
	RunID string `json:"runId,omitempty"`
	Slot  Slot   `json:"slot"`
}

// RunStartResponse is returned when a run has been queued.
type RunStartResponse struct {
	RunID     string    `json:"runId"`
	Slot      Slot      `json:"slot"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
