package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/lofiradio/automation/internal/poll"
)

// SoraClient generates short looping video clips through the OpenAI video
// API. Models are tried in order; a failure on one model falls through to
// the next before the call is given up.
type SoraClient struct {
	apiKey       string
	baseURL      string
	models       []string
	seconds      string
	size         string
	httpClient   *http.Client
	pollInterval time.Duration
	maxAttempts  int
}

// SoraConfig carries the client settings.
type SoraConfig struct {
	APIKey          string
	BaseURL         string
	Models          []string
	Seconds         string
	Size            string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// NewSoraClient creates a video client. An empty API key yields an
// unconfigured client whose calls fail fast.
func NewSoraClient(cfg SoraConfig) *SoraClient {
	c := &SoraClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		models:       cfg.Models,
		seconds:      cfg.Seconds,
		size:         cfg.Size,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxPollAttempts,
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.openai.com/v1"
	}
	if len(c.models) == 0 {
		c.models = []string{"sora-2-pro", "sora-2"}
	}
	if c.seconds == "" {
		c.seconds = "8"
	}
	if c.size == "" {
		c.size = "1280x720"
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 10 * time.Second
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 60
	}
	if c.apiKey == "" {
		log.Printf("[sora] no API key configured, generation calls will fail")
	}
	return c
}

// IsConfigured reports whether an API key was provided.
func (c *SoraClient) IsConfigured() bool {
	return c.apiKey != ""
}

type videoJob struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Err      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (j videoJob) PollID() string { return j.ID }

func (j videoJob) PollState() poll.State {
	switch j.Status {
	case "queued":
		return poll.StateQueued
	case "in_progress":
		return poll.StateInProgress
	case "completed":
		return poll.StateCompleted
	case "failed":
		return poll.StateFailed
	default:
		return poll.State(j.Status)
	}
}

func (j videoJob) FailReason() string {
	if j.Err != nil {
		return j.Err.Message
	}
	return ""
}

// GenerateLoop produces one short clip for the given scene prompt, trying
// each configured model in order. onProgress, when non-nil, receives the
// vendor-reported percentage during rendering.
func (c *SoraClient) GenerateLoop(ctx context.Context, prompt string, onProgress func(float64)) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("sora client is not configured")
	}

	var lastErr error
	for _, model := range c.models {
		data, err := c.generateWithModel(ctx, model, prompt, onProgress)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		log.Printf("[sora] model %s failed: %v", model, err)
		lastErr = err
	}
	return nil, fmt.Errorf("all video models failed: %w", lastErr)
}

func (c *SoraClient) generateWithModel(ctx context.Context, model, prompt string, onProgress func(float64)) ([]byte, error) {
	job, err := poll.UntilTerminal(ctx,
		func(ctx context.Context) (videoJob, error) {
			return c.submit(ctx, model, prompt)
		},
		c.query,
		poll.Options{
			MaxAttempts: c.maxAttempts,
			Interval:    c.pollInterval,
			OnPoll: func(j poll.Job, attempt int) {
				vj, ok := j.(videoJob)
				if !ok {
					return
				}
				log.Printf("[sora] job %s status=%s progress=%d%%", vj.ID, vj.Status, vj.Progress)
				if onProgress != nil && vj.Status == "in_progress" {
					onProgress(float64(vj.Progress))
				}
			},
		},
	)
	if err != nil {
		return nil, err
	}

	log.Printf("[sora] job %s completed, downloading clip", job.ID)
	return fetchBytes(ctx, c.httpClient, c.baseURL+"/videos/"+job.ID+"/content?variant=video",
		map[string]string{"Authorization": "Bearer " + c.apiKey})
}

func (c *SoraClient) submit(ctx context.Context, model, prompt string) (videoJob, error) {
	var job videoJob

	body, err := json.Marshal(map[string]string{
		"model":   model,
		"prompt":  prompt,
		"seconds": c.seconds,
		"size":    c.size,
	})
	if err != nil {
		return job, fmt.Errorf("failed to marshal video request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/videos", bytes.NewReader(body))
	if err != nil {
		return job, err
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("failed to parse video response: %w", err)
	}
	if job.ID == "" {
		return job, ErrNoTaskID
	}

	log.Printf("[sora] submitted video job %s (model=%s size=%s seconds=%s)", job.ID, model, c.size, c.seconds)
	return job, nil
}

func (c *SoraClient) query(ctx context.Context, id string) (videoJob, error) {
	var job videoJob

	data, err := c.doRequest(ctx, http.MethodGet, "/videos/"+id, nil)
	if err != nil {
		return job, err
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("failed to parse video status: %w", err)
	}
	return job, nil
}

func (c *SoraClient) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sora request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sora response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sora returned status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}
