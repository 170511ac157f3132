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

// maxPromptLength is the longest prompt the instrumental endpoint accepts.
const maxPromptLength = 1024

// MurekaClient generates instrumental tracks through the Mureka API.
type MurekaClient struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	maxAttempts  int
}

// MurekaConfig carries the client settings.
type MurekaConfig struct {
	APIKey          string
	BaseURL         string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// NewMurekaClient creates a Mureka client. An empty API key yields an
// unconfigured client whose calls fail fast.
func NewMurekaClient(cfg MurekaConfig) *MurekaClient {
	c := &MurekaClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxPollAttempts,
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.mureka.ai"
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 6 * time.Second
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 20
	}
	if c.apiKey == "" {
		log.Printf("[mureka] no API key configured, generation calls will fail")
	}
	return c
}

// IsConfigured reports whether an API key was provided.
func (c *MurekaClient) IsConfigured() bool {
	return c.apiKey != ""
}

type instrumentalTask struct {
	ID      string               `json:"id"`
	Status  string               `json:"status"`
	Reason  string               `json:"failed_reason"`
	Model   string               `json:"model"`
	Choices []instrumentalChoice `json:"choices"`
}

type instrumentalChoice struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

func (t instrumentalTask) PollID() string { return t.ID }

func (t instrumentalTask) PollState() poll.State {
	switch t.Status {
	case "preparing":
		return poll.StatePreparing
	case "queued":
		return poll.StateQueued
	case "running":
		return poll.StateRunning
	case "streaming":
		return poll.StateStreaming
	case "succeeded":
		return poll.StateSucceeded
	case "failed":
		return poll.StateFailed
	case "timeouted":
		return poll.StateTimeouted
	case "cancelled":
		return poll.StateCancelled
	default:
		return poll.State(t.Status)
	}
}

func (t instrumentalTask) FailReason() string { return t.Reason }

// GenerateInstrumental submits one instrumental generation job, polls it to
// completion and downloads the resulting track. Prompts longer than the
// endpoint limit are truncated with a log line.
func (c *MurekaClient) GenerateInstrumental(ctx context.Context, prompt string) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("mureka client is not configured")
	}

	if len(prompt) > maxPromptLength {
		log.Printf("[mureka] prompt length %d exceeds limit %d, truncating", len(prompt), maxPromptLength)
		prompt = prompt[:maxPromptLength]
	}

	task, err := poll.UntilTerminal(ctx,
		func(ctx context.Context) (instrumentalTask, error) {
			return c.submit(ctx, prompt)
		},
		c.query,
		poll.Options{
			MaxAttempts: c.maxAttempts,
			Interval:    c.pollInterval,
			OnPoll: func(job poll.Job, attempt int) {
				log.Printf("[mureka] task %s status=%s attempt=%d", job.PollID(), job.PollState(), attempt)
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("instrumental generation failed: %w", err)
	}

	if len(task.Choices) == 0 || task.Choices[0].URL == "" {
		return nil, &MalformedResponseError{Vendor: "mureka", Detail: "succeeded task has no downloadable track"}
	}

	log.Printf("[mureka] task %s succeeded, downloading track", task.ID)
	return fetchBytes(ctx, c.httpClient, task.Choices[0].URL, nil)
}

func (c *MurekaClient) submit(ctx context.Context, prompt string) (instrumentalTask, error) {
	var task instrumentalTask

	body, err := json.Marshal(map[string]string{
		"model":  "auto",
		"prompt": prompt,
	})
	if err != nil {
		return task, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/v1/instrumental/generate", bytes.NewReader(body))
	if err != nil {
		return task, err
	}
	if err := json.Unmarshal(data, &task); err != nil {
		return task, fmt.Errorf("failed to parse generation response: %w", err)
	}
	if task.ID == "" {
		return task, ErrNoTaskID
	}

	log.Printf("[mureka] submitted instrumental task %s (model=%s)", task.ID, task.Model)
	return task, nil
}

func (c *MurekaClient) query(ctx context.Context, id string) (instrumentalTask, error) {
	var task instrumentalTask

	data, err := c.doRequest(ctx, http.MethodGet, "/v1/instrumental/query/"+id, nil)
	if err != nil {
		return task, err
	}
	if err := json.Unmarshal(data, &task); err != nil {
		return task, fmt.Errorf("failed to parse query response: %w", err)
	}
	return task, nil
}

func (c *MurekaClient) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
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
		return nil, fmt.Errorf("mureka request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read mureka response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mureka returned status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}
