package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// AudiusConfig carries the Audius upload settings.
type AudiusConfig struct {
	APIKey  string
	BaseURL string
}

// AudiusPublisher uploads the audio track and cover art to Audius. It only
// ever publishes audio; video artifacts are ignored.
type AudiusPublisher struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAudiusPublisher creates an Audius publisher. An empty API key yields an
// unconfigured publisher whose calls fail fast.
func NewAudiusPublisher(cfg AudiusConfig) *AudiusPublisher {
	p := &AudiusPublisher{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	if p.baseURL == "" {
		p.baseURL = "https://api.audius.co"
	}
	return p
}

func (p *AudiusPublisher) Name() string { return "audius" }

// IsConfigured reports whether an API key was provided.
func (p *AudiusPublisher) IsConfigured() bool {
	return p.apiKey != ""
}

// Publish uploads the track with its cover art and metadata.
func (p *AudiusPublisher) Publish(ctx context.Context, req *Request) (string, error) {
	if !p.IsConfigured() {
		return "", fmt.Errorf("audius publisher is not configured")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	trackPart, err := w.CreateFormFile("track_file", string(req.Slot)+".mp3")
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := trackPart.Write(req.Audio); err != nil {
		return "", fmt.Errorf("failed to write track data: %w", err)
	}

	if len(req.Cover) > 0 {
		coverPart, err := w.CreateFormFile("cover_art_file", string(req.Slot)+".png")
		if err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}
		if _, err := coverPart.Write(req.Cover); err != nil {
			return "", fmt.Errorf("failed to write cover data: %w", err)
		}
	}

	fields := map[string]string{
		"title":       req.Metadata.Title,
		"description": req.Metadata.Description,
		"genre":       "Lo-Fi",
		"tags":        strings.Join(req.Metadata.Tags, ","),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/tracks", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("audius upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read audius response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("audius returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse audius response: %w", err)
	}
	if parsed.Data.ID == "" {
		return "", fmt.Errorf("audius response carries no track id")
	}

	log.Printf("[audius] uploaded track %s", parsed.Data.ID)
	return parsed.Data.ID, nil
}
