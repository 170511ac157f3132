package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newSoraTestClient(t *testing.T, handler http.HandlerFunc) *SoraClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewSoraClient(SoraConfig{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		Models:          []string{"sora-2-pro", "sora-2"},
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 3,
	})
}

func TestGenerateLoopHappyPath(t *testing.T) {
	queries := 0
	var progressSeen []float64

	c := newSoraTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/videos":
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			if req["model"] != "sora-2-pro" {
				t.Errorf("model = %q, want sora-2-pro", req["model"])
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "vid-1", "status": "queued"})

		case r.URL.Path == "/videos/vid-1":
			queries++
			if queries == 1 {
				json.NewEncoder(w).Encode(map[string]any{"id": "vid-1", "status": "in_progress", "progress": 40})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "vid-1", "status": "completed", "progress": 100})

		case r.URL.Path == "/videos/vid-1/content":
			if r.URL.Query().Get("variant") != "video" {
				t.Errorf("variant = %q, want video", r.URL.Query().Get("variant"))
			}
			w.Write([]byte("video-bytes"))

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	data, err := c.GenerateLoop(context.Background(), "rainy rooftop loop", func(p float64) {
		progressSeen = append(progressSeen, p)
	})
	if err != nil {
		t.Fatalf("GenerateLoop returned error: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("downloaded %q, want video-bytes", data)
	}
	if len(progressSeen) != 1 || progressSeen[0] != 40 {
		t.Errorf("progress observations = %v, want [40]", progressSeen)
	}
}

func TestGenerateLoopFallsBackToNextModel(t *testing.T) {
	var models []string

	c := newSoraTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/videos":
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			models = append(models, req["model"])
			if req["model"] == "sora-2-pro" {
				json.NewEncoder(w).Encode(map[string]any{
					"id":     "vid-pro",
					"status": "failed",
					"error":  map[string]string{"message": "capacity"},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "vid-std", "status": "completed"})

		case r.URL.Path == "/videos/vid-std/content":
			w.Write([]byte("fallback-bytes"))
		}
	})

	data, err := c.GenerateLoop(context.Background(), "loop", nil)
	if err != nil {
		t.Fatalf("GenerateLoop returned error: %v", err)
	}
	if string(data) != "fallback-bytes" {
		t.Errorf("downloaded %q, want fallback-bytes", data)
	}
	if len(models) != 2 || models[0] != "sora-2-pro" || models[1] != "sora-2" {
		t.Errorf("models tried = %v, want [sora-2-pro sora-2]", models)
	}
}

func TestGenerateLoopAllModelsFail(t *testing.T) {
	c := newSoraTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "vid-x",
			"status": "failed",
			"error":  map[string]string{"message": "moderation"},
		})
	})

	_, err := c.GenerateLoop(context.Background(), "loop", nil)
	if err == nil || !strings.Contains(err.Error(), "all video models failed") {
		t.Fatalf("error = %v, want all-models failure", err)
	}
}

func TestGenerateLoopUnconfigured(t *testing.T) {
	c := NewSoraClient(SoraConfig{})
	if c.IsConfigured() {
		t.Fatal("client without API key should not report configured")
	}
	if _, err := c.GenerateLoop(context.Background(), "loop", nil); err == nil {
		t.Fatal("unconfigured client should return an error")
	}
}
