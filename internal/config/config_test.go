package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lofiradio/automation/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Errorf("Server.Port = %q, want 3000", cfg.Server.Port)
	}
	if cfg.Mureka.BaseURL != "https://api.mureka.ai" {
		t.Errorf("Mureka.BaseURL = %q", cfg.Mureka.BaseURL)
	}
	if cfg.Mureka.MaxPollAttempts != 20 {
		t.Errorf("Mureka.MaxPollAttempts = %d, want 20", cfg.Mureka.MaxPollAttempts)
	}
	if len(cfg.Sora.Models) != 2 || cfg.Sora.Models[0] != "sora-2-pro" {
		t.Errorf("Sora.Models = %v", cfg.Sora.Models)
	}
	if cfg.Schedule.Timezone != "America/Chicago" {
		t.Errorf("Schedule.Timezone = %q", cfg.Schedule.Timezone)
	}
	if cfg.Schedule.Morning != "0 10 * * *" || cfg.Schedule.Night != "0 20 * * *" {
		t.Errorf("schedule crons = %q / %q", cfg.Schedule.Morning, cfg.Schedule.Night)
	}
	if cfg.Media.Preset != "slow" || cfg.Media.CRF != "18" {
		t.Errorf("media encode params = %q / %q", cfg.Media.Preset, cfg.Media.CRF)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MUREKA_API_KEY", "env-key")
	t.Setenv("YOUTUBE_PLAYLIST_ID_NIGHT", "PL-night")
	t.Setenv("SCHEDULE_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Mureka.APIKey != "env-key" {
		t.Errorf("Mureka.APIKey = %q, want env-key", cfg.Mureka.APIKey)
	}
	if cfg.YouTube.Playlists[model.SlotNight] != "PL-night" {
		t.Errorf("night playlist = %q", cfg.YouTube.Playlists[model.SlotNight])
	}
	if cfg.Schedule.Timezone != "Europe/Berlin" {
		t.Errorf("Schedule.Timezone = %q", cfg.Schedule.Timezone)
	}
}

func TestLoadSecretFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openai_key")
	if err := os.WriteFile(path, []byte("file-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENAI_API_KEY_FILE", path)
	t.Setenv("OPENAI_API_KEY", "plain-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OpenAI.APIKey != "file-secret" {
		t.Errorf("OpenAI.APIKey = %q, want the file value to win", cfg.OpenAI.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default configuration should validate: %v", err)
	}

	cfg.Redis.Addr = "not a host port"
	if err := cfg.Validate(); err == nil {
		t.Error("bad redis address should fail validation")
	}
}

func TestSoraModelsFromEnv(t *testing.T) {
	t.Setenv("SORA_MODELS", "sora-2,custom-model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []string{"sora-2", "custom-model"}
	if len(cfg.Sora.Models) != len(want) {
		t.Fatalf("Sora.Models = %v, want %v", cfg.Sora.Models, want)
	}
	for i := range want {
		if cfg.Sora.Models[i] != want[i] {
			t.Errorf("Sora.Models[%d] = %q, want %q", i, cfg.Sora.Models[i], want[i])
		}
	}
}

func TestSoraKeyFallsBackToOpenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "shared-key")
	t.Setenv("SORA_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sora.APIKey != "shared-key" {
		t.Errorf("Sora.APIKey = %q, want the OpenAI key", cfg.Sora.APIKey)
	}
}
