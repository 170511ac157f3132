package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/lofiradio/automation/internal/model"
)

type Config struct {
	Server    ServerConfig `validate:"required"`
	Auth      AuthConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	OpenAI    OpenAIConfig
	Mureka    MurekaConfig
	Sora      SoraConfig
	Media     MediaConfig
	YouTube   YouTubeConfig
	Audius    AudiusConfig
	Schedule  ScheduleConfig
}

type ServerConfig struct {
	Port string `validate:"required,numeric"`
	Env  string `validate:"oneof=development production test"`
}

type AuthConfig struct {
	JWTSecret  string
	Expiration int // hours
}

type RedisConfig struct {
	Addr     string `validate:"required,hostname_port"`
	Password string
	DB       int
}

type RateLimitConfig struct {
	RunsPerHour int `validate:"min=0"`
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	ImageModel  string
	Temperature float64
}

type MurekaConfig struct {
	APIKey          string
	BaseURL         string        `validate:"required,url"`
	PollInterval    time.Duration `validate:"min=1s"`
	MaxPollAttempts int           `validate:"min=1"`
}

type SoraConfig struct {
	APIKey          string
	BaseURL         string
	Models          []string
	Seconds         string
	Size            string
	PollInterval    time.Duration
	MaxPollAttempts int
}

type MediaConfig struct {
	FFmpegPath  string
	FFprobePath string
	TempDir     string
	Preset      string
	CRF         string
}

type YouTubeConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RedirectURI  string
	Playlists    map[model.Slot]string
}

type AudiusConfig struct {
	APIKey  string
	BaseURL string
}

type ScheduleConfig struct {
	Timezone string `validate:"required"`
	Morning  string `validate:"required"`
	Midday   string `validate:"required"`
	Night    string `validate:"required"`
}

// Validate checks the invariants serve mode depends on.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("auth.jwt_secret", "change-me-in-production")
	viper.SetDefault("auth.expiration", 24)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.runs_per_hour", 6)

	viper.SetDefault("openai.base_url", "")
	viper.SetDefault("openai.chat_model", "gpt-4o-mini")
	viper.SetDefault("openai.image_model", "dall-e-3")
	viper.SetDefault("openai.temperature", 0.85)

	viper.SetDefault("mureka.base_url", "https://api.mureka.ai")
	viper.SetDefault("mureka.poll_interval_seconds", 6)
	viper.SetDefault("mureka.max_poll_attempts", 20)

	viper.SetDefault("sora.base_url", "https://api.openai.com/v1")
	viper.SetDefault("sora.models", []string{"sora-2-pro", "sora-2"})
	viper.SetDefault("sora.seconds", "8")
	viper.SetDefault("sora.size", "1280x720")
	viper.SetDefault("sora.poll_interval_seconds", 10)
	viper.SetDefault("sora.max_poll_attempts", 60)

	viper.SetDefault("media.ffmpeg_path", "ffmpeg")
	viper.SetDefault("media.ffprobe_path", "ffprobe")
	viper.SetDefault("media.temp_dir", "")
	viper.SetDefault("media.preset", "slow")
	viper.SetDefault("media.crf", "18")

	viper.SetDefault("audius.base_url", "https://api.audius.co")

	viper.SetDefault("schedule.timezone", "America/Chicago")
	viper.SetDefault("schedule.morning", "0 10 * * *")
	viper.SetDefault("schedule.midday", "0 12 * * *")
	viper.SetDefault("schedule.night", "0 20 * * *")

	bindEnvs()

	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Auth: AuthConfig{
			JWTSecret:  readSecret("auth.jwt_secret", "JWT_SECRET"),
			Expiration: viper.GetInt("auth.expiration"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: readSecret("redis.password", "REDIS_PASSWORD"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			RunsPerHour: viper.GetInt("ratelimit.runs_per_hour"),
		},
		OpenAI: OpenAIConfig{
			APIKey:      readSecret("openai.api_key", "OPENAI_API_KEY"),
			BaseURL:     viper.GetString("openai.base_url"),
			ChatModel:   viper.GetString("openai.chat_model"),
			ImageModel:  viper.GetString("openai.image_model"),
			Temperature: viper.GetFloat64("openai.temperature"),
		},
		Mureka: MurekaConfig{
			APIKey:          readSecret("mureka.api_key", "MUREKA_API_KEY"),
			BaseURL:         viper.GetString("mureka.base_url"),
			PollInterval:    time.Duration(viper.GetInt("mureka.poll_interval_seconds")) * time.Second,
			MaxPollAttempts: viper.GetInt("mureka.max_poll_attempts"),
		},
		Sora: SoraConfig{
			APIKey:          readSecret("sora.api_key", "SORA_API_KEY"),
			BaseURL:         viper.GetString("sora.base_url"),
			Models:          splitList(viper.GetStringSlice("sora.models")),
			Seconds:         viper.GetString("sora.seconds"),
			Size:            viper.GetString("sora.size"),
			PollInterval:    time.Duration(viper.GetInt("sora.poll_interval_seconds")) * time.Second,
			MaxPollAttempts: viper.GetInt("sora.max_poll_attempts"),
		},
		Media: MediaConfig{
			FFmpegPath:  viper.GetString("media.ffmpeg_path"),
			FFprobePath: viper.GetString("media.ffprobe_path"),
			TempDir:     viper.GetString("media.temp_dir"),
			Preset:      viper.GetString("media.preset"),
			CRF:         viper.GetString("media.crf"),
		},
		YouTube: YouTubeConfig{
			ClientID:     viper.GetString("youtube.client_id"),
			ClientSecret: readSecret("youtube.client_secret", "YT_CLIENT_SECRET"),
			RefreshToken: readSecret("youtube.refresh_token", "YT_REFRESH_TOKEN"),
			RedirectURI:  viper.GetString("youtube.redirect_uri"),
			Playlists: map[model.Slot]string{
				model.SlotMorning: viper.GetString("youtube.playlist_morning"),
				model.SlotMidday:  viper.GetString("youtube.playlist_midday"),
				model.SlotNight:   viper.GetString("youtube.playlist_night"),
			},
		},
		Audius: AudiusConfig{
			APIKey:  readSecret("audius.api_key", "AUDIUS_API_KEY"),
			BaseURL: viper.GetString("audius.base_url"),
		},
		Schedule: ScheduleConfig{
			Timezone: viper.GetString("schedule.timezone"),
			Morning:  viper.GetString("schedule.morning"),
			Midday:   viper.GetString("schedule.midday"),
			Night:    viper.GetString("schedule.night"),
		},
	}

	// Sora shares the OpenAI key unless one is set explicitly.
	if cfg.Sora.APIKey == "" {
		cfg.Sora.APIKey = cfg.OpenAI.APIKey
	}

	return cfg, nil
}

func bindEnvs() {
	bindings := map[string]string{
		"server.port":              "PORT",
		"auth.jwt_secret":          "JWT_SECRET",
		"redis.addr":               "REDIS_ADDR",
		"redis.password":           "REDIS_PASSWORD",
		"redis.db":                 "REDIS_DB",
		"ratelimit.runs_per_hour":  "RATELIMIT_RUNS_PER_HOUR",
		"openai.api_key":           "OPENAI_API_KEY",
		"openai.base_url":          "OPENAI_BASE_URL",
		"openai.chat_model":        "OPENAI_CHAT_MODEL",
		"openai.image_model":       "OPENAI_IMAGE_MODEL",
		"mureka.api_key":           "MUREKA_API_KEY",
		"mureka.base_url":          "MUREKA_BASE_URL",
		"sora.api_key":             "SORA_API_KEY",
		"sora.models":              "SORA_MODELS",
		"sora.seconds":             "SORA_DURATION_SECONDS",
		"sora.size":                "SORA_SIZE",
		"media.ffmpeg_path":        "FFMPEG_PATH",
		"media.ffprobe_path":       "FFPROBE_PATH",
		"media.temp_dir":           "MEDIA_TEMP_DIR",
		"youtube.client_id":        "YT_CLIENT_ID",
		"youtube.client_secret":    "YT_CLIENT_SECRET",
		"youtube.refresh_token":    "YT_REFRESH_TOKEN",
		"youtube.redirect_uri":     "YT_REDIRECT_URI",
		"youtube.playlist_morning": "YOUTUBE_PLAYLIST_ID_MORNING",
		"youtube.playlist_midday":  "YOUTUBE_PLAYLIST_ID_MIDDAY",
		"youtube.playlist_night":   "YOUTUBE_PLAYLIST_ID_NIGHT",
		"audius.api_key":           "AUDIUS_API_KEY",
		"schedule.timezone":        "SCHEDULE_TIMEZONE",
		"schedule.morning":         "SCHEDULE_MORNING",
		"schedule.midday":          "SCHEDULE_MIDDAY",
		"schedule.night":           "SCHEDULE_NIGHT",
	}
	for key, env := range bindings {
		_ = viper.BindEnv(key, env)
	}
}

// splitList flattens comma or space separated entries, so list-valued keys
// accept a single env string like "sora-2-pro,sora-2".
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		parts := strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' '
		})
		out = append(out, parts...)
	}
	return out
}

// readSecret resolves a secret value, preferring a file referenced by the
// <ENV>_FILE convention used by docker secrets over the plain value.
func readSecret(key, env string) string {
	if path := os.Getenv(env + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return viper.GetString(key)
}
