package main

import (
	"github.com/spf13/cobra"

	"github.com/lofiradio/automation/internal/client"
	"github.com/lofiradio/automation/internal/config"
	"github.com/lofiradio/automation/internal/media"
	"github.com/lofiradio/automation/internal/pipeline"
	"github.com/lofiradio/automation/internal/prompt"
	"github.com/lofiradio/automation/internal/publish"
)

var rootCmd = &cobra.Command{
	Use:   "lofiradio",
	Short: "Automated lo-fi radio content generation and publishing",
	Long: `lofiradio generates instrumental lo-fi tracks with cover art and
looping background video, then publishes them to the configured platforms.

Run a single slot immediately with "lofiradio run <slot>", or start the
scheduler and API with "lofiradio serve".`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

// buildRunner assembles the pipeline collaborators from configuration. Both
// the one-shot command and the queue worker share this wiring.
func buildRunner(cfg *config.Config) *pipeline.Runner {
	openaiClient := client.NewOpenAIClient(client.OpenAIConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		ChatModel:   cfg.OpenAI.ChatModel,
		ImageModel:  cfg.OpenAI.ImageModel,
		Temperature: cfg.OpenAI.Temperature,
	})
	murekaClient := client.NewMurekaClient(client.MurekaConfig{
		APIKey:          cfg.Mureka.APIKey,
		BaseURL:         cfg.Mureka.BaseURL,
		PollInterval:    cfg.Mureka.PollInterval,
		MaxPollAttempts: cfg.Mureka.MaxPollAttempts,
	})
	soraClient := client.NewSoraClient(client.SoraConfig{
		APIKey:          cfg.Sora.APIKey,
		BaseURL:         cfg.Sora.BaseURL,
		Models:          cfg.Sora.Models,
		Seconds:         cfg.Sora.Seconds,
		Size:            cfg.Sora.Size,
		PollInterval:    cfg.Sora.PollInterval,
		MaxPollAttempts: cfg.Sora.MaxPollAttempts,
	})

	composer := media.NewComposer(cfg.Media.FFmpegPath, cfg.Media.Preset, cfg.Media.CRF)

	publishers := []publish.Publisher{
		publish.NewYouTubePublisher(publish.YouTubeConfig{
			ClientID:     cfg.YouTube.ClientID,
			ClientSecret: cfg.YouTube.ClientSecret,
			RefreshToken: cfg.YouTube.RefreshToken,
			RedirectURI:  cfg.YouTube.RedirectURI,
			Playlists:    cfg.YouTube.Playlists,
			TempDir:      cfg.Media.TempDir,
		}, composer),
		publish.NewAudiusPublisher(publish.AudiusConfig{
			APIKey:  cfg.Audius.APIKey,
			BaseURL: cfg.Audius.BaseURL,
		}),
	}

	return &pipeline.Runner{
		Prompts:    prompt.NewGenerator(openaiClient),
		Track:      murekaClient,
		Cover:      openaiClient,
		Video:      soraClient,
		Prober:     media.NewProber(cfg.Media.FFprobePath),
		Composer:   composer,
		Publishers: publishers,
		TempDir:    cfg.Media.TempDir,
	}
}
