package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lofiradio/automation/internal/config"
	"github.com/lofiradio/automation/internal/model"
)

var runCmd = &cobra.Command{
	Use:   "run <slot>",
	Short: "Generate and publish one slot immediately",
	Long: `Run the full pipeline once for a slot (morning, midday or night)
and exit. No redis or API server is needed; progress is written to the log.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := model.ParseSlot(args[0])
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner := buildRunner(cfg)
		run, err := runner.Run(ctx, slot, func(stage model.Stage, percent int, message string) {
			log.Printf("[%3d%%] %s: %s", percent, stage, message)
		})
		if err != nil {
			return err
		}

		for _, res := range run.PublishResults {
			if res.Success {
				log.Printf("published to %s: %s", res.Platform, res.RemoteID)
			} else {
				log.Printf("publish to %s failed: %s", res.Platform, res.Error)
			}
		}
		if run.Degraded {
			log.Printf("run finished without video")
		}
		return nil
	},
}
