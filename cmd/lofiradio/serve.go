package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lofiradio/automation/internal/config"
	"github.com/lofiradio/automation/internal/handler"
	"github.com/lofiradio/automation/internal/middleware"
	"github.com/lofiradio/automation/internal/scheduler"
	"github.com/lofiradio/automation/internal/service"
	"github.com/lofiradio/automation/internal/worker"
	ws "github.com/lofiradio/automation/internal/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler, queue worker and API server",
	Long: `Start long-running mode: slot runs fire on their daily schedule,
manual triggers and status queries are served over HTTP, and run progress
streams to WebSocket subscribers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("redis is not reachable at %s: %w", cfg.Redis.Addr, err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	hub := ws.NewHub()
	go hub.Run()

	runService := service.NewRunService(redisClient, asynqClient)
	runHandler := handler.NewRunHandler(runService)

	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret)
	rateLimiter := middleware.NewRateLimitMiddleware(redisClient)

	app := fiber.New(fiber.Config{
		ErrorHandler: fiberErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"openai":  cfg.OpenAI.APIKey != "",
				"mureka":  cfg.Mureka.APIKey != "",
				"sora":    cfg.Sora.APIKey != "",
				"youtube": cfg.YouTube.RefreshToken != "",
				"audius":  cfg.Audius.APIKey != "",
			},
		})
	})

	api := app.Group("/api", authMiddleware.Authenticate())
	api.Post("/runs/:slot", rateLimiter.LimitRuns(cfg.RateLimit.RunsPerHour), runHandler.Trigger)
	api.Get("/runs", runHandler.Recent)
	api.Get("/runs/:runId", runHandler.Status)
	api.Get("/runs/:runId/result", runHandler.Result)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/runs/:runId", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("runId"))
	}))

	go startWorkerServer(cfg, redisOpt, runService, hub)
	go startScheduler(redisOpt, cfg.Schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Printf("server starting on %s", addr)
	return app.Listen(addr)
}

func startWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt, runService *service.RunService, hub *ws.Hub) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		// One run at a time; generation stages are expensive and vendor
		// rate limits are tight.
		Concurrency: 1,
		Queues: map[string]int{
			service.QueuePipeline: 1,
		},
	})

	pipelineWorker := worker.NewPipelineWorker(buildRunner(cfg), runService, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypePipeline, pipelineWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("asynq worker error: %v", err)
	}
}

func startScheduler(redisOpt asynq.RedisClientOpt, cfg config.ScheduleConfig) {
	sched, err := scheduler.New(redisOpt, cfg)
	if err != nil {
		log.Printf("scheduler disabled: %v", err)
		return
	}
	if err := sched.Run(); err != nil {
		log.Printf("scheduler error: %v", err)
	}
}

func fiberErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
