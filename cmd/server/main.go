package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	delivery "github.com/vsheahan/local-story-weaver/internal/delivery/http"
	"github.com/vsheahan/local-story-weaver/internal/news"
	"github.com/vsheahan/local-story-weaver/internal/repository"
	"github.com/vsheahan/local-story-weaver/internal/scheduler"
	"github.com/vsheahan/local-story-weaver/internal/story"
	"github.com/vsheahan/local-story-weaver/internal/tide"
	"github.com/vsheahan/local-story-weaver/internal/weather"
	"github.com/vsheahan/local-story-weaver/pkg/logger"
	"github.com/vsheahan/local-story-weaver/pkg/postgres"
	"github.com/vsheahan/local-story-weaver/pkg/redis"
	"github.com/vsheahan/local-story-weaver/pkg/telegram"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the story weaver service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Local Story Weaver", logger.Field("name", cfg.App.Name))

	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Redis backs the latest-chapter response cache. The service runs
	// without it.
	var cacheClient *goredis.Client
	if cfg.Redis.Host != "" {
		redisClient, err := redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Warn("Failed to initialize Redis, serving uncached", logger.ErrorField(err))
		} else {
			defer redisClient.Close()
			cacheClient = redisClient.Client
		}
	}

	var genAiClient *genai.Client
	if cfg.Gemini.APIKey != "" {
		genAiClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini client", logger.ErrorField(err))
		}
	}

	var notifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Warn("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Repositories and services
	newsRepo := repository.NewNewsItemRepository(db.DB)
	chapterRepo := repository.NewStoryChapterRepository(db.DB)

	newsService := news.NewService(cfg, newsRepo, chapterRepo, appLogger)
	weatherProvider := weather.NewClient(cfg.Weather, appLogger)
	tideProvider := tide.NewClient(cfg.Tide, appLogger)

	builder := story.NewContextBuilder(cfg, weatherProvider, tideProvider, newsService, appLogger)
	generator := story.SelectGenerator(cfg, appLogger, genAiClient)
	engine := story.NewEngine(chapterRepo, builder, generator, appLogger)

	// Background jobs
	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg, newsService, engine, notifier, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize scheduler", logger.ErrorField(err))
		}
		if err := sched.Start(ctx); err != nil {
			appLogger.Fatal("Failed to start scheduler", logger.ErrorField(err))
		}
		defer sched.Stop()
	}

	// HTTP server
	e := echo.New()
	e.HideBanner = true

	apiV1 := e.Group("/api/v1")

	storyHandler := delivery.NewStoryHandler(cfg, engine, builder, newsService, chapterRepo, cacheClient, appLogger)
	storyHandler.RegisterRoutes(apiV1.Group("/story"))

	adminHandler := delivery.NewAdminHandler(cfg, newsService, appLogger)
	adminHandler.RegisterRoutes(apiV1.Group("/admin"))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "story-weaver"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing story-weaver CLI: %s\n", err)
		os.Exit(1)
	}
}
