package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/internal/news"
	"github.com/vsheahan/local-story-weaver/internal/story"
	"github.com/vsheahan/local-story-weaver/pkg/common"
	"github.com/vsheahan/local-story-weaver/pkg/logger"
	"github.com/vsheahan/local-story-weaver/pkg/telegram"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the background jobs: periodic news ingestion and the daily
// chapter generation. Notifications are optional.
type Scheduler struct {
	cfg         *config.Config
	newsService news.Service
	engine      *story.Engine
	notifier    telegram.Notifier
	logger      *logger.Logger
	cron        *cron.Cron
}

// New creates a Scheduler. notifier may be nil.
func New(cfg *config.Config, newsService news.Service, engine *story.Engine, notifier telegram.Notifier, log *logger.Logger) (*Scheduler, error) {
	location := time.UTC
	if cfg.Scheduler.TimeZone != "" {
		loc, err := time.LoadLocation(cfg.Scheduler.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler time zone: %w", err)
		}
		location = loc
	}

	return &Scheduler{
		cfg:         cfg,
		newsService: newsService,
		engine:      engine,
		notifier:    notifier,
		logger:      log,
		cron:        cron.New(cron.WithLocation(location)),
	}, nil
}

// Start registers the cron entries and begins running them. It returns
// immediately; Stop halts the internal cron goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	newsSpec := s.cfg.Scheduler.NewsRefreshSpec
	if newsSpec == "" {
		newsSpec = "5 * * * *"
	}
	if _, err := s.cron.AddFunc(newsSpec, func() { s.runNewsRefresh(ctx) }); err != nil {
		return fmt.Errorf("invalid news refresh spec: %w", err)
	}

	generationSpec := s.cfg.Scheduler.GenerationSpec
	if generationSpec == "" {
		generationSpec = fmt.Sprintf("5 %d * * *", s.cfg.Story.GenerationHour)
	}
	if _, err := s.cron.AddFunc(generationSpec, func() { s.runGeneration(ctx) }); err != nil {
		return fmt.Errorf("invalid generation spec: %w", err)
	}

	s.logger.Info("Scheduler started",
		logger.StringField("news_refresh_spec", newsSpec),
		logger.StringField("generation_spec", generationSpec),
	)
	s.cron.Start()
	return nil
}

// Stop halts the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runNewsRefresh(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	items, err := s.newsService.Ingest(runCtx)
	if err != nil {
		s.logger.Error("Scheduled news refresh failed", logger.ErrorField(err))
		return
	}
	s.logger.Info("Scheduled news refresh complete", logger.IntField("updated", len(items)))
}

func (s *Scheduler) runGeneration(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	today := time.Now().UTC()
	chapter, created, err := s.engine.GenerateChapter(runCtx, today, false)
	if err != nil {
		s.logger.Error("Scheduled chapter generation failed", logger.ErrorField(err))
		s.notify(telegram.FormatGenerationFailure(today, err))
		return
	}

	if !created {
		s.logger.Info("Chapter already existed, nothing generated",
			logger.StringField("date", today.Format(common.DateFormat)))
		return
	}

	s.logger.Info("Scheduled chapter generated",
		logger.StringField("date", today.Format(common.DateFormat)),
		logger.StringField("title", chapter.Title),
	)
	s.notify(telegram.FormatChapterNotification(chapter))
}

func (s *Scheduler) notify(message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendMessage(message); err != nil {
		s.logger.Warn("Failed to send notification", logger.ErrorField(err))
	}
}
