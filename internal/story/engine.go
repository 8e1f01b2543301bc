package story

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/entity"
	"github.com/vsheahan/local-story-weaver/internal/repository"
	"github.com/vsheahan/local-story-weaver/pkg/logger"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Engine orchestrates chapter generation for a date: builds the context,
// runs the generator, and persists the result with at-most-once semantics
// per calendar day.
type Engine struct {
	chapterRepo repository.StoryChapterRepository
	builder     *ContextBuilder
	generator   Generator
	logger      *logger.Logger
}

// NewEngine creates a story engine.
func NewEngine(chapterRepo repository.StoryChapterRepository, builder *ContextBuilder, generator Generator, log *logger.Logger) *Engine {
	return &Engine{
		chapterRepo: chapterRepo,
		builder:     builder,
		generator:   generator,
		logger:      log,
	}
}

// GenerateChapter produces and persists the chapter for the given date.
// The returned bool reports whether new content was generated: false means a
// chapter already existed and force was not set. The persisted news-id list
// always reflects exactly the context fed to the generator on this attempt.
func (e *Engine) GenerateChapter(ctx context.Context, date time.Time, force bool) (*entity.StoryChapter, bool, error) {
	existing, err := e.chapterRepo.FindByDate(ctx, date)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up chapter: %w", err)
	}

	if existing != nil && !force {
		e.logger.Debug("Chapter already exists",
			logger.StringField("date", date.Format("2006-01-02")))
		return existing, false, nil
	}

	dayCtx, err := e.builder.Build(ctx, date, true)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build story context: %w", err)
	}

	narrative, err := e.generator.Generate(ctx, dayCtx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate story: %w", err)
	}

	if existing != nil {
		e.applyGeneration(existing, narrative, dayCtx)
		if err := e.chapterRepo.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("failed to update chapter: %w", err)
		}
		e.logger.Info("Chapter regenerated",
			logger.StringField("date", date.Format("2006-01-02")),
			logger.StringField("title", existing.Title),
		)
		return existing, true, nil
	}

	chapter := &entity.StoryChapter{ChapterDate: datatypes.Date(date)}
	e.applyGeneration(chapter, narrative, dayCtx)

	err = e.chapterRepo.Create(ctx, chapter)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent attempt won the unique-index race; theirs is the
		// chapter of record.
		winner, findErr := e.chapterRepo.FindByDate(ctx, date)
		if findErr != nil {
			return nil, false, fmt.Errorf("failed to fetch concurrently created chapter: %w", findErr)
		}
		if winner == nil {
			return nil, false, fmt.Errorf("chapter for %s vanished after duplicate-key conflict", date.Format("2006-01-02"))
		}
		e.logger.Warn("Lost chapter creation race, returning existing chapter",
			logger.StringField("date", date.Format("2006-01-02")))
		return winner, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create chapter: %w", err)
	}

	e.logger.Info("Chapter created",
		logger.StringField("date", date.Format("2006-01-02")),
		logger.StringField("title", chapter.Title),
		logger.IntField("news_items", len(dayCtx.NewsItems)),
	)
	return chapter, true, nil
}

// applyGeneration copies the generation result onto the chapter row. The
// used-news-id list comes from the context of this attempt, never a prior
// one.
func (e *Engine) applyGeneration(chapter *entity.StoryChapter, narrative *Narrative, dayCtx *DayContext) {
	chapter.Title = narrative.Title
	chapter.Body = narrative.Body
	chapter.WeatherSummary = dayCtx.Weather.Summary
	chapter.TideState = dayCtx.Tide.State
	chapter.Season = dayCtx.Season
	chapter.MonthName = dayCtx.MonthName
	chapter.DayOfWeek = dayCtx.DayOfWeek
	chapter.UsedNewsItemIDs = pq.Int64Array(dayCtx.UsedNewsIDs())
}
