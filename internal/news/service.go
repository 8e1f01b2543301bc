package news

import (
	"context"
	"net/http"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/internal/entity"
	"github.com/vsheahan/local-story-weaver/internal/repository"
	"github.com/vsheahan/local-story-weaver/pkg/logger"
	"github.com/vsheahan/local-story-weaver/pkg/utils"

	"github.com/mmcdole/gofeed"
)

// userAgent identifies the feed client to the upstream news site.
const userAgent = "LocalStoryWeaver/1.0 (RSS Reader)"

// Service ingests the external news feed into deduplicated records and
// selects the news subset for a target date's story.
type Service interface {
	Ingest(ctx context.Context) ([]entity.NewsItem, error)
	NewsForDate(ctx context.Context, target time.Time, limit int) ([]entity.NewsItem, error)
	NewsByIDs(ctx context.Context, ids []int64) ([]entity.NewsItem, error)
}

// NewService creates a news service backed by the given repositories.
func NewService(cfg *config.Config, newsRepo repository.NewsItemRepository, chapterRepo repository.StoryChapterRepository, log *logger.Logger) Service {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: cfg.News.FetchTimeout}

	return &service{
		cfg:         cfg,
		newsRepo:    newsRepo,
		chapterRepo: chapterRepo,
		filter:      NewFilter(cfg.News, log),
		parser:      parser,
		logger:      log,
	}
}

type service struct {
	cfg         *config.Config
	newsRepo    repository.NewsItemRepository
	chapterRepo repository.StoryChapterRepository
	filter      *Filter
	parser      *gofeed.Parser
	logger      *logger.Logger
}

// Ingest fetches the configured feed, filters it down to locale-relevant
// candidates, and upserts each one keyed on its article URL. A transient
// fetch failure yields an empty result, not an error; a single bad item is
// dropped and the rest of the batch continues.
func (s *service) Ingest(ctx context.Context) ([]entity.NewsItem, error) {
	s.logger.Info("Fetching local news feed", logger.StringField("url", s.cfg.News.FeedURL))

	feed, err := s.parser.ParseURLWithContext(s.cfg.News.FeedURL, ctx)
	if err != nil {
		s.logger.Warn("Failed to fetch news feed", logger.ErrorField(err))
		return nil, nil
	}

	candidates := s.filter.Run(feed.Items, time.Now().UTC())
	s.logger.Info("Filtered feed items",
		logger.IntField("total", len(feed.Items)),
		logger.IntField("accepted", len(candidates)),
	)

	var updated []entity.NewsItem
	for _, candidate := range candidates {
		publishedAt := candidate.PublishedAt
		item := &entity.NewsItem{
			Headline:      candidate.Headline,
			Summary:       candidate.Summary,
			ArticleURL:    candidate.ArticleURL,
			Author:        candidate.Author,
			CategoryLabel: candidate.CategoryLabel,
			PublishedAt:   &publishedAt,
		}

		persisted, err := s.newsRepo.Upsert(ctx, item)
		if err != nil {
			s.logger.Error("Failed to upsert news item",
				logger.ErrorField(err),
				logger.StringField("article_url", candidate.ArticleURL),
			)
			continue
		}
		updated = append(updated, *persisted)
	}

	s.logger.Info("News ingestion complete", logger.IntField("updated", len(updated)))
	return updated, nil
}

// NewsForDate returns up to limit news items published on the target date or
// the day before, excluding any item already woven into a chapter from the
// trailing lookback window. Results keep publish-descending order.
func (s *service) NewsForDate(ctx context.Context, target time.Time, limit int) ([]entity.NewsItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	usedIDs, err := s.recentlyUsedIDs(ctx, target)
	if err != nil {
		return nil, err
	}

	// Wide prefetch by stored publish time, then narrow by the canonical
	// link-derived date to tolerate feed timestamp noise.
	items, err := s.newsRepo.FindRecent(ctx, s.cfg.Story.NewsPrefetchLimit)
	if err != nil {
		return nil, err
	}

	targetDay := utils.DateOnly(target)
	previousDay := targetDay.AddDate(0, 0, -1)

	var matching []entity.NewsItem
	for _, item := range items {
		if usedIDs[int64(item.ID)] {
			s.logger.Debug("Skipping already-used article", logger.StringField("headline", item.Headline))
			continue
		}

		articleDate, ok := ArticleDateFromURL(item.ArticleURL)
		if !ok {
			if item.PublishedAt == nil {
				continue
			}
			articleDate = *item.PublishedAt
		}

		day := utils.DateOnly(articleDate)
		if !day.Equal(targetDay) && !day.Equal(previousDay) {
			continue
		}

		matching = append(matching, item)
		if len(matching) >= limit {
			break
		}
	}

	return matching, nil
}

// NewsByIDs fetches specific news items, for rendering a chapter's sources.
func (s *service) NewsByIDs(ctx context.Context, ids []int64) ([]entity.NewsItem, error) {
	return s.newsRepo.FindByIDs(ctx, ids)
}

// recentlyUsedIDs recomputes the set of news ids referenced by chapters in
// the lookback window ending at the target date. Derived on demand rather
// than cached so the set survives process restarts.
func (s *service) recentlyUsedIDs(ctx context.Context, target time.Time) (map[int64]bool, error) {
	cutoff := utils.DateOnly(target).AddDate(0, 0, -s.cfg.Story.UsedNewsLookbackDays)
	chapters, err := s.chapterRepo.FindSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	used := make(map[int64]bool)
	for _, chapter := range chapters {
		for _, id := range chapter.UsedNewsItemIDs {
			used[id] = true
		}
	}
	return used, nil
}
