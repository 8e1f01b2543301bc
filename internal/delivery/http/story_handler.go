package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/internal/dto"
	"github.com/vsheahan/local-story-weaver/internal/entity"
	"github.com/vsheahan/local-story-weaver/internal/news"
	"github.com/vsheahan/local-story-weaver/internal/repository"
	"github.com/vsheahan/local-story-weaver/internal/story"
	"github.com/vsheahan/local-story-weaver/pkg/common"
	"github.com/vsheahan/local-story-weaver/pkg/logger"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
)

const latestChapterCacheTTL = 5 * time.Minute

// StoryHandler handles HTTP requests for story chapters.
type StoryHandler struct {
	cfg         *config.Config
	engine      *story.Engine
	builder     *story.ContextBuilder
	newsService news.Service
	chapterRepo repository.StoryChapterRepository
	cache       *goredis.Client
	logger      *logger.Logger
}

// NewStoryHandler creates a new StoryHandler. cache may be nil, in which
// case responses are served uncached.
func NewStoryHandler(cfg *config.Config, engine *story.Engine, builder *story.ContextBuilder, newsService news.Service, chapterRepo repository.StoryChapterRepository, cache *goredis.Client, log *logger.Logger) *StoryHandler {
	return &StoryHandler{
		cfg:         cfg,
		engine:      engine,
		builder:     builder,
		newsService: newsService,
		chapterRepo: chapterRepo,
		cache:       cache,
		logger:      log,
	}
}

// RegisterRoutes registers the story routes to the Echo group.
func (h *StoryHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/latest", h.GetLatest)
	g.GET("/date/:date", h.GetByDate)
	g.GET("/archive", h.GetArchive)
	g.GET("/context/today", h.GetTodayContext)
	g.POST("/generate-today", h.GenerateToday)
	g.GET("/feed.xml", h.GetFeed)
}

// GetLatest returns the most recent chapter.
func (h *StoryHandler) GetLatest(c echo.Context) error {
	ctx := c.Request().Context()

	if cached := h.cachedLatest(ctx); cached != nil {
		return c.JSON(http.StatusOK, cached)
	}

	chapter, err := h.chapterRepo.FindLatest(ctx)
	if err != nil {
		h.logger.Error("Failed to fetch latest chapter", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch latest chapter"})
	}
	if chapter == nil {
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "No chapters yet"})
	}

	resp := dto.FromChapter(chapter, h.newsForChapter(ctx, chapter))
	h.storeLatest(ctx, resp)
	return c.JSON(http.StatusOK, resp)
}

// GetByDate returns the chapter for a specific date.
func (h *StoryHandler) GetByDate(c echo.Context) error {
	date, err := time.Parse(common.DateFormat, c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid date, expected YYYY-MM-DD"})
	}

	ctx := c.Request().Context()
	chapter, err := h.chapterRepo.FindByDate(ctx, date)
	if err != nil {
		h.logger.Error("Failed to fetch chapter", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch chapter"})
	}
	if chapter == nil {
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "No story found for this date"})
	}

	return c.JSON(http.StatusOK, dto.FromChapter(chapter, h.newsForChapter(ctx, chapter)))
}

// GetArchive returns a paginated, date-descending chapter listing.
func (h *StoryHandler) GetArchive(c echo.Context) error {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(c, "page_size", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize
	chapters, total, err := h.chapterRepo.FindPage(c.Request().Context(), offset, pageSize)
	if err != nil {
		h.logger.Error("Failed to fetch archive", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch archive"})
	}

	items := make([]dto.ArchiveItem, 0, len(chapters))
	for _, chapter := range chapters {
		snippet := chapter.Body
		if len(snippet) > 100 {
			snippet = snippet[:100] + "..."
		}
		items = append(items, dto.ArchiveItem{
			ID:          chapter.ID,
			ChapterDate: chapter.Date().Format(common.DateFormat),
			Title:       chapter.Title,
			Snippet:     snippet,
			Season:      chapter.Season,
		})
	}

	return c.JSON(http.StatusOK, dto.ArchiveResponse{
		Chapters: items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  int64(offset+pageSize) < total,
	})
}

// GetTodayContext previews today's generation context.
func (h *StoryHandler) GetTodayContext(c echo.Context) error {
	dayCtx, err := h.builder.Build(c.Request().Context(), time.Now().UTC(), true)
	if err != nil {
		h.logger.Error("Failed to build context", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to build context"})
	}
	return c.JSON(http.StatusOK, dto.FromContext(dayCtx))
}

// GenerateToday triggers generation for today or an explicit target date.
func (h *StoryHandler) GenerateToday(c echo.Context) error {
	if !h.cfg.Story.EnableManualGeneration {
		return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Manual story generation is disabled"})
	}

	force := strings.EqualFold(c.QueryParam("force"), "true")

	target := time.Now().UTC()
	if raw := c.QueryParam("target_date"); raw != "" {
		parsed, err := time.Parse(common.DateFormat, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid target_date, expected YYYY-MM-DD"})
		}
		target = parsed
	}

	ctx := c.Request().Context()
	chapter, created, err := h.engine.GenerateChapter(ctx, target, force)
	if err != nil {
		h.logger.Error("Failed to generate chapter", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to generate chapter"})
	}

	h.invalidateLatest(ctx)

	resp := dto.GenerateResponse{
		Success: created,
		Chapter: dto.FromChapter(chapter, h.newsForChapter(ctx, chapter)),
	}
	if created {
		resp.Message = fmt.Sprintf("Story generated for %s", chapter.Date().Format(common.DateFormat))
	} else {
		resp.Message = fmt.Sprintf("Story already exists for %s. Use force=true to regenerate.", chapter.Date().Format(common.DateFormat))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetFeed renders the RSS 2.0 syndication feed of recent chapters.
func (h *StoryHandler) GetFeed(c echo.Context) error {
	chapters, _, err := h.chapterRepo.FindPage(c.Request().Context(), 0, 20)
	if err != nil {
		h.logger.Error("Failed to fetch chapters for feed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to build feed"})
	}

	siteURL := strings.TrimRight(h.cfg.Story.SiteURL, "/")

	var items strings.Builder
	for _, chapter := range chapters {
		pubDate := chapter.Date().Format(time.RFC1123Z)
		link := fmt.Sprintf("%s/chapter/%s", siteURL, chapter.Date().Format(common.DateFormat))

		body := html.EscapeString(chapter.Body)
		body = "<p>" + strings.ReplaceAll(body, "\n\n", "</p><p>") + "</p>"
		body = strings.ReplaceAll(body, "\n", "<br/>")

		items.WriteString(fmt.Sprintf(`
    <item>
      <title>%s</title>
      <link>%s</link>
      <guid isPermaLink="true">%s</guid>
      <pubDate>%s</pubDate>
      <description><![CDATA[%s]]></description>
    </item>`, html.EscapeString(chapter.Title), link, link, pubDate, body))
	}

	feed := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>%s</title>
    <link>%s</link>
    <description>Daily tales woven from weather, tides, and local news in %s</description>
    <language>en-us</language>
    <atom:link href="%s/api/v1/story/feed.xml" rel="self" type="application/rss+xml"/>
    <lastBuildDate>%s</lastBuildDate>%s
  </channel>
</rss>`,
		html.EscapeString(h.cfg.App.Name), siteURL, html.EscapeString(h.cfg.Story.LocationName),
		siteURL, time.Now().UTC().Format(time.RFC1123Z), items.String())

	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(feed))
}

// newsForChapter resolves the chapter's used news ids to briefs. Lookup
// failures degrade to an empty list; the chapter itself is still served.
func (h *StoryHandler) newsForChapter(ctx context.Context, chapter *entity.StoryChapter) []entity.NewsItem {
	if len(chapter.UsedNewsItemIDs) == 0 {
		return nil
	}
	items, err := h.newsService.NewsByIDs(ctx, chapter.UsedNewsItemIDs)
	if err != nil {
		h.logger.Warn("Failed to fetch news items for chapter", logger.ErrorField(err))
		return nil
	}
	return items
}

func (h *StoryHandler) cachedLatest(ctx context.Context) *dto.ChapterResponse {
	if h.cache == nil {
		return nil
	}
	raw, err := h.cache.Get(ctx, common.RedisKeyLatestChapter).Result()
	if err != nil {
		return nil
	}
	var resp dto.ChapterResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}
	return &resp
}

func (h *StoryHandler) storeLatest(ctx context.Context, resp *dto.ChapterResponse) {
	if h.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, common.RedisKeyLatestChapter, raw, latestChapterCacheTTL).Err(); err != nil {
		h.logger.Debug("Failed to cache latest chapter", logger.ErrorField(err))
	}
}

func (h *StoryHandler) invalidateLatest(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Del(ctx, common.RedisKeyLatestChapter).Err(); err != nil {
		h.logger.Debug("Failed to invalidate latest chapter cache", logger.ErrorField(err))
	}
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
