package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/internal/dto"
	"github.com/vsheahan/local-story-weaver/internal/entity"
	"github.com/vsheahan/local-story-weaver/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeChapterRepo struct {
	latest   *entity.StoryChapter
	byDate   map[string]*entity.StoryChapter
	chapters []entity.StoryChapter
}

func (r *fakeChapterRepo) Create(ctx context.Context, chapter *entity.StoryChapter) error { return nil }
func (r *fakeChapterRepo) Update(ctx context.Context, chapter *entity.StoryChapter) error { return nil }
func (r *fakeChapterRepo) FindByDate(ctx context.Context, date time.Time) (*entity.StoryChapter, error) {
	return r.byDate[date.Format("2006-01-02")], nil
}
func (r *fakeChapterRepo) FindLatest(ctx context.Context) (*entity.StoryChapter, error) {
	return r.latest, nil
}
func (r *fakeChapterRepo) FindPage(ctx context.Context, offset, limit int) ([]entity.StoryChapter, int64, error) {
	return r.chapters, int64(len(r.chapters)), nil
}
func (r *fakeChapterRepo) FindSince(ctx context.Context, cutoff time.Time) ([]entity.StoryChapter, error) {
	return nil, nil
}

type fakeNewsService struct {
	items []entity.NewsItem
}

func (f *fakeNewsService) Ingest(ctx context.Context) ([]entity.NewsItem, error) {
	return f.items, nil
}
func (f *fakeNewsService) NewsForDate(ctx context.Context, target time.Time, limit int) ([]entity.NewsItem, error) {
	return f.items, nil
}
func (f *fakeNewsService) NewsByIDs(ctx context.Context, ids []int64) ([]entity.NewsItem, error) {
	return f.items, nil
}

func sampleChapter(date time.Time) *entity.StoryChapter {
	return &entity.StoryChapter{
		ID:              1,
		ChapterDate:     datatypes.Date(date),
		Title:           "A Spring Monday in Ipswich",
		Body:            "The thaw is on.\n\nAnd so the day goes into the book.",
		WeatherSummary:  "clear sky, 54°F",
		TideState:       "rising",
		Season:          "Spring",
		MonthName:       "May",
		DayOfWeek:       "Monday",
		UsedNewsItemIDs: pq.Int64Array{7},
	}
}

func newTestHandler(repo *fakeChapterRepo, newsService *fakeNewsService, cfg *config.Config) *StoryHandler {
	return NewStoryHandler(cfg, nil, nil, newsService, repo, nil, logger.NewNop())
}

func handlerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "local-story-weaver"
	cfg.Story.LocationName = "Ipswich"
	cfg.Story.SiteURL = "http://localhost:8080"
	cfg.Story.EnableManualGeneration = true
	return cfg
}

func doRequest(h echo.HandlerFunc, req *http.Request, pathParams ...string) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(pathParams); i += 2 {
		c.SetParamNames(pathParams[i])
		c.SetParamValues(pathParams[i+1])
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestGetLatest_ReturnsChapter(t *testing.T) {
	date := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	repo := &fakeChapterRepo{latest: sampleChapter(date)}
	newsService := &fakeNewsService{items: []entity.NewsItem{{ID: 7, Headline: "Ipswich opens new footbridge"}}}

	h := newTestHandler(repo, newsService, handlerConfig())

	rec := doRequest(h.GetLatest, httptest.NewRequest(http.MethodGet, "/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ChapterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A Spring Monday in Ipswich", resp.Title)
	assert.Equal(t, "2024-05-20", resp.ChapterDate)
	require.Len(t, resp.NewsItems, 1)
	assert.Equal(t, "Ipswich opens new footbridge", resp.NewsItems[0].Headline)
}

func TestGetLatest_EmptyArchive(t *testing.T) {
	h := newTestHandler(&fakeChapterRepo{}, &fakeNewsService{}, handlerConfig())

	rec := doRequest(h.GetLatest, httptest.NewRequest(http.MethodGet, "/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByDate_InvalidDate(t *testing.T) {
	h := newTestHandler(&fakeChapterRepo{}, &fakeNewsService{}, handlerConfig())

	rec := doRequest(h.GetByDate, httptest.NewRequest(http.MethodGet, "/date/not-a-date", nil), "date", "not-a-date")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetByDate_NotFound(t *testing.T) {
	h := newTestHandler(&fakeChapterRepo{byDate: map[string]*entity.StoryChapter{}}, &fakeNewsService{}, handlerConfig())

	rec := doRequest(h.GetByDate, httptest.NewRequest(http.MethodGet, "/date/2024-05-21", nil), "date", "2024-05-21")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByDate_ReturnsChapter(t *testing.T) {
	date := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	repo := &fakeChapterRepo{byDate: map[string]*entity.StoryChapter{"2024-05-20": sampleChapter(date)}}

	h := newTestHandler(repo, &fakeNewsService{}, handlerConfig())

	rec := doRequest(h.GetByDate, httptest.NewRequest(http.MethodGet, "/date/2024-05-20", nil), "date", "2024-05-20")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ChapterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-05-20", resp.ChapterDate)
}

func TestGetArchive_Paginates(t *testing.T) {
	date := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	repo := &fakeChapterRepo{chapters: []entity.StoryChapter{*sampleChapter(date)}}

	h := newTestHandler(repo, &fakeNewsService{}, handlerConfig())

	rec := doRequest(h.GetArchive, httptest.NewRequest(http.MethodGet, "/archive?page=1&page_size=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ArchiveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, 10, resp.PageSize)
	require.Len(t, resp.Chapters, 1)
	assert.False(t, resp.HasMore)
}

func TestGenerateToday_DisabledReturnsForbidden(t *testing.T) {
	cfg := handlerConfig()
	cfg.Story.EnableManualGeneration = false

	h := newTestHandler(&fakeChapterRepo{}, &fakeNewsService{}, cfg)

	rec := doRequest(h.GenerateToday, httptest.NewRequest(http.MethodPost, "/generate-today", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGenerateToday_InvalidTargetDate(t *testing.T) {
	h := newTestHandler(&fakeChapterRepo{}, &fakeNewsService{}, handlerConfig())

	rec := doRequest(h.GenerateToday, httptest.NewRequest(http.MethodPost, "/generate-today?target_date=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFeed_RendersRSS(t *testing.T) {
	date := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	repo := &fakeChapterRepo{chapters: []entity.StoryChapter{*sampleChapter(date)}}

	h := newTestHandler(repo, &fakeNewsService{}, handlerConfig())

	rec := doRequest(h.GetFeed, httptest.NewRequest(http.MethodGet, "/feed.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, body, "<rss version=\"2.0\"")
	assert.Contains(t, body, "A Spring Monday in Ipswich")
	assert.Contains(t, body, "http://localhost:8080/chapter/2024-05-20")
}
