package story

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/entity"
	"github.com/vsheahan/local-story-weaver/internal/tide"
	"github.com/vsheahan/local-story-weaver/internal/weather"
	"github.com/vsheahan/local-story-weaver/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeChapterRepo struct {
	byDate    map[string]*entity.StoryChapter
	createErr error
	creates   int
	updates   int

	// missFirstFind makes the first FindByDate miss, simulating a
	// concurrent writer landing after the existence check.
	missFirstFind bool
}

func newFakeChapterRepo() *fakeChapterRepo {
	return &fakeChapterRepo{byDate: make(map[string]*entity.StoryChapter)}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func (r *fakeChapterRepo) Create(ctx context.Context, chapter *entity.StoryChapter) error {
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	key := dateKey(time.Time(chapter.ChapterDate))
	if _, ok := r.byDate[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	chapter.ID = uint(len(r.byDate) + 1)
	r.byDate[key] = chapter
	return nil
}

func (r *fakeChapterRepo) Update(ctx context.Context, chapter *entity.StoryChapter) error {
	r.updates++
	r.byDate[dateKey(time.Time(chapter.ChapterDate))] = chapter
	return nil
}

func (r *fakeChapterRepo) FindByDate(ctx context.Context, date time.Time) (*entity.StoryChapter, error) {
	if r.missFirstFind {
		r.missFirstFind = false
		return nil, nil
	}
	return r.byDate[dateKey(date)], nil
}

func (r *fakeChapterRepo) FindLatest(ctx context.Context) (*entity.StoryChapter, error) {
	var latest *entity.StoryChapter
	for _, chapter := range r.byDate {
		if latest == nil || time.Time(chapter.ChapterDate).After(time.Time(latest.ChapterDate)) {
			latest = chapter
		}
	}
	return latest, nil
}

func (r *fakeChapterRepo) FindPage(ctx context.Context, offset, limit int) ([]entity.StoryChapter, int64, error) {
	return nil, int64(len(r.byDate)), nil
}

func (r *fakeChapterRepo) FindSince(ctx context.Context, cutoff time.Time) ([]entity.StoryChapter, error) {
	return nil, nil
}

func newTestEngine(repo *fakeChapterRepo, newsService *fakeNewsService) *Engine {
	builder := NewContextBuilder(
		builderConfig(),
		&fakeWeather{snapshot: &weather.Snapshot{Summary: "clear sky, 60°F", Condition: "Clear"}},
		&fakeTide{snapshot: &tide.Snapshot{State: "rising", Summary: "rising"}},
		newsService,
		logger.NewNop(),
	)
	return NewEngine(repo, builder, NewTemplateGenerator(), logger.NewNop())
}

func TestGenerateChapter_CreatesNewChapter(t *testing.T) {
	repo := newFakeChapterRepo()
	newsService := &fakeNewsService{items: []entity.NewsItem{{ID: 4, Headline: "Ipswich opens new footbridge"}}}
	engine := newTestEngine(repo, newsService)

	date := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	chapter, created, err := engine.GenerateChapter(context.Background(), date, false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, chapter.Title)
	assert.NotEmpty(t, chapter.Body)
	assert.Equal(t, "clear sky, 60°F", chapter.WeatherSummary)
	assert.Equal(t, "rising", chapter.TideState)
	assert.Equal(t, "Spring", chapter.Season)
	require.Len(t, chapter.UsedNewsItemIDs, 1)
	assert.Equal(t, int64(4), chapter.UsedNewsItemIDs[0])
}

func TestGenerateChapter_SecondCallReturnsExisting(t *testing.T) {
	repo := newFakeChapterRepo()
	engine := newTestEngine(repo, &fakeNewsService{})

	date := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	first, created, err := engine.GenerateChapter(context.Background(), date, false)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := engine.GenerateChapter(context.Background(), date, false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.creates)
}

func TestGenerateChapter_ForceRegenerates(t *testing.T) {
	repo := newFakeChapterRepo()
	newsService := &fakeNewsService{}
	engine := newTestEngine(repo, newsService)

	date := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	first, _, err := engine.GenerateChapter(context.Background(), date, false)
	require.NoError(t, err)

	newsService.items = []entity.NewsItem{{ID: 9, Headline: "Ipswich sets sail race record"}}
	second, created, err := engine.GenerateChapter(context.Background(), date, true)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.updates)
	require.Len(t, second.UsedNewsItemIDs, 1)
	assert.Equal(t, int64(9), second.UsedNewsItemIDs[0])
}

func TestGenerateChapter_LosesCreationRace(t *testing.T) {
	repo := newFakeChapterRepo()
	engine := newTestEngine(repo, &fakeNewsService{})

	date := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	winner := &entity.StoryChapter{
		ID:          42,
		ChapterDate: datatypes.Date(date),
		Title:       "The chapter that got there first",
		Body:        "body",
	}

	repo.createErr = gorm.ErrDuplicatedKey
	repo.byDate[dateKey(date)] = winner
	repo.missFirstFind = true

	chapter, created, err := engine.GenerateChapter(context.Background(), date, false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, chapter.ID)
	assert.Equal(t, "The chapter that got there first", chapter.Title)
}

func TestGenerateChapter_GeneratorFailurePropagates(t *testing.T) {
	repo := newFakeChapterRepo()
	builder := NewContextBuilder(
		builderConfig(),
		&fakeWeather{snapshot: &weather.Snapshot{}},
		&fakeTide{snapshot: &tide.Snapshot{}},
		&fakeNewsService{},
		logger.NewNop(),
	)
	failing := &stubGenerator{name: "model", err: errors.New("model unavailable")}
	engine := NewEngine(repo, builder, failing, logger.NewNop())

	_, _, err := engine.GenerateChapter(context.Background(), time.Now(), false)
	assert.Error(t, err)
	assert.Zero(t, repo.creates)
}
