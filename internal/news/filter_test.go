package news

import (
	"strings"
	"testing"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/pkg/logger"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNewsConfig() config.News {
	return config.News{
		LocaleName:         "Ipswich",
		MaxItemsPerFetch:   10,
		SummaryMaxLength:   500,
		HeadlineMaxLength:  500,
		AuthorMaxLength:    200,
		ExcludedKeywords:   []string{"obituary", "police log", "election"},
		ExcludedCategories: []string{"obituaries", "politics"},
	}
}

func feedItem(title, link string, published time.Time, categories ...string) *gofeed.Item {
	return &gofeed.Item{
		Title:           title,
		Link:            link,
		PublishedParsed: &published,
		Categories:      categories,
	}
}

func TestFilterRun_AcceptsLocalArticle(t *testing.T) {
	f := NewFilter(testNewsConfig(), logger.NewNop())
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	items := []*gofeed.Item{
		feedItem("Ipswich library opens new wing", "https://example.com/2024/03/15/library-wing/", now),
	}

	accepted := f.Run(items, now)
	require.Len(t, accepted, 1)
	assert.Equal(t, "Ipswich library opens new wing", accepted[0].Headline)
	assert.Equal(t, "Ipswich", accepted[0].CategoryLabel)
}

func TestFilterRun_AcceptsLocalCategory(t *testing.T) {
	f := NewFilter(testNewsConfig(), logger.NewNop())
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	items := []*gofeed.Item{
		feedItem("New harbor regulations announced", "https://example.com/2024/03/15/harbor/", now, "Ipswich"),
	}

	accepted := f.Run(items, now)
	require.Len(t, accepted, 1)
}

func TestFilterRun_RejectsNonLocal(t *testing.T) {
	f := NewFilter(testNewsConfig(), logger.NewNop())
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	items := []*gofeed.Item{
		feedItem("Boston traffic snarls commute", "https://example.com/2024/03/15/boston-traffic/", now, "Regional"),
	}

	assert.Empty(t, f.Run(items, now))
}

func TestFilterRun_RejectsExcludedKeyword(t *testing.T) {
	f := NewFilter(testNewsConfig(), logger.NewNop())
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	items := []*gofeed.Item{
		feedItem("Ipswich obituary: longtime resident", "https://example.com/2024/03/15/obit/", now),
		feedItem("Ipswich police log for the week", "https://example.com/2024/03/15/log/", now),
	}

	assert.Empty(t, f.Run(items, now))
}

func TestFilterRun_RejectsExcludedCategory(t *testing.T) {
	f := NewFilter(testNewsConfig(), logger.NewNop())
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	items := []*gofeed.Item{
		feedItem("Ipswich town vote recap", "https://example.com/2024/03/15/vote/", now, "Ipswich", "Politics"),
	}

	assert.Empty(t, f.Run(items, now))
}

func TestFilterRun_RejectsMissingLink(t *testing.T) {
	f := NewFilter(testNewsConfig(), logger.NewNop())
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	item := feedItem("Ipswich beach cleanup", "", now)
	assert.Empty(t, f.Run([]*gofeed.Item{item}, now))
}

func TestFilterRun_LinkDateBeatsFeedDate(t *testing.T) {
	f := NewFilter(testNewsConfig(), logger.NewNop())
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	// Feed pubDate claims a week ago; the URL says today.
	stale := now.AddDate(0, 0, -7)
	items := []*gofeed.Item{
		feedItem("Ipswich farmers market returns", "https://example.com/2024/03/15/market/", stale),
	}

	accepted := f.Run(items, now)
	require.Len(t, accepted, 1)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), accepted[0].PublishedAt)
}

func TestFilterRun_FreshnessGate(t *testing.T) {
	f := NewFilter(testNewsConfig(), logger.NewNop())
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	items := []*gofeed.Item{
		feedItem("Ipswich news from today", "https://example.com/2024/03/15/today/", now),
		feedItem("Ipswich news from yesterday", "https://example.com/2024/03/14/yesterday/", now),
		feedItem("Ipswich news from two days ago", "https://example.com/2024/03/13/older/", now),
	}

	accepted := f.Run(items, now)
	require.Len(t, accepted, 2)
	assert.Equal(t, "Ipswich news from today", accepted[0].Headline)
	assert.Equal(t, "Ipswich news from yesterday", accepted[1].Headline)
}

func TestFilterRun_CapsAndOrders(t *testing.T) {
	cfg := testNewsConfig()
	cfg.MaxItemsPerFetch = 2
	f := NewFilter(cfg, logger.NewNop())
	now := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)

	items := []*gofeed.Item{
		feedItem("Ipswich story one", "https://example.com/2024/03/14/one/", now),
		feedItem("Ipswich story two", "https://example.com/2024/03/15/two/", now),
		feedItem("Ipswich story three", "https://example.com/2024/03/14/three/", now),
	}

	accepted := f.Run(items, now)
	require.Len(t, accepted, 2)
	assert.Equal(t, "Ipswich story two", accepted[0].Headline)
}

func TestFilterRun_SummaryStripsMarkupAndTruncates(t *testing.T) {
	cfg := testNewsConfig()
	cfg.SummaryMaxLength = 40
	f := NewFilter(cfg, logger.NewNop())
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	item := feedItem("Ipswich shipyard reopens", "https://example.com/2024/03/15/shipyard/", now)
	item.Description = "<p>The   shipyard " + strings.Repeat("reopens after a long winter ", 5) + "</p>"

	accepted := f.Run([]*gofeed.Item{item}, now)
	require.Len(t, accepted, 1)
	assert.NotContains(t, accepted[0].Summary, "<p>")
	assert.NotContains(t, accepted[0].Summary, "  ")
	assert.True(t, strings.HasSuffix(accepted[0].Summary, "..."))
	assert.LessOrEqual(t, len(accepted[0].Summary), 40)
}

func TestFilterRun_EmptySummaryFallsBackToHeadline(t *testing.T) {
	f := NewFilter(testNewsConfig(), logger.NewNop())
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	item := feedItem("Ipswich crew wins regatta", "https://example.com/2024/03/15/regatta/", now)

	accepted := f.Run([]*gofeed.Item{item}, now)
	require.Len(t, accepted, 1)
	assert.Equal(t, "Ipswich crew wins regatta", accepted[0].Summary)
}

func TestArticleDateFromURL(t *testing.T) {
	got, ok := ArticleDateFromURL("https://example.com/2024/03/15/some-story/")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), got.UTC())

	_, ok = ArticleDateFromURL("https://example.com/about/")
	assert.False(t, ok)
}
