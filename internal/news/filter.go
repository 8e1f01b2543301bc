package news

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/pkg/logger"
	"github.com/vsheahan/local-story-weaver/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// urlDatePattern matches the /YYYY/MM/DD/ segment embedded in article URLs.
var urlDatePattern = regexp.MustCompile(`/(\d{4})/(\d{2})/(\d{2})/`)

// Candidate is a validated, normalized feed item ready for upserting. It is
// never persisted as-is.
type Candidate struct {
	Headline      string
	Summary       string
	ArticleURL    string
	Author        string
	CategoryLabel string
	PublishedAt   time.Time
}

// Filter turns raw feed items into accepted candidates. It is a pure
// transform over one feed payload; every rejection is logged with a reason.
type Filter struct {
	cfg    config.News
	logger *logger.Logger
}

// NewFilter creates a Filter with the given ingestion settings.
func NewFilter(cfg config.News, log *logger.Logger) *Filter {
	return &Filter{cfg: cfg, logger: log}
}

// Run filters one feed pass down to at most MaxItemsPerFetch accepted
// candidates, most recent first. now anchors the freshness gate: items whose
// derived publish date is older than yesterday are rejected.
func (f *Filter) Run(items []*gofeed.Item, now time.Time) []Candidate {
	var accepted []Candidate
	for _, item := range items {
		candidate, ok := f.evaluate(item, now)
		if !ok {
			continue
		}
		accepted = append(accepted, candidate)
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].PublishedAt.After(accepted[j].PublishedAt)
	})

	if len(accepted) > f.cfg.MaxItemsPerFetch {
		accepted = accepted[:f.cfg.MaxItemsPerFetch]
	}
	return accepted
}

func (f *Filter) evaluate(item *gofeed.Item, now time.Time) (Candidate, bool) {
	title := strings.TrimSpace(item.Title)

	if !f.isLocaleRelevant(title, item.Categories) {
		f.logger.Debug("Skipping non-local article", logger.StringField("title", title))
		return Candidate{}, false
	}

	if keyword, hit := f.matchesExcludedKeyword(title); hit {
		f.logger.Debug("Skipping filtered article",
			logger.StringField("title", title),
			logger.StringField("keyword", keyword),
		)
		return Candidate{}, false
	}

	if category, hit := f.matchesExcludedCategory(item.Categories); hit {
		f.logger.Debug("Skipping article in filtered category",
			logger.StringField("title", title),
			logger.StringField("category", category),
		)
		return Candidate{}, false
	}

	link := strings.TrimSpace(item.Link)
	if link == "" {
		f.logger.Debug("Skipping article without link", logger.StringField("title", title))
		return Candidate{}, false
	}

	publishedAt, ok := derivePublishDate(link, item.PublishedParsed)
	if !ok {
		f.logger.Debug("Skipping article without derivable date", logger.StringField("link", link))
		return Candidate{}, false
	}

	// Rolling 2-day ingestion window: only today and yesterday are eligible.
	yesterday := utils.DateOnly(now).AddDate(0, 0, -1)
	if utils.DateOnly(publishedAt).Before(yesterday) {
		f.logger.Debug("Skipping article older than yesterday",
			logger.StringField("link", link),
			logger.StringField("published_at", publishedAt.Format("2006-01-02")),
		)
		return Candidate{}, false
	}

	summary := normalizeSummary(item.Description, f.cfg.SummaryMaxLength)
	if summary == "" {
		summary = title
	}

	author := ""
	if item.Author != nil {
		author = utils.Truncate(strings.TrimSpace(item.Author.Name), f.cfg.AuthorMaxLength)
	}

	return Candidate{
		Headline:      utils.Truncate(utils.CleanToValidUTF8(title), f.cfg.HeadlineMaxLength),
		Summary:       utils.CleanToValidUTF8(summary),
		ArticleURL:    link,
		Author:        author,
		CategoryLabel: f.cfg.LocaleName,
		PublishedAt:   publishedAt,
	}, true
}

func (f *Filter) isLocaleRelevant(title string, categories []string) bool {
	if utils.ContainsFold(title, f.cfg.LocaleName) {
		return true
	}
	for _, category := range categories {
		if strings.EqualFold(strings.TrimSpace(category), f.cfg.LocaleName) {
			return true
		}
	}
	return false
}

func (f *Filter) matchesExcludedKeyword(title string) (string, bool) {
	for _, keyword := range f.cfg.ExcludedKeywords {
		if utils.ContainsFold(title, keyword) {
			return keyword, true
		}
	}
	return "", false
}

func (f *Filter) matchesExcludedCategory(categories []string) (string, bool) {
	for _, category := range categories {
		for _, excluded := range f.cfg.ExcludedCategories {
			if strings.EqualFold(strings.TrimSpace(category), excluded) {
				return excluded, true
			}
		}
	}
	return "", false
}

// ArticleDateFromURL extracts the publication date embedded in an article
// URL path (…/YYYY/MM/DD/slug/). Feed pubDates are unreliable for this
// source, so the link-derived date is the canonical one.
func ArticleDateFromURL(articleURL string) (time.Time, bool) {
	match := urlDatePattern.FindStringSubmatch(articleURL)
	if match == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("2006/01/02", match[1]+"/"+match[2]+"/"+match[3])
	if err != nil {
		return time.Time{}, false
	}
	// Noon keeps the timestamp inside the calendar day in nearby timezones.
	return t.Add(12 * time.Hour), true
}

// derivePublishDate prefers the link-embedded date segment and falls back to
// the feed's own pubDate. Items with neither are unusable.
func derivePublishDate(link string, feedDate *time.Time) (time.Time, bool) {
	if t, ok := ArticleDateFromURL(link); ok {
		return t, true
	}
	if feedDate != nil {
		return feedDate.UTC(), true
	}
	return time.Time{}, false
}

// normalizeSummary strips markup from a feed description, collapses
// whitespace, and hard-truncates to maxLen with a marker when cut.
func normalizeSummary(description string, maxLen int) string {
	text := strings.TrimSpace(description)
	if text == "" {
		return ""
	}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
		text = doc.Text()
	}
	return utils.Truncate(utils.CollapseWhitespace(text), maxLen)
}

