package dto

import (
	"time"

	"github.com/vsheahan/local-story-weaver/internal/entity"
	"github.com/vsheahan/local-story-weaver/internal/story"
	"github.com/vsheahan/local-story-weaver/pkg/utils"
)

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewsItemBrief is the short news representation embedded in responses.
type NewsItemBrief struct {
	ID         uint   `json:"id"`
	Headline   string `json:"headline"`
	Summary    string `json:"summary"`
	ArticleURL string `json:"article_url"`
}

// ChapterResponse is the full chapter payload.
type ChapterResponse struct {
	ID              uint            `json:"id"`
	ChapterDate     string          `json:"chapter_date"`
	Title           string          `json:"title"`
	Body            string          `json:"body"`
	WeatherSummary  string          `json:"weather_summary"`
	TideState       string          `json:"tide_state"`
	Season          string          `json:"season"`
	MonthName       string          `json:"month_name"`
	DayOfWeek       string          `json:"day_of_week"`
	UsedNewsItemIDs []int64         `json:"used_news_item_ids"`
	CreatedAt       time.Time       `json:"created_at"`
	NewsItems       []NewsItemBrief `json:"news_items,omitempty"`
}

// ArchiveItem is one row of the paginated archive listing.
type ArchiveItem struct {
	ID          uint   `json:"id"`
	ChapterDate string `json:"chapter_date"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Season      string `json:"season"`
}

// ArchiveResponse is one page of the chapter archive.
type ArchiveResponse struct {
	Chapters []ArchiveItem `json:"chapters"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	HasMore  bool          `json:"has_more"`
}

// ContextResponse previews the generation context for a date.
type ContextResponse struct {
	Weather   WeatherBrief    `json:"weather"`
	Tide      TideBrief       `json:"tide"`
	Season    string          `json:"season"`
	NewsItems []NewsItemBrief `json:"news_items"`
}

// WeatherBrief is the weather snapshot in responses.
type WeatherBrief struct {
	Summary     string  `json:"summary"`
	Condition   string  `json:"condition"`
	Temperature float64 `json:"temperature"`
}

// TideBrief is the tide snapshot in responses.
type TideBrief struct {
	State   string `json:"state"`
	Summary string `json:"summary"`
}

// GenerateResponse reports the outcome of a generation request.
type GenerateResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Chapter *ChapterResponse `json:"chapter,omitempty"`
}

// RefreshNewsResponse reports the outcome of a news refresh.
type RefreshNewsResponse struct {
	Success      bool `json:"success"`
	ItemsUpdated int  `json:"items_updated"`
}

// FromChapter maps a chapter entity to its response payload.
func FromChapter(chapter *entity.StoryChapter, newsItems []entity.NewsItem) *ChapterResponse {
	return &ChapterResponse{
		ID:              chapter.ID,
		ChapterDate:     chapter.Date().Format("2006-01-02"),
		Title:           chapter.Title,
		Body:            chapter.Body,
		WeatherSummary:  chapter.WeatherSummary,
		TideState:       chapter.TideState,
		Season:          chapter.Season,
		MonthName:       chapter.MonthName,
		DayOfWeek:       chapter.DayOfWeek,
		UsedNewsItemIDs: chapter.UsedNewsItemIDs,
		CreatedAt:       chapter.CreatedAt,
		NewsItems:       toBriefs(newsItems),
	}
}

// FromContext maps a day context to its preview payload.
func FromContext(dayCtx *story.DayContext) *ContextResponse {
	return &ContextResponse{
		Weather: WeatherBrief{
			Summary:     dayCtx.Weather.Summary,
			Condition:   dayCtx.Weather.Condition,
			Temperature: dayCtx.Weather.Temperature,
		},
		Tide: TideBrief{
			State:   dayCtx.Tide.State,
			Summary: dayCtx.Tide.Summary,
		},
		Season:    dayCtx.Season,
		NewsItems: toBriefs(dayCtx.NewsItems),
	}
}

// FromIngest maps upserted news items to the refresh response.
func FromIngest(items []entity.NewsItem) *RefreshNewsResponse {
	return &RefreshNewsResponse{Success: true, ItemsUpdated: len(items)}
}

func toBriefs(items []entity.NewsItem) []NewsItemBrief {
	if len(items) == 0 {
		return nil
	}
	briefs := make([]NewsItemBrief, 0, len(items))
	for _, item := range items {
		briefs = append(briefs, NewsItemBrief{
			ID:         item.ID,
			Headline:   item.Headline,
			Summary:    utils.Truncate(item.Summary, 200),
			ArticleURL: item.ArticleURL,
		})
	}
	return briefs
}
