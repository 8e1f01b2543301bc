package story

import (
	"context"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/internal/entity"
	"github.com/vsheahan/local-story-weaver/internal/news"
	"github.com/vsheahan/local-story-weaver/internal/tide"
	"github.com/vsheahan/local-story-weaver/internal/weather"
	"github.com/vsheahan/local-story-weaver/pkg/logger"
)

// Unavailable marks a weather or tide snapshot whose provider failed.
// Generation proceeds with the marker instead of aborting.
const Unavailable = "unavailable"

// DayContext is the immutable bundle of inputs for one date's story.
type DayContext struct {
	Date      time.Time
	Location  string
	Weather   weather.Snapshot
	Tide      tide.Snapshot
	Season    string
	MonthName string
	DayOfWeek string
	NewsItems []entity.NewsItem
}

// ContextBuilder assembles a DayContext from the weather and tide providers
// and the news window selector.
type ContextBuilder struct {
	cfg     *config.Config
	weather weather.Provider
	tide    tide.Provider
	news    news.Service
	logger  *logger.Logger
}

// NewContextBuilder creates a ContextBuilder.
func NewContextBuilder(cfg *config.Config, weatherProvider weather.Provider, tideProvider tide.Provider, newsService news.Service, log *logger.Logger) *ContextBuilder {
	return &ContextBuilder{
		cfg:     cfg,
		weather: weatherProvider,
		tide:    tideProvider,
		news:    newsService,
		logger:  log,
	}
}

// Build produces the generation context for the target date. Weather and
// tide failures degrade to an unavailable marker; only a news storage error
// aborts the build.
func (b *ContextBuilder) Build(ctx context.Context, date time.Time, includeNews bool) (*DayContext, error) {
	dayCtx := &DayContext{
		Date:      date,
		Location:  b.cfg.Story.LocationName,
		Season:    SeasonForMonth(date.Month()),
		MonthName: date.Month().String(),
		DayOfWeek: date.Weekday().String(),
	}

	if snapshot, err := b.weather.Current(ctx, date); err != nil {
		b.logger.Warn("Weather provider failed, continuing without it", logger.ErrorField(err))
		dayCtx.Weather = weather.Snapshot{Summary: Unavailable, Condition: Unavailable}
	} else {
		dayCtx.Weather = *snapshot
	}

	if snapshot, err := b.tide.Current(ctx, date); err != nil {
		b.logger.Warn("Tide provider failed, continuing without it", logger.ErrorField(err))
		dayCtx.Tide = tide.Snapshot{State: Unavailable, Summary: Unavailable}
	} else {
		dayCtx.Tide = *snapshot
	}

	if includeNews {
		items, err := b.news.NewsForDate(ctx, date, b.cfg.Story.MaxNewsItems)
		if err != nil {
			return nil, err
		}
		dayCtx.NewsItems = items
	}

	return dayCtx, nil
}

// SeasonForMonth buckets a month into the four meteorological seasons.
func SeasonForMonth(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Autumn"
	}
}

// UsedNewsIDs returns the ids of the context's news items in generation
// order.
func (c *DayContext) UsedNewsIDs() []int64 {
	ids := make([]int64, 0, len(c.NewsItems))
	for _, item := range c.NewsItems {
		ids = append(ids, int64(item.ID))
	}
	return ids
}
