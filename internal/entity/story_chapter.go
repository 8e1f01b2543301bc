package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// StoryChapter is one persisted daily narrative with its generation metadata.
// At most one chapter exists per calendar date; the unique index on
// chapter_date is what closes the race between concurrent generation
// attempts.
type StoryChapter struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ChapterDate    datatypes.Date `gorm:"uniqueIndex;not null" json:"chapter_date"`
	Title          string         `gorm:"not null" json:"title"`
	Body           string         `gorm:"not null" json:"body"`
	WeatherSummary string         `json:"weather_summary"`
	TideState      string         `json:"tide_state"`
	Season         string         `json:"season"`
	MonthName      string         `json:"month_name"`
	DayOfWeek      string         `json:"day_of_week"`

	// News item ids woven into this chapter, in the order they were fed to
	// the generator. Denormalized on purpose: news items are never deleted
	// by this pipeline, so no referential integrity is needed.
	UsedNewsItemIDs pq.Int64Array `gorm:"type:bigint[]" json:"used_news_item_ids"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the StoryChapter model.
func (StoryChapter) TableName() string {
	return "story_chapters"
}

// Date returns the chapter date as a time.Time truncated to midnight UTC.
func (c *StoryChapter) Date() time.Time {
	return time.Time(c.ChapterDate)
}
