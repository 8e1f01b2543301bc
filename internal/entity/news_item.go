package entity

import (
	"time"
)

// NewsItem represents a deduplicated local news article ingested from the
// external feed. Items are keyed by their article URL: re-ingesting an
// unchanged feed refreshes existing rows instead of duplicating them.
type NewsItem struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Headline      string     `gorm:"not null" json:"headline"`
	Summary       string     `json:"summary"`
	ArticleURL    string     `gorm:"unique;not null" json:"article_url"`
	Author        string     `json:"author,omitempty"`
	CategoryLabel string     `json:"category_label"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	FetchedAt     time.Time  `json:"fetched_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the NewsItem model.
func (NewsItem) TableName() string {
	return "news_items"
}
