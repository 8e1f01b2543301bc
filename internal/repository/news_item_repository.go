package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/entity"

	"gorm.io/gorm"
)

// NewsItemRepository defines the interface for interacting with news item data.
type NewsItemRepository interface {
	Upsert(ctx context.Context, item *entity.NewsItem) (*entity.NewsItem, error)
	FindByArticleURL(ctx context.Context, articleURL string) (*entity.NewsItem, error)
	FindRecent(ctx context.Context, limit int) ([]entity.NewsItem, error)
	FindByIDs(ctx context.Context, ids []int64) ([]entity.NewsItem, error)
}

// NewNewsItemRepository creates a new GORM-based news item repository.
func NewNewsItemRepository(db *gorm.DB) NewsItemRepository {
	return &newsItemRepository{db: db}
}

type newsItemRepository struct {
	db *gorm.DB
}

// Upsert creates the item on first sighting of its article URL, or refreshes
// the existing row in place. The fetch timestamp is bumped either way.
// Concurrent ingestion runs converge: a create that loses the race on the
// unique article_url index falls back to the update path.
func (r *newsItemRepository) Upsert(ctx context.Context, item *entity.NewsItem) (*entity.NewsItem, error) {
	existing, err := r.FindByArticleURL(ctx, item.ArticleURL)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		item.FetchedAt = time.Now().UTC()
		err := r.db.WithContext(ctx).Create(item).Error
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// Lost a race with another ingestion pass; refresh instead.
		existing, err = r.FindByArticleURL(ctx, item.ArticleURL)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, gorm.ErrRecordNotFound
		}
	}

	existing.Headline = item.Headline
	existing.Summary = item.Summary
	existing.CategoryLabel = item.CategoryLabel
	if item.Author != "" {
		existing.Author = item.Author
	}
	if item.PublishedAt != nil {
		existing.PublishedAt = item.PublishedAt
	}
	existing.FetchedAt = time.Now().UTC()

	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// FindByArticleURL retrieves a news item by its article URL, or nil when no
// row exists.
func (r *newsItemRepository) FindByArticleURL(ctx context.Context, articleURL string) (*entity.NewsItem, error) {
	var item entity.NewsItem
	err := r.db.WithContext(ctx).Where("article_url = ?", articleURL).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindRecent retrieves the most recently published items, newest first.
func (r *newsItemRepository) FindRecent(ctx context.Context, limit int) ([]entity.NewsItem, error) {
	var items []entity.NewsItem
	err := r.db.WithContext(ctx).
		Order("published_at DESC NULLS LAST").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindByIDs retrieves the news items with the given ids.
func (r *newsItemRepository) FindByIDs(ctx context.Context, ids []int64) ([]entity.NewsItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []entity.NewsItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
