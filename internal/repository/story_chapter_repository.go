package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/entity"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StoryChapterRepository defines the interface for interacting with story
// chapter data.
type StoryChapterRepository interface {
	Create(ctx context.Context, chapter *entity.StoryChapter) error
	Update(ctx context.Context, chapter *entity.StoryChapter) error
	FindByDate(ctx context.Context, date time.Time) (*entity.StoryChapter, error)
	FindLatest(ctx context.Context) (*entity.StoryChapter, error)
	FindPage(ctx context.Context, offset, limit int) ([]entity.StoryChapter, int64, error)
	FindSince(ctx context.Context, cutoff time.Time) ([]entity.StoryChapter, error)
}

// NewStoryChapterRepository creates a new GORM-based story chapter repository.
func NewStoryChapterRepository(db *gorm.DB) StoryChapterRepository {
	return &storyChapterRepository{db: db}
}

type storyChapterRepository struct {
	db *gorm.DB
}

// Create inserts a new chapter. A unique index on chapter_date makes the
// insert fail with gorm.ErrDuplicatedKey when a chapter already exists for
// that date; callers map that to an "already exists" outcome.
func (r *storyChapterRepository) Create(ctx context.Context, chapter *entity.StoryChapter) error {
	return r.db.WithContext(ctx).Create(chapter).Error
}

// Update saves the chapter in place, preserving its id and date.
func (r *storyChapterRepository) Update(ctx context.Context, chapter *entity.StoryChapter) error {
	return r.db.WithContext(ctx).Save(chapter).Error
}

// FindByDate retrieves the chapter for the given calendar date, or nil when
// none exists.
func (r *storyChapterRepository) FindByDate(ctx context.Context, date time.Time) (*entity.StoryChapter, error) {
	var chapter entity.StoryChapter
	err := r.db.WithContext(ctx).
		Where("chapter_date = ?", datatypes.Date(date)).
		First(&chapter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// FindLatest retrieves the most recent chapter by date, or nil when the
// archive is empty.
func (r *storyChapterRepository) FindLatest(ctx context.Context) (*entity.StoryChapter, error) {
	var chapter entity.StoryChapter
	err := r.db.WithContext(ctx).
		Order("chapter_date DESC").
		First(&chapter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// FindPage retrieves one page of chapters ordered by date descending, plus
// the total chapter count for pagination.
func (r *storyChapterRepository) FindPage(ctx context.Context, offset, limit int) ([]entity.StoryChapter, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.StoryChapter{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var chapters []entity.StoryChapter
	err := r.db.WithContext(ctx).
		Order("chapter_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&chapters).Error
	if err != nil {
		return nil, 0, err
	}
	return chapters, total, nil
}

// FindSince retrieves every chapter dated on or after the cutoff. Used to
// recompute the recently-used news id set on demand.
func (r *storyChapterRepository) FindSince(ctx context.Context, cutoff time.Time) ([]entity.StoryChapter, error) {
	var chapters []entity.StoryChapter
	err := r.db.WithContext(ctx).
		Where("chapter_date >= ?", datatypes.Date(cutoff)).
		Find(&chapters).Error
	if err != nil {
		return nil, err
	}
	return chapters, nil
}
