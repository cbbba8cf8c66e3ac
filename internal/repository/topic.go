package repository

import (
	"context"
	"errors"

	"geosocial/internal/models"

	"gorm.io/gorm"
)

// TopicRepository defines persistence operations for topics.
type TopicRepository interface {
	// GetOrCreate returns the oldest topic with this exact name, creating one if none exists.
	GetOrCreate(ctx context.Context, name string) (*models.Topic, error)
	List(ctx context.Context, query string, limit int) ([]models.Topic, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Topic, error)
}

type topicRepository struct {
	db *gorm.DB
}

// NewTopicRepository returns a new TopicRepository implementation.
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) GetOrCreate(ctx context.Context, name string) (*models.Topic, error) {
	var topic models.Topic
	err := r.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").First(&topic).Error
	if err == nil {
		return &topic, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	topic = models.Topic{Name: name}
	if err := r.db.WithContext(ctx).Create(&topic).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &topic, nil
}

func (r *topicRepository) List(ctx context.Context, query string, limit int) ([]models.Topic, error) {
	q := r.db.WithContext(ctx).Order("name ASC").Order("id ASC")
	if query != "" {
		q = q.Where(`name_folded LIKE ? ESCAPE '\'`, containsPattern(query))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var topics []models.Topic
	if err := q.Find(&topics).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}

// ListByAuthor returns the distinct topics the user has posted under.
func (r *topicRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Topic, error) {
	var topics []models.Topic
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.Post{}).Select("topic_id").Where("author_id = ? AND topic_id IS NOT NULL", authorID)).
		Order("name ASC").
		Find(&topics).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}
