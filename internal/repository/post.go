package repository

import (
	"context"

	"geosocial/internal/models"
	"geosocial/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedQuery narrows the posts returned by PostRepository.ListFeed.
type FeedQuery struct {
	// AuthorIDs restricts posts to these authors. Required.
	AuthorIDs []uint
	// Term, when set, keeps posts whose topic name or caption contains it, ignoring case.
	Term string
	// ViewerID fills the computed Liked flag.
	ViewerID uint
}

// PostRepository defines the interface for post and like data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, currentUserID uint) ([]*models.Post, error)
	ListFeed(ctx context.Context, q FeedQuery) ([]*models.Post, error)
	// ListGeotagged returns posts with both coordinates set. A nil authorIDs means every author.
	ListGeotagged(ctx context.Context, authorIDs []uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post together with its comments and likes.
	Delete(ctx context.Context, id uint) error
	// ToggleLike removes the user's like if present, otherwise adds it.
	ToggleLike(ctx context.Context, userID, postID uint) (bool, int64, error)
	Unlike(ctx context.Context, userID, postID uint) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// applyPostDetails selects the computed counters and the viewer's liked flag.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked", currentUserID)
	}
	return db.Select(selectQuery + ", false AS liked")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	if err := r.applyPostDetails(r.db.WithContext(ctx).Model(&models.Post{}), currentUserID).
		Preload("Author").
		Preload("Topic").
		Where("posts.id = ?", id).
		First(&post).Error; err != nil {
		return nil, mapError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.applyPostDetails(r.db.WithContext(ctx).Model(&models.Post{}), currentUserID).
		Preload("Author").
		Preload("Topic").
		Where("posts.author_id = ?", authorID).
		Order("posts.created_at DESC").Order("posts.id DESC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListFeed(ctx context.Context, fq FeedQuery) ([]*models.Post, error) {
	defer observability.TrackQuery("feed", "posts")()

	if len(fq.AuthorIDs) == 0 {
		return []*models.Post{}, nil
	}

	q := r.applyPostDetails(r.db.WithContext(ctx).Model(&models.Post{}), fq.ViewerID).
		Joins("LEFT JOIN topics ON topics.id = posts.topic_id").
		Where("posts.author_id IN ?", fq.AuthorIDs)
	if fq.Term != "" {
		pattern := containsPattern(fq.Term)
		q = q.Where(`(topics.name_folded LIKE ? ESCAPE '\' OR posts.caption_folded LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var posts []*models.Post
	if err := q.
		Preload("Author").
		Preload("Topic").
		Order("posts.created_at DESC").Order("posts.id DESC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListGeotagged(ctx context.Context, authorIDs []uint) ([]*models.Post, error) {
	defer observability.TrackQuery("geotagged", "posts")()

	if authorIDs != nil && len(authorIDs) == 0 {
		return []*models.Post{}, nil
	}

	q := r.applyPostDetails(r.db.WithContext(ctx).Model(&models.Post{}), 0).
		Where("posts.latitude IS NOT NULL AND posts.longitude IS NOT NULL")
	if authorIDs != nil {
		q = q.Where("posts.author_id IN ?", authorIDs)
	}

	var posts []*models.Post
	if err := q.
		Preload("Author").
		Preload("Topic").
		Order("posts.created_at DESC").Order("posts.id DESC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	post.CaptionFolded = models.FoldSearch(post.Caption)
	result := r.db.WithContext(ctx).
		Model(post).
		Select("caption", "caption_folded", "topic_id", "photo_ref", "latitude", "longitude").
		Updates(post)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
}

func (r *postRepository) ToggleLike(ctx context.Context, userID, postID uint) (bool, int64, error) {
	var (
		liked bool
		count int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected == 0 {
			// A concurrent toggle may have inserted first; the unique index keeps one row.
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
				DoNothing: true,
			}).Omit(clause.Associations).Create(&models.Like{PostID: postID, UserID: userID}).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	})
	if err != nil {
		return false, 0, models.NewInternalError(err)
	}
	return liked, count, nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
