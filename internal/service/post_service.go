package service

import (
	"context"
	"strings"

	"geosocial/internal/cache"
	"geosocial/internal/models"
	"geosocial/internal/notifications"
	"geosocial/internal/observability"
	"geosocial/internal/repository"
	"geosocial/internal/validation"
)

const defaultTopicListLimit = 50

type PostService struct {
	postRepo    repository.PostRepository
	topicRepo   repository.TopicRepository
	commentRepo repository.CommentRepository
	events      EventPublisher
}

type CreatePostInput struct {
	AuthorID  uint
	Caption   string
	Topic     string
	PhotoRef  string
	Latitude  *float64
	Longitude *float64
}

// UpdatePostInput replaces the editable fields of a post.
// An empty PhotoRef keeps the current photo.
type UpdatePostInput struct {
	UserID    uint
	PostID    uint
	Caption   string
	Topic     string
	PhotoRef  string
	Latitude  *float64
	Longitude *float64
}

// PostDetail is a post together with its comments, oldest first.
type PostDetail struct {
	Post     *models.Post      `json:"post"`
	Comments []*models.Comment `json:"comments"`
}

func NewPostService(
	postRepo repository.PostRepository,
	topicRepo repository.TopicRepository,
	commentRepo repository.CommentRepository,
	events EventPublisher,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		topicRepo:   topicRepo,
		commentRepo: commentRepo,
		events:      events,
	}
}

func validatePostFields(caption, topic string, lat, lon *float64) error {
	if err := validation.ValidateText("caption", caption, validation.MaxCaptionLength, false); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateText("topic", topic, validation.MaxTopicNameLength, false); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateCoordinates(lat, lon); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// resolveTopic maps a free-text topic name to a topic id. A blank name means no topic.
func (s *PostService) resolveTopic(ctx context.Context, name string) (*uint, error) {
	name = models.NormalizeTopicName(name)
	if name == "" {
		return nil, nil
	}
	topic, err := s.topicRepo.GetOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.TopicListKey)
	return &topic.ID, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validatePostFields(in.Caption, in.Topic, in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	topicID, err := s.resolveTopic(ctx, in.Topic)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID:  in.AuthorID,
		TopicID:   topicID,
		Caption:   strings.TrimSpace(in.Caption),
		PhotoRef:  strings.TrimSpace(in.PhotoRef),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.AuthorID)
}

func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments}, nil
}

// getOwnedPost loads a post and checks that userID wrote it.
func (s *PostService) getOwnedPost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, models.NewForbiddenError("You are not allowed to modify this post")
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.getOwnedPost(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := validatePostFields(in.Caption, in.Topic, in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	topicID, err := s.resolveTopic(ctx, in.Topic)
	if err != nil {
		return nil, err
	}

	post.Caption = strings.TrimSpace(in.Caption)
	post.TopicID = topicID
	if ref := strings.TrimSpace(in.PhotoRef); ref != "" {
		post.PhotoRef = ref
	}
	post.Latitude = in.Latitude
	post.Longitude = in.Longitude

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	if _, err := s.getOwnedPost(ctx, userID, postID); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, postID)
}

func (s *PostService) ListUserPosts(ctx context.Context, authorID, viewerID uint) ([]*models.Post, error) {
	return s.postRepo.ListByAuthor(ctx, authorID, viewerID)
}

// ToggleLike likes the post when the user has not liked it yet, and unlikes it otherwise.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (bool, int64, error) {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return false, 0, err
	}

	liked, count, err := s.postRepo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return false, 0, err
	}

	if liked {
		observability.LikeToggles.WithLabelValues("liked").Inc()
		if post.AuthorID != userID {
			publishEvent(ctx, s.events, post.AuthorID, notifications.EventPostLiked, map[string]interface{}{
				"post_id":     postID,
				"user_id":     userID,
				"likes_count": count,
			})
		}
	} else {
		observability.LikeToggles.WithLabelValues("unliked").Inc()
	}
	return liked, count, nil
}

// Unlike removes the user's like if present and returns the remaining count.
func (s *PostService) Unlike(ctx context.Context, userID, postID uint) (int64, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return 0, err
	}
	count, err := s.postRepo.Unlike(ctx, userID, postID)
	if err != nil {
		return 0, err
	}
	observability.LikeToggles.WithLabelValues("unliked").Inc()
	return count, nil
}

// ListTopics returns topics whose name contains query. The unfiltered list is cached.
func (s *PostService) ListTopics(ctx context.Context, query string, limit int) ([]models.Topic, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 || limit > defaultTopicListLimit {
		limit = defaultTopicListLimit
	}
	if query != "" || limit != defaultTopicListLimit {
		return s.topicRepo.List(ctx, query, limit)
	}

	var topics []models.Topic
	err := cache.Aside(ctx, cache.TopicListKey, &topics, cache.TopicListTTL, func() error {
		found, err := s.topicRepo.List(ctx, "", defaultTopicListLimit)
		if err != nil {
			return err
		}
		topics = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topics, nil
}
