package service

import (
	"context"
	"strings"
	"time"

	"geosocial/internal/featureflags"
	"geosocial/internal/models"
	"geosocial/internal/observability"
	"geosocial/internal/repository"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
)

const (
	feedActivityLimit = 5
	feedTopicLimit    = 5
)

// FriendIDsProvider resolves the accepted friends of a user.
type FriendIDsProvider interface {
	FriendIDsOf(ctx context.Context, userID uint) ([]uint, error)
}

// Feed is what a viewer sees on the home page.
type Feed struct {
	Posts    []*models.Post    `json:"posts"`
	Total    int               `json:"total"`
	Activity []*models.Comment `json:"activity"`
	Topics   []models.Topic    `json:"topics"`
}

// MapAuthor identifies the author of a map pin.
type MapAuthor struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// MapPin is the map projection of a geotagged post.
type MapPin struct {
	ID            uint      `json:"id"`
	Author        MapAuthor `json:"author"`
	Caption       string    `json:"caption"`
	Topic         string    `json:"topic"`
	CommentsCount int       `json:"comments_count"`
	CreatedAgo    string    `json:"created_ago"`
	PhotoURL      string    `json:"photo_url"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
}

type FeedService struct {
	friends      FriendIDsProvider
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	topicRepo    repository.TopicRepository
	flags        *featureflags.Manager
	mediaBaseURL string
	now          func() time.Time
}

func NewFeedService(
	friends FriendIDsProvider,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	topicRepo repository.TopicRepository,
	flags *featureflags.Manager,
	mediaBaseURL string,
) *FeedService {
	return &FeedService{
		friends:      friends,
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		topicRepo:    topicRepo,
		flags:        flags,
		mediaBaseURL: mediaBaseURL,
		now:          time.Now,
	}
}

// allowedAuthors is the viewer plus everyone they are friends with.
func (s *FeedService) allowedAuthors(ctx context.Context, viewerID uint) ([]uint, error) {
	friendIDs, err := s.friends.FriendIDsOf(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	allowed := make([]uint, 0, len(friendIDs)+1)
	allowed = append(allowed, viewerID)
	for _, id := range friendIDs {
		if id != viewerID {
			allowed = append(allowed, id)
		}
	}
	return allowed, nil
}

// ResolveFeed returns the posts visible to viewerID, newest first, optionally narrowed
// to posts whose topic name or caption contains term.
func (s *FeedService) ResolveFeed(ctx context.Context, viewerID uint, term string) (feed *Feed, err error) {
	term = strings.TrimSpace(term)
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "service", "ResolveFeed",
		attribute.Int("viewer_id", int(viewerID)),
		attribute.Bool("search", term != ""),
	)
	defer func() {
		span.End(err)
		observability.ObserveFeed(term != "", start)
	}()

	allowed, err := s.allowedAuthors(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListFeed(ctx, repository.FeedQuery{
		AuthorIDs: allowed,
		Term:      term,
		ViewerID:  viewerID,
	})
	if err != nil {
		return nil, err
	}

	activity := []*models.Comment{}
	if len(posts) > 0 && s.flags.Enabled(featureflags.FeedActivity, viewerID) {
		postIDs := make([]uint, 0, len(posts))
		for _, p := range posts {
			postIDs = append(postIDs, p.ID)
		}
		activity, err = s.commentRepo.RecentOnPosts(ctx, postIDs, feedActivityLimit)
		if err != nil {
			return nil, err
		}
	}

	topics, err := s.topicRepo.List(ctx, "", feedTopicLimit)
	if err != nil {
		return nil, err
	}

	span.AddAttributes(attribute.Int("posts", len(posts)))
	return &Feed{
		Posts:    posts,
		Total:    len(posts),
		Activity: activity,
		Topics:   topics,
	}, nil
}

// ListGeotaggedPosts projects every post with coordinates into a map pin.
// With map_friend_gating on, only the viewer's and their friends' posts are returned.
func (s *FeedService) ListGeotaggedPosts(ctx context.Context, viewerID uint) ([]MapPin, error) {
	ctx, span := observability.StartSpan(ctx, "service", "ListGeotaggedPosts")

	var authorIDs []uint
	if s.flags.Enabled(featureflags.MapFriendGating, viewerID) {
		allowed, err := s.allowedAuthors(ctx, viewerID)
		if err != nil {
			span.End(err)
			return nil, err
		}
		authorIDs = allowed
	}

	posts, err := s.postRepo.ListGeotagged(ctx, authorIDs)
	span.End(err)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pins := make([]MapPin, 0, len(posts))
	for _, p := range posts {
		if !p.HasLocation() {
			continue
		}
		pins = append(pins, MapPin{
			ID:            p.ID,
			Author:        MapAuthor{ID: p.AuthorID, Username: p.Author.Username},
			Caption:       p.Caption,
			Topic:         p.TopicName(),
			CommentsCount: p.CommentsCount,
			CreatedAgo:    humanize.RelTime(p.CreatedAt, now, "ago", "from now"),
			PhotoURL:      s.PhotoURL(p.PhotoRef),
			Lat:           *p.Latitude,
			Lon:           *p.Longitude,
		})
	}
	return pins, nil
}

// PhotoURL resolves a stored photo reference against the media base URL.
func (s *FeedService) PhotoURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimSuffix(s.mediaBaseURL, "/") + "/" + strings.TrimPrefix(ref, "/")
}
