package service

import (
	"context"
	"strings"
	"time"

	"geosocial/internal/models"
	"geosocial/internal/repository"
	"geosocial/internal/validation"
)

const profileCommentLimit = 20

type UserService struct {
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	topicRepo   repository.TopicRepository
}

// UpdateProfileInput carries the editable profile fields. Nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID    uint
	Email     *string
	Bio       *string
	Location  *string
	BirthDate *time.Time
}

// ProfilePage is everything shown on a user's page.
type ProfilePage struct {
	User     *models.User      `json:"user"`
	Posts    []*models.Post    `json:"posts"`
	Comments []*models.Comment `json:"comments"`
	Topics   []models.Topic    `json:"topics"`
}

func NewUserService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	topicRepo repository.TopicRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		topicRepo:   topicRepo,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.userRepo.Search(ctx, query, limit)
}

// GetProfilePage loads a user with their posts (newest first), recent comments and topics.
func (s *UserService) GetProfilePage(ctx context.Context, userID, viewerID uint) (*ProfilePage, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByAuthor(ctx, userID, viewerID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByAuthor(ctx, userID, profileCommentLimit)
	if err != nil {
		return nil, err
	}
	topics, err := s.topicRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfilePage{User: user, Posts: posts, Comments: comments, Topics: topics}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		user.Profile = &models.Profile{UserID: user.ID, ProfilePicture: models.DefaultProfilePicture}
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = email
	}
	if in.Bio != nil {
		if err := validation.ValidateText("bio", *in.Bio, validation.MaxBioLength, false); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Profile.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Location != nil {
		if err := validation.ValidateText("location", *in.Location, validation.MaxLocationLength, false); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Profile.Location = strings.TrimSpace(*in.Location)
	}
	if in.BirthDate != nil {
		if in.BirthDate.After(time.Now()) {
			return nil, models.NewValidationError("birth date cannot be in the future")
		}
		bd := *in.BirthDate
		user.Profile.BirthDate = &bd
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, user.ID)
}
