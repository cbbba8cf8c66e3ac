package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"geosocial/internal/models"
	"geosocial/internal/repository"
)

type friendRepoStub struct {
	createPendingFn      func(context.Context, uint, uint) (*models.Friendship, bool, error)
	getByIDFn            func(context.Context, uint) (*models.Friendship, error)
	getBetweenFn         func(context.Context, uint, uint) (*models.Friendship, error)
	acceptPendingFn      func(context.Context, uint) (bool, error)
	deletePendingFn      func(context.Context, uint) (bool, error)
	deleteBetweenFn      func(context.Context, uint, uint) (bool, error)
	friendIDsFn          func(context.Context, uint) ([]uint, error)
	getFriendsFn         func(context.Context, uint) ([]models.User, error)
	getPendingRequestsFn func(context.Context, uint) ([]models.Friendship, error)
	getSentRequestsFn    func(context.Context, uint) ([]models.Friendship, error)
}

func (s *friendRepoStub) CreatePending(ctx context.Context, from, to uint) (*models.Friendship, bool, error) {
	return s.createPendingFn(ctx, from, to)
}
func (s *friendRepoStub) GetByID(ctx context.Context, id uint) (*models.Friendship, error) {
	return s.getByIDFn(ctx, id)
}
func (s *friendRepoStub) GetBetween(ctx context.Context, a, b uint) (*models.Friendship, error) {
	return s.getBetweenFn(ctx, a, b)
}
func (s *friendRepoStub) AcceptPending(ctx context.Context, id uint) (bool, error) {
	return s.acceptPendingFn(ctx, id)
}
func (s *friendRepoStub) DeletePending(ctx context.Context, id uint) (bool, error) {
	return s.deletePendingFn(ctx, id)
}
func (s *friendRepoStub) DeleteBetween(ctx context.Context, a, b uint) (bool, error) {
	return s.deleteBetweenFn(ctx, a, b)
}
func (s *friendRepoStub) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.friendIDsFn(ctx, userID)
}
func (s *friendRepoStub) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.getFriendsFn(ctx, userID)
}
func (s *friendRepoStub) GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.getPendingRequestsFn(ctx, userID)
}
func (s *friendRepoStub) GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.getSentRequestsFn(ctx, userID)
}

type userRepoStub struct {
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByUsernameFn     func(context.Context, string) (*models.User, error)
	createWithProfileFn func(context.Context, *models.User) error
	updateProfileFn     func(context.Context, *models.User) error
	searchFn            func(context.Context, string, int) ([]models.User, error)
	existsFn            func(context.Context, uint) (bool, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) CreateWithProfile(ctx context.Context, user *models.User) error {
	return s.createWithProfileFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	return s.updateProfileFn(ctx, user)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit int) ([]models.User, error) {
	return s.searchFn(ctx, q, limit)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}

type postRepoStub struct {
	repository.PostRepository
	getByIDFn    func(context.Context, uint, uint) (*models.Post, error)
	toggleLikeFn func(context.Context, uint, uint) (bool, int64, error)
	deleteFn     func(context.Context, uint) error
	updateFn     func(context.Context, *models.Post) error
}

func (s *postRepoStub) GetByID(ctx context.Context, id, viewer uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewer)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, userID, postID uint) (bool, int64, error) {
	return s.toggleLikeFn(ctx, userID, postID)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}

type publishedEvent struct {
	userID    uint
	eventType string
	payload   map[string]interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, userID uint, eventType string, payload map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID: userID, eventType: eventType, payload: payload})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:           func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn:     func(context.Context, string) (*models.User, error) { return nil, nil },
		createWithProfileFn: func(context.Context, *models.User) error { return nil },
		updateProfileFn:     func(context.Context, *models.User) error { return nil },
		searchFn:            func(context.Context, string, int) ([]models.User, error) { return nil, nil },
		existsFn:            func(context.Context, uint) (bool, error) { return true, nil },
	}
}

func noopFriendRepo() *friendRepoStub {
	return &friendRepoStub{
		createPendingFn: func(_ context.Context, from, to uint) (*models.Friendship, bool, error) {
			return &models.Friendship{ID: 1, RequesterID: from, AddresseeID: to, Status: models.FriendshipStatusPending}, true, nil
		},
		getByIDFn:            func(context.Context, uint) (*models.Friendship, error) { return &models.Friendship{}, nil },
		getBetweenFn:         func(context.Context, uint, uint) (*models.Friendship, error) { return nil, nil },
		acceptPendingFn:      func(context.Context, uint) (bool, error) { return true, nil },
		deletePendingFn:      func(context.Context, uint) (bool, error) { return true, nil },
		deleteBetweenFn:      func(context.Context, uint, uint) (bool, error) { return true, nil },
		friendIDsFn:          func(context.Context, uint) ([]uint, error) { return nil, nil },
		getFriendsFn:         func(context.Context, uint) ([]models.User, error) { return nil, nil },
		getPendingRequestsFn: func(context.Context, uint) ([]models.Friendship, error) { return nil, nil },
		getSentRequestsFn:    func(context.Context, uint) ([]models.Friendship, error) { return nil, nil },
	}
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %s app error, got %#v", code, err)
	}
}
