package service

import (
	"context"
	"testing"
	"time"

	"geosocial/internal/featureflags"
	"geosocial/internal/models"
	"geosocial/internal/repository"
	"geosocial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServices struct {
	db       *gorm.DB
	events   *recordingPublisher
	friends  *FriendService
	posts    *PostService
	comments *CommentService
	feed     *FeedService
	users    *UserService
	auth     *AuthService
}

func newTestServices(t *testing.T, flags string) *testServices {
	t.Helper()
	db := testutil.NewTestDB(t)

	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	events := &recordingPublisher{}

	friends := NewFriendService(friendRepo, userRepo, events)
	return &testServices{
		db:       db,
		events:   events,
		friends:  friends,
		posts:    NewPostService(postRepo, topicRepo, commentRepo, events),
		comments: NewCommentService(commentRepo, postRepo, events),
		feed:     NewFeedService(friends, postRepo, commentRepo, topicRepo, featureflags.NewManager(flags), "/media/"),
		users:    NewUserService(userRepo, postRepo, commentRepo, topicRepo),
		auth:     NewAuthService(userRepo, "test-secret-key-that-is-long-enough-1234"),
	}
}

func feedPostIDs(feed *Feed) []uint {
	ids := make([]uint, 0, len(feed.Posts))
	for _, p := range feed.Posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestScenario_FriendshipLifecycle(t *testing.T) {
	s := newTestServices(t, "")
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "anna")
	b := testutil.CreateUser(t, s.db, "ben")

	t.Run("double request yields one pending edge", func(t *testing.T) {
		_, created, err := s.friends.RequestFriendship(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.True(t, created)
		_, created, err = s.friends.RequestFriendship(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.False(t, created)

		var count int64
		require.NoError(t, s.db.Model(&models.Friendship{}).Where("status = ?", models.FriendshipStatusPending).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		status, _, err := s.friends.StatusBetween(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RelationPendingSent, status)
		status, _, err = s.friends.StatusBetween(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RelationPendingReceived, status)
	})

	t.Run("accept is symmetric", func(t *testing.T) {
		_, err := s.friends.Respond(ctx, a.ID, b.ID, FriendActionAccept)
		require.NoError(t, err)

		for _, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
			status, _, err := s.friends.StatusBetween(ctx, pair[0], pair[1])
			require.NoError(t, err)
			assert.Equal(t, models.RelationFriends, status)

			ids, err := s.friends.FriendIDsOf(ctx, pair[0])
			require.NoError(t, err)
			assert.Equal(t, []uint{pair[1]}, ids)
		}
	})

	t.Run("request after accept is a no-op", func(t *testing.T) {
		f, created, err := s.friends.RequestFriendship(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, models.FriendshipStatusAccepted, f.Status)
	})

	t.Run("remove unfriends both sides", func(t *testing.T) {
		require.NoError(t, s.friends.Remove(ctx, b.ID, a.ID))
		ids, err := s.friends.FriendIDsOf(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
		assertAppCode(t, s.friends.Remove(ctx, b.ID, a.ID), models.CodeNotFound)
	})

	assert.Contains(t, s.events.types(), "friend_request_received")
	assert.Contains(t, s.events.types(), "friend_request_accepted")
	assert.Contains(t, s.events.types(), "friend_removed")
}

func TestScenario_DeclineThenRequestAgain(t *testing.T) {
	s := newTestServices(t, "")
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "anna")
	b := testutil.CreateUser(t, s.db, "ben")

	_, _, err := s.friends.RequestFriendship(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = s.friends.Respond(ctx, a.ID, b.ID, FriendActionDecline)
	require.NoError(t, err)

	status, _, err := s.friends.StatusBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationNone, status)

	f, created, err := s.friends.RequestFriendship(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created, "a declined request leaves no stale row")
	assert.Equal(t, models.FriendshipStatusPending, f.Status)
	assert.Equal(t, a.ID, f.RequesterID)

	pending, err := s.friends.GetPendingRequests(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = s.friends.AcceptRequest(ctx, b.ID, pending[0].ID)
	require.NoError(t, err)
	friends, err := s.friends.GetFriends(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "ben", friends[0].Username)
}

func TestScenario_DeclineDoesNotUnfriend(t *testing.T) {
	s := newTestServices(t, "")
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "anna")
	b := testutil.CreateUser(t, s.db, "ben")
	testutil.MakeFriends(t, s.db, a, b)

	_, err := s.friends.Respond(ctx, a.ID, b.ID, FriendActionDecline)
	assertAppCode(t, err, models.CodeValidation)

	status, _, err := s.friends.StatusBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationFriends, status)

	require.NoError(t, s.friends.Remove(ctx, b.ID, a.ID))
	status, _, err = s.friends.StatusBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationNone, status)
}

func TestScenario_FeedVisibility(t *testing.T) {
	s := newTestServices(t, "")
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "anna")
	b := testutil.CreateUser(t, s.db, "ben")
	c := testutil.CreateUser(t, s.db, "cleo")

	_, _, err := s.friends.RequestFriendship(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = s.friends.Respond(ctx, a.ID, b.ID, FriendActionAccept)
	require.NoError(t, err)

	hello, err := s.posts.CreatePost(ctx, CreatePostInput{AuthorID: a.ID, Caption: "hello", Topic: "general"})
	require.NoError(t, err)
	assert.Equal(t, "general", hello.TopicName())
	cleoPost, err := s.posts.CreatePost(ctx, CreatePostInput{AuthorID: c.ID, Caption: "hello from the outside", Topic: "general"})
	require.NoError(t, err)
	benPost, err := s.posts.CreatePost(ctx, CreatePostInput{AuthorID: b.ID, Caption: "Mountain hike", Topic: "  "})
	require.NoError(t, err)
	assert.Nil(t, benPost.TopicID)

	feedB, err := s.feed.ResolveFeed(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Contains(t, feedPostIDs(feedB), hello.ID)
	assert.NotContains(t, feedPostIDs(feedB), cleoPost.ID)
	assert.Equal(t, len(feedB.Posts), feedB.Total)

	feedC, err := s.feed.ResolveFeed(ctx, c.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []uint{cleoPost.ID}, feedPostIDs(feedC))

	searched, err := s.feed.ResolveFeed(ctx, b.ID, "  GENERAL ")
	require.NoError(t, err)
	assert.Equal(t, []uint{hello.ID}, feedPostIDs(searched))

	byCaption, err := s.feed.ResolveFeed(ctx, a.ID, "hike")
	require.NoError(t, err)
	assert.Equal(t, []uint{benPost.ID}, feedPostIDs(byCaption))

	assert.LessOrEqual(t, len(feedB.Topics), feedTopicLimit)
}

func TestScenario_FeedActivity(t *testing.T) {
	s := newTestServices(t, "")
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "anna")
	c := testutil.CreateUser(t, s.db, "cleo")

	post, err := s.posts.CreatePost(ctx, CreatePostInput{AuthorID: a.ID, Caption: "busy thread"})
	require.NoError(t, err)
	strangerPost, err := s.posts.CreatePost(ctx, CreatePostInput{AuthorID: c.ID, Caption: "elsewhere"})
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	var latest uint
	for i := 0; i < 7; i++ {
		comment := &models.Comment{PostID: post.ID, AuthorID: c.ID, Text: "hi", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.db.Create(comment).Error)
		latest = comment.ID
	}
	require.NoError(t, s.db.Create(&models.Comment{PostID: strangerPost.ID, AuthorID: c.ID, Text: "not visible"}).Error)

	feed, err := s.feed.ResolveFeed(ctx, a.ID, "")
	require.NoError(t, err)
	require.Len(t, feed.Activity, feedActivityLimit)
	assert.Equal(t, latest, feed.Activity[0].ID)
	for i, comment := range feed.Activity {
		assert.Equal(t, post.ID, comment.PostID)
		if i > 0 {
			assert.False(t, comment.CreatedAt.After(feed.Activity[i-1].CreatedAt))
		}
	}

	off := newTestServices(t, "feed_activity=off")
	u := testutil.CreateUser(t, off.db, "solo")
	p, err := off.posts.CreatePost(ctx, CreatePostInput{AuthorID: u.ID, Caption: "quiet"})
	require.NoError(t, err)
	_, err = off.comments.CreateComment(ctx, CreateCommentInput{UserID: u.ID, PostID: p.ID, Text: "note"})
	require.NoError(t, err)
	quiet, err := off.feed.ResolveFeed(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Empty(t, quiet.Activity)
}

func TestScenario_LikesAndCascade(t *testing.T) {
	s := newTestServices(t, "")
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "anna")
	b := testutil.CreateUser(t, s.db, "ben")

	post, err := s.posts.CreatePost(ctx, CreatePostInput{AuthorID: a.ID, Caption: "like me"})
	require.NoError(t, err)

	liked, count, err := s.posts.ToggleLike(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)
	liked, count, err = s.posts.ToggleLike(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)

	_, _, err = s.posts.ToggleLike(ctx, b.ID, post.ID)
	require.NoError(t, err)
	count, err = s.posts.Unlike(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	count, err = s.posts.Unlike(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, _, err = s.posts.ToggleLike(ctx, b.ID, post.ID)
	require.NoError(t, err)
	comment, err := s.comments.CreateComment(ctx, CreateCommentInput{UserID: b.ID, PostID: post.ID, Text: " nice "})
	require.NoError(t, err)
	assert.Equal(t, "nice", comment.Text)
	assert.Equal(t, "ben", comment.Author.Username)

	detail, err := s.posts.GetPost(ctx, post.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, detail.Post.Liked)
	assert.Equal(t, 1, detail.Post.CommentsCount)
	require.Len(t, detail.Comments, 1)

	assertAppCode(t, s.comments.DeleteComment(ctx, a.ID, comment.ID), models.CodeForbidden)
	assertAppCode(t, s.posts.DeletePost(ctx, b.ID, post.ID), models.CodeForbidden)
	require.NoError(t, s.posts.DeletePost(ctx, a.ID, post.ID))

	_, err = s.posts.GetPost(ctx, post.ID, a.ID)
	assertAppCode(t, err, models.CodeNotFound)
	_, err = s.comments.ListComments(ctx, post.ID)
	assertAppCode(t, err, models.CodeNotFound)

	var likes, comments int64
	require.NoError(t, s.db.Model(&models.Like{}).Count(&likes).Error)
	require.NoError(t, s.db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Zero(t, comments)

	assert.Contains(t, s.events.types(), "post_liked")
	assert.Contains(t, s.events.types(), "comment_created")
}

func TestScenario_UpdatePost(t *testing.T) {
	s := newTestServices(t, "")
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "anna")

	lat, lon := 24.8138, 120.9675
	post, err := s.posts.CreatePost(ctx, CreatePostInput{AuthorID: a.ID, Caption: "v1", Topic: "travel", PhotoRef: "photos/a.jpg", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)

	updated, err := s.posts.UpdatePost(ctx, UpdatePostInput{UserID: a.ID, PostID: post.ID, Caption: "v2", Topic: "food"})
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Caption)
	assert.Equal(t, "food", updated.TopicName())
	assert.Equal(t, "photos/a.jpg", updated.PhotoRef)
	assert.False(t, updated.HasLocation())

	topics, err := s.posts.ListTopics(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, topics, 2)
	filtered, err := s.posts.ListTopics(ctx, "FO", 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "food", filtered[0].Name)
}

func TestScenario_MapProjection(t *testing.T) {
	s := newTestServices(t, "")
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "anna")
	c := testutil.CreateUser(t, s.db, "cleo")

	lat, lon := 24.8138, 120.9675
	pinned, err := s.posts.CreatePost(ctx, CreatePostInput{AuthorID: c.ID, Caption: "view", PhotoRef: "photos/v.jpg", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, CreatePostInput{AuthorID: a.ID, Caption: "nowhere"})
	require.NoError(t, err)
	_, err = s.comments.CreateComment(ctx, CreateCommentInput{UserID: a.ID, PostID: pinned.ID, Text: "wow"})
	require.NoError(t, err)

	s.feed.now = func() time.Time { return pinned.CreatedAt.Add(3 * time.Hour) }

	pins, err := s.feed.ListGeotaggedPosts(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, pins, 1)
	pin := pins[0]
	assert.Equal(t, pinned.ID, pin.ID)
	assert.Equal(t, MapAuthor{ID: c.ID, Username: "cleo"}, pin.Author)
	assert.Equal(t, "", pin.Topic)
	assert.Equal(t, 1, pin.CommentsCount)
	assert.Equal(t, "3 hours ago", pin.CreatedAgo)
	assert.Equal(t, "/media/photos/v.jpg", pin.PhotoURL)
	assert.Equal(t, lat, pin.Lat)
	assert.Equal(t, lon, pin.Lon)

	gated := newTestServices(t, "map_friend_gating=on")
	ga := testutil.CreateUser(t, gated.db, "anna")
	gc := testutil.CreateUser(t, gated.db, "cleo")
	_, err = gated.posts.CreatePost(ctx, CreatePostInput{AuthorID: gc.ID, Caption: "hidden", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	mine, err := gated.posts.CreatePost(ctx, CreatePostInput{AuthorID: ga.ID, Caption: "mine", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)

	gatedPins, err := gated.feed.ListGeotaggedPosts(ctx, ga.ID)
	require.NoError(t, err)
	require.Len(t, gatedPins, 1)
	assert.Equal(t, mine.ID, gatedPins[0].ID)
}

func TestFeedServicePhotoURL(t *testing.T) {
	svc := &FeedService{mediaBaseURL: "https://cdn.example.com/media/"}
	assert.Equal(t, "", svc.PhotoURL(""))
	assert.Equal(t, "https://cdn.example.com/media/a.jpg", svc.PhotoURL("/a.jpg"))
	assert.Equal(t, "https://elsewhere/b.jpg", svc.PhotoURL("https://elsewhere/b.jpg"))
}

func TestScenario_AuthAndProfile(t *testing.T) {
	s := newTestServices(t, "")
	ctx := context.Background()

	res, err := s.auth.Register(ctx, RegisterInput{Username: "  Dora ", Email: "dora@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "dora", res.User.Username)
	assert.Equal(t, res.User.ID, res.Claims.UserID)

	_, err = s.auth.Register(ctx, RegisterInput{Username: "DORA", Password: "correct-horse"})
	assertAppCode(t, err, models.CodeValidation)
	_, err = s.auth.Register(ctx, RegisterInput{Username: "eve", Password: "12345678"})
	assertAppCode(t, err, models.CodeValidation)

	login, err := s.auth.Login(ctx, "DORA", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, wrongPassword := s.auth.Login(ctx, "dora", "wrong-password")
	_, unknownUser := s.auth.Login(ctx, "nobody", "wrong-password")
	assertAppCode(t, wrongPassword, models.CodeUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	assert.Contains(t, wrongPassword.Error(), "Invalid username or password")

	require.NoError(t, s.auth.Logout(ctx, login.Claims))

	bio, loc := "hi there", "Hsinchu"
	birth := time.Date(1995, 5, 17, 0, 0, 0, 0, time.UTC)
	user, err := s.users.UpdateProfile(ctx, UpdateProfileInput{UserID: res.User.ID, Bio: &bio, Location: &loc, BirthDate: &birth})
	require.NoError(t, err)
	require.NotNil(t, user.Profile)
	assert.Equal(t, "hi there", user.Profile.Bio)
	assert.Equal(t, "Hsinchu", user.Profile.Location)
	assert.Equal(t, "dora@example.com", user.Email)

	future := time.Now().Add(48 * time.Hour)
	_, err = s.users.UpdateProfile(ctx, UpdateProfileInput{UserID: res.User.ID, BirthDate: &future})
	assertAppCode(t, err, models.CodeValidation)

	_, err = s.posts.CreatePost(ctx, CreatePostInput{AuthorID: res.User.ID, Caption: "first", Topic: "intro"})
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, CreatePostInput{AuthorID: res.User.ID, Caption: "second", Topic: "intro"})
	require.NoError(t, err)

	page, err := s.users.GetProfilePage(ctx, res.User.ID, 0)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "second", page.Posts[0].Caption)
	require.Len(t, page.Topics, 1)
	assert.Equal(t, "intro", page.Topics[0].Name)
	assert.Empty(t, page.Comments)

	_, err = s.users.GetProfilePage(ctx, 999, 0)
	assertAppCode(t, err, models.CodeNotFound)

	found, err := s.users.SearchUsers(ctx, "DO", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	_, err = s.users.SearchUsers(ctx, " ", 10)
	assertAppCode(t, err, models.CodeValidation)
}
