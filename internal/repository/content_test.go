package repository

import (
	"context"
	"testing"
	"time"

	"geosocial/internal/models"
	"geosocial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Ordering(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	p1 := testutil.CreatePost(t, db, alice, "one", "")
	p2 := testutil.CreatePost(t, db, alice, "two", "")

	base := time.Now().Add(-time.Hour)
	var created []*models.Comment
	for i := 0; i < 7; i++ {
		post := p1
		if i%2 == 1 {
			post = p2
		}
		c := &models.Comment{PostID: post.ID, AuthorID: bob.ID, Text: "c", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, c))
		created = append(created, c)
	}

	onP1, err := repo.ListByPost(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, onP1, 4)
	for i := 1; i < len(onP1); i++ {
		assert.True(t, !onP1[i].CreatedAt.Before(onP1[i-1].CreatedAt), "oldest first")
	}
	assert.Equal(t, "bob", onP1[0].Author.Username)

	recent, err := repo.RecentOnPosts(ctx, []uint{p1.ID, p2.ID}, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, created[6].ID, recent[0].ID)
	assert.Equal(t, created[2].ID, recent[4].ID)

	onlyP2, err := repo.RecentOnPosts(ctx, []uint{p2.ID}, 5)
	require.NoError(t, err)
	assert.Len(t, onlyP2, 3)

	empty, err := repo.RecentOnPosts(ctx, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	byBob, err := repo.ListByAuthor(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.Len(t, byBob, 7)

	require.NoError(t, repo.Delete(ctx, created[0].ID))
	assert.True(t, models.IsCode(repo.Delete(ctx, created[0].ID), models.CodeNotFound))
	_, err = repo.GetByID(ctx, created[0].ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestTopicRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTopicRepository(db)
	ctx := context.Background()

	general, err := repo.GetOrCreate(ctx, "general")
	require.NoError(t, err)
	again, err := repo.GetOrCreate(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, general.ID, again.ID)

	// duplicates created elsewhere resolve to the oldest one
	require.NoError(t, db.Create(&models.Topic{Name: "general"}).Error)
	oldest, err := repo.GetOrCreate(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, general.ID, oldest.ID)

	_, err = repo.GetOrCreate(ctx, "Travel")
	require.NoError(t, err)

	found, err := repo.List(ctx, "TRAV", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Travel", found[0].Name)

	_, err = repo.GetOrCreate(ctx, "Ölfest")
	require.NoError(t, err)
	found, err = repo.List(ctx, "öLF", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ölfest", found[0].Name)

	limited, err := repo.List(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	alice := testutil.CreateUser(t, db, "alice")
	testutil.CreatePost(t, db, alice, "x", "Travel")
	testutil.CreatePost(t, db, alice, "y", "")
	mine, err := repo.ListByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Travel", mine[0].Name)
}

func TestUserRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "Alice", Email: "a@example.com", Password: "hash"}
	require.NoError(t, repo.CreateWithProfile(ctx, user))
	assert.Equal(t, "alice", user.Username)
	require.NotNil(t, user.Profile)
	assert.Equal(t, models.DefaultProfilePicture, user.Profile.ProfilePicture)

	dup := &models.User{Username: "ALICE", Password: "hash"}
	assert.True(t, models.IsCode(repo.CreateWithProfile(ctx, dup), models.CodeValidation))

	got, err := repo.GetByUsername(ctx, " aLiCe ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	missing, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.Profile)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	byID.Email = "new@example.com"
	byID.Profile.Bio = "hello"
	byID.Profile.Location = "Hsinchu"
	require.NoError(t, repo.UpdateProfile(ctx, byID))

	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", reloaded.Email)
	assert.Equal(t, "hello", reloaded.Profile.Bio)
	assert.Equal(t, "Hsinchu", reloaded.Profile.Location)

	exists, err := repo.Exists(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.Exists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, exists)

	testutil.CreateUser(t, db, "alicia")
	testutil.CreateUser(t, db, "bob")
	users, err := repo.Search(ctx, "ALI", 10)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
