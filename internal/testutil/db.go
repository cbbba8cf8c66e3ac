// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"geosocial/internal/database"
	"geosocial/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with the full schema.
// The pool is pinned to one connection so every query sees the same memory DB.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with a profile. The password is "password123".
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		Profile:  &models.Profile{ProfilePicture: models.DefaultProfilePicture},
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

// CreatePost inserts a post, resolving topic by name when non-empty.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, caption, topic string) *models.Post {
	t.Helper()

	post := &models.Post{AuthorID: author.ID, Caption: caption}
	if topic != "" {
		tp := &models.Topic{Name: topic}
		if err := db.Where("name = ?", topic).FirstOrCreate(tp).Error; err != nil {
			t.Fatalf("topic %s: %v", topic, err)
		}
		post.TopicID = &tp.ID
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

// MakeFriends stores an accepted friendship between a and b.
func MakeFriends(t *testing.T, db *gorm.DB, a, b *models.User) {
	t.Helper()

	f := &models.Friendship{RequesterID: a.ID, AddresseeID: b.ID, Status: models.FriendshipStatusAccepted}
	if err := db.Create(f).Error; err != nil {
		t.Fatalf("friendship: %v", err)
	}
}
