package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"geosocial/internal/config"
	"geosocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConnectSQLiteMigrates(t *testing.T) {
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}
	db, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	for _, table := range []string{"users", "profiles", "topics", "posts", "comments", "likes", "friendships"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Friendship{}, "idx_friendship_pair"))
	assert.True(t, db.Migrator().HasIndex(&models.Like{}, "idx_like_post_user"))
	// computed columns never reach the schema
	assert.False(t, db.Migrator().HasColumn(&models.Post{}, "likes_count"))
}

func TestMigrateBackfillsFoldedSearchColumns(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))

	user := &models.User{Username: "zoe", Password: "hash"}
	require.NoError(t, db.Create(user).Error)
	topic := &models.Topic{Name: "Café"}
	require.NoError(t, db.Create(topic).Error)
	post := &models.Post{AuthorID: user.ID, TopicID: &topic.ID, Caption: "ÉCLAIR day"}
	require.NoError(t, db.Create(post).Error)

	// rows written before the folded columns existed
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumn("caption_folded", "").Error)
	require.NoError(t, db.Model(&models.Topic{}).Where("id = ?", topic.ID).UpdateColumn("name_folded", "").Error)

	require.NoError(t, Migrate(db))

	var gotPost models.Post
	require.NoError(t, db.First(&gotPost, post.ID).Error)
	assert.Equal(t, "éclair day", gotPost.CaptionFolded)
	var gotTopic models.Topic
	require.NoError(t, db.First(&gotTopic, topic.ID).Error)
	assert.Equal(t, "café", gotTopic.NameFolded)
}

func TestDialectorSelection(t *testing.T) {
	assert.Equal(t, "sqlite", Dialector(&config.Config{DBDriver: "sqlite"}).Name())
	assert.Equal(t, "postgres", Dialector(&config.Config{DBDriver: "postgres"}).Name())
}

func TestGormLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)), logger.Warn)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT boom", 0 }, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT slow", 1 }, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	silent := l.LogMode(logger.Silent)
	buf.Reset()
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "x", 0 }, errors.New("boom"))
	assert.Empty(t, buf.String())
}
