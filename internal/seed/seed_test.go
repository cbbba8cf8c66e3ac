package seed

import (
	"math"
	"strings"
	"testing"

	"geosocial/internal/models"
	"geosocial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hsinchu = Point{Lat: 24.8138, Lon: 120.9675}

func TestBuiltinPresets(t *testing.T) {
	presets, err := BuiltinPresets()
	require.NoError(t, err)

	small, err := Preset(presets, "small")
	require.NoError(t, err)
	assert.Equal(t, 8, small.Users)
	assert.Contains(t, small.Topics, "general")

	_, err = Preset(presets, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city")
}

func TestLoadPresets_RejectsUnknownFields(t *testing.T) {
	_, err := LoadPresets(strings.NewReader("tiny:\n  users: 2\n  colour: blue\n"))
	assert.Error(t, err)

	presets, err := LoadPresets(strings.NewReader("tiny:\n  users: 2\n  center: {lat: 1.5, lon: 2.5}\n"))
	require.NoError(t, err)
	assert.Equal(t, Point{Lat: 1.5, Lon: 2.5}, presets["tiny"].Center)
}

func TestScatterStaysWithinRadius(t *testing.T) {
	f, err := NewFactory(nil, Options{SkipBcrypt: true, RandSeed: 7})
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		lat, lon := f.scatter(hsinchu.Lat, hsinchu.Lon, 10)
		dLat := (lat - hsinchu.Lat) * 111.32
		dLon := (lon - hsinchu.Lon) * 111.32 * math.Cos(hsinchu.Lat*math.Pi/180)
		assert.LessOrEqual(t, math.Hypot(dLat, dLon), 10.001)
	}
}

func TestSeederRun(t *testing.T) {
	db := testutil.NewTestDB(t)

	seeder, err := NewSeeder(db, Options{
		Users:              6,
		Posts:              20,
		FriendRatio:        0.5,
		PendingRatio:       0.2,
		GeotagRatio:        1,
		MaxCommentsPerPost: 2,
		MaxLikesPerPost:    3,
		MaxDays:            10,
		RadiusKm:           3,
		Topics:             []string{"general", "food"},
		SkipBcrypt:         true,
		RandSeed:           42,
	}, hsinchu)
	require.NoError(t, err)

	res, err := seeder.Run()
	require.NoError(t, err)
	assert.Equal(t, 20, res.Posts)
	assert.Positive(t, res.Users)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 20)
	for _, p := range posts {
		require.True(t, p.HasLocation())
		assert.InDelta(t, hsinchu.Lat, *p.Latitude, 0.05)
	}

	var comments, likes, friendships, profiles int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	require.NoError(t, db.Model(&models.Friendship{}).Count(&friendships).Error)
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(res.Comments), comments)
	assert.Equal(t, int64(res.Likes), likes)
	assert.Equal(t, int64(res.Friendships), friendships)
	assert.Equal(t, int64(res.Users), profiles)

	require.NoError(t, seeder.ClearAll())
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
