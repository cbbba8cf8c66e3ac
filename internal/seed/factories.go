// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"geosocial/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	rng   *rand.Rand
	hash  string
}

// NewFactory creates a Factory bound to db. A non-zero opts.RandSeed makes output repeatable.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	hash := DefaultPassword
	if !opts.SkipBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hash = string(b)
	}

	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(seed),
		//nolint:gosec // Weak random number generator is fine for seeding
		rng:  rand.New(rand.NewSource(seed)),
		hash: hash,
	}, nil
}

// CreateUser persists a user with a profile. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := fmt.Sprintf("%s%d", f.faker.FirstName(), f.faker.Number(100, 9999))
	if len(username) > 30 {
		username = username[:30]
	}
	user := &models.User{
		Username: username,
		Email:    f.faker.Email(),
		Password: f.hash,
		Profile: &models.Profile{
			Bio:            f.faker.Sentence(10),
			Location:       f.faker.City(),
			ProfilePicture: models.DefaultProfilePicture,
		},
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Topic returns the oldest topic with name, creating it when missing.
func (f *Factory) Topic(name string) (*models.Topic, error) {
	var topic models.Topic
	err := f.db.Where("name = ?", name).Order("id ASC").
		Attrs(models.Topic{Name: name}).
		FirstOrCreate(&topic).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// BuildPost constructs a post for author without persisting it.
// The post is backdated up to opts.MaxDays and, with probability
// opts.GeotagRatio, placed within opts.RadiusKm of opts.Center.
func (f *Factory) BuildPost(author *models.User, topic *models.Topic) *models.Post {
	post := &models.Post{
		AuthorID: author.ID,
		Caption:  f.faker.Sentence(f.rng.Intn(12) + 4),
	}
	if topic != nil {
		post.TopicID = &topic.ID
	}
	if f.rng.Float64() < 0.5 {
		post.PhotoRef = fmt.Sprintf("photos/%s.jpg", f.faker.UUID())
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays*24*60)) * time.Minute
	post.CreatedAt = time.Now().Add(-back)

	if f.rng.Float64() < f.opts.GeotagRatio {
		lat, lon := f.scatter(f.opts.Center.Lat, f.opts.Center.Lon, f.opts.RadiusKm)
		post.Latitude = &lat
		post.Longitude = &lon
	}
	return post
}

// scatter picks a point uniformly within radiusKm of the center.
func (f *Factory) scatter(lat, lon, radiusKm float64) (float64, float64) {
	const kmPerDegree = 111.32
	r := radiusKm * math.Sqrt(f.rng.Float64())
	theta := f.rng.Float64() * 2 * math.Pi
	dLat := r * math.Cos(theta) / kmPerDegree
	dLon := r * math.Sin(theta) / (kmPerDegree * math.Cos(lat*math.Pi/180))
	return clamp(lat+dLat, -90, 90), clamp(lon+dLon, -180, 180)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// CreatePostsBatch persists posts in one statement per batch.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.Omit(clause.Associations).CreateInBatches(posts, batch).Error
}

// CreateComment persists a comment by author on post.
func (f *Factory) CreateComment(author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Text:      f.faker.Sentence(f.rng.Intn(10) + 3),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rng.Intn(72*60)+1) * time.Minute),
	}
	if comment.CreatedAt.After(time.Now()) {
		comment.CreatedAt = time.Now()
	}
	if err := f.db.Omit(clause.Associations).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post; repeats are ignored.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error
}

// CreateFriendship persists the relation between requester and addressee.
func (f *Factory) CreateFriendship(requester, addressee *models.User, status models.FriendshipStatus) error {
	friendship := &models.Friendship{
		RequesterID: requester.ID,
		AddresseeID: addressee.ID,
		Status:      status,
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(friendship).Error
}
