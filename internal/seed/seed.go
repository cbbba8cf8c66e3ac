package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log"
	"sort"

	"geosocial/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed presets.yaml
var builtinPresets []byte

// Point is a latitude/longitude pair.
type Point struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Options controls the size and shape of the seeded data.
type Options struct {
	Users              int      `yaml:"users"`
	Posts              int      `yaml:"posts"`
	FriendRatio        float64  `yaml:"friend_ratio"`
	PendingRatio       float64  `yaml:"pending_ratio"`
	GeotagRatio        float64  `yaml:"geotag_ratio"`
	MaxCommentsPerPost int      `yaml:"max_comments_per_post"`
	MaxLikesPerPost    int      `yaml:"max_likes_per_post"`
	MaxDays            int      `yaml:"max_days"`
	Center             Point    `yaml:"center"`
	RadiusKm           float64  `yaml:"radius_km"`
	Topics             []string `yaml:"topics"`
	BatchSize          int      `yaml:"batch_size"`
	SkipBcrypt         bool     `yaml:"skip_bcrypt"`
	RandSeed           int64    `yaml:"rand_seed"`
}

// LoadPresets decodes a YAML document mapping preset names to Options.
func LoadPresets(r io.Reader) (map[string]Options, error) {
	presets := map[string]Options{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&presets); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	return presets, nil
}

// BuiltinPresets returns the presets shipped with the binary.
func BuiltinPresets() (map[string]Options, error) {
	return LoadPresets(bytes.NewReader(builtinPresets))
}

// Preset looks up a preset by name in presets.
func Preset(presets map[string]Options, name string) (Options, error) {
	opts, ok := presets[name]
	if !ok {
		names := make([]string, 0, len(presets))
		for n := range presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return Options{}, fmt.Errorf("unknown preset %q (available: %v)", name, names)
	}
	return opts, nil
}

// Result counts what a seeding run created.
type Result struct {
	Users       int
	Friendships int
	Posts       int
	Comments    int
	Likes       int
}

// Seeder populates a database with a fake social mesh.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder returns a Seeder. A zero Center falls back to defaultCenter.
func NewSeeder(db *gorm.DB, opts Options, defaultCenter Point) (*Seeder, error) {
	if opts.Center == (Point{}) {
		opts.Center = defaultCenter
	}
	if len(opts.Topics) == 0 {
		opts.Topics = []string{"general"}
	}
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: factory}, nil
}

// ClearAll removes every seeded row, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.Like{}, &models.Comment{}, &models.Post{}, &models.Topic{},
			&models.Friendship{}, &models.Profile{}, &models.User{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Run seeds users, their relations, and posts with engagement.
func (s *Seeder) Run() (*Result, error) {
	res := &Result{}

	users, err := s.SeedSocialMesh(res)
	if err != nil {
		return res, fmt.Errorf("social mesh: %w", err)
	}
	if err := s.SeedEngagement(users, res); err != nil {
		return res, fmt.Errorf("engagement: %w", err)
	}
	return res, nil
}

// SeedSocialMesh creates opts.Users users and links pairs as friends or pending requests.
func (s *Seeder) SeedSocialMesh(res *Result) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			// faker usernames can collide; skip the duplicate
			log.Printf("skip user: %v", err)
			continue
		}
		users = append(users, user)
	}
	res.Users = len(users)
	log.Printf("✓ %d users created", res.Users)

	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			roll := s.factory.rng.Float64()
			var status models.FriendshipStatus
			switch {
			case roll < s.opts.FriendRatio:
				status = models.FriendshipStatusAccepted
			case roll < s.opts.FriendRatio+s.opts.PendingRatio:
				status = models.FriendshipStatusPending
			default:
				continue
			}
			requester, addressee := users[i], users[j]
			if s.factory.rng.Intn(2) == 0 {
				requester, addressee = addressee, requester
			}
			if err := s.factory.CreateFriendship(requester, addressee, status); err != nil {
				return nil, err
			}
			res.Friendships++
		}
	}
	log.Printf("✓ %d friendships created", res.Friendships)
	return users, nil
}

// SeedEngagement creates opts.Posts posts across users with comments and likes.
func (s *Seeder) SeedEngagement(users []*models.User, res *Result) error {
	if len(users) == 0 || s.opts.Posts <= 0 {
		return nil
	}

	topics := make([]*models.Topic, 0, len(s.opts.Topics))
	for _, name := range s.opts.Topics {
		topic, err := s.factory.Topic(name)
		if err != nil {
			return err
		}
		topics = append(topics, topic)
	}

	rng := s.factory.rng
	posts := make([]*models.Post, 0, s.opts.Posts)
	for i := 0; i < s.opts.Posts; i++ {
		var topic *models.Topic
		if rng.Float64() < 0.8 {
			topic = topics[rng.Intn(len(topics))]
		}
		posts = append(posts, s.factory.BuildPost(users[rng.Intn(len(users))], topic))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return err
	}
	res.Posts = len(posts)
	log.Printf("✓ %d posts created", res.Posts)

	for _, post := range posts {
		if s.opts.MaxCommentsPerPost > 0 {
			for n := rng.Intn(s.opts.MaxCommentsPerPost + 1); n > 0; n-- {
				if _, err := s.factory.CreateComment(users[rng.Intn(len(users))], post); err != nil {
					return err
				}
				res.Comments++
			}
		}
		if s.opts.MaxLikesPerPost > 0 {
			for _, idx := range rng.Perm(len(users))[:min(len(users), rng.Intn(s.opts.MaxLikesPerPost+1))] {
				if err := s.factory.CreateLike(users[idx], post); err != nil {
					return err
				}
				res.Likes++
			}
		}
	}
	log.Printf("✓ %d comments and %d likes created", res.Comments, res.Likes)
	return nil
}
