// Command main runs the database seeder for Geosocial.
package main

import (
	"flag"
	"log"
	"os"

	"geosocial/internal/config"
	"geosocial/internal/database"
	"geosocial/internal/seed"
)

func main() {
	preset := flag.String("preset", "small", "Seeder preset name")
	presetFile := flag.String("presets", "", "YAML file with custom presets (defaults to the built-in set)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("rand-seed", 0, "Random seed for repeatable output (0 = time based)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	presets, err := loadPresets(*presetFile)
	if err != nil {
		log.Fatalf("Failed to load presets: %v", err)
	}
	opts, err := seed.Preset(presets, *preset)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if *randSeed != 0 {
		opts.RandSeed = *randSeed
	}
	log.Printf("Preset %s: %d users, %d posts, clean=%v", *preset, opts.Users, opts.Posts, *shouldClean)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s, err := seed.NewSeeder(db, opts, seed.Point{Lat: cfg.MapInitialLat, Lon: cfg.MapInitialLon})
	if err != nil {
		log.Fatalf("❌ Seeder setup failed: %v", err)
	}

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	res, err := s.Run()
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Seeded %d users, %d friendships, %d posts, %d comments, %d likes",
		res.Users, res.Friendships, res.Posts, res.Comments, res.Likes)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}

func loadPresets(path string) (map[string]seed.Options, error) {
	if path == "" {
		return seed.BuiltinPresets()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return seed.LoadPresets(f)
}
