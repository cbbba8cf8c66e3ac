// Package bootstrap wires the process-level dependencies shared by commands.
package bootstrap

import (
	"fmt"

	"geosocial/internal/cache"
	"geosocial/internal/config"
	"geosocial/internal/database"
	"geosocial/internal/middleware"
	"geosocial/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedPreset, when set, seeds an empty database with the named built-in preset.
	SeedPreset string
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedPreset != "" {
		if err := seedIfEmpty(cfg, db, opts.SeedPreset); err != nil {
			return nil, nil, fmt.Errorf("failed to seed preset %q: %w", opts.SeedPreset, err)
		}
	}

	return db, r, nil
}

func seedIfEmpty(cfg *config.Config, db *gorm.DB, preset string) error {
	var users int64
	if err := db.Table("users").Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("database already populated, skipping seed", "users", users)
		return nil
	}

	presets, err := seed.BuiltinPresets()
	if err != nil {
		return err
	}
	opts, err := seed.Preset(presets, preset)
	if err != nil {
		return err
	}
	seeder, err := seed.NewSeeder(db, opts, seed.Point{Lat: cfg.MapInitialLat, Lon: cfg.MapInitialLon})
	if err != nil {
		return err
	}
	res, err := seeder.Run()
	if err != nil {
		return err
	}
	middleware.Logger.Info("seeded database", "preset", preset,
		"users", res.Users, "posts", res.Posts, "friendships", res.Friendships)
	return nil
}
