package database

import "geosocial/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Topic{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Friendship{},
	}
}
