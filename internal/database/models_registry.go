package database

import "cidadeemfoco/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// in dependency order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Like{},
	}
}
