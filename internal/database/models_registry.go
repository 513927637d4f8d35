package database

import "xchangez/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Media{},
		&models.Follow{},
		&models.Rating{},
		&models.List{},
		&models.ListItem{},
		&models.Message{},
	}
}
