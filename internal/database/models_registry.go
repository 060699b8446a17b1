package database

import "guildkeeper/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Join tables for post categories and tags are created from the Post associations.
func PersistentModels() []any {
	return []any{
		&models.Account{},
		&models.Category{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
	}
}
