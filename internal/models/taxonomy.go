package models

import "time"

// Default colors given to auto-created taxonomy entries.
const (
	DefaultCategoryColor = "#3B82F6"
	DefaultTagColor      = "#10B981"
)

// Category is a shared lookup entry that posts reference.
type Category struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" bson:"name" json:"name"`
	Description string    `gorm:"size:200" bson:"description,omitempty" json:"description,omitempty"`
	Color       string    `gorm:"size:7;not null" bson:"color" json:"color"`
	Icon        string    `gorm:"size:50" bson:"icon,omitempty" json:"icon,omitempty"`
	Active      bool      `gorm:"not null" bson:"active" json:"active"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Tag is a shared lookup label that posts reference.
type Tag struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name        string    `gorm:"size:30;uniqueIndex;not null" bson:"name" json:"name"`
	Description string    `gorm:"size:150" bson:"description,omitempty" json:"description,omitempty"`
	Color       string    `gorm:"size:7;not null" bson:"color" json:"color"`
	Active      bool      `gorm:"not null" bson:"active" json:"active"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CategoryIDs returns the ids of cats in order.
func CategoryIDs(cats []Category) []string {
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids
}

// TagIDs returns the ids of tags in order.
func TagIDs(tags []Tag) []string {
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}
