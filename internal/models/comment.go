package models

import "time"

// Comment is a reply left by an account on a post.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Text      string    `gorm:"size:1000;not null" bson:"text" json:"text"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index" bson:"author" json:"authorId"`
	Author    *Account  `gorm:"foreignKey:AuthorID" bson:"-" json:"author,omitempty"`
	PostID    string    `gorm:"type:varchar(36);not null;index" bson:"post" json:"postId"`
	CreatedAt time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
