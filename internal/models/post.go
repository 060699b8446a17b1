package models

import (
	"time"

	"gorm.io/gorm"
)

// PostType classifies a post.
type PostType string

const (
	PostTypeCampaign     PostType = "campaign"
	PostTypeAdventure    PostType = "adventure"
	PostTypeTavernTale   PostType = "tavern-tale"
	PostTypeQuest        PostType = "quest"
	PostTypeDiscussion   PostType = "discussion"
	PostTypeAnnouncement PostType = "announcement"
)

// Valid reports whether t is a known post type.
func (t PostType) Valid() bool {
	switch t {
	case PostTypeCampaign, PostTypeAdventure, PostTypeTavernTale, PostTypeQuest,
		PostTypeDiscussion, PostTypeAnnouncement:
		return true
	}
	return false
}

// Post groups used by the listing filter.
const (
	PostGroupGeneral = "general"
	PostGroupGame    = "dnd"
)

// PostGroupTypes maps a post group to the types it contains.
var PostGroupTypes = map[string][]PostType{
	PostGroupGeneral: {PostTypeDiscussion, PostTypeAnnouncement},
	PostGroupGame:    {PostTypeCampaign, PostTypeAdventure, PostTypeTavernTale, PostTypeQuest},
}

// PostStatus tracks the progress of a campaign-style post.
type PostStatus string

const (
	PostStatusPlanning  PostStatus = "planning"
	PostStatusActive    PostStatus = "active"
	PostStatusCompleted PostStatus = "completed"
	PostStatusOnHold    PostStatus = "on-hold"
)

// Valid reports whether s is a known status. The empty value is allowed.
func (s PostStatus) Valid() bool {
	switch s {
	case "", PostStatusPlanning, PostStatusActive, PostStatusCompleted, PostStatusOnHold:
		return true
	}
	return false
}

// Range is an inclusive numeric interval such as a level or player count.
type Range struct {
	Min int `json:"min" bson:"min"`
	Max int `json:"max" bson:"max"`
}

// Clamp raises Max to Min when the bounds are inverted.
func (r *Range) Clamp() {
	if r != nil && r.Max < r.Min {
		r.Max = r.Min
	}
}

// Post is a published item: a discussion, an announcement or a game listing.
type Post struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Title          string     `gorm:"size:200;not null" bson:"title" json:"title"`
	Body           string     `gorm:"type:text;not null" bson:"body" json:"body"`
	AuthorID       string     `gorm:"type:varchar(36);not null;index" bson:"author" json:"authorId"`
	Author         *Account   `gorm:"foreignKey:AuthorID" bson:"-" json:"author,omitempty"`
	Type           PostType   `gorm:"size:20;not null;index" bson:"type" json:"type"`
	CategoryIDs    []string   `gorm:"-" bson:"categories" json:"-"`
	Categories     []Category `gorm:"many2many:post_categories" bson:"-" json:"categories"`
	TagIDs         []string   `gorm:"-" bson:"tags" json:"-"`
	Tags           []Tag      `gorm:"many2many:post_tags" bson:"-" json:"tags"`
	Level          *Range     `gorm:"embedded;embeddedPrefix:level_" bson:"level,omitempty" json:"level,omitempty"`
	Players        *Range     `gorm:"embedded;embeddedPrefix:players_" bson:"players,omitempty" json:"players,omitempty"`
	Location       string     `gorm:"size:100" bson:"location,omitempty" json:"location,omitempty"`
	Status         PostStatus `gorm:"size:20;index" bson:"status,omitempty" json:"status,omitempty"`
	Public         bool       `gorm:"not null;index" bson:"public" json:"public"`
	CommentsLocked bool       `gorm:"not null" bson:"commentsLocked" json:"commentsLocked"`
	Pinned         bool       `gorm:"not null" bson:"pinned" json:"pinned"`
	CreatedAt      time.Time  `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// ClampRanges enforces max >= min on the level and player ranges.
func (p *Post) ClampRanges() {
	p.Level.Clamp()
	p.Players.Clamp()
}

// AfterFind drops empty embedded ranges and mirrors loaded associations into the id lists.
func (p *Post) AfterFind(_ *gorm.DB) error {
	if p.Level != nil && *p.Level == (Range{}) {
		p.Level = nil
	}
	if p.Players != nil && *p.Players == (Range{}) {
		p.Players = nil
	}
	if len(p.Categories) > 0 {
		p.CategoryIDs = CategoryIDs(p.Categories)
	}
	if len(p.Tags) > 0 {
		p.TagIDs = TagIDs(p.Tags)
	}
	return nil
}
