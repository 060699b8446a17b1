// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is an account's permission level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Gender is the optional self-declared gender of an account.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is a known gender. The empty value is allowed.
func (g Gender) Valid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Account represents a registered GuildKeeper user or administrator.
type Account struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name            string    `gorm:"size:50;not null" bson:"name" json:"name"`
	Surname         string    `gorm:"size:50" bson:"surname,omitempty" json:"surname,omitempty"`
	Email           string    `gorm:"size:254;uniqueIndex;not null" bson:"email" json:"email"`
	Password        string    `gorm:"not null" bson:"password" json:"-"`
	BirthDate       time.Time `gorm:"not null" bson:"birthDate" json:"birthDate"`
	Gender          Gender    `gorm:"size:10" bson:"gender,omitempty" json:"gender,omitempty"`
	Role            Role      `gorm:"size:10;not null;index" bson:"role" json:"role"`
	Avatar          *string   `gorm:"size:255" bson:"avatar" json:"avatar"`
	AvatarThumbnail *string   `gorm:"size:255" bson:"avatarThumbnail" json:"avatarThumbnail"`
	Active          bool      `gorm:"not null;index" bson:"active" json:"active"`
	CreatedAt       time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TableName keeps the SQL table aligned with the Mongo collection.
func (Account) TableName() string { return "users" }

// IsAdmin reports whether the account has the admin role.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// UserStats summarises the account population for the admin user list.
type UserStats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Admins       int64 `json:"admins"`
	RegularUsers int64 `json:"regularUsers"`
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the identifier format used by every entity.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
