package repository

import (
	"strings"
	"unicode"

	"guildkeeper/internal/models"
)

// Sort orders a listing by a whitelisted field.
type Sort struct {
	Field string
	Desc  bool
}

// DefaultSort is newest first.
var DefaultSort = Sort{Field: "createdAt", Desc: true}

// Sortable fields per listing. Keys are the API field names, which match the document keys.
var (
	PostSortFields = map[string]bool{
		"createdAt": true,
		"updatedAt": true,
		"title":     true,
		"type":      true,
		"status":    true,
	}
	UserSortFields = map[string]bool{
		"createdAt": true,
		"updatedAt": true,
		"name":      true,
		"surname":   true,
		"email":     true,
		"role":      true,
		"active":    true,
		"birthDate": true,
	}
)

// ParseSort builds a Sort from request values, falling back to DefaultSort for fields outside allowed.
// Any order other than "asc" sorts descending.
func ParseSort(field, order string, allowed map[string]bool) Sort {
	if !allowed[field] {
		field = DefaultSort.Field
	}
	return Sort{Field: field, Desc: !strings.EqualFold(order, "asc")}
}

// Column returns the snake_case column name of the sort field.
func (s Sort) Column() string {
	var b strings.Builder
	for i, r := range s.Field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UserFilter narrows the admin account listing. Zero values do not filter.
type UserFilter struct {
	Role   models.Role
	Active *bool
	Gender models.Gender
	// Search is a case-insensitive substring matched against name, surname and email.
	Search string
}

// PostFilter narrows a post listing. Zero values do not filter.
type PostFilter struct {
	Public   *bool
	AuthorID string
	// Types matches any of the listed types.
	Types       []models.PostType
	Status      models.PostStatus
	CategoryIDs []string
	TagIDs      []string
	Search      string
	// MinLevel keeps posts whose level range reaches at least MinLevel.
	MinLevel *int
	// MaxLevel keeps posts whose level range starts at or below MaxLevel.
	MaxLevel *int
}
