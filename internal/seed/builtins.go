// Package seed provides helpers to create built-in and demo data for the
// application store. Demo helpers are intended for development and testing only.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"

	"guildkeeper/internal/cache"
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

// CategorySpec is a built-in category definition.
type CategorySpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	Icon        string `yaml:"icon"`
}

// TagSpec is a built-in tag definition.
type TagSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

// Catalog lists the built-in taxonomy.
type Catalog struct {
	Categories []CategorySpec `yaml:"categories"`
	Tags       []TagSpec      `yaml:"tags"`
}

// LoadCatalog parses the embedded taxonomy definition.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(taxonomyYAML)
}

// ParseCatalog parses a taxonomy definition in the embedded file's format.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	for i, cat := range c.Categories {
		if cat.Name == "" || cat.Color == "" || cat.Icon == "" {
			return nil, fmt.Errorf("category %d: name, color and icon are required", i)
		}
	}
	for i, tag := range c.Tags {
		if tag.Name == "" || tag.Color == "" {
			return nil, fmt.Errorf("tag %d: name and color are required", i)
		}
	}
	return &c, nil
}

// BuiltInResult counts the entries created by a BuiltIns run.
type BuiltInResult struct {
	Categories int
	Tags       int
}

// BuiltIns stores every catalog entry that does not exist yet. Existing entries,
// matched by name, are left as they are so admin edits survive a re-seed.
func BuiltIns(ctx context.Context, store repository.Store, catalog *Catalog) (*BuiltInResult, error) {
	res := &BuiltInResult{}
	for _, entry := range catalog.Categories {
		cat := &models.Category{
			ID:          models.NewID(),
			Name:        entry.Name,
			Description: entry.Description,
			Color:       entry.Color,
			Icon:        entry.Icon,
			Active:      true,
		}
		created, err := createIfMissing(store.Categories().Create(ctx, cat))
		if err != nil {
			return nil, fmt.Errorf("seed category %q: %w", entry.Name, err)
		}
		if created {
			res.Categories++
		}
	}

	for _, entry := range catalog.Tags {
		tag := &models.Tag{
			ID:          models.NewID(),
			Name:        entry.Name,
			Description: entry.Description,
			Color:       entry.Color,
			Active:      true,
		}
		created, err := createIfMissing(store.Tags().Create(ctx, tag))
		if err != nil {
			return nil, fmt.Errorf("seed tag %q: %w", entry.Name, err)
		}
		if created {
			res.Tags++
		}
	}

	if res.Categories > 0 {
		cache.InvalidateCategories(ctx)
	}
	if res.Tags > 0 {
		cache.InvalidateTags(ctx)
	}
	log.Printf("built-in taxonomy ensured: %d categories and %d tags created", res.Categories, res.Tags)
	return res, nil
}

func createIfMissing(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrDuplicate):
		return false, nil
	default:
		return false, err
	}
}
