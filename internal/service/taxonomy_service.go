package service

import (
	"context"
	"strings"
	"time"

	"guildkeeper/internal/cache"
	"guildkeeper/internal/models"
	"guildkeeper/internal/policy"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/validation"
)

// TaxonomyInput is a create or partial update payload for categories and tags.
// Icon is ignored for tags.
type TaxonomyInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	Active      *bool   `json:"active"`
}

// entryFields exposes the editable fields of a category or tag. Icon is nil for tags.
type entryFields struct {
	ID          *string
	Name        *string
	Description *string
	Color       *string
	Icon        *string
	Active      *bool
}

// taxonomyKind describes how one kind of entry is validated, cached and detached from posts.
type taxonomyKind[T models.Category | models.Tag] struct {
	resource    string
	nameMax     int
	descMax     int
	requireIcon bool
	required    string
	duplicate   string
	cacheKey    string
	family      string
	fields      func(*T) entryFields
	pull        func(context.Context, repository.PostRepository, string) error
}

// TaxonomyService manages one kind of shared lookup entry.
type TaxonomyService[T models.Category | models.Tag] struct {
	repo  repository.TaxonomyRepository[T]
	posts repository.PostRepository
	kind  taxonomyKind[T]
}

// CategoryService and TagService are the two taxonomy instantiations.
type (
	CategoryService = TaxonomyService[models.Category]
	TagService      = TaxonomyService[models.Tag]
)

func NewCategoryService(store repository.Store) *CategoryService {
	return &CategoryService{
		repo:  store.Categories(),
		posts: store.Posts(),
		kind: taxonomyKind[models.Category]{
			resource:    "Category",
			nameMax:     50,
			descMax:     200,
			requireIcon: true,
			required:    "Name, color and icon are required",
			duplicate:   "A category with this name already exists",
			cacheKey:    cache.ActiveCategoriesKey,
			family:      cache.FamilyCategories,
			fields: func(c *models.Category) entryFields {
				return entryFields{&c.ID, &c.Name, &c.Description, &c.Color, &c.Icon, &c.Active}
			},
			pull: func(ctx context.Context, posts repository.PostRepository, id string) error {
				return posts.PullCategory(ctx, id)
			},
		},
	}
}

func NewTagService(store repository.Store) *TagService {
	return &TagService{
		repo:  store.Tags(),
		posts: store.Posts(),
		kind: taxonomyKind[models.Tag]{
			resource:  "Tag",
			nameMax:   30,
			descMax:   150,
			required:  "Name and color are required",
			duplicate: "A tag with this name already exists",
			cacheKey:  cache.ActiveTagsKey,
			family:    cache.FamilyTags,
			fields: func(t *models.Tag) entryFields {
				return entryFields{ID: &t.ID, Name: &t.Name, Description: &t.Description, Color: &t.Color, Active: &t.Active}
			},
			pull: func(ctx context.Context, posts repository.PostRepository, id string) error {
				return posts.PullTag(ctx, id)
			},
		},
	}
}

// ListActive returns the active entries sorted by name, served from Redis when cached.
func (s *TaxonomyService[T]) ListActive(ctx context.Context) ([]T, error) {
	var entries []T
	err := cache.Aside(ctx, s.kind.family, s.kind.cacheKey, &entries, cache.TaxonomyTTL, func() error {
		found, err := s.repo.ListActive(ctx)
		if err != nil {
			return err
		}
		if found == nil {
			found = []T{}
		}
		entries = found
		return nil
	})
	if err != nil {
		return nil, repoError(err, s.kind.resource)
	}
	return entries, nil
}

// Get returns one entry.
func (s *TaxonomyService[T]) Get(ctx context.Context, id string) (*T, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, s.kind.resource)
	}
	return entry, nil
}

// Create adds an entry. Admin only.
func (s *TaxonomyService[T]) Create(ctx context.Context, actor policy.Actor, in TaxonomyInput) (*T, error) {
	if err := policy.RequireAdmin(actor, MsgAdminRequired); err != nil {
		return nil, err
	}
	if blank(in.Name) || blank(in.Color) || (s.kind.requireIcon && blank(in.Icon)) {
		return nil, models.NewValidationError(s.kind.required)
	}

	entry := new(T)
	f := s.kind.fields(entry)
	*f.ID = models.NewID()
	*f.Active = true
	if err := s.apply(f, in); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, duplicateOr(err, s.kind.resource, s.kind.duplicate)
	}
	s.invalidate(ctx)
	return entry, nil
}

// Update applies a partial edit. Admin only.
func (s *TaxonomyService[T]) Update(ctx context.Context, actor policy.Actor, id string, in TaxonomyInput) (*T, error) {
	if err := policy.RequireAdmin(actor, MsgAdminRequired); err != nil {
		return nil, err
	}
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, s.kind.resource)
	}
	if err := s.apply(s.kind.fields(entry), in); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, duplicateOr(err, s.kind.resource, s.kind.duplicate)
	}
	s.invalidate(ctx)
	return entry, nil
}

// Delete removes an entry and detaches it from every post. Admin only.
func (s *TaxonomyService[T]) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.RequireAdmin(actor, MsgAdminRequired); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, s.kind.resource)
	}
	if err := s.kind.pull(ctx, s.posts, id); err != nil {
		return repoError(err, s.kind.resource)
	}
	s.invalidate(ctx)
	return nil
}

func (s *TaxonomyService[T]) invalidate(ctx context.Context) {
	// Detached from the request so a cancelled client cannot leave a stale listing behind.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	cache.Invalidate(ctx, s.kind.cacheKey)
}

func (s *TaxonomyService[T]) apply(f entryFields, in TaxonomyInput) error {
	var errs validation.Errors
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		errs.Add(validation.ValidateLength("name", name, 2, s.kind.nameMax))
		*f.Name = name
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		errs.Add(validation.ValidateMaxLength("description", desc, s.kind.descMax))
		*f.Description = desc
	}
	if in.Color != nil {
		color := strings.TrimSpace(*in.Color)
		errs.Add(validation.ValidateHexColor(color))
		*f.Color = color
	}
	if in.Icon != nil && f.Icon != nil {
		icon := strings.TrimSpace(*in.Icon)
		errs.Add(validation.ValidateMaxLength("icon", icon, 50))
		*f.Icon = icon
	}
	if in.Active != nil {
		*f.Active = *in.Active
	}
	return errs.Err()
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
