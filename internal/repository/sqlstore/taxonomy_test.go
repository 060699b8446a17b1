package sqlstore

import (
	"context"
	"testing"

	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxonomyRepository_ResolveIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Categories().Resolve(ctx, "One-Shots")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategoryColor, first.Color)
	assert.True(t, first.Active)

	again, err := s.Categories().Resolve(ctx, "One-Shots")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	tag, err := s.Tags().Resolve(ctx, "roleplay")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTagColor, tag.Color)
}

func TestTaxonomyRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cats := s.Categories()

	c := &models.Category{ID: models.NewID(), Name: "Rules", Color: "#112233", Icon: "book", Active: true}
	require.NoError(t, cats.Create(ctx, c))
	assert.ErrorIs(t, cats.Create(ctx, &models.Category{ID: models.NewID(), Name: "Rules", Color: "#000000"}), repository.ErrDuplicate)

	hidden := &models.Category{ID: models.NewID(), Name: "Archive", Color: "#000000", Active: false}
	require.NoError(t, cats.Create(ctx, hidden))

	active, err := cats.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Rules", active[0].Name)

	c.Description = "Rules questions"
	require.NoError(t, cats.Update(ctx, c))
	got, err := cats.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rules questions", got.Description)

	hidden.Name = "Rules"
	assert.ErrorIs(t, cats.Update(ctx, hidden), repository.ErrDuplicate)

	byIDs, err := cats.GetByIDs(ctx, []string{c.ID, hidden.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	none, err := cats.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, cats.Delete(ctx, c.ID))
	_, err = cats.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, cats.Delete(ctx, c.ID), repository.ErrNotFound)
}
