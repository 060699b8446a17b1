package sqlstore

import (
	"context"
	"errors"

	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// taxonomyRepository serves categories and tags, which share their storage shape.
type taxonomyRepository[T models.Category | models.Tag] struct {
	base
	db    *gorm.DB
	fresh func(name string) *T
}

func (r *taxonomyRepository[T]) Create(ctx context.Context, entry *T) (err error) {
	ctx, end := r.begin(ctx, "create")
	defer func() { end(err) }()

	if err = translate(r.db.WithContext(ctx).Create(entry).Error); err != nil {
		return err
	}
	r.log.LogCreate(ctx, nil)
	return nil
}

func (r *taxonomyRepository[T]) GetByID(ctx context.Context, id string) (_ *T, err error) {
	ctx, end := r.begin(ctx, "get_by_id")
	defer func() { end(err) }()

	var entry T
	if err = translate(r.db.WithContext(ctx).First(&entry, "id = ?", id).Error); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *taxonomyRepository[T]) GetByIDs(ctx context.Context, ids []string) (_ []T, err error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	ctx, end := r.begin(ctx, "get_by_ids")
	defer func() { end(err) }()

	entries := []T{}
	err = r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&entries).Error
	return entries, err
}

func (r *taxonomyRepository[T]) ListActive(ctx context.Context) (_ []T, err error) {
	ctx, end := r.begin(ctx, "list_active")
	defer func() { end(err) }()

	entries := []T{}
	err = r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&entries).Error
	return entries, err
}

func (r *taxonomyRepository[T]) Update(ctx context.Context, entry *T) (err error) {
	ctx, end := r.begin(ctx, "update")
	defer func() { end(err) }()

	res := r.db.WithContext(ctx).Model(entry).Select("*").Omit("id", "created_at").Updates(entry)
	if err = translate(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	r.log.LogUpdate(ctx, nil)
	return nil
}

func (r *taxonomyRepository[T]) Delete(ctx context.Context, id string) (err error) {
	ctx, end := r.begin(ctx, "delete")
	defer func() { end(err) }()

	res := r.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

// Resolve inserts a fresh entry unless name exists, then reads the stored row.
// The unique index on name makes concurrent resolves converge on one row.
func (r *taxonomyRepository[T]) Resolve(ctx context.Context, name string) (_ *T, err error) {
	ctx, end := r.begin(ctx, "resolve")
	defer func() { end(err) }()

	err = translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(r.fresh(name)).Error)
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return nil, err
	}

	var entry T
	if err = translate(r.db.WithContext(ctx).First(&entry, "name = ?", name).Error); err != nil {
		return nil, err
	}
	return &entry, nil
}
