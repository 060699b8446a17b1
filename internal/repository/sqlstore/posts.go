package sqlstore

import (
	"context"

	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	postCategoriesTable = "post_categories"
	postTagsTable       = "post_tags"
)

type postRepository struct {
	base
	db *gorm.DB
}

func (r *postRepository) populated(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") })
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, end := r.begin(ctx, "create")
	defer func() { end(err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		return replaceRefs(tx, post)
	})
	if err = translate(err); err != nil {
		return err
	}
	r.log.LogCreate(ctx, map[string]any{"id": post.ID, "author": post.AuthorID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (_ *models.Post, err error) {
	ctx, end := r.begin(ctx, "get_by_id")
	defer func() { end(err) }()

	var post models.Post
	if err = translate(r.populated(ctx).First(&post, "id = ?", id).Error); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter repository.PostFilter, sort repository.Sort, page models.Page) (_ []*models.Post, _ int64, err error) {
	ctx, end := r.begin(ctx, "list")
	defer func() { end(err) }()

	scope := func(db *gorm.DB) *gorm.DB { return applyPostFilter(db, filter) }

	var total int64
	if err = r.db.WithContext(ctx).Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err = r.populated(ctx).Scopes(scope).
		Order(clause.OrderByColumn{Column: clause.Column{Name: sort.Column()}, Desc: sort.Desc}).
		Offset(page.Skip()).
		Limit(page.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// applyPostFilter adds the WHERE clauses for filter. Category and tag membership match any listed id.
func applyPostFilter(db *gorm.DB, filter repository.PostFilter) *gorm.DB {
	if filter.Public != nil {
		db = db.Where("posts.public = ?", *filter.Public)
	}
	if filter.AuthorID != "" {
		db = db.Where("posts.author_id = ?", filter.AuthorID)
	}
	if len(filter.Types) > 0 {
		db = db.Where("posts.type IN ?", filter.Types)
	}
	if filter.Status != "" {
		db = db.Where("posts.status = ?", filter.Status)
	}
	if len(filter.CategoryIDs) > 0 {
		db = db.Where("posts.id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Table(postCategoriesTable).Select("post_id").Where("category_id IN ?", filter.CategoryIDs))
	}
	if len(filter.TagIDs) > 0 {
		db = db.Where("posts.id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Table(postTagsTable).Select("post_id").Where("tag_id IN ?", filter.TagIDs))
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Where("(LOWER(posts.title) LIKE ? "+likeEscape+" OR LOWER(posts.body) LIKE ? "+likeEscape+")", p, p)
	}
	if filter.MinLevel != nil {
		db = db.Where("posts.level_max >= ?", *filter.MinLevel)
	}
	if filter.MaxLevel != nil {
		db = db.Where("posts.level_min <= ?", *filter.MaxLevel)
	}
	return db
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) (err error) {
	ctx, end := r.begin(ctx, "update")
	defer func() { end(err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(post).Select("*").Omit(clause.Associations, "id", "created_at").Updates(post)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return replaceRefs(tx, post)
	})
	if err = translate(err); err != nil {
		return err
	}
	r.log.LogUpdate(ctx, map[string]any{"id": post.ID})
	return nil
}

// replaceRefs rewrites the join rows of post from its CategoryIDs and TagIDs.
func replaceRefs(tx *gorm.DB, post *models.Post) error {
	if err := tx.Exec("DELETE FROM "+postCategoriesTable+" WHERE post_id = ?", post.ID).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM "+postTagsTable+" WHERE post_id = ?", post.ID).Error; err != nil {
		return err
	}
	if rows := joinRows(post.ID, "category_id", post.CategoryIDs); len(rows) > 0 {
		if err := tx.Table(postCategoriesTable).Create(&rows).Error; err != nil {
			return err
		}
	}
	if rows := joinRows(post.ID, "tag_id", post.TagIDs); len(rows) > 0 {
		if err := tx.Table(postTagsTable).Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func joinRows(postID, column string, ids []string) []map[string]any {
	seen := make(map[string]bool, len(ids))
	rows := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, map[string]any{"post_id": postID, column: id})
	}
	return rows
}

func (r *postRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := r.begin(ctx, "delete")
	defer func() { end(err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteRefs(tx, []string{id}); err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func deleteRefs(tx *gorm.DB, postIDs []string) error {
	if err := tx.Exec("DELETE FROM "+postCategoriesTable+" WHERE post_id IN ?", postIDs).Error; err != nil {
		return err
	}
	return tx.Exec("DELETE FROM "+postTagsTable+" WHERE post_id IN ?", postIDs).Error
}

func (r *postRepository) IDsByAuthor(ctx context.Context, authorID string) (_ []string, err error) {
	ctx, end := r.begin(ctx, "ids_by_author")
	defer func() { end(err) }()

	var ids []string
	err = r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Pluck("id", &ids).Error
	return ids, err
}

func (r *postRepository) DeleteByAuthor(ctx context.Context, authorID string) (_ int64, err error) {
	ctx, end := r.begin(ctx, "delete_by_author")
	defer func() { end(err) }()

	var deleted int64
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Post{}).Where("author_id = ?", authorID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := deleteRefs(tx, ids); err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, "id IN ?", ids)
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	r.log.LogDelete(ctx, map[string]any{"author": authorID, "rows": deleted})
	return deleted, nil
}

func (r *postRepository) UsedCategoryIDs(ctx context.Context) (_ []string, err error) {
	ctx, end := r.begin(ctx, "used_categories")
	defer func() { end(err) }()

	var ids []string
	err = r.db.WithContext(ctx).Table(postCategoriesTable).Distinct("category_id").Pluck("category_id", &ids).Error
	return ids, err
}

func (r *postRepository) UsedTagIDs(ctx context.Context) (_ []string, err error) {
	ctx, end := r.begin(ctx, "used_tags")
	defer func() { end(err) }()

	var ids []string
	err = r.db.WithContext(ctx).Table(postTagsTable).Distinct("tag_id").Pluck("tag_id", &ids).Error
	return ids, err
}

func (r *postRepository) PullCategory(ctx context.Context, categoryID string) (err error) {
	ctx, end := r.begin(ctx, "pull_category")
	defer func() { end(err) }()

	return r.db.WithContext(ctx).Exec("DELETE FROM "+postCategoriesTable+" WHERE category_id = ?", categoryID).Error
}

func (r *postRepository) PullTag(ctx context.Context, tagID string) (err error) {
	ctx, end := r.begin(ctx, "pull_tag")
	defer func() { end(err) }()

	return r.db.WithContext(ctx).Exec("DELETE FROM "+postTagsTable+" WHERE tag_id = ?", tagID).Error
}
