package sqlstore

import (
	"context"

	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"gorm.io/gorm"
)

type commentRepository struct {
	base
	db *gorm.DB
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (err error) {
	ctx, end := r.begin(ctx, "create")
	defer func() { end(err) }()

	if err = r.db.WithContext(ctx).Omit("Author").Create(comment).Error; err != nil {
		return err
	}
	r.log.LogCreate(ctx, map[string]any{"id": comment.ID, "post": comment.PostID})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (_ *models.Comment, err error) {
	ctx, end := r.begin(ctx, "get_by_id")
	defer func() { end(err) }()

	var comment models.Comment
	if err = translate(r.db.WithContext(ctx).Preload("Author").First(&comment, "id = ?", id).Error); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string, page models.Page) (_ []*models.Comment, _ int64, err error) {
	ctx, end := r.begin(ctx, "list_by_post")
	defer func() { end(err) }()

	var total int64
	if err = r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*models.Comment
	err = r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Offset(page.Skip()).
		Limit(page.Limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) (err error) {
	ctx, end := r.begin(ctx, "update")
	defer func() { end(err) }()

	res := r.db.WithContext(ctx).Model(comment).Select("text", "updated_at").Updates(comment)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	r.log.LogUpdate(ctx, map[string]any{"id": comment.ID})
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := r.begin(ctx, "delete")
	defer func() { end(err) }()

	res := r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func (r *commentRepository) DeleteByAuthor(ctx context.Context, authorID string) (_ int64, err error) {
	ctx, end := r.begin(ctx, "delete_by_author")
	defer func() { end(err) }()

	res := r.db.WithContext(ctx).Delete(&models.Comment{}, "author_id = ?", authorID)
	if res.Error != nil {
		return 0, res.Error
	}
	r.log.LogDelete(ctx, map[string]any{"author": authorID, "rows": res.RowsAffected})
	return res.RowsAffected, nil
}

func (r *commentRepository) DeleteByPosts(ctx context.Context, postIDs []string) (_ int64, err error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	ctx, end := r.begin(ctx, "delete_by_posts")
	defer func() { end(err) }()

	res := r.db.WithContext(ctx).Delete(&models.Comment{}, "post_id IN ?", postIDs)
	if res.Error != nil {
		return 0, res.Error
	}
	r.log.LogDelete(ctx, map[string]any{"posts": len(postIDs), "rows": res.RowsAffected})
	return res.RowsAffected, nil
}
