package mongostore

import (
	"context"
	"slices"
	"strings"
	"time"

	"guildkeeper/internal/database"
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type postRepository struct {
	base
	db   *mongo.Database
	coll *mongo.Collection
}

// postDoc is a post with its looked-up references.
type postDoc struct {
	models.Post  `bson:",inline"`
	AuthorDocs   []models.Account  `bson:"authorDocs"`
	CategoryDocs []models.Category `bson:"categoryDocs"`
	TagDocs      []models.Tag      `bson:"tagDocs"`
}

func (d *postDoc) populate() *models.Post {
	p := d.Post
	if len(d.AuthorDocs) > 0 {
		p.Author = &d.AuthorDocs[0]
	}
	p.Categories = byName(d.CategoryDocs, func(c models.Category) string { return c.Name })
	p.Tags = byName(d.TagDocs, func(t models.Tag) string { return t.Name })
	return &p
}

func byName[T any](entries []T, name func(T) string) []T {
	if entries == nil {
		return []T{}
	}
	slices.SortFunc(entries, func(a, b T) int { return strings.Compare(name(a), name(b)) })
	return entries
}

var postLookups = []bson.D{
	lookup(database.CollUsers, "author", "authorDocs"),
	lookup(database.CollCategories, "categories", "categoryDocs"),
	lookup(database.CollTags, "tags", "tagDocs"),
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, end := r.begin(ctx, "create")
	defer func() { end(err) }()

	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	post.CategoryIDs = orEmpty(dedupe(post.CategoryIDs))
	post.TagIDs = orEmpty(dedupe(post.TagIDs))

	if _, err = r.coll.InsertOne(ctx, post); err != nil {
		return translate(err)
	}
	r.log.LogCreate(ctx, map[string]any{"id": post.ID, "author": post.AuthorID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (_ *models.Post, err error) {
	ctx, end := r.begin(ctx, "get_by_id")
	defer func() { end(err) }()

	pipe := append(mongo.Pipeline{
		{{Key: stageMatch, Value: bson.D{{Key: "_id", Value: id}}}},
		{{Key: stageLimit, Value: 1}},
	}, postLookups...)
	posts, err := r.aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, repository.ErrNotFound
	}
	return posts[0], nil
}

func (r *postRepository) List(ctx context.Context, filter repository.PostFilter, sort repository.Sort, page models.Page) (_ []*models.Post, _ int64, err error) {
	ctx, end := r.begin(ctx, "list")
	defer func() { end(err) }()

	f := postFilter(filter)
	total, err := r.coll.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	posts, err := r.aggregate(ctx, pagedPipeline(f, sort, page, postLookups...))
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) aggregate(ctx context.Context, pipe mongo.Pipeline) ([]*models.Post, error) {
	cursor, err := r.coll.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	var docs []postDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	posts := make([]*models.Post, len(docs))
	for i := range docs {
		posts[i] = docs[i].populate()
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) (err error) {
	ctx, end := r.begin(ctx, "update")
	defer func() { end(err) }()

	post.UpdatedAt = time.Now().UTC()
	post.CategoryIDs = orEmpty(dedupe(post.CategoryIDs))
	post.TagIDs = orEmpty(dedupe(post.TagIDs))

	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: post.ID}}, post)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	r.log.LogUpdate(ctx, map[string]any{"id": post.ID})
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := r.begin(ctx, "delete")
	defer func() { end(err) }()

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func (r *postRepository) IDsByAuthor(ctx context.Context, authorID string) (_ []string, err error) {
	ctx, end := r.begin(ctx, "ids_by_author")
	defer func() { end(err) }()

	ids := []string{}
	err = r.coll.Distinct(ctx, "_id", bson.D{{Key: "author", Value: authorID}}).Decode(&ids)
	return ids, err
}

func (r *postRepository) DeleteByAuthor(ctx context.Context, authorID string) (_ int64, err error) {
	ctx, end := r.begin(ctx, "delete_by_author")
	defer func() { end(err) }()

	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "author", Value: authorID}})
	if err != nil {
		return 0, err
	}
	r.log.LogDelete(ctx, map[string]any{"author": authorID, "rows": res.DeletedCount})
	return res.DeletedCount, nil
}

func (r *postRepository) UsedCategoryIDs(ctx context.Context) (_ []string, err error) {
	ctx, end := r.begin(ctx, "used_categories")
	defer func() { end(err) }()
	return r.distinctRefs(ctx, "categories")
}

func (r *postRepository) UsedTagIDs(ctx context.Context) (_ []string, err error) {
	ctx, end := r.begin(ctx, "used_tags")
	defer func() { end(err) }()
	return r.distinctRefs(ctx, "tags")
}

func (r *postRepository) distinctRefs(ctx context.Context, field string) ([]string, error) {
	ids := []string{}
	if err := r.coll.Distinct(ctx, field, bson.D{}).Decode(&ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *postRepository) PullCategory(ctx context.Context, categoryID string) (err error) {
	ctx, end := r.begin(ctx, "pull_category")
	defer func() { end(err) }()
	return r.pull(ctx, "categories", categoryID)
}

func (r *postRepository) PullTag(ctx context.Context, tagID string) (err error) {
	ctx, end := r.begin(ctx, "pull_tag")
	defer func() { end(err) }()
	return r.pull(ctx, "tags", tagID)
}

func (r *postRepository) pull(ctx context.Context, field, id string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.D{{Key: field, Value: id}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: field, Value: id}}}},
	)
	return err
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
