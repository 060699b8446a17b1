package mongostore

import (
	"context"
	"time"

	"guildkeeper/internal/database"
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type commentRepository struct {
	base
	db   *mongo.Database
	coll *mongo.Collection
}

type commentDoc struct {
	models.Comment `bson:",inline"`
	AuthorDocs     []models.Account `bson:"authorDocs"`
}

var commentLookups = []bson.D{lookup(database.CollUsers, "author", "authorDocs")}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (err error) {
	ctx, end := r.begin(ctx, "create")
	defer func() { end(err) }()

	now := time.Now().UTC()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now

	if _, err = r.coll.InsertOne(ctx, comment); err != nil {
		return translate(err)
	}
	r.log.LogCreate(ctx, map[string]any{"id": comment.ID, "post": comment.PostID})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (_ *models.Comment, err error) {
	ctx, end := r.begin(ctx, "get_by_id")
	defer func() { end(err) }()

	pipe := append(mongo.Pipeline{
		{{Key: stageMatch, Value: bson.D{{Key: "_id", Value: id}}}},
		{{Key: stageLimit, Value: 1}},
	}, commentLookups...)
	comments, err := r.aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, repository.ErrNotFound
	}
	return comments[0], nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string, page models.Page) (_ []*models.Comment, _ int64, err error) {
	ctx, end := r.begin(ctx, "list_by_post")
	defer func() { end(err) }()

	filter := bson.D{{Key: "post", Value: postID}}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	comments, err := r.aggregate(ctx, pagedPipeline(filter, repository.DefaultSort, page, commentLookups...))
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *commentRepository) aggregate(ctx context.Context, pipe mongo.Pipeline) ([]*models.Comment, error) {
	cursor, err := r.coll.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	var docs []commentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	comments := make([]*models.Comment, len(docs))
	for i := range docs {
		c := docs[i].Comment
		if len(docs[i].AuthorDocs) > 0 {
			c.Author = &docs[i].AuthorDocs[0]
		}
		comments[i] = &c
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) (err error) {
	ctx, end := r.begin(ctx, "update")
	defer func() { end(err) }()

	comment.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: comment.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "text", Value: comment.Text},
			{Key: "updatedAt", Value: comment.UpdatedAt},
		}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	r.log.LogUpdate(ctx, map[string]any{"id": comment.ID})
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) (err error) {
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

func (r *commentRepository) DeleteByAuthor(ctx context.Context, authorID string) (_ int64, err error) {
	ctx, end := r.begin(ctx, "delete_by_author")
	defer func() { end(err) }()
	return r.deleteMany(ctx, bson.D{{Key: "author", Value: authorID}})
}

func (r *commentRepository) DeleteByPosts(ctx context.Context, postIDs []string) (_ int64, err error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	ctx, end := r.begin(ctx, "delete_by_posts")
	defer func() { end(err) }()
	return r.deleteMany(ctx, bson.D{{Key: "post", Value: bson.D{{Key: "$in", Value: postIDs}}}})
}

func (r *commentRepository) deleteMany(ctx context.Context, filter bson.D) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	r.log.LogDelete(ctx, map[string]any{"rows": res.DeletedCount})
	return res.DeletedCount, nil
}
