package mongostore

import (
	"context"
	"time"

	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// taxonomyRepository serves categories and tags, which share their storage shape.
type taxonomyRepository[T models.Category | models.Tag] struct {
	base
	coll  *mongo.Collection
	fresh func(name string, now time.Time) *T
	id    func(*T) string
	touch func(*T, time.Time)
}

func (r *taxonomyRepository[T]) Create(ctx context.Context, entry *T) (err error) {
	ctx, end := r.begin(ctx, "create")
	defer func() { end(err) }()

	r.touch(entry, time.Now().UTC())
	if _, err = r.coll.InsertOne(ctx, entry); err != nil {
		return translate(err)
	}
	r.log.LogCreate(ctx, map[string]any{"id": r.id(entry)})
	return nil
}

func (r *taxonomyRepository[T]) GetByID(ctx context.Context, id string) (_ *T, err error) {
	ctx, end := r.begin(ctx, "get_by_id")
	defer func() { end(err) }()

	var entry T
	if err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&entry); err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (r *taxonomyRepository[T]) GetByIDs(ctx context.Context, ids []string) (_ []T, err error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	ctx, end := r.begin(ctx, "get_by_ids")
	defer func() { end(err) }()
	return r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
}

func (r *taxonomyRepository[T]) ListActive(ctx context.Context) (_ []T, err error) {
	ctx, end := r.begin(ctx, "list_active")
	defer func() { end(err) }()
	return r.find(ctx, bson.D{{Key: "active", Value: true}})
}

func (r *taxonomyRepository[T]) find(ctx context.Context, filter bson.D) ([]T, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	entries := []T{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *taxonomyRepository[T]) Update(ctx context.Context, entry *T) (err error) {
	ctx, end := r.begin(ctx, "update")
	defer func() { end(err) }()

	r.touch(entry, time.Now().UTC())
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: r.id(entry)}}, entry)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	r.log.LogUpdate(ctx, map[string]any{"id": r.id(entry)})
	return nil
}

func (r *taxonomyRepository[T]) Delete(ctx context.Context, id string) (err error) {
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

// Resolve upserts by name so the first writer creates the entry and later ones read it.
// Two upserts racing on an empty collection can both attempt the insert; the loser's
// duplicate-key error is retried as a plain lookup.
func (r *taxonomyRepository[T]) Resolve(ctx context.Context, name string) (_ *T, err error) {
	ctx, end := r.begin(ctx, "resolve")
	defer func() { end(err) }()

	byName := bson.D{{Key: "name", Value: name}}
	var entry T
	err = r.coll.FindOneAndUpdate(ctx,
		byName,
		bson.D{{Key: "$setOnInsert", Value: r.fresh(name, time.Now().UTC())}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&entry)
	if mongo.IsDuplicateKeyError(err) {
		err = r.coll.FindOne(ctx, byName).Decode(&entry)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}
