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

type userRepository struct {
	base
	coll *mongo.Collection
}

func (r *userRepository) Create(ctx context.Context, account *models.Account) (err error) {
	ctx, end := r.begin(ctx, "create")
	defer func() { end(err) }()

	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	if _, err = r.coll.InsertOne(ctx, account); err != nil {
		return translate(err)
	}
	r.log.LogCreate(ctx, map[string]any{"id": account.ID})
	return nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.D) (*models.Account, error) {
	var account models.Account
	if err := r.coll.FindOne(ctx, filter).Decode(&account); err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (_ *models.Account, err error) {
	ctx, end := r.begin(ctx, "get_by_id")
	defer func() { end(err) }()
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (_ *models.Account, err error) {
	ctx, end := r.begin(ctx, "get_by_email")
	defer func() { end(err) }()
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *userRepository) EmailTaken(ctx context.Context, email, excludeID string) (_ bool, err error) {
	ctx, end := r.begin(ctx, "email_taken")
	defer func() { end(err) }()

	filter := bson.D{{Key: "email", Value: email}}
	if excludeID != "" {
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}})
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	return n > 0, err
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter, sort repository.Sort, page models.Page) (_ []*models.Account, _ int64, err error) {
	ctx, end := r.begin(ctx, "list")
	defer func() { end(err) }()

	f := userFilter(filter)
	total, err := r.coll.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := r.coll.Find(ctx, f, findPage(sort, page))
	if err != nil {
		return nil, 0, err
	}
	accounts := []*models.Account{}
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func (r *userRepository) Stats(ctx context.Context) (_ *models.UserStats, err error) {
	ctx, end := r.begin(ctx, "stats")
	defer func() { end(err) }()

	var stats models.UserStats
	if stats.Total, err = r.coll.CountDocuments(ctx, bson.D{}); err != nil {
		return nil, err
	}
	if stats.Active, err = r.coll.CountDocuments(ctx, bson.D{{Key: "active", Value: true}}); err != nil {
		return nil, err
	}
	if stats.Admins, err = r.coll.CountDocuments(ctx, bson.D{{Key: "role", Value: models.RoleAdmin}}); err != nil {
		return nil, err
	}
	stats.RegularUsers = stats.Total - stats.Admins
	return &stats, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) (_ []*models.Account, err error) {
	ctx, end := r.begin(ctx, "list_by_role")
	defer func() { end(err) }()

	cursor, err := r.coll.Find(ctx, bson.D{{Key: "role", Value: role}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	accounts := []*models.Account{}
	err = cursor.All(ctx, &accounts)
	return accounts, err
}

func (r *userRepository) Update(ctx context.Context, account *models.Account) (err error) {
	ctx, end := r.begin(ctx, "update")
	defer func() { end(err) }()

	account.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: account.ID}}, account)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	r.log.LogUpdate(ctx, map[string]any{"id": account.ID})
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, ids []string, role models.Role) (_ int64, err error) {
	ctx, end := r.begin(ctx, "set_role")
	defer func() { end(err) }()
	return r.updateMany(ctx, ids, bson.D{{Key: "role", Value: role}})
}

func (r *userRepository) SetActive(ctx context.Context, ids []string, active bool) (_ int64, err error) {
	ctx, end := r.begin(ctx, "set_active")
	defer func() { end(err) }()
	return r.updateMany(ctx, ids, bson.D{{Key: "active", Value: active}})
}

func (r *userRepository) updateMany(ctx context.Context, ids []string, set bson.D) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	set = append(set, bson.E{Key: "updatedAt", Value: time.Now().UTC()})
	res, err := r.coll.UpdateMany(ctx,
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return 0, err
	}
	r.log.LogUpdate(ctx, map[string]any{"ids": ids, "rows": res.MatchedCount})
	return res.MatchedCount, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (err error) {
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
