package sqlstore

import (
	"context"
	"time"

	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	base
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, account *models.Account) (err error) {
	ctx, end := r.begin(ctx, "create")
	defer func() { end(err) }()

	if err = translate(r.db.WithContext(ctx).Create(account).Error); err != nil {
		return err
	}
	r.log.LogCreate(ctx, map[string]any{"id": account.ID})
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (_ *models.Account, err error) {
	ctx, end := r.begin(ctx, "get_by_id")
	defer func() { end(err) }()

	var account models.Account
	if err = translate(r.db.WithContext(ctx).First(&account, "id = ?", id).Error); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (_ *models.Account, err error) {
	ctx, end := r.begin(ctx, "get_by_email")
	defer func() { end(err) }()

	var account models.Account
	if err = translate(r.db.WithContext(ctx).First(&account, "email = ?", email).Error); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email, excludeID string) (_ bool, err error) {
	ctx, end := r.begin(ctx, "email_taken")
	defer func() { end(err) }()

	q := r.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err = q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter, sort repository.Sort, page models.Page) (_ []*models.Account, _ int64, err error) {
	ctx, end := r.begin(ctx, "list")
	defer func() { end(err) }()

	q := r.db.WithContext(ctx).Model(&models.Account{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}
	if filter.Gender != "" {
		q = q.Where("gender = ?", filter.Gender)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		q = q.Where("LOWER(name) LIKE ? "+likeEscape+" OR LOWER(surname) LIKE ? "+likeEscape+
			" OR LOWER(email) LIKE ? "+likeEscape, p, p, p)
	}

	var total int64
	if err = q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []*models.Account
	err = q.Order(clause.OrderByColumn{Column: clause.Column{Name: sort.Column()}, Desc: sort.Desc}).
		Offset(page.Skip()).
		Limit(page.Limit).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func (r *userRepository) Stats(ctx context.Context) (_ *models.UserStats, err error) {
	ctx, end := r.begin(ctx, "stats")
	defer func() { end(err) }()

	var row struct {
		Total  int64
		Active int64
		Admins int64
	}
	err = r.db.WithContext(ctx).Model(&models.Account{}).
		Select("COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN active THEN 1 ELSE 0 END), 0) AS active, "+
			"COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS admins", models.RoleAdmin).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &models.UserStats{
		Total:        row.Total,
		Active:       row.Active,
		Admins:       row.Admins,
		RegularUsers: row.Total - row.Admins,
	}, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) (_ []*models.Account, err error) {
	ctx, end := r.begin(ctx, "list_by_role")
	defer func() { end(err) }()

	var accounts []*models.Account
	err = r.db.WithContext(ctx).Where("role = ?", role).Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

func (r *userRepository) Update(ctx context.Context, account *models.Account) (err error) {
	ctx, end := r.begin(ctx, "update")
	defer func() { end(err) }()

	res := r.db.WithContext(ctx).Model(account).Select("*").Omit("id", "created_at").Updates(account)
	if err = translate(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	r.log.LogUpdate(ctx, map[string]any{"id": account.ID})
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, ids []string, role models.Role) (_ int64, err error) {
	ctx, end := r.begin(ctx, "set_role")
	defer func() { end(err) }()

	return r.updateMany(ctx, ids, map[string]any{"role": role})
}

func (r *userRepository) SetActive(ctx context.Context, ids []string, active bool) (_ int64, err error) {
	ctx, end := r.begin(ctx, "set_active")
	defer func() { end(err) }()

	return r.updateMany(ctx, ids, map[string]any{"active": active})
}

func (r *userRepository) updateMany(ctx context.Context, ids []string, values map[string]any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	values["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Account{}).Where("id IN ?", ids).Updates(values)
	if res.Error != nil {
		return 0, res.Error
	}
	r.log.LogUpdate(ctx, map[string]any{"ids": ids, "rows": res.RowsAffected})
	return res.RowsAffected, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := r.begin(ctx, "delete")
	defer func() { end(err) }()

	res := r.db.WithContext(ctx).Delete(&models.Account{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}
