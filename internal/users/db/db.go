package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-users/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// allowed mutable columns for partial updates, applied in this order
var updatableColumns = []string{"firstname", "lastname"}

func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	res, err := d.Bun.NewInsert().
		Model(user).
		Exec(ctx)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

func (d *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists checks if a user with the given ID exists in the database
func (d *DB) UserExists(ctx context.Context, id int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

// UpdateUser replaces both name fields and refreshes updated_at.
// Returns the number of rows affected.
func (d *DB) UpdateUser(ctx context.Context, id int64, firstname, lastname string, updatedAt time.Time) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("firstname = ?", firstname).
		Set("lastname = ?", lastname).
		Set("updated_at = ?", updatedAt).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateUserFields updates only the supplied columns plus updated_at.
// Columns outside the fixed allow-list are ignored, so SET fragments are
// never built from request input. Returns the number of rows affected.
func (d *DB) UpdateUserFields(ctx context.Context, id int64, fields map[string]string, updatedAt time.Time) (int64, error) {
	q := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Where("id = ?", id)

	for _, col := range updatableColumns {
		value, ok := fields[col]
		if !ok {
			continue
		}
		switch col {
		case "firstname":
			q = q.Set("firstname = ?", value)
		case "lastname":
			q = q.Set("lastname = ?", value)
		}
	}
	q = q.Set("updated_at = ?", updatedAt)

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteUser removes the row. Returns the number of rows affected.
func (d *DB) DeleteUser(ctx context.Context, id int64) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) CountUsers(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Count(ctx)
}

// ListUsers returns a page of users ordered by ascending id.
func (d *DB) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}
