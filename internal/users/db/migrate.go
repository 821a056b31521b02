package db

import (
	"context"

	"ms-users/internal/models"
)

// CreateSchema creates the users table on startup if it is absent.
func (d *DB) CreateSchema(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}
