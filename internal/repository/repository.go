package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/service"
)

// Repository implements service.Store over Postgres through gorm, raw SQL
// throughout. InTx yields a Repository bound to one transaction so every
// store call inside the closure shares it.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InTx(ctx context.Context, fn func(tx service.Store) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
	return translateError(err)
}

// translateError maps driver-level failures to the service sentinels:
// serialization failures, deadlocks and lock timeouts become ErrConflict so
// the losing transaction of two competing cuts surfaces as retryable.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return service.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return service.ErrConflict
		}
	}
	return err
}
