package shops

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokobase/tokobase/internal/shared"
)

// RepositoryPort defines data access for shops.
type RepositoryPort interface {
	ListShops(ctx context.Context) ([]Shop, error)
	GetShop(ctx context.Context, id int64) (Shop, error)
	CreateShop(ctx context.Context, name, address string) (Shop, error)
	UpdateShop(ctx context.Context, id int64, name, address string, active bool) (Shop, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const shopColumns = `id, name, address, is_active, created_at, updated_at`

func scanShop(row pgx.Row) (Shop, error) {
	var shop Shop
	err := row.Scan(&shop.ID, &shop.Name, &shop.Address, &shop.IsActive, &shop.CreatedAt, &shop.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Shop{}, shared.ErrNotFound
		}
		return Shop{}, err
	}
	return shop, nil
}

// ListShops returns every shop ordered by name.
func (r *Repository) ListShops(ctx context.Context) ([]Shop, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+shopColumns+` FROM shops ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var shops []Shop
	for rows.Next() {
		var shop Shop
		if err := rows.Scan(&shop.ID, &shop.Name, &shop.Address, &shop.IsActive, &shop.CreatedAt, &shop.UpdatedAt); err != nil {
			return nil, err
		}
		shops = append(shops, shop)
	}
	return shops, rows.Err()
}

// GetShop fetches a shop by ID.
func (r *Repository) GetShop(ctx context.Context, id int64) (Shop, error) {
	return scanShop(r.pool.QueryRow(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = $1`, id))
}

// CreateShop inserts an active shop.
func (r *Repository) CreateShop(ctx context.Context, name, address string) (Shop, error) {
	return scanShop(r.pool.QueryRow(ctx, `
		INSERT INTO shops (name, address) VALUES ($1, $2)
		RETURNING `+shopColumns, name, address))
}

// UpdateShop rewrites the shop's fields.
func (r *Repository) UpdateShop(ctx context.Context, id int64, name, address string, active bool) (Shop, error) {
	return scanShop(r.pool.QueryRow(ctx, `
		UPDATE shops SET name = $2, address = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+shopColumns, id, name, address, active))
}

var _ RepositoryPort = (*Repository)(nil)
