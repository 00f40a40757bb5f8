package sales

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokobase/tokobase/internal/shared"
)

// RepositoryPort defines data access for sale records.
type RepositoryPort interface {
	ListByShop(ctx context.Context, shopID int64) ([]SaleRecord, error)
	Get(ctx context.Context, id int64) (SaleRecord, error)
	Create(ctx context.Context, rec SaleRecord) (SaleRecord, error)
	Update(ctx context.Context, rec SaleRecord) (SaleRecord, error)
	Delete(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const saleColumns = `id, shop_id, user_id, amount, sold_at, note, created_at, updated_at`

func scanSale(row pgx.Row) (SaleRecord, error) {
	var rec SaleRecord
	err := row.Scan(&rec.ID, &rec.ShopID, &rec.UserID, &rec.Amount, &rec.SoldAt, &rec.Note, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SaleRecord{}, shared.ErrNotFound
		}
		return SaleRecord{}, err
	}
	return rec, nil
}

// ListByShop returns the shop's sales, newest first.
func (r *Repository) ListByShop(ctx context.Context, shopID int64) ([]SaleRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sale_records WHERE shop_id = $1 ORDER BY sold_at DESC`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []SaleRecord
	for rows.Next() {
		var rec SaleRecord
		if err := rows.Scan(&rec.ID, &rec.ShopID, &rec.UserID, &rec.Amount, &rec.SoldAt, &rec.Note, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Get fetches a single record.
func (r *Repository) Get(ctx context.Context, id int64) (SaleRecord, error) {
	return scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sale_records WHERE id = $1`, id))
}

// Create inserts a new record.
func (r *Repository) Create(ctx context.Context, rec SaleRecord) (SaleRecord, error) {
	return scanSale(r.pool.QueryRow(ctx, `
		INSERT INTO sale_records (shop_id, user_id, amount, sold_at, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+saleColumns, rec.ShopID, rec.UserID, rec.Amount, rec.SoldAt, rec.Note))
}

// Update rewrites an existing record's mutable fields.
func (r *Repository) Update(ctx context.Context, rec SaleRecord) (SaleRecord, error) {
	return scanSale(r.pool.QueryRow(ctx, `
		UPDATE sale_records SET amount = $2, sold_at = $3, note = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+saleColumns, rec.ID, rec.Amount, rec.SoldAt, rec.Note))
}

// Delete removes a record.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sale_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
