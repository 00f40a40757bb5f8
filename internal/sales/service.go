package sales

import (
	"context"
	"errors"
	"time"

	"github.com/tokobase/tokobase/internal/shared"
)

// Service handles sale record business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListByShop returns the shop's sales.
func (s *Service) ListByShop(ctx context.Context, shopID int64) ([]SaleRecord, error) {
	recs, err := s.repo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, shared.WrapStorage("list sales", err)
	}
	return recs, nil
}

// Get fetches a single record.
func (s *Service) Get(ctx context.Context, id int64) (SaleRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return SaleRecord{}, shared.WrapStorage("get sale", err)
	}
	return rec, nil
}

// Create books a sale against a shop.
func (s *Service) Create(ctx context.Context, actorID, shopID int64, amount float64, soldAt time.Time, note string) (SaleRecord, error) {
	if amount <= 0 {
		return SaleRecord{}, errors.New("sales: amount must be positive")
	}
	if soldAt.IsZero() {
		soldAt = time.Now().UTC()
	}
	rec, err := s.repo.Create(ctx, SaleRecord{ShopID: shopID, UserID: actorID, Amount: amount, SoldAt: soldAt, Note: note})
	if err != nil {
		return SaleRecord{}, shared.WrapStorage("create sale", err)
	}
	return rec, nil
}

// Update corrects an existing record.
func (s *Service) Update(ctx context.Context, id int64, amount float64, soldAt time.Time, note string) (SaleRecord, error) {
	if amount <= 0 {
		return SaleRecord{}, errors.New("sales: amount must be positive")
	}
	rec, err := s.repo.Update(ctx, SaleRecord{ID: id, Amount: amount, SoldAt: soldAt, Note: note})
	if err != nil {
		return SaleRecord{}, shared.WrapStorage("update sale", err)
	}
	return rec, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return shared.WrapStorage("delete sale", err)
	}
	return nil
}
