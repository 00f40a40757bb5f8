package shops

import (
	"context"
	"errors"
	"strings"

	"github.com/tokobase/tokobase/internal/shared"
)

// Service handles shop business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListShops returns all outlets.
func (s *Service) ListShops(ctx context.Context) ([]Shop, error) {
	shops, err := s.repo.ListShops(ctx)
	if err != nil {
		return nil, shared.WrapStorage("list shops", err)
	}
	return shops, nil
}

// GetShop fetches a single outlet.
func (s *Service) GetShop(ctx context.Context, id int64) (Shop, error) {
	shop, err := s.repo.GetShop(ctx, id)
	if err != nil {
		return Shop{}, shared.WrapStorage("get shop", err)
	}
	return shop, nil
}

// CreateShop registers a new outlet.
func (s *Service) CreateShop(ctx context.Context, name, address string) (Shop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Shop{}, errors.New("shops: name required")
	}
	shop, err := s.repo.CreateShop(ctx, name, strings.TrimSpace(address))
	if err != nil {
		return Shop{}, shared.WrapStorage("create shop", err)
	}
	return shop, nil
}

// UpdateShop rewrites an outlet's details.
func (s *Service) UpdateShop(ctx context.Context, id int64, name, address string, active bool) (Shop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Shop{}, errors.New("shops: name required")
	}
	shop, err := s.repo.UpdateShop(ctx, id, name, strings.TrimSpace(address), active)
	if err != nil {
		return Shop{}, shared.WrapStorage("update shop", err)
	}
	return shop, nil
}
