package feehead

import (
	"context"
	"strings"

	"github.com/campusledger/campusledger/internal/shared"
)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	List(ctx context.Context) ([]FeeHead, error)
	GetByName(ctx context.Context, name string) (*FeeHead, error)
	Create(ctx context.Context, name, code string) (*FeeHead, error)
	EnsureByName(ctx context.Context, name, code string) (*FeeHead, error)
}

// Service handles catalog business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Catalog returns all heads in fetch order.
func (s *Service) Catalog(ctx context.Context) ([]FeeHead, error) {
	return s.repo.List(ctx)
}

// CreateHead validates and creates a catalog entry.
func (s *Service) CreateHead(ctx context.Context, name, code string) (*FeeHead, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewError(shared.KindValidation, "fee head name required")
	}
	return s.repo.Create(ctx, name, strings.TrimSpace(code))
}

// MiscellaneousDue returns the fallback head, creating it on first use.
func (s *Service) MiscellaneousDue(ctx context.Context) (*FeeHead, error) {
	return s.repo.EnsureByName(ctx, MiscellaneousDueName, "MISC")
}

// Match maps free header text to a catalog head, or nil.
func (s *Service) Match(ctx context.Context, header string) (*FeeHead, error) {
	catalog, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return MatchHead(header, catalog), nil
}
