package companies

import (
	"context"
	"errors"
	"fmt"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// RepositoryPort defines data access methods for companies.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Company, error)
	GetByPrefix(ctx context.Context, prefix string) (*Company, error)
	List(ctx context.Context) ([]Company, error)
}

// Service resolves company configuration for the quoting flow.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Resolve returns the configuration for a company. A missing row is a
// ConfigurationError: quotation creation must fail hard rather than fall back
// to placeholder numbering.
func (s *Service) Resolve(ctx context.Context, id int64) (*Company, error) {
	company, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &shared.ConfigurationError{
				Subject: fmt.Sprintf("company %d", id),
				Reason:  "no numbering configuration registered",
			}
		}
		return nil, fmt.Errorf("resolve company: %w", err)
	}
	if company.Prefix == "" || company.StartNumber <= 0 {
		return nil, &shared.ConfigurationError{
			Subject: fmt.Sprintf("company %d", id),
			Reason:  "prefix and start number must be configured",
		}
	}
	return company, nil
}

// List returns all configured companies.
func (s *Service) List(ctx context.Context) ([]Company, error) {
	return s.repo.List(ctx)
}
