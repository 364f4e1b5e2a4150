package liquidations

import (
	"context"
	"fmt"
	"strings"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/observability"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/quotations"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// RepositoryPort abstracts the persistence operations the service needs.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	TotalEarned(ctx context.Context, personID int64, role Role) (float64, error)
	TotalLiquidated(ctx context.Context, personID int64, role Role) (float64, error)
	ListLiquidations(ctx context.Context, personID int64, role Role) ([]Liquidation, error)
}

// Service settles pending payout balances.
type Service struct {
	repo    RepositoryPort
	metrics *observability.Metrics
}

// NewService constructs the liquidation service.
func NewService(repo RepositoryPort, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, metrics: metrics}
}

// Balance reports the current payout position of a person. It is a preview;
// Create re-reads the balance inside its own transaction.
func (s *Service) Balance(ctx context.Context, personID int64, role Role) (*Balance, error) {
	if personID <= 0 {
		return nil, shared.NewValidationError("person_id", "must be positive")
	}
	if !role.Valid() {
		return nil, shared.NewValidationError("role", "must be seller or worker")
	}
	earned, err := s.repo.TotalEarned(ctx, personID, role)
	if err != nil {
		return nil, fmt.Errorf("liquidations: total earned: %w", err)
	}
	liquidated, err := s.repo.TotalLiquidated(ctx, personID, role)
	if err != nil {
		return nil, fmt.Errorf("liquidations: total liquidated: %w", err)
	}
	return &Balance{
		PersonID:        personID,
		Role:            role,
		TotalEarned:     earned,
		TotalLiquidated: liquidated,
		Pending:         quotations.Round2(earned - liquidated),
	}, nil
}

// Create settles an amount against a person's pending balance. The balance is
// re-read under an advisory lock inside the transaction, so a concurrent
// settlement cannot overdraw it.
func (s *Service) Create(ctx context.Context, req CreateLiquidationRequest, createdBy int64) (*Liquidation, error) {
	role := Role(req.Role)
	if !role.Valid() {
		return nil, shared.NewValidationError("role", "must be seller or worker")
	}
	if req.Amount <= 0 {
		return nil, shared.NewValidationError("amount", "must be positive")
	}
	if strings.TrimSpace(req.Method) == "" {
		return nil, shared.NewValidationError("method", "payment method is required")
	}

	liq := &Liquidation{
		PersonID:  req.PersonID,
		Role:      role,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
		CreatedBy: createdBy,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockPerson(ctx, req.PersonID, role); err != nil {
			return fmt.Errorf("liquidations: lock person: %w", err)
		}
		earned, err := tx.TotalEarned(ctx, req.PersonID, role)
		if err != nil {
			return fmt.Errorf("liquidations: total earned: %w", err)
		}
		liquidated, err := tx.TotalLiquidated(ctx, req.PersonID, role)
		if err != nil {
			return fmt.Errorf("liquidations: total liquidated: %w", err)
		}
		pending := quotations.Round2(earned - liquidated)
		if req.Amount > pending {
			return shared.NewValidationError("amount",
				fmt.Sprintf("exceeds pending balance %.2f", pending))
		}
		return tx.InsertLiquidation(ctx, liq)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.LiquidationRecorded()
	return liq, nil
}

// List returns a person's settlement history.
func (s *Service) List(ctx context.Context, personID int64, role Role) ([]Liquidation, error) {
	if !role.Valid() {
		return nil, shared.NewValidationError("role", "must be seller or worker")
	}
	return s.repo.ListLiquidations(ctx, personID, role)
}
