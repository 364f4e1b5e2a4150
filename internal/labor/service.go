package labor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/quotations"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// RepositoryPort abstracts the persistence operations the service needs.
type RepositoryPort interface {
	CreateRecord(ctx context.Context, record *RealLaborRecord) error
	GetRecord(ctx context.Context, id int64) (*RealLaborRecord, error)
	ListRecords(ctx context.Context, quotationID int64) ([]RealLaborRecord, error)
	UpdateRecord(ctx context.Context, id int64, updates map[string]interface{}) error
	DeleteRecord(ctx context.Context, id int64) error
}

// QuotationSource exposes the read side of the quotation store.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotations.Quotation, error)
	List(ctx context.Context, req quotations.ListQuotationsRequest) ([]quotations.Quotation, int, error)
}

// Enqueuer schedules background refreshes of company summaries.
type Enqueuer interface {
	EnqueueReconcileRefresh(ctx context.Context, companyID int64) error
}

// Service implements the cost reconciliation engine.
type Service struct {
	repo     RepositoryPort
	quotes   QuotationSource
	cache    *Cache
	enqueuer Enqueuer
	printer  *message.Printer
}

// NewService constructs the reconciliation service. cache and enqueuer may be
// nil, which disables caching and background refreshes.
func NewService(repo RepositoryPort, quotes QuotationSource, cache *Cache, enqueuer Enqueuer) *Service {
	return &Service{
		repo:     repo,
		quotes:   quotes,
		cache:    cache,
		enqueuer: enqueuer,
		printer:  message.NewPrinter(language.Spanish),
	}
}

// RecordCost registers a real labor cost entry against a quotation.
func (s *Service) RecordCost(ctx context.Context, quotationID int64, req RecordLaborRequest, createdBy int64) (*RealLaborRecord, error) {
	quotation, err := s.quotes.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	record := &RealLaborRecord{
		QuotationID:  quotation.ID,
		WorkerID:     req.WorkerID,
		Description:  req.Description,
		Hours:        req.Hours,
		HourlyRate:   req.HourlyRate,
		ManualAmount: req.ManualAmount,
		Scope:        LaborScope(req.Scope),
		AppliedUnits: req.AppliedUnits,
		CreatedBy:    createdBy,
	}
	if err := validateRecord(record); err != nil {
		return nil, err
	}
	if err := s.repo.CreateRecord(ctx, record); err != nil {
		return nil, err
	}
	s.invalidate(ctx, quotation.CompanyID)
	return record, nil
}

// UpdateCost edits an existing labor record.
func (s *Service) UpdateCost(ctx context.Context, id int64, req UpdateLaborRequest) (*RealLaborRecord, error) {
	record, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		record.Description = *req.Description
		updates["description"] = *req.Description
	}
	if req.Hours != nil {
		record.Hours = *req.Hours
		updates["hours"] = *req.Hours
	}
	if req.HourlyRate != nil {
		record.HourlyRate = *req.HourlyRate
		updates["hourly_rate"] = *req.HourlyRate
	}
	if req.ManualAmount != nil {
		record.ManualAmount = req.ManualAmount
		updates["manual_amount"] = *req.ManualAmount
	}
	if req.Scope != nil {
		record.Scope = LaborScope(*req.Scope)
		updates["scope"] = *req.Scope
	}
	if req.AppliedUnits != nil {
		record.AppliedUnits = *req.AppliedUnits
		updates["applied_units"] = *req.AppliedUnits
	}
	if err := validateRecord(record); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return record, nil
	}
	if err := s.repo.UpdateRecord(ctx, id, updates); err != nil {
		return nil, err
	}
	record.UpdatedAt = time.Now().UTC()

	if quotation, qErr := s.quotes.Get(ctx, record.QuotationID); qErr == nil {
		s.invalidate(ctx, quotation.CompanyID)
	}
	return record, nil
}

// DeleteCost removes a labor record.
func (s *Service) DeleteCost(ctx context.Context, id int64) error {
	record, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRecord(ctx, id); err != nil {
		return err
	}
	if quotation, qErr := s.quotes.Get(ctx, record.QuotationID); qErr == nil {
		s.invalidate(ctx, quotation.CompanyID)
	}
	return nil
}

// ListCosts returns the labor records of a quotation.
func (s *Service) ListCosts(ctx context.Context, quotationID int64) ([]RealLaborRecord, error) {
	if _, err := s.quotes.Get(ctx, quotationID); err != nil {
		return nil, err
	}
	return s.repo.ListRecords(ctx, quotationID)
}

// Reconcile compares the labor budget of a quotation against its recorded
// real cost.
func (s *Service) Reconcile(ctx context.Context, quotationID int64) (*QuotationReconciliation, error) {
	quotation, err := s.quotes.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListRecords(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	return reconcile(quotation, records), nil
}

// CompanySummary aggregates labor variance across every accepted quotation of
// a company. Results are served from cache when available.
func (s *Service) CompanySummary(ctx context.Context, companyID int64) (*CompanyReconciliationSummary, error) {
	if companyID <= 0 {
		return nil, shared.NewValidationError("company_id", "must be positive")
	}
	return s.cache.FetchSummary(ctx, companyID, func(ctx context.Context) (*CompanyReconciliationSummary, error) {
		return s.computeCompanySummary(ctx, companyID)
	})
}

// RefreshCompanySummary recomputes and caches a company summary, bypassing
// any cached value. Used by the background worker.
func (s *Service) RefreshCompanySummary(ctx context.Context, companyID int64) (*CompanyReconciliationSummary, error) {
	if err := s.cache.Bump(ctx); err != nil {
		return nil, err
	}
	return s.CompanySummary(ctx, companyID)
}

func (s *Service) computeCompanySummary(ctx context.Context, companyID int64) (*CompanyReconciliationSummary, error) {
	status := quotations.QuotationStatusAccepted
	accepted, _, err := s.quotes.List(ctx, quotations.ListQuotationsRequest{
		CompanyID: companyID,
		Status:    &status,
		Limit:     1000,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*QuotationReconciliation, len(accepted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range accepted {
		i := i
		g.Go(func() error {
			records, err := s.repo.ListRecords(gctx, accepted[i].ID)
			if err != nil {
				return err
			}
			results[i] = reconcile(&accepted[i], records)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &CompanyReconciliationSummary{
		CompanyID:   companyID,
		Quotations:  len(results),
		GeneratedAt: time.Now().UTC(),
	}
	for _, rec := range results {
		summary.TotalBudgeted += rec.BudgetedLabor
		summary.TotalActual += rec.ActualLabor
	}
	summary.TotalVariance = quotations.Round2(summary.TotalActual - summary.TotalBudgeted)
	summary.FormattedVariance = s.formatAmount(summary.TotalVariance)
	return summary, nil
}

func (s *Service) invalidate(ctx context.Context, companyID int64) {
	// Best-effort: a stale summary self-heals on the next refresh.
	_ = s.cache.Bump(ctx)
	if s.enqueuer != nil {
		_ = s.enqueuer.EnqueueReconcileRefresh(ctx, companyID)
	}
}

func (s *Service) formatAmount(amount float64) string {
	return s.printer.Sprintf("$ %v", number.Decimal(amount, number.MaxFractionDigits(2)))
}

func reconcile(q *quotations.Quotation, records []RealLaborRecord) *QuotationReconciliation {
	rec := &QuotationReconciliation{
		QuotationID:   q.ID,
		Number:        q.Number,
		UnitCount:     q.UnitBase(),
		BudgetedLabor: quotations.Round2(BudgetedLabor(q)),
		Records:       records,
	}
	var actual float64
	for _, record := range records {
		actual += record.Contribution(q.UnitBase())
	}
	rec.ActualLabor = quotations.Round2(actual)
	rec.Variance = quotations.Round2(rec.ActualLabor - rec.BudgetedLabor)
	return rec
}

func validateRecord(record *RealLaborRecord) error {
	switch record.Scope {
	case ScopePerUnit, ScopePartial, ScopeTotal:
	default:
		return shared.NewValidationError("scope", "must be per_unit, partial or total")
	}
	if record.Scope == ScopePartial && record.AppliedUnits < 1 {
		return shared.NewValidationError("applied_units", "required for partial scope")
	}
	if record.ManualAmount != nil {
		if *record.ManualAmount <= 0 {
			return shared.NewValidationError("manual_amount", "must be positive")
		}
		if record.Hours > 0 || record.HourlyRate > 0 {
			return shared.NewValidationError("manual_amount", "cannot combine manual amount with hours")
		}
		return nil
	}
	if record.Hours <= 0 || record.HourlyRate <= 0 {
		return shared.NewValidationError("hours", "hours and hourly_rate required without manual amount")
	}
	return nil
}
