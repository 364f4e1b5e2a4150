package labor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/quotations"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockLaborRepo struct {
	records map[int64]*RealLaborRecord
	nextID  int64

	createError error
	listError   error
}

func newMockLaborRepo() *mockLaborRepo {
	return &mockLaborRepo{records: make(map[int64]*RealLaborRecord), nextID: 1}
}

func (m *mockLaborRepo) CreateRecord(ctx context.Context, record *RealLaborRecord) error {
	if m.createError != nil {
		return m.createError
	}
	record.ID = m.nextID
	m.nextID++
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

func (m *mockLaborRepo) GetRecord(ctx context.Context, id int64) (*RealLaborRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockLaborRepo) ListRecords(ctx context.Context, quotationID int64) ([]RealLaborRecord, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var out []RealLaborRecord
	for _, r := range m.records {
		if r.QuotationID == quotationID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockLaborRepo) UpdateRecord(ctx context.Context, id int64, updates map[string]interface{}) error {
	r, ok := m.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["description"]; ok {
		r.Description = v.(string)
	}
	if v, ok := updates["hours"]; ok {
		r.Hours = v.(float64)
	}
	if v, ok := updates["hourly_rate"]; ok {
		r.HourlyRate = v.(float64)
	}
	if v, ok := updates["manual_amount"]; ok {
		amount := v.(float64)
		r.ManualAmount = &amount
	}
	if v, ok := updates["scope"]; ok {
		r.Scope = LaborScope(v.(string))
	}
	if v, ok := updates["applied_units"]; ok {
		r.AppliedUnits = v.(int)
	}
	return nil
}

func (m *mockLaborRepo) DeleteRecord(ctx context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

type mockQuotes struct {
	quotations map[int64]*quotations.Quotation
}

func (m *mockQuotes) Get(ctx context.Context, id int64) (*quotations.Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (m *mockQuotes) List(ctx context.Context, req quotations.ListQuotationsRequest) ([]quotations.Quotation, int, error) {
	var out []quotations.Quotation
	for _, q := range m.quotations {
		if q.CompanyID != req.CompanyID {
			continue
		}
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func batchQuotation(id int64, units int, laborPerUnit float64) *quotations.Quotation {
	return &quotations.Quotation{
		ID:        id,
		Number:    "MN-1000",
		CompanyID: 1,
		Status:    quotations.QuotationStatusAccepted,
		UnitCount: units,
		Items: []quotations.Item{{
			Type:     quotations.ItemTypeManual,
			Name:     "Silla",
			Quantity: float64(units),
			Services: []quotations.ServiceLine{{Name: "Ensamble", Hours: 1, HourlyRate: laborPerUnit}},
		}},
	}
}

func newTestService(repo *mockLaborRepo, quotes *mockQuotes) *Service {
	return NewService(repo, quotes, nil, nil)
}

func ptr(v float64) *float64 { return &v }

// ============================================================================
// SCOPE MULTIPLIERS
// ============================================================================

func TestContributionPerUnitScalesByBatch(t *testing.T) {
	record := RealLaborRecord{Scope: ScopePerUnit, ManualAmount: ptr(100)}
	assert.Equal(t, 1500.0, record.Contribution(15))
}

func TestContributionTotalCountsOnce(t *testing.T) {
	record := RealLaborRecord{Scope: ScopeTotal, ManualAmount: ptr(100)}
	assert.Equal(t, 100.0, record.Contribution(15))
}

func TestContributionPartialHoursBasedScalesByAppliedUnits(t *testing.T) {
	// 2h × 50/h per unit, applied to 5 of the 15 units.
	record := RealLaborRecord{Scope: ScopePartial, Hours: 2, HourlyRate: 50, AppliedUnits: 5}
	assert.Equal(t, 500.0, record.Contribution(15))
}

func TestContributionPartialLumpCountsOnce(t *testing.T) {
	// A lump amount already covers its stated units.
	record := RealLaborRecord{Scope: ScopePartial, ManualAmount: ptr(100), AppliedUnits: 5}
	assert.Equal(t, 100.0, record.Contribution(15))
}

func TestContributionZeroBatchDefaultsToOne(t *testing.T) {
	record := RealLaborRecord{Scope: ScopePerUnit, ManualAmount: ptr(100)}
	assert.Equal(t, 100.0, record.Contribution(0))
}

func TestBaseAmountPrefersManual(t *testing.T) {
	hours := RealLaborRecord{Hours: 3, HourlyRate: 20000}
	assert.Equal(t, 60000.0, hours.BaseAmount())
	assert.True(t, hours.HoursBased())

	manual := RealLaborRecord{Hours: 3, HourlyRate: 20000, ManualAmount: ptr(55000)}
	assert.Equal(t, 55000.0, manual.BaseAmount())
	assert.False(t, manual.HoursBased())
}

// ============================================================================
// BUDGET AND RECONCILIATION
// ============================================================================

func TestBudgetedLaborScalesByUnitCount(t *testing.T) {
	q := batchQuotation(1, 15, 30000)
	assert.Equal(t, 450000.0, BudgetedLabor(q))
}

func TestBudgetedLaborZeroUnitsCountsOne(t *testing.T) {
	q := batchQuotation(1, 0, 30000)
	assert.Equal(t, 30000.0, BudgetedLabor(q))
}

func TestReconcileComputesVariance(t *testing.T) {
	repo := newMockLaborRepo()
	quotes := &mockQuotes{quotations: map[int64]*quotations.Quotation{
		1: batchQuotation(1, 10, 30000),
	}}
	svc := newTestService(repo, quotes)
	ctx := context.Background()

	_, err := svc.RecordCost(ctx, 1, RecordLaborRequest{
		Description: "ensamble real",
		Hours:       1.2,
		HourlyRate:  30000,
		Scope:       "per_unit",
	}, 1)
	require.NoError(t, err)

	rec, err := svc.Reconcile(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 300000.0, rec.BudgetedLabor)
	assert.Equal(t, 360000.0, rec.ActualLabor)
	// Overrun: actual exceeded budget by 60,000.
	assert.Equal(t, 60000.0, rec.Variance)
	assert.Len(t, rec.Records, 1)
}

func TestCompanySummaryAggregatesAcceptedQuotations(t *testing.T) {
	repo := newMockLaborRepo()
	quotes := &mockQuotes{quotations: map[int64]*quotations.Quotation{
		1: batchQuotation(1, 10, 30000),
		2: batchQuotation(2, 5, 20000),
	}}
	svc := newTestService(repo, quotes)
	ctx := context.Background()

	_, err := svc.RecordCost(ctx, 1, RecordLaborRequest{
		Description: "lote completo", ManualAmount: ptr(250000), Scope: "total"}, 1)
	require.NoError(t, err)
	_, err = svc.RecordCost(ctx, 2, RecordLaborRequest{
		Description: "por unidad", ManualAmount: ptr(25000), Scope: "per_unit"}, 1)
	require.NoError(t, err)

	summary, err := svc.CompanySummary(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Quotations)
	assert.Equal(t, 400000.0, summary.TotalBudgeted)
	assert.Equal(t, 375000.0, summary.TotalActual)
	assert.Equal(t, -25000.0, summary.TotalVariance)
	assert.NotEmpty(t, summary.FormattedVariance)
}

func TestCompanySummarySkipsPendingQuotations(t *testing.T) {
	pending := batchQuotation(3, 2, 10000)
	pending.Status = quotations.QuotationStatusPending
	quotes := &mockQuotes{quotations: map[int64]*quotations.Quotation{3: pending}}
	svc := newTestService(newMockLaborRepo(), quotes)

	summary, err := svc.CompanySummary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Quotations)
}

// ============================================================================
// RECORD VALIDATION
// ============================================================================

func TestRecordCostRejectsUnknownQuotation(t *testing.T) {
	svc := newTestService(newMockLaborRepo(), &mockQuotes{quotations: map[int64]*quotations.Quotation{}})

	_, err := svc.RecordCost(context.Background(), 99, RecordLaborRequest{
		Description: "x", Hours: 1, HourlyRate: 100, Scope: "total"}, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordCostPartialRequiresAppliedUnits(t *testing.T) {
	quotes := &mockQuotes{quotations: map[int64]*quotations.Quotation{1: batchQuotation(1, 10, 100)}}
	svc := newTestService(newMockLaborRepo(), quotes)

	_, err := svc.RecordCost(context.Background(), 1, RecordLaborRequest{
		Description: "x", Hours: 1, HourlyRate: 100, Scope: "partial"}, 1)

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "applied_units", vErr.Field)
}

func TestRecordCostRejectsMixedAmountBasis(t *testing.T) {
	quotes := &mockQuotes{quotations: map[int64]*quotations.Quotation{1: batchQuotation(1, 10, 100)}}
	svc := newTestService(newMockLaborRepo(), quotes)

	_, err := svc.RecordCost(context.Background(), 1, RecordLaborRequest{
		Description: "x", Hours: 2, HourlyRate: 100, ManualAmount: ptr(500), Scope: "total"}, 1)

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "manual_amount", vErr.Field)
}

func TestRecordCostRequiresSomeAmount(t *testing.T) {
	quotes := &mockQuotes{quotations: map[int64]*quotations.Quotation{1: batchQuotation(1, 10, 100)}}
	svc := newTestService(newMockLaborRepo(), quotes)

	_, err := svc.RecordCost(context.Background(), 1, RecordLaborRequest{
		Description: "x", Scope: "total"}, 1)

	var vErr *shared.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestUpdateCostRevalidates(t *testing.T) {
	repo := newMockLaborRepo()
	quotes := &mockQuotes{quotations: map[int64]*quotations.Quotation{1: batchQuotation(1, 10, 100)}}
	svc := newTestService(repo, quotes)
	ctx := context.Background()

	record, err := svc.RecordCost(ctx, 1, RecordLaborRequest{
		Description: "x", Hours: 1, HourlyRate: 100, Scope: "total"}, 1)
	require.NoError(t, err)

	scope := "partial"
	_, err = svc.UpdateCost(ctx, record.ID, UpdateLaborRequest{Scope: &scope})
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)

	units := 4
	updated, err := svc.UpdateCost(ctx, record.ID, UpdateLaborRequest{Scope: &scope, AppliedUnits: &units})
	require.NoError(t, err)
	assert.Equal(t, ScopePartial, updated.Scope)
	assert.Equal(t, 4, updated.AppliedUnits)
}

func TestDeleteCost(t *testing.T) {
	repo := newMockLaborRepo()
	quotes := &mockQuotes{quotations: map[int64]*quotations.Quotation{1: batchQuotation(1, 10, 100)}}
	svc := newTestService(repo, quotes)
	ctx := context.Background()

	record, err := svc.RecordCost(ctx, 1, RecordLaborRequest{
		Description: "x", Hours: 1, HourlyRate: 100, Scope: "total"}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCost(ctx, record.ID))
	assert.ErrorIs(t, svc.DeleteCost(ctx, record.ID), shared.ErrNotFound)
}
