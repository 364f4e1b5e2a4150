package quotations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/companies"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	quotations  map[int64]*Quotation
	nextID      int64
	takenNumber map[string]bool
	lastNumbers map[int64]string

	clients      map[int64]*Client
	nextClientID int64

	jobs      map[int64]*Job
	nextJobID int64

	assignments []WorkerAssignment
	history     []ModificationHistory

	// Error injection
	txError          error
	lastNumberError  error
	numberConflicts  int
	createJobError   error
	updateQuotaError error

	// Runs once right before the next transaction, simulating a concurrent
	// writer committing between a Get and the transaction start.
	beforeTx func()
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quotations:   make(map[int64]*Quotation),
		nextID:       1,
		takenNumber:  make(map[string]bool),
		lastNumbers:  make(map[int64]string),
		clients:      make(map[int64]*Client),
		nextClientID: 1,
		jobs:         make(map[int64]*Job),
		nextJobID:    1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	if m.beforeTx != nil {
		hook := m.beforeTx
		m.beforeTx = nil
		hook()
	}
	saved := m.snapshot()
	if err := fn(ctx, &mockTxRepo{mock: m}); err != nil {
		m.restore(saved)
		return err
	}
	return nil
}

type mockState struct {
	quotations  map[int64]*Quotation
	takenNumber map[string]bool
	lastNumbers map[int64]string
	clients     map[int64]*Client
	jobs        map[int64]*Job
	assignments []WorkerAssignment
	history     []ModificationHistory

	nextID       int64
	nextClientID int64
	nextJobID    int64
}

// snapshot and restore give WithTx rollback semantics, mirroring what a real
// transaction abort leaves behind.
func (m *mockRepository) snapshot() mockState {
	s := mockState{
		quotations:   make(map[int64]*Quotation, len(m.quotations)),
		takenNumber:  make(map[string]bool, len(m.takenNumber)),
		lastNumbers:  make(map[int64]string, len(m.lastNumbers)),
		clients:      make(map[int64]*Client, len(m.clients)),
		jobs:         make(map[int64]*Job, len(m.jobs)),
		assignments:  append([]WorkerAssignment(nil), m.assignments...),
		history:      append([]ModificationHistory(nil), m.history...),
		nextID:       m.nextID,
		nextClientID: m.nextClientID,
		nextJobID:    m.nextJobID,
	}
	for id, q := range m.quotations {
		copied := *q
		s.quotations[id] = &copied
	}
	for n, taken := range m.takenNumber {
		s.takenNumber[n] = taken
	}
	for id, n := range m.lastNumbers {
		s.lastNumbers[id] = n
	}
	for id, c := range m.clients {
		copied := *c
		s.clients[id] = &copied
	}
	for id, j := range m.jobs {
		copied := *j
		s.jobs[id] = &copied
	}
	return s
}

func (m *mockRepository) restore(s mockState) {
	m.quotations = s.quotations
	m.takenNumber = s.takenNumber
	m.lastNumbers = s.lastNumbers
	m.clients = s.clients
	m.jobs = s.jobs
	m.assignments = s.assignments
	m.history = s.history
	m.nextID = s.nextID
	m.nextClientID = s.nextClientID
	m.nextJobID = s.nextJobID
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	var out []Quotation
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

func (m *mockRepository) LastNumber(ctx context.Context, companyID int64) (string, error) {
	if m.lastNumberError != nil {
		return "", m.lastNumberError
	}
	return m.lastNumbers[companyID], nil
}

func (m *mockRepository) ListHistory(ctx context.Context, quotationID int64) ([]ModificationHistory, error) {
	var out []ModificationHistory
	for _, h := range m.history {
		if h.QuotationID == quotationID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockRepository) GetJobByQuotation(ctx context.Context, quotationID int64) (*Job, error) {
	for _, j := range m.jobs {
		if j.QuotationID == quotationID {
			copied := *j
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) CreateQuotation(ctx context.Context, q Quotation) (int64, error) {
	m := t.mock
	if m.numberConflicts > 0 {
		m.numberConflicts--
		return 0, ErrNumberTaken
	}
	if m.takenNumber[q.Number] {
		return 0, ErrNumberTaken
	}
	id := m.nextID
	m.nextID++
	q.ID = id
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	m.quotations[id] = &q
	m.takenNumber[q.Number] = true
	m.lastNumbers[q.CompanyID] = q.Number
	return id, nil
}

func (t *mockTxRepo) UpdateQuotation(ctx context.Context, id int64, updates map[string]interface{}) error {
	if t.mock.updateQuotaError != nil {
		return t.mock.updateQuotaError
	}
	q, ok := t.mock.quotations[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["seller_payout"]; ok {
		q.SellerPayout = v.(float64)
	}
	if v, ok := updates["subtotal"]; ok {
		q.Subtotal = v.(float64)
	}
	if v, ok := updates["iva"]; ok {
		q.IVA = v.(float64)
	}
	if v, ok := updates["iva_percent"]; ok {
		q.IVAPercent = v.(float64)
	}
	if v, ok := updates["margin_percent"]; ok {
		q.MarginPercent = v.(float64)
	}
	if v, ok := updates["total"]; ok {
		q.Total = v.(float64)
	}
	if v, ok := updates["unit_count"]; ok {
		q.UnitCount = v.(int)
	}
	if v, ok := updates["client_name"]; ok {
		q.ClientName = v.(string)
	}
	if v, ok := updates["items"]; ok {
		items, err := DecodeItems(v.([]byte))
		if err != nil {
			return err
		}
		q.Items = items
	}
	return nil
}

func (t *mockTxRepo) UpdateStatus(ctx context.Context, id int64, to QuotationStatus, from ...QuotationStatus) error {
	q, ok := t.mock.quotations[id]
	if !ok {
		return shared.ErrNotFound
	}
	if len(from) > 0 {
		allowed := false
		for _, st := range from {
			if q.Status == st {
				allowed = true
			}
		}
		if !allowed {
			return fmt.Errorf("%w: now %s", ErrStaleStatus, q.Status)
		}
	}
	q.Status = to
	return nil
}

func (t *mockTxRepo) UpdatePayment(ctx context.Context, id int64, amountPaid float64, status PaymentStatus) error {
	q, ok := t.mock.quotations[id]
	if !ok {
		return shared.ErrNotFound
	}
	q.AmountPaid = amountPaid
	q.PaymentStatus = status
	return nil
}

func (t *mockTxRepo) InsertHistory(ctx context.Context, entry ModificationHistory) (int64, error) {
	entry.ID = int64(len(t.mock.history) + 1)
	entry.CreatedAt = time.Now()
	t.mock.history = append(t.mock.history, entry)
	return entry.ID, nil
}

func (t *mockTxRepo) FindClient(ctx context.Context, companyID int64, email, phone *string) (*Client, error) {
	for _, c := range t.mock.clients {
		if c.CompanyID != companyID {
			continue
		}
		if email != nil && *email != "" && c.Email != nil && *c.Email == *email {
			copied := *c
			return &copied, nil
		}
		if phone != nil && *phone != "" && c.Phone != nil && *c.Phone == *phone {
			copied := *c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (t *mockTxRepo) CreateClient(ctx context.Context, c Client) (int64, error) {
	id := t.mock.nextClientID
	t.mock.nextClientID++
	c.ID = id
	t.mock.clients[id] = &c
	return id, nil
}

func (t *mockTxRepo) CreateJob(ctx context.Context, j Job) (int64, error) {
	if t.mock.createJobError != nil {
		return 0, t.mock.createJobError
	}
	id := t.mock.nextJobID
	t.mock.nextJobID++
	j.ID = id
	t.mock.jobs[id] = &j
	return id, nil
}

func (t *mockTxRepo) CreateWorkerAssignment(ctx context.Context, a WorkerAssignment) (int64, error) {
	a.ID = int64(len(t.mock.assignments) + 1)
	t.mock.assignments = append(t.mock.assignments, a)
	return a.ID, nil
}

type mockCompanies struct {
	companies map[int64]*companies.Company
	err       error
}

func (m *mockCompanies) Resolve(ctx context.Context, id int64) (*companies.Company, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.companies[id]
	if !ok {
		return nil, &shared.ConfigurationError{Subject: "company", Reason: "missing"}
	}
	return c, nil
}

func testCompanies() *mockCompanies {
	return &mockCompanies{companies: map[int64]*companies.Company{
		1: {ID: 1, Name: "Muebles Norte", Prefix: "MN", StartNumber: 1000, DefaultIVAPercent: 19},
		2: {ID: 2, Name: "Carpintería Sur", Prefix: "CS", StartNumber: 5000, DefaultIVAPercent: 19},
	}}
}

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, testCompanies(), nil, nil)
}

func manualItem(name string, materialCost, laborCost float64) Item {
	return Item{
		Type:      ItemTypeManual,
		Name:      name,
		Quantity:  1,
		Materials: []Material{{Name: "Materiales", Quantity: 1, UnitPrice: materialCost}},
		Services:  []ServiceLine{{Name: "Mano de obra", Hours: 1, HourlyRate: laborCost}},
	}
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateAssignsFirstNumber(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	q, err := svc.Create(context.Background(), CreateQuotationRequest{
		CompanyID:  1,
		ClientName: "Ana Pérez",
		Items:      []Item{manualItem("Mesa", 1_000_000, 500_000)},
	}, 9)
	require.NoError(t, err)

	assert.Equal(t, "MN-1000", q.Number)
	assert.Equal(t, QuotationStatusPending, q.Status)
	assert.Equal(t, PaymentStatusUnpaid, q.PaymentStatus)
	assert.Equal(t, int64(9), q.CreatedBy)
	// Default IVA from company config.
	assert.Equal(t, 19.0, q.IVAPercent)
	assert.Equal(t, 1_500_000.0, q.Subtotal)
	assert.Equal(t, 285_000.0, q.IVA)
	assert.Equal(t, 1_785_000.0, q.Total)
}

func TestCreateSequencesPerCompany(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateQuotationRequest{CompanyID: 1, ClientName: "A",
		Items: []Item{manualItem("x", 100, 0)}}, 1)
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateQuotationRequest{CompanyID: 1, ClientName: "B",
		Items: []Item{manualItem("y", 100, 0)}}, 1)
	require.NoError(t, err)
	other, err := svc.Create(ctx, CreateQuotationRequest{CompanyID: 2, ClientName: "C",
		Items: []Item{manualItem("z", 100, 0)}}, 1)
	require.NoError(t, err)

	assert.Equal(t, "MN-1000", first.Number)
	assert.Equal(t, "MN-1001", second.Number)
	assert.Equal(t, "CS-5000", other.Number)
}

func TestCreateWrapsLegacyComponents(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	q, err := svc.Create(context.Background(), CreateQuotationRequest{
		CompanyID:  1,
		ClientName: "Cliente Legacy",
		Materials:  []Material{{Name: "Madera", Quantity: 10, UnitPrice: 100000}},
		Services:   []ServiceLine{{Name: "Carpintería", Hours: 25, HourlyRate: 20000}},
	}, 1)
	require.NoError(t, err)

	require.Len(t, q.Items, 1)
	assert.Equal(t, ItemTypeManual, q.Items[0].Type)
	assert.Equal(t, "Presupuesto general", q.Items[0].Name)
	assert.Equal(t, 1_500_000.0, q.Subtotal)
}

func TestCreateRequiresSomeLine(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, err := svc.Create(context.Background(), CreateQuotationRequest{CompanyID: 1, ClientName: "X"}, 1)

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items", vErr.Field)
}

func TestCreateNumberingLookupFailureIsFatal(t *testing.T) {
	repo := newMockRepository()
	repo.lastNumberError = errors.New("connection reset")
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateQuotationRequest{CompanyID: 1, ClientName: "X",
		Items: []Item{manualItem("m", 100, 0)}}, 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "numbering lookup")
	assert.Empty(t, repo.quotations)
}

func TestCreateRetriesOnceOnNumberConflict(t *testing.T) {
	repo := newMockRepository()
	repo.numberConflicts = 1
	svc := newTestService(repo)

	q, err := svc.Create(context.Background(), CreateQuotationRequest{CompanyID: 1, ClientName: "X",
		Items: []Item{manualItem("m", 100, 0)}}, 1)

	require.NoError(t, err)
	assert.Equal(t, "MN-1000", q.Number)
}

func TestCreateGivesUpAfterSecondConflict(t *testing.T) {
	repo := newMockRepository()
	repo.numberConflicts = 2
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateQuotationRequest{CompanyID: 1, ClientName: "X",
		Items: []Item{manualItem("m", 100, 0)}}, 1)

	var conflict *shared.NumberingConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, repo.quotations)
}

func TestCreateUnknownCompanyFails(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, err := svc.Create(context.Background(), CreateQuotationRequest{CompanyID: 99, ClientName: "X",
		Items: []Item{manualItem("m", 100, 0)}}, 1)

	var cfgErr *shared.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

// ============================================================================
// ACCEPT
// ============================================================================

func createPending(t *testing.T, svc *Service, companyID int64, email *string) *Quotation {
	t.Helper()
	q, err := svc.Create(context.Background(), CreateQuotationRequest{
		CompanyID:   companyID,
		ClientName:  "Cliente",
		ClientEmail: email,
		Items:       []Item{manualItem("Mesa", 500000, 250000)},
	}, 1)
	require.NoError(t, err)
	return q
}

func TestAcceptCreatesClientJobAndAssignments(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	email := "cliente@mail.com"
	q := createPending(t, svc, 1, &email)

	payout := 120000.0
	accepted, err := svc.Accept(context.Background(), q.ID, AcceptQuotationRequest{
		SellerPayout: &payout,
		WorkerAssignments: []WorkerAssignmentRequest{
			{WorkerID: 7, Payout: 80000},
			{WorkerID: 8, Payout: 60000},
		},
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, QuotationStatusAccepted, accepted.Status)
	assert.Equal(t, 120000.0, accepted.SellerPayout)
	require.Len(t, repo.clients, 1)
	require.Len(t, repo.jobs, 1)
	require.Len(t, repo.assignments, 2)

	job := repo.jobs[1]
	assert.Equal(t, q.ID, job.QuotationID)
	assert.Equal(t, JobStatusPending, job.Status)
	for _, a := range repo.assignments {
		assert.Equal(t, job.ID, a.JobID)
	}
}

func TestAcceptReusesExistingClient(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	email := "repetido@mail.com"
	existing := Client{CompanyID: 1, Name: "Cliente", Email: &email}
	id, err := (&mockTxRepo{mock: repo}).CreateClient(context.Background(), existing)
	require.NoError(t, err)

	q := createPending(t, svc, 1, &email)
	_, err = svc.Accept(context.Background(), q.ID, AcceptQuotationRequest{}, 1)
	require.NoError(t, err)

	require.Len(t, repo.clients, 1)
	assert.Equal(t, id, repo.jobs[1].ClientID)
}

func TestAcceptNonPendingRejected(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	_, err := svc.Accept(context.Background(), q.ID, AcceptQuotationRequest{}, 1)
	require.NoError(t, err)

	// Second acceptance must not create a second set of side-effect rows.
	_, err = svc.Accept(context.Background(), q.ID, AcceptQuotationRequest{}, 1)
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, repo.jobs, 1)
	assert.Len(t, repo.clients, 1)
}

func TestAcceptFailureReportsStepAndCreatedIDs(t *testing.T) {
	repo := newMockRepository()
	repo.createJobError = errors.New("jobs table unavailable")
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	_, err := svc.Accept(context.Background(), q.ID, AcceptQuotationRequest{}, 1)

	var partial *shared.PartialAcceptanceError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "create job", partial.Step)
	assert.Contains(t, partial.CreatedIDs, "client")

	got, err := svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, QuotationStatusPending, got.Status)
}

func TestAcceptFailureReportsEachAssignmentID(t *testing.T) {
	repo := newMockRepository()
	repo.updateQuotaError = errors.New("quotations table unavailable")
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	payout := 50000.0
	_, err := svc.Accept(context.Background(), q.ID, AcceptQuotationRequest{
		SellerPayout: &payout,
		WorkerAssignments: []WorkerAssignmentRequest{
			{WorkerID: 7, Payout: 80000},
			{WorkerID: 8, Payout: 60000},
		},
	}, 1)

	var partial *shared.PartialAcceptanceError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "register seller payout", partial.Step)
	assert.Contains(t, partial.CreatedIDs, "worker_assignment[0]")
	assert.Contains(t, partial.CreatedIDs, "worker_assignment[1]")
}

func TestAcceptLosesRaceToConcurrentReject(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	// A rejection commits between the pending read and the transaction.
	repo.beforeTx = func() { repo.quotations[q.ID].Status = QuotationStatusRejected }

	_, err := svc.Accept(context.Background(), q.ID, AcceptQuotationRequest{}, 1)

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	got, err := svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, QuotationStatusRejected, got.Status)
	assert.Empty(t, repo.clients)
	assert.Empty(t, repo.jobs)
}

// ============================================================================
// REJECT / REOPEN
// ============================================================================

func TestRejectLosesRaceToConcurrentAccept(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	repo.beforeTx = func() { repo.quotations[q.ID].Status = QuotationStatusAccepted }

	_, err := svc.Reject(context.Background(), q.ID)

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	got, err := svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, QuotationStatusAccepted, got.Status)
}

func TestRejectPendingHasNoSideEffects(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	rejected, err := svc.Reject(context.Background(), q.ID)
	require.NoError(t, err)

	assert.Equal(t, QuotationStatusRejected, rejected.Status)
	assert.Empty(t, repo.clients)
	assert.Empty(t, repo.jobs)
	assert.Empty(t, repo.assignments)
}

func TestRejectNonPendingFails(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)
	_, err := svc.Accept(context.Background(), q.ID, AcceptQuotationRequest{}, 1)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), q.ID)
	var vErr *shared.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestReopenLeavesAcceptanceRowsInPlace(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)
	_, err := svc.Accept(context.Background(), q.ID, AcceptQuotationRequest{}, 1)
	require.NoError(t, err)

	reopened, err := svc.Reopen(context.Background(), q.ID)
	require.NoError(t, err)

	assert.Equal(t, QuotationStatusPending, reopened.Status)
	// Status flag correction only: the job and client survive.
	assert.Len(t, repo.jobs, 1)
	assert.Len(t, repo.clients, 1)
}

func TestReopenPendingFails(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	_, err := svc.Reopen(context.Background(), q.ID)
	var vErr *shared.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

// ============================================================================
// PAYMENTS
// ============================================================================

func acceptedQuotation(t *testing.T, repo *mockRepository, svc *Service) *Quotation {
	t.Helper()
	q := createPending(t, svc, 1, nil)
	accepted, err := svc.Accept(context.Background(), q.ID, AcceptQuotationRequest{}, 1)
	require.NoError(t, err)
	return accepted
}

func TestRegisterPaymentDerivesStatus(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := acceptedQuotation(t, repo, svc)

	half := q.Total / 2
	partial, err := svc.RegisterPayment(context.Background(), q.ID, RegisterPaymentRequest{Amount: half})
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPartiallyPaid, partial.PaymentStatus)

	full, err := svc.RegisterPayment(context.Background(), q.ID, RegisterPaymentRequest{Amount: q.Total - half})
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, full.PaymentStatus)
	assert.Equal(t, q.Total, full.AmountPaid)
}

func TestRegisterPaymentOverrideWins(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := acceptedQuotation(t, repo, svc)

	override := PaymentStatusPaid
	got, err := svc.RegisterPayment(context.Background(), q.ID, RegisterPaymentRequest{
		Amount:         1,
		StatusOverride: &override,
	})
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, got.PaymentStatus)
}

func TestRegisterPaymentRejectsOverpayment(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := acceptedQuotation(t, repo, svc)

	_, err := svc.RegisterPayment(context.Background(), q.ID, RegisterPaymentRequest{Amount: q.Total + 1})
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)
}

func TestRegisterPaymentRequiresAcceptedStatus(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	_, err := svc.RegisterPayment(context.Background(), q.ID, RegisterPaymentRequest{Amount: 100})
	var vErr *shared.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

// ============================================================================
// UPDATE / HISTORY
// ============================================================================

func TestUpdateFinancialEditRecordsHistory(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	newItems := []Item{manualItem("Mesa grande", 800000, 400000)}
	updated, err := svc.Update(context.Background(), q.ID, UpdateQuotationRequest{
		Description: "cliente pidió mesa más grande",
		Items:       &newItems,
	}, 4)
	require.NoError(t, err)

	assert.Equal(t, 1_200_000.0, updated.Subtotal)
	require.Len(t, repo.history, 1)
	entry := repo.history[0]
	assert.Equal(t, q.ID, entry.QuotationID)
	assert.Equal(t, int64(4), entry.AuthorID)
	assert.Equal(t, q.Total, entry.Diff.Total.Before)
	assert.Equal(t, updated.Total, entry.Diff.Total.After)
}

func TestUpdateNonFinancialEditSkipsHistory(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	name := "Nuevo Nombre"
	_, err := svc.Update(context.Background(), q.ID, UpdateQuotationRequest{
		Description: "corrección de nombre",
		ClientName:  &name,
	}, 4)
	require.NoError(t, err)
	assert.Empty(t, repo.history)
}

func TestUpdateRequiresDescription(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, err := svc.Update(context.Background(), 1, UpdateQuotationRequest{Description: "  "}, 1)
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "description", vErr.Field)
}

func TestUpdateRejectsEmptyItemList(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	empty := []Item{}
	_, err := svc.Update(context.Background(), q.ID, UpdateQuotationRequest{
		Description: "quitar todo",
		Items:       &empty,
	}, 1)

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items", vErr.Field)

	got, err := svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Subtotal, got.Subtotal)
	require.NotEmpty(t, got.Items)
}

func TestUpdateRejectsTotalBelowAmountPaid(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := acceptedQuotation(t, repo, svc)

	_, err := svc.RegisterPayment(context.Background(), q.ID, RegisterPaymentRequest{Amount: q.Total})
	require.NoError(t, err)

	cheap := []Item{manualItem("Banquito", 10000, 5000)}
	_, err = svc.Update(context.Background(), q.ID, UpdateQuotationRequest{
		Description: "rebaja imposible",
		Items:       &cheap,
	}, 1)

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "total", vErr.Field)
}

func TestHistoryReturnsEntries(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	q := createPending(t, svc, 1, nil)

	items := []Item{manualItem("Otra", 100000, 50000)}
	_, err := svc.Update(context.Background(), q.ID, UpdateQuotationRequest{
		Description: "ajuste", Items: &items}, 1)
	require.NoError(t, err)

	entries, err := svc.History(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
