package quotations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/companies"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/observability"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// RepositoryPort defines the persistence operations the service relies on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)
	LastNumber(ctx context.Context, companyID int64) (string, error)
	ListHistory(ctx context.Context, quotationID int64) ([]ModificationHistory, error)
	GetJobByQuotation(ctx context.Context, quotationID int64) (*Job, error)
}

// CompanyResolver supplies the per-company numbering and tax configuration.
type CompanyResolver interface {
	Resolve(ctx context.Context, id int64) (*companies.Company, error)
}

// Notifier publishes acceptance events, typically onto the background queue.
// A nil notifier disables notifications.
type Notifier interface {
	QuotationAccepted(ctx context.Context, number string, clientEmail *string) error
}

// Service owns the quotation lifecycle.
type Service struct {
	repo      RepositoryPort
	companies CompanyResolver
	metrics   *observability.Metrics
	notifier  Notifier
}

// NewService constructs a quotation service.
func NewService(repo RepositoryPort, companies CompanyResolver, metrics *observability.Metrics, notifier Notifier) *Service {
	return &Service{
		repo:      repo,
		companies: companies,
		metrics:   metrics,
		notifier:  notifier,
	}
}

// Create prices the request, assigns the next sequential number for the
// company and persists the quotation in pending state. A numbering lookup
// failure fails the creation outright; there is no placeholder fallback.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, createdBy int64) (*Quotation, error) {
	company, err := s.companies.Resolve(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	items := req.Items
	if len(items) == 0 {
		if len(req.Materials) == 0 && len(req.Services) == 0 {
			return nil, shared.NewValidationError("items", "at least one item or raw component line is required")
		}
		// Legacy flow: wrap raw components into a single manual item so
		// storage and reconciliation see one uniform shape.
		items = []Item{{
			Type:      ItemTypeManual,
			Name:      "Presupuesto general",
			Quantity:  1,
			Materials: req.Materials,
			Services:  req.Services,
		}}
	}
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d]", i), err.Error())
		}
	}

	ivaPercent := company.DefaultIVAPercent
	if req.IVAPercent != nil {
		ivaPercent = *req.IVAPercent
	}
	pricing := ComputePricing(items, nil, nil, req.MarginPercent, ivaPercent)

	quotation := Quotation{
		CompanyID:     req.CompanyID,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientPhone:   req.ClientPhone,
		ClientAddress: req.ClientAddress,
		Items:         items,
		Subtotal:      pricing.Subtotal,
		IVAPercent:    ivaPercent,
		IVA:           pricing.IVA,
		MarginPercent: req.MarginPercent,
		Total:         pricing.Total,
		UnitCount:     req.UnitCount,
		Status:        QuotationStatusPending,
		PaymentStatus: PaymentStatusUnpaid,
		SellerID:      req.SellerID,
		CreatedBy:     createdBy,
	}

	id, err := s.createNumbered(ctx, &quotation, company)
	if err != nil {
		return nil, err
	}

	s.metrics.QuotationCreated(company.Prefix)
	return s.repo.Get(ctx, id)
}

// createNumbered assigns the next number and inserts, retrying exactly once
// with a fresh number when the unique constraint fires under concurrency.
func (s *Service) createNumbered(ctx context.Context, quotation *Quotation, company *companies.Company) (int64, error) {
	var id int64
	for attempt := 0; attempt < 2; attempt++ {
		last, err := s.repo.LastNumber(ctx, company.ID)
		if err != nil {
			return 0, fmt.Errorf("numbering lookup: %w", err)
		}
		quotation.Number = NextNumber(last, company.Prefix, company.StartNumber)

		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			createdID, err := tx.CreateQuotation(ctx, *quotation)
			if err != nil {
				return err
			}
			id = createdID
			return nil
		})
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrNumberTaken) {
			return 0, fmt.Errorf("create quotation: %w", err)
		}
	}
	return 0, &shared.NumberingConflictError{Number: quotation.Number}
}

// Get retrieves a quotation by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

// List returns quotations matching the filter plus the total count.
func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	return s.repo.List(ctx, req)
}

// Update edits an already-created quotation, recomputes totals from the
// item list and records a modification history entry whenever the financial
// shape changed. The history entry documents the edit; it never blocks it.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuotationRequest, authorID int64) (*Quotation, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, shared.NewValidationError("description", "a reason for the modification is required")
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}

	updated := *existing
	financialEdit := false
	updates := make(map[string]interface{})

	if req.Items != nil {
		if len(*req.Items) == 0 {
			return nil, shared.NewValidationError("items", "item list cannot be emptied, at least one line is required")
		}
		for i, it := range *req.Items {
			if err := it.Validate(); err != nil {
				return nil, shared.NewValidationError(fmt.Sprintf("items[%d]", i), err.Error())
			}
		}
		updated.Items = *req.Items
		financialEdit = true
	}
	if req.MarginPercent != nil {
		updated.MarginPercent = *req.MarginPercent
		financialEdit = true
	}
	if req.IVAPercent != nil {
		updated.IVAPercent = *req.IVAPercent
		financialEdit = true
	}
	if req.UnitCount != nil {
		updated.UnitCount = *req.UnitCount
		updates["unit_count"] = *req.UnitCount
	}
	if req.ClientName != nil {
		updated.ClientName = *req.ClientName
		updates["client_name"] = *req.ClientName
	}
	if req.ClientEmail != nil {
		updated.ClientEmail = req.ClientEmail
		updates["client_email"] = *req.ClientEmail
	}
	if req.ClientPhone != nil {
		updated.ClientPhone = req.ClientPhone
		updates["client_phone"] = *req.ClientPhone
	}
	if req.ClientAddress != nil {
		updated.ClientAddress = req.ClientAddress
		updates["client_address"] = *req.ClientAddress
	}
	if req.SellerID != nil {
		updated.SellerID = req.SellerID
		updates["seller_id"] = *req.SellerID
	}

	if financialEdit {
		pricing := ComputePricing(updated.Items, nil, nil, updated.MarginPercent, updated.IVAPercent)
		updated.Subtotal = pricing.Subtotal
		updated.IVA = pricing.IVA
		updated.Total = pricing.Total
		if existing.AmountPaid > updated.Total {
			return nil, shared.NewValidationError("total",
				fmt.Sprintf("new total %.2f is below the amount already paid %.2f", updated.Total, existing.AmountPaid))
		}

		encoded, err := EncodeItems(updated.Items)
		if err != nil {
			return nil, fmt.Errorf("encode items: %w", err)
		}
		updates["items"] = encoded
		updates["subtotal"] = updated.Subtotal
		updates["iva_percent"] = updated.IVAPercent
		updates["iva"] = updated.IVA
		updates["margin_percent"] = updated.MarginPercent
		updates["total"] = updated.Total
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateQuotation(ctx, id, updates); err != nil {
			return fmt.Errorf("update quotation: %w", err)
		}
		if financialEdit {
			entry := ModificationHistory{
				QuotationID: id,
				Description: req.Description,
				Diff:        BuildDiff(existing, &updated),
				AuthorID:    authorID,
			}
			if _, err := tx.InsertHistory(ctx, entry); err != nil {
				return fmt.Errorf("insert history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, id)
}

// Accept drives pending→accepted: the status flip, client upsert, job creation
// and worker payout registration run as one transaction. The pending check is
// re-run inside the transaction via a conditional update, so a Reject or a
// second Accept committing between the read and the transaction cannot be
// overwritten, and no side-effect rows are written for a stale quotation.
func (s *Service) Accept(ctx context.Context, id int64, req AcceptQuotationRequest, actorID int64) (*Quotation, error) {
	quotation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if quotation.Status != QuotationStatusPending {
		return nil, shared.NewValidationError("status",
			fmt.Sprintf("only pending quotations can be accepted, current status is %s", quotation.Status))
	}

	step := "mark accepted"
	created := make(map[string]int64)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		step = "mark accepted"
		if err := tx.UpdateStatus(ctx, quotation.ID, QuotationStatusAccepted, QuotationStatusPending); err != nil {
			return err
		}

		step = "resolve client"
		client, err := tx.FindClient(ctx, quotation.CompanyID, quotation.ClientEmail, quotation.ClientPhone)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			clientID, err := tx.CreateClient(ctx, Client{
				CompanyID: quotation.CompanyID,
				Name:      quotation.ClientName,
				Email:     quotation.ClientEmail,
				Phone:     quotation.ClientPhone,
				Address:   quotation.ClientAddress,
			})
			if err != nil {
				return err
			}
			created["client"] = clientID
			client = &Client{ID: clientID}
		}

		step = "create job"
		jobID, err := tx.CreateJob(ctx, Job{
			QuotationID: quotation.ID,
			ClientID:    client.ID,
			Status:      JobStatusPending,
		})
		if err != nil {
			return err
		}
		created["job"] = jobID

		step = "register worker assignments"
		for i, assignment := range req.WorkerAssignments {
			assignmentID, err := tx.CreateWorkerAssignment(ctx, WorkerAssignment{
				QuotationID: quotation.ID,
				JobID:       jobID,
				WorkerID:    assignment.WorkerID,
				Payout:      assignment.Payout,
				Notes:       assignment.Notes,
			})
			if err != nil {
				return err
			}
			created[fmt.Sprintf("worker_assignment[%d]", i)] = assignmentID
		}

		step = "register seller payout"
		if req.SellerPayout != nil {
			if err := tx.UpdateQuotation(ctx, quotation.ID, map[string]interface{}{
				"seller_payout": *req.SellerPayout,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return nil, shared.NewValidationError("status", "only pending quotations can be accepted")
		}
		return nil, &shared.PartialAcceptanceError{Step: step, CreatedIDs: created, Err: err}
	}

	s.metrics.QuotationAccepted(numberPrefix(quotation.Number))
	if s.notifier != nil {
		// Best-effort: the acceptance already committed.
		_ = s.notifier.QuotationAccepted(ctx, quotation.Number, quotation.ClientEmail)
	}

	return s.repo.Get(ctx, id)
}

// Reject drives pending→rejected. No side effects. The pending check is
// enforced again inside the transaction.
func (s *Service) Reject(ctx context.Context, id int64) (*Quotation, error) {
	quotation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if quotation.Status != QuotationStatusPending {
		return nil, shared.NewValidationError("status",
			fmt.Sprintf("only pending quotations can be rejected, current status is %s", quotation.Status))
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateStatus(ctx, id, QuotationStatusRejected, QuotationStatusPending)
	})
	if err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return nil, shared.NewValidationError("status", "only pending quotations can be rejected")
		}
		return nil, fmt.Errorf("reject quotation: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Reopen reverts any status back to pending. This is a status flag correction
// only: Client, Job and WorkerAssignment rows created by a previous acceptance
// are deliberately left in place (documented limitation, pending a product
// decision on whether acceptance is a one-way financial event).
func (s *Service) Reopen(ctx context.Context, id int64) (*Quotation, error) {
	quotation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if quotation.Status == QuotationStatusPending {
		return nil, shared.NewValidationError("status", "quotation is already pending")
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateStatus(ctx, id, QuotationStatusPending,
			QuotationStatusAccepted, QuotationStatusRejected)
	})
	if err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return nil, shared.NewValidationError("status", "quotation is already pending")
		}
		return nil, fmt.Errorf("reopen quotation: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// RegisterPayment records a client payment against an accepted quotation and
// derives the payment status unless the caller overrides it explicitly. The
// invariant amount_paid ≤ total is enforced here, never clamped.
func (s *Service) RegisterPayment(ctx context.Context, id int64, req RegisterPaymentRequest) (*Quotation, error) {
	if req.Amount <= 0 {
		return nil, shared.NewValidationError("amount", "payment amount must be positive")
	}

	quotation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if quotation.Status != QuotationStatusAccepted {
		return nil, shared.NewValidationError("status", "payments can only be registered on accepted quotations")
	}

	newPaid := quotation.AmountPaid + req.Amount
	if newPaid > quotation.Total {
		return nil, shared.NewValidationError("amount",
			fmt.Sprintf("payment of %.2f would exceed the total %.2f (already paid %.2f)",
				req.Amount, quotation.Total, quotation.AmountPaid))
	}

	status := DerivePaymentStatus(newPaid, quotation.Total)
	if req.StatusOverride != nil {
		status = *req.StatusOverride
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePayment(ctx, id, newPaid, status)
	})
	if err != nil {
		return nil, fmt.Errorf("register payment: %w", err)
	}

	return s.repo.Get(ctx, id)
}

// History returns the modification log for a quotation, newest first.
func (s *Service) History(ctx context.Context, id int64) ([]ModificationHistory, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	return s.repo.ListHistory(ctx, id)
}

// Job returns the work order created for an accepted quotation.
func (s *Service) Job(ctx context.Context, quotationID int64) (*Job, error) {
	return s.repo.GetJobByQuotation(ctx, quotationID)
}

func numberPrefix(number string) string {
	if idx := strings.IndexByte(number, '-'); idx > 0 {
		return number[:idx]
	}
	return number
}
