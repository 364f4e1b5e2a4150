// Package quotations implements the quotation lifecycle: pricing, sequential
// numbering, the pending/accepted/rejected state machine with its acceptance
// side effects, payment tracking and the append-only modification history.
package quotations

import "time"

type QuotationStatus string

const (
	QuotationStatusPending  QuotationStatus = "pending"
	QuotationStatusAccepted QuotationStatus = "accepted"
	QuotationStatusRejected QuotationStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
)

// DerivePaymentStatus computes the payment sub-state from amounts: paid as
// soon as amount_paid covers the total, a zero-total quotation included.
// Callers may override the derived value explicitly; the derivation never
// overrides an override.
func DerivePaymentStatus(amountPaid, total float64) PaymentStatus {
	switch {
	case amountPaid >= total:
		return PaymentStatusPaid
	case amountPaid > 0:
		return PaymentStatusPartiallyPaid
	default:
		return PaymentStatusUnpaid
	}
}

// Quotation is a price proposal for a custom furniture job. The client fields
// are a denormalized snapshot taken at creation time, not a foreign key; the
// Client row itself only comes into existence at acceptance.
type Quotation struct {
	ID            int64           `json:"id" db:"id"`
	Number        string          `json:"number" db:"number"`
	CompanyID     int64           `json:"company_id" db:"company_id"`
	ClientName    string          `json:"client_name" db:"client_name"`
	ClientEmail   *string         `json:"client_email,omitempty" db:"client_email"`
	ClientPhone   *string         `json:"client_phone,omitempty" db:"client_phone"`
	ClientAddress *string         `json:"client_address,omitempty" db:"client_address"`
	Items         []Item          `json:"items" db:"-"`
	Subtotal      float64         `json:"subtotal" db:"subtotal"`
	IVAPercent    float64         `json:"iva_percent" db:"iva_percent"`
	IVA           float64         `json:"iva" db:"iva"`
	MarginPercent float64         `json:"margin_percent" db:"margin_percent"`
	Total         float64         `json:"total" db:"total"`
	UnitCount     int             `json:"unit_count" db:"unit_count"`
	Status        QuotationStatus `json:"status" db:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status" db:"payment_status"`
	AmountPaid    float64         `json:"amount_paid" db:"amount_paid"`
	SellerID      *int64          `json:"seller_id,omitempty" db:"seller_id"`
	SellerPayout  float64         `json:"seller_payout" db:"seller_payout"`
	CreatedBy     int64           `json:"created_by" db:"created_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// UnitBase returns the batch quantity used by cost reconciliation. A quotation
// with no declared unit count covers a single unit; the base is never zero.
func (q *Quotation) UnitBase() int {
	if q == nil || q.UnitCount <= 0 {
		return 1
	}
	return q.UnitCount
}

// Client identity is keyed by (name, email) or (name, phone). Rows are created
// only when a quotation is accepted, never for pending or rejected ones.
type Client struct {
	ID        int64     `json:"id" db:"id"`
	CompanyID int64     `json:"company_id" db:"company_id"`
	Name      string    `json:"name" db:"name"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job is the work order created exactly once per accepted quotation. Its
// status evolves independently of the quotation's.
type Job struct {
	ID          int64     `json:"id" db:"id"`
	QuotationID int64     `json:"quotation_id" db:"quotation_id"`
	ClientID    int64     `json:"client_id" db:"client_id"`
	Status      JobStatus `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// WorkerAssignment links a job to a shop worker with an agreed payout.
type WorkerAssignment struct {
	ID          int64     `json:"id" db:"id"`
	QuotationID int64     `json:"quotation_id" db:"quotation_id"`
	JobID       int64     `json:"job_id" db:"job_id"`
	WorkerID    int64     `json:"worker_id" db:"worker_id"`
	Payout      float64   `json:"payout" db:"payout"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
