package quotations

import "time"

// CreateQuotationRequest creates a new quotation in pending state. Items are
// the authoritative pricing source; the raw materials/services fields exist
// only for legacy flows without itemised lines and are wrapped into a single
// manual item at creation so storage stays uniform.
type CreateQuotationRequest struct {
	CompanyID     int64         `json:"company_id" validate:"required,gt=0"`
	ClientName    string        `json:"client_name" validate:"required,max=200"`
	ClientEmail   *string       `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone   *string       `json:"client_phone,omitempty" validate:"omitempty,max=50"`
	ClientAddress *string       `json:"client_address,omitempty" validate:"omitempty,max=300"`
	Items         []Item        `json:"items,omitempty"`
	Materials     []Material    `json:"materials,omitempty"`
	Services      []ServiceLine `json:"services,omitempty"`
	MarginPercent float64       `json:"margin_percent" validate:"gte=0,lte=500"`
	IVAPercent    *float64      `json:"iva_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	UnitCount     int           `json:"unit_count" validate:"gte=0"`
	SellerID      *int64        `json:"seller_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateQuotationRequest edits an already-created quotation. Description is
// the human reason recorded in the modification history and must not be empty.
type UpdateQuotationRequest struct {
	Description   string   `json:"description" validate:"required,max=500"`
	Items         *[]Item  `json:"items,omitempty"`
	MarginPercent *float64 `json:"margin_percent,omitempty" validate:"omitempty,gte=0,lte=500"`
	IVAPercent    *float64 `json:"iva_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	UnitCount     *int     `json:"unit_count,omitempty" validate:"omitempty,gte=0"`
	ClientName    *string  `json:"client_name,omitempty" validate:"omitempty,max=200"`
	ClientEmail   *string  `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone   *string  `json:"client_phone,omitempty" validate:"omitempty,max=50"`
	ClientAddress *string  `json:"client_address,omitempty" validate:"omitempty,max=300"`
	SellerID      *int64   `json:"seller_id,omitempty" validate:"omitempty,gt=0"`
}

// WorkerAssignmentRequest registers one worker payout at acceptance time.
type WorkerAssignmentRequest struct {
	WorkerID int64   `json:"worker_id" validate:"required,gt=0"`
	Payout   float64 `json:"payout" validate:"gte=0"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// AcceptQuotationRequest drives the pending→accepted transition.
type AcceptQuotationRequest struct {
	SellerPayout      *float64                  `json:"seller_payout,omitempty" validate:"omitempty,gte=0"`
	WorkerAssignments []WorkerAssignmentRequest `json:"worker_assignments,omitempty" validate:"omitempty,dive"`
}

// RegisterPaymentRequest records a client payment against an accepted
// quotation. StatusOverride skips the derived payment status when set.
type RegisterPaymentRequest struct {
	Amount         float64        `json:"amount" validate:"required,gt=0"`
	StatusOverride *PaymentStatus `json:"status_override,omitempty" validate:"omitempty,oneof=unpaid partially_paid paid"`
}

// ListQuotationsRequest filters the quotation listing.
type ListQuotationsRequest struct {
	CompanyID int64            `json:"company_id" validate:"required,gt=0"`
	Status    *QuotationStatus `json:"status,omitempty"`
	SellerID  *int64           `json:"seller_id,omitempty"`
	DateFrom  *time.Time       `json:"date_from,omitempty"`
	DateTo    *time.Time       `json:"date_to,omitempty"`
	Limit     int              `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int              `json:"offset" validate:"gte=0"`
}
