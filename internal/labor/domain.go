// Package labor tracks the real labor cost incurred while executing a job and
// reconciles it against the labor cost budgeted in the quotation.
package labor

import (
	"time"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/quotations"
)

// LaborScope describes how a single real-cost record scales across the batch
// quantity of a quotation. Cost entries are sometimes captured for one unit,
// sometimes for part of the batch and sometimes as a lump sum for the whole
// run; the scope corrects for that without forcing data-entry normalization.
type LaborScope string

const (
	// ScopePerUnit records cost for one unit, scaled up by the batch size.
	ScopePerUnit LaborScope = "per_unit"
	// ScopePartial records cost covering a stated number of units.
	ScopePartial LaborScope = "partial"
	// ScopeTotal records cost already covering every unit.
	ScopeTotal LaborScope = "total"
)

// RealLaborRecord is one actually-incurred labor cost entry for a quotation.
// The amount is either hours × hourly rate or a manual lump sum, never both.
type RealLaborRecord struct {
	ID           int64      `json:"id" db:"id"`
	QuotationID  int64      `json:"quotation_id" db:"quotation_id"`
	WorkerID     *int64     `json:"worker_id,omitempty" db:"worker_id"`
	Description  string     `json:"description" db:"description"`
	Hours        float64    `json:"hours" db:"hours"`
	HourlyRate   float64    `json:"hourly_rate" db:"hourly_rate"`
	ManualAmount *float64   `json:"manual_amount,omitempty" db:"manual_amount"`
	Scope        LaborScope `json:"scope" db:"scope"`
	AppliedUnits int        `json:"applied_units" db:"applied_units"`
	CreatedBy    int64      `json:"created_by" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// HoursBased reports whether the record's amount derives from hours × rate.
func (r RealLaborRecord) HoursBased() bool {
	return r.ManualAmount == nil
}

// BaseAmount is the record's unscaled cost figure.
func (r RealLaborRecord) BaseAmount() float64 {
	if r.ManualAmount != nil {
		return *r.ManualAmount
	}
	return r.Hours * r.HourlyRate
}

// Contribution scales the record's base amount across the quotation batch.
// per_unit scales by the batch size; total counts once. partial counts
// hour-based records once per applied unit, while a lump amount already covers
// its stated units and counts once.
func (r RealLaborRecord) Contribution(unitBase int) float64 {
	if unitBase <= 0 {
		unitBase = 1
	}
	base := r.BaseAmount()
	switch r.Scope {
	case ScopePerUnit:
		return base * float64(unitBase)
	case ScopePartial:
		if r.HoursBased() {
			units := r.AppliedUnits
			if units <= 0 {
				units = 1
			}
			return base * float64(units)
		}
		return base
	case ScopeTotal:
		return base
	}
	return base
}

// BudgetedLabor derives the labor budget of a quotation by walking every
// item's service lines and scaling by the quotation's batch quantity.
func BudgetedLabor(q *quotations.Quotation) float64 {
	if q == nil {
		return 0
	}
	var perUnit float64
	for _, item := range q.Items {
		perUnit += item.ServicesSubtotal()
	}
	return perUnit * float64(q.UnitBase())
}

// QuotationReconciliation compares budgeted against actual labor cost for one
// quotation.
type QuotationReconciliation struct {
	QuotationID   int64             `json:"quotation_id"`
	Number        string            `json:"number"`
	UnitCount     int               `json:"unit_count"`
	BudgetedLabor float64           `json:"budgeted_labor"`
	ActualLabor   float64           `json:"actual_labor"`
	Variance      float64           `json:"variance"`
	Records       []RealLaborRecord `json:"records,omitempty"`
}

// CompanyReconciliationSummary aggregates variance across a company's
// accepted quotations.
type CompanyReconciliationSummary struct {
	CompanyID         int64     `json:"company_id"`
	Quotations        int       `json:"quotations"`
	TotalBudgeted     float64   `json:"total_budgeted"`
	TotalActual       float64   `json:"total_actual"`
	TotalVariance     float64   `json:"total_variance"`
	FormattedVariance string    `json:"formatted_variance"`
	GeneratedAt       time.Time `json:"generated_at"`
}
