package labor

// RecordLaborRequest captures a real labor cost entry for a quotation. The
// amount basis is either hours plus hourly_rate or manual_amount, never both.
type RecordLaborRequest struct {
	WorkerID     *int64   `json:"worker_id,omitempty" validate:"omitempty,gt=0"`
	Description  string   `json:"description" validate:"required,max=500"`
	Hours        float64  `json:"hours" validate:"gte=0"`
	HourlyRate   float64  `json:"hourly_rate" validate:"gte=0"`
	ManualAmount *float64 `json:"manual_amount,omitempty" validate:"omitempty,gt=0"`
	Scope        string   `json:"scope" validate:"required,oneof=per_unit partial total"`
	AppliedUnits int      `json:"applied_units" validate:"gte=0"`
}

// UpdateLaborRequest carries a partial edit of an existing record.
type UpdateLaborRequest struct {
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Hours        *float64 `json:"hours,omitempty" validate:"omitempty,gte=0"`
	HourlyRate   *float64 `json:"hourly_rate,omitempty" validate:"omitempty,gte=0"`
	ManualAmount *float64 `json:"manual_amount,omitempty" validate:"omitempty,gt=0"`
	Scope        *string  `json:"scope,omitempty" validate:"omitempty,oneof=per_unit partial total"`
	AppliedUnits *int     `json:"applied_units,omitempty" validate:"omitempty,gte=0"`
}
