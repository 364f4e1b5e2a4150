package liquidations

// CreateLiquidationRequest settles part or all of a person's pending balance.
type CreateLiquidationRequest struct {
	PersonID  int64   `json:"person_id" validate:"required,gt=0"`
	Role      string  `json:"role" validate:"required,oneof=seller worker"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Method    string  `json:"method" validate:"required,max=50"`
	Reference *string `json:"reference" validate:"omitempty,max=100"`
	Notes     string  `json:"notes" validate:"max=500"`
}
