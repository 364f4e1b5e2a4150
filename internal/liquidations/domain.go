// Package liquidations settles accumulated payouts of sellers and workers.
package liquidations

import "time"

// Role identifies which payout stream a liquidation draws from.
type Role string

const (
	// RoleSeller draws from commission payouts on accepted quotations.
	RoleSeller Role = "seller"
	// RoleWorker draws from agreed payouts on job assignments.
	RoleWorker Role = "worker"
)

// Valid reports whether the role is one of the known payout streams.
func (r Role) Valid() bool {
	return r == RoleSeller || r == RoleWorker
}

// Liquidation is one settlement payment against a person's pending balance.
// Reference carries an external payment identifier, e.g. a transfer number.
type Liquidation struct {
	ID        int64     `json:"id" db:"id"`
	PersonID  int64     `json:"person_id" db:"person_id"`
	Role      Role      `json:"role" db:"role"`
	Amount    float64   `json:"amount" db:"amount"`
	Method    string    `json:"method" db:"method"`
	Reference *string   `json:"reference,omitempty" db:"reference"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedBy int64     `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Balance is the payout position of one person in one role.
type Balance struct {
	PersonID        int64   `json:"person_id"`
	Role            Role    `json:"role"`
	TotalEarned     float64 `json:"total_earned"`
	TotalLiquidated float64 `json:"total_liquidated"`
	Pending         float64 `json:"pending"`
}
