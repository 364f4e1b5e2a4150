// Package companies holds the static per-company configuration that drives
// quotation numbering and tax defaults.
package companies

import "time"

// Company is one of the operating companies issuing quotations.
type Company struct {
	ID                int64     `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Prefix            string    `json:"prefix" db:"prefix"`
	StartNumber       int64     `json:"start_number" db:"start_number"`
	DefaultIVAPercent float64   `json:"default_iva_percent" db:"default_iva_percent"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
