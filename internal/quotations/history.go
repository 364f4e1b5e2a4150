package quotations

import "time"

// MaterialsDiff captures the nested material lines before and after an edit.
type MaterialsDiff struct {
	Before []Material `json:"before"`
	After  []Material `json:"after"`
}

// ServicesDiff captures the nested labor lines before and after an edit.
type ServicesDiff struct {
	Before []ServiceLine `json:"before"`
	After  []ServiceLine `json:"after"`
}

// ItemsDiff captures the full item list before and after an edit.
type ItemsDiff struct {
	Before []Item `json:"before"`
	After  []Item `json:"after"`
}

// TotalDiff captures the financial impact of an edit.
type TotalDiff struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// ModificationDiff is the structured payload recorded with every
// post-creation edit.
type ModificationDiff struct {
	Materials MaterialsDiff `json:"materials"`
	Services  ServicesDiff  `json:"services"`
	Items     ItemsDiff     `json:"items"`
	Total     TotalDiff     `json:"total"`
}

// ModificationHistory is one append-only row per edit to an already-created
// quotation. It documents the edit; it never blocks or rolls it back.
type ModificationHistory struct {
	ID          int64            `json:"id" db:"id"`
	QuotationID int64            `json:"quotation_id" db:"quotation_id"`
	Description string           `json:"description" db:"description"`
	Diff        ModificationDiff `json:"diff" db:"-"`
	AuthorID    int64            `json:"author_id" db:"author_id"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// BuildDiff assembles the before/after diff between two quotation states.
func BuildDiff(before, after *Quotation) ModificationDiff {
	return ModificationDiff{
		Materials: MaterialsDiff{Before: collectMaterials(before.Items), After: collectMaterials(after.Items)},
		Services:  ServicesDiff{Before: collectServices(before.Items), After: collectServices(after.Items)},
		Items:     ItemsDiff{Before: before.Items, After: after.Items},
		Total:     TotalDiff{Before: before.Total, After: after.Total},
	}
}

func collectMaterials(items []Item) []Material {
	var out []Material
	for _, it := range items {
		out = append(out, it.Materials...)
	}
	return out
}

func collectServices(items []Item) []ServiceLine {
	var out []ServiceLine
	for _, it := range items {
		out = append(out, it.Services...)
	}
	return out
}
