package quotations

import "math"

// DefaultIVAPercent is the IVA rate applied when a quotation does not declare one.
const DefaultIVAPercent = 19.0

// Round2 rounds to two decimals. Applied only to the final total; intermediate
// sums stay unrounded so rounding error does not compound across items.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PricingBreakdown is the result of the pricing calculator.
type PricingBreakdown struct {
	SubtotalMaterials float64 `json:"subtotal_materials"`
	SubtotalServices  float64 `json:"subtotal_services"`
	Subtotal          float64 `json:"subtotal"`
	IVA               float64 `json:"iva"`
	Total             float64 `json:"total"`
}

// ItemLineTotal resolves the authoritative line total for one item. Catalog
// items prefer the baked line_total; manual items are rebuilt from their
// material and service subtotals plus extras and the item-level margin, so the
// stored figure stays a reconciliation target instead of a free-form field.
func ItemLineTotal(it Item) float64 {
	switch it.Type {
	case ItemTypeCatalog:
		if it.LineTotal > 0 {
			return it.LineTotal
		}
		return it.UnitPrice * it.Quantity
	case ItemTypeManual:
		base := it.MaterialsSubtotal() + it.ServicesSubtotal() + it.ExtraCharges
		if it.MarginPercent != nil {
			base *= 1 + *it.MarginPercent/100
		}
		return base
	}
	return 0
}

// ComputeFromComponents prices a quotation from raw material and service
// lines. Margin applies to the pre-tax subtotal, never the tax-inclusive
// figure, and rounding happens only at the final total.
func ComputeFromComponents(materials []Material, services []ServiceLine, marginPercent, ivaPercent float64) PricingBreakdown {
	var b PricingBreakdown
	for _, m := range materials {
		b.SubtotalMaterials += m.Quantity * m.UnitPrice
	}
	for _, s := range services {
		b.SubtotalServices += s.Hours * s.HourlyRate
	}
	b.Subtotal = b.SubtotalMaterials + b.SubtotalServices
	b.IVA = b.Subtotal * ivaPercent / 100
	b.Total = Round2(b.Subtotal*(1+marginPercent/100) + b.IVA)
	return b
}

// ComputeFromItems prices a quotation from its item list. The summed item line
// totals are the authoritative pre-tax subtotal; item-level margins are already
// baked into each line total while the quotation-level margin applies on top.
func ComputeFromItems(items []Item, marginPercent, ivaPercent float64) PricingBreakdown {
	var b PricingBreakdown
	for _, it := range items {
		b.SubtotalMaterials += it.MaterialsSubtotal()
		b.SubtotalServices += it.ServicesSubtotal()
		b.Subtotal += ItemLineTotal(it)
	}
	b.IVA = b.Subtotal * ivaPercent / 100
	b.Total = Round2(b.Subtotal*(1+marginPercent/100) + b.IVA)
	return b
}

// ComputePricing selects the single authoritative pricing path: item line
// totals when the quotation has items, the raw component path only as a
// fallback for legacy quotations without items. The two paths are never mixed
// or averaged.
func ComputePricing(items []Item, materials []Material, services []ServiceLine, marginPercent, ivaPercent float64) PricingBreakdown {
	if ivaPercent < 0 {
		ivaPercent = DefaultIVAPercent
	}
	if len(items) > 0 {
		return ComputeFromItems(items, marginPercent, ivaPercent)
	}
	return ComputeFromComponents(materials, services, marginPercent, ivaPercent)
}
