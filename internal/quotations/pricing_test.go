package quotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFromComponents(t *testing.T) {
	materials := []Material{
		{Name: "Madera de roble", Quantity: 10, UnitPrice: 80000},
		{Name: "Herrajes", Quantity: 20, UnitPrice: 10000},
	}
	services := []ServiceLine{
		{Name: "Carpintería", Hours: 20, HourlyRate: 20000},
		{Name: "Acabado", Hours: 5, HourlyRate: 20000},
	}

	b := ComputeFromComponents(materials, services, 30, 19)

	assert.Equal(t, 1_000_000.0, b.SubtotalMaterials)
	assert.Equal(t, 500_000.0, b.SubtotalServices)
	assert.Equal(t, 1_500_000.0, b.Subtotal)
	// margin on subtotal: 1,950,000; IVA on pre-margin subtotal: 285,000
	assert.Equal(t, 285_000.0, b.IVA)
	assert.Equal(t, 2_235_000.0, b.Total)
}

func TestComputeFromComponentsZeroMarginZeroIVA(t *testing.T) {
	b := ComputeFromComponents(
		[]Material{{Name: "Tablero", Quantity: 2, UnitPrice: 50000}},
		nil, 0, 0)
	assert.Equal(t, 100_000.0, b.Subtotal)
	assert.Equal(t, 0.0, b.IVA)
	assert.Equal(t, 100_000.0, b.Total)
}

func TestComputeFromItemsManual(t *testing.T) {
	items := []Item{
		{
			Type:     ItemTypeManual,
			Name:     "Mesa de comedor",
			Quantity: 1,
			Materials: []Material{
				{Name: "Madera", Quantity: 10, UnitPrice: 80000},
				{Name: "Herrajes", Quantity: 20, UnitPrice: 10000},
			},
			Services: []ServiceLine{
				{Name: "Carpintería", Hours: 25, HourlyRate: 20000},
			},
		},
	}

	b := ComputeFromItems(items, 30, 19)

	assert.Equal(t, 1_500_000.0, b.Subtotal)
	assert.Equal(t, 285_000.0, b.IVA)
	assert.Equal(t, 2_235_000.0, b.Total)
}

func TestItemsAndComponentsPathsAgree(t *testing.T) {
	materials := []Material{{Name: "Madera", Quantity: 4, UnitPrice: 75000}}
	services := []ServiceLine{{Name: "Tapizado", Hours: 12, HourlyRate: 25000}}

	fromComponents := ComputeFromComponents(materials, services, 25, 19)
	fromItems := ComputeFromItems([]Item{{
		Type:      ItemTypeManual,
		Name:      "Presupuesto general",
		Quantity:  1,
		Materials: materials,
		Services:  services,
	}}, 25, 19)

	assert.Equal(t, fromComponents.Subtotal, fromItems.Subtotal)
	assert.Equal(t, fromComponents.IVA, fromItems.IVA)
	assert.Equal(t, fromComponents.Total, fromItems.Total)
}

func TestItemLineTotalCatalog(t *testing.T) {
	withBaked := Item{Type: ItemTypeCatalog, CatalogRefID: 7, Quantity: 3, UnitPrice: 100000, LineTotal: 290000}
	assert.Equal(t, 290000.0, ItemLineTotal(withBaked))

	withoutBaked := Item{Type: ItemTypeCatalog, CatalogRefID: 7, Quantity: 3, UnitPrice: 100000}
	assert.Equal(t, 300000.0, ItemLineTotal(withoutBaked))
}

func TestItemLineTotalManualWithItemMargin(t *testing.T) {
	margin := 10.0
	it := Item{
		Type:          ItemTypeManual,
		Name:          "Estantería",
		Quantity:      1,
		Materials:     []Material{{Name: "Madera", Quantity: 1, UnitPrice: 100000}},
		ExtraCharges:  20000,
		MarginPercent: &margin,
	}
	assert.InDelta(t, 132000.0, ItemLineTotal(it), 0.001)
}

func TestComputePricingPrefersItems(t *testing.T) {
	items := []Item{{Type: ItemTypeManual, Name: "Silla", Quantity: 1,
		Materials: []Material{{Name: "Madera", Quantity: 1, UnitPrice: 200000}}}}
	// Component lines present but ignored once items exist.
	materials := []Material{{Name: "Otro", Quantity: 1, UnitPrice: 999999}}

	b := ComputePricing(items, materials, nil, 0, 19)
	assert.Equal(t, 200_000.0, b.Subtotal)
}

func TestComputePricingNegativeIVAFallsBackToDefault(t *testing.T) {
	b := ComputePricing(nil, []Material{{Name: "Madera", Quantity: 1, UnitPrice: 100}}, nil, 0, -1)
	assert.Equal(t, 19.0, b.IVA)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.56, Round2(10.555))
	assert.Equal(t, 10.55, Round2(10.554))
	assert.Equal(t, -2.35, Round2(-2.345))
}

func TestDerivePaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentStatusUnpaid, DerivePaymentStatus(0, 1000))
	assert.Equal(t, PaymentStatusPartiallyPaid, DerivePaymentStatus(500, 1000))
	assert.Equal(t, PaymentStatusPaid, DerivePaymentStatus(1000, 1000))
	assert.Equal(t, PaymentStatusPaid, DerivePaymentStatus(1200, 1000))
	// Nothing owed means nothing outstanding.
	assert.Equal(t, PaymentStatusPaid, DerivePaymentStatus(0, 0))
}
