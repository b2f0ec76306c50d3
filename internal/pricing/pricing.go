// Package pricing computes order totals. Everything here is pure and
// deterministic: the same selections always price to the same amount, which
// is what lets stored totals be backfilled by simply recomputing them.
package pricing

import (
	"strings"

	"github.com/diewo77/tailor-app/internal/models"
)

// Base price per garment category. Unknown categories fall back to "other".
var basePrices = map[string]float64{
	"shirt":   800,
	"pants":   600,
	"suit":    2000,
	"dress":   1200,
	"kurta":   1000,
	"blouse":  800,
	"lehenga": 2500,
	"jacket":  1500,
	"other":   1000,
}

// Flat charge per embroidery technique. Unknown types price to zero rather
// than failing: historical orders carry free-text values.
var embroideryTypeCharges = map[string]float64{
	"machine": 300,
	"hand":    800,
	"zardosi": 1200,
	"aari":    1000,
	"bead":    900,
	"thread":  500,
}

// Charge per placement entry. Duplicate entries are charged once per
// occurrence; a garment embroidered on both sleeves lists "sleeves" twice.
var placementCharges = map[string]float64{
	"collar":   150,
	"sleeves":  200,
	"neckline": 250,
	"hem":      300,
	"full":     1200,
	"custom":   300,
}

const (
	extraColorCharge = 50
	urgentCharge     = 500
)

// BasePrice returns the catalogue price for a garment category.
func BasePrice(itemType string) float64 {
	if p, ok := basePrices[strings.ToLower(strings.TrimSpace(itemType))]; ok {
		return p
	}
	return basePrices["other"]
}

// FabricCost prices the fabric component of an order. Customer-supplied
// fabric costs the shop nothing.
func FabricCost(sel models.FabricSelection) float64 {
	if sel.Source != models.FabricSourceShop {
		return 0
	}
	return sel.UnitPrice * sel.Quantity
}

// EmbroideryCost prices an embroidery customization: technique charge, one
// charge per placement occurrence, and 50 per color beyond the first.
func EmbroideryCost(e *models.Embroidery) float64 {
	if e == nil || !e.Enabled {
		return 0
	}
	cost := embroideryTypeCharges[strings.ToLower(strings.TrimSpace(e.Type))]
	for _, p := range e.Placements {
		cost += placementCharges[strings.ToLower(strings.TrimSpace(p))]
	}
	if extra := len(e.Colors) - 1; extra > 0 {
		cost += extraColorCharge * float64(extra)
	}
	return cost
}

// ComputeTotal prices a complete order from its stored selections.
func ComputeTotal(itemType string, sel models.FabricSelection, emb *models.Embroidery, urgency string) float64 {
	total := BasePrice(itemType) + FabricCost(sel) + EmbroideryCost(emb)
	if urgency == models.UrgencyUrgent {
		total += urgentCharge
	}
	return total
}

// ComputeOrderTotal prices an order record in place, returning the total and
// the embroidery component (stored alongside the selections).
func ComputeOrderTotal(o *models.Order) (total, embroidery float64) {
	embroidery = EmbroideryCost(o.Embroidery)
	total = ComputeTotal(o.ItemType, o.FabricSelection, o.Embroidery, o.Urgency)
	return total, embroidery
}
