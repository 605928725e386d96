package quote

import (
	"math"

	"golang.org/x/text/currency"
)

// Round2 rounds half-up to two decimal places. Rounding happens at every
// derived field, not only at the end, to match the documents produced by
// the estimation tooling.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Recalculate recomputes every derived field of the schedule from its
// inputs: item totals from quantity and unit rate, then subtotal, VAT and
// grand total. The derived fields are never hand-edited.
func Recalculate(ps *PriceSchedule) {
	if ps == nil {
		return
	}
	var subTotal float64
	for i := range ps.Items {
		ps.Items[i].TotalAmount = Round2(ps.Items[i].Quantity * ps.Items[i].UnitRate)
		subTotal += ps.Items[i].TotalAmount
	}
	ps.SubTotal = Round2(subTotal)
	ps.TaxDetails.VATAmount = Round2(ps.SubTotal * ps.TaxDetails.VATRate / 100)
	ps.GrandTotal = Round2(ps.SubTotal + ps.TaxDetails.VATAmount)
}

// ValidCurrency reports whether code is a well-formed ISO 4217 unit.
func ValidCurrency(code string) bool {
	if code == "" {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}
