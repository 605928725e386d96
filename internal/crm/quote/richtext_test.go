package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeCollapsesToSingleItem(t *testing.T) {
	items := []ScopeItem{
		{Description: "Excavate trial pits", Quantity: "4", Unit: "nos", LocationRemarks: "North quay"},
		{Description: "Install dewatering", Quantity: "1", Unit: "lot"},
	}
	flat := FlattenScope(items)
	assert.Equal(t, "Excavate trial pits<br>Install dewatering", flat)

	parsed := ParseScope(flat)
	require.Len(t, parsed, 1)
	assert.Equal(t, flat, parsed[0].Description)
	assert.Empty(t, parsed[0].Quantity)
	assert.Empty(t, parsed[0].Unit)
	assert.Empty(t, parsed[0].LocationRemarks)
}

func TestParseScopeEmpty(t *testing.T) {
	assert.Nil(t, ParseScope(""))
}

func TestPriceFlattenFormat(t *testing.T) {
	ps := PriceSchedule{
		Items: []PriceItem{
			{Description: "Mobilisation", Quantity: 2, Unit: "lot", UnitRate: 100, TotalAmount: 200},
			{Description: "Survey", Quantity: 1.5, Unit: "day", UnitRate: 800, TotalAmount: 1200},
		},
	}
	flat := FlattenPrice(ps)
	assert.Equal(t, "Mobilisation - Qty: 2 lot @ 100 = 200.00<br>Survey - Qty: 1.5 day @ 800 = 1200.00", flat)
}

func TestParsePriceCollapsesAndKeepsCurrency(t *testing.T) {
	prior := PriceSchedule{
		Items:      []PriceItem{{Description: "Mobilisation", Quantity: 2, UnitRate: 100, TotalAmount: 200}},
		SubTotal:   200,
		GrandTotal: 210,
		Currency:   "AED",
		TaxDetails: TaxDetails{VATRate: 5, VATAmount: 10},
	}
	flat := FlattenPrice(prior)
	parsed := ParsePrice(flat, prior)

	require.Len(t, parsed.Items, 1)
	assert.Equal(t, flat, parsed.Items[0].Description)
	assert.Zero(t, parsed.Items[0].Quantity)
	assert.Zero(t, parsed.Items[0].UnitRate)
	assert.Zero(t, parsed.Items[0].TotalAmount)
	assert.Equal(t, "AED", parsed.Currency)
	assert.Equal(t, 5.0, parsed.TaxDetails.VATRate)
	// Derived fields recompute from the zeroed item.
	assert.Zero(t, parsed.SubTotal)
	assert.Zero(t, parsed.TaxDetails.VATAmount)
	assert.Zero(t, parsed.GrandTotal)
}

func TestExclusionsRoundTrip(t *testing.T) {
	items := []string{"Civil works by others", "Scaffolding", "Night shifts"}
	assert.Equal(t, items, ParseExclusions(FlattenExclusions(items)))
}

func TestParseExclusionsSplitsVariants(t *testing.T) {
	parsed := ParseExclusions("Civil works<br>Scaffolding<br/>Permits\nNight shifts")
	assert.Equal(t, []string{"Civil works", "Scaffolding", "Permits", "Night shifts"}, parsed)
}

func TestParsePaymentTermsScenario(t *testing.T) {
	terms := ParsePaymentTerms("Initial - 30%<br>Final")
	require.Len(t, terms, 2)
	assert.Equal(t, PaymentTerm{MilestoneDescription: "Initial", AmountPercent: 30}, terms[0])
	assert.Equal(t, PaymentTerm{MilestoneDescription: "Final", AmountPercent: 0}, terms[1])
}

func TestPaymentTermsRoundTrip(t *testing.T) {
	terms := []PaymentTerm{
		{MilestoneDescription: "Advance", AmountPercent: 10},
		{MilestoneDescription: "On delivery", AmountPercent: 62.5},
	}
	flat := FlattenPaymentTerms(terms)
	assert.Equal(t, "Advance - 10%<br>On delivery - 62.5%", flat)
	assert.Equal(t, terms, ParsePaymentTerms(flat))
}

func TestPaymentTermsAmbiguousMilestone(t *testing.T) {
	// A milestone whose own text ends in " - <n>%" reparses with the last
	// percent as the amount. Documented behaviour, kept for compatibility.
	terms := ParsePaymentTerms("Retention - 5% - 30%")
	require.Len(t, terms, 1)
	assert.Equal(t, "Retention - 5%", terms[0].MilestoneDescription)
	assert.Equal(t, 30.0, terms[0].AmountPercent)
}
