// Package quote holds the quotation-shaped content shared by quotations,
// revisions and project variations, together with its price computation and
// the flat-HTML editing representation.
package quote

import (
	"encoding/json"
	"time"
)

// ScopeItem is one line of the scope of work.
type ScopeItem struct {
	Description     string `json:"description"`
	Quantity        string `json:"quantity"`
	Unit            string `json:"unit"`
	LocationRemarks string `json:"locationRemarks"`
}

// PriceItem is one line of the price schedule.
type PriceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitRate    float64 `json:"unitRate"`
	TotalAmount float64 `json:"totalAmount"`
}

// TaxDetails carries the VAT inputs and derived amount.
type TaxDetails struct {
	VATRate   float64 `json:"vatRate"`
	VATAmount float64 `json:"vatAmount"`
}

// PriceSchedule is the structured commercial section. SubTotal, GrandTotal,
// item TotalAmount and VATAmount are derived; they are recomputed wholesale
// whenever quantity, unit rate or VAT rate changes.
type PriceSchedule struct {
	Items      []PriceItem `json:"items"`
	SubTotal   float64     `json:"subTotal"`
	GrandTotal float64     `json:"grandTotal"`
	Currency   string      `json:"currency"`
	TaxDetails TaxDetails  `json:"taxDetails"`
}

// PaymentTerm is one milestone of the payment schedule.
type PaymentTerm struct {
	MilestoneDescription string  `json:"milestoneDescription"`
	AmountPercent        float64 `json:"amountPercent"`
}

// Delivery groups the delivery/completion/warranty/validity block.
type Delivery struct {
	DeliveryTimeline    string `json:"deliveryTimeline"`
	WarrantyPeriod      string `json:"warrantyPeriod"`
	OfferValidityDays   int    `json:"offerValidity"`
	AuthorizedSignatory string `json:"authorizedSignatory"`
}

// CompanyInfo identifies the issuing company on the offer.
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Content is the full quotation-shaped field set. Structured form is the
// canonical storage representation; the flat HTML strings produced by
// Flatten* exist only while a document is being edited.
type Content struct {
	CompanyInfo      CompanyInfo   `json:"companyInfo"`
	SubmittedTo      string        `json:"submittedTo"`
	Attention        string        `json:"attention"`
	OfferReference   string        `json:"offerReference"`
	EnquiryNumber    string        `json:"enquiryNumber"`
	OfferDate        *time.Time    `json:"offerDate,omitempty"`
	EnquiryDate      *time.Time    `json:"enquiryDate,omitempty"`
	ProjectTitle     string        `json:"projectTitle"`
	IntroductionText string        `json:"introductionText"`
	ScopeOfWork      []ScopeItem   `json:"scopeOfWork"`
	PriceSchedule    PriceSchedule `json:"priceSchedule"`
	OurViewpoints    string        `json:"ourViewpoints"`
	Exclusions       []string      `json:"exclusions"`
	PaymentTerms     []PaymentTerm `json:"paymentTerms"`
	Delivery         Delivery      `json:"deliveryCompletionWarrantyValidity"`
}

// TrackedFields lists the Content fields the edit log and lineage diffs
// compare, in rendering order.
func TrackedFields() []string {
	return []string{
		"companyInfo",
		"submittedTo",
		"attention",
		"offerReference",
		"enquiryNumber",
		"offerDate",
		"enquiryDate",
		"projectTitle",
		"introductionText",
		"scopeOfWork",
		"priceSchedule",
		"ourViewpoints",
		"exclusions",
		"paymentTerms",
		"deliveryCompletionWarrantyValidity",
	}
}

// Snapshot renders the content as a generic map keyed by JSON field name,
// suitable for editlog.ComputeDiff. Going through JSON keeps the value
// shapes identical to what a stored document round-trips to.
func (c Content) Snapshot() map[string]any {
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	var snap map[string]any
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil
	}
	return snap
}
