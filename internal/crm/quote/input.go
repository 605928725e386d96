package quote

import (
	"fmt"

	"github.com/meridian-esw/meridian-esw/internal/shared"
)

// FlatFields carries the transient flat-HTML editing representation of the
// rich-content field groups. A non-nil field replaces the corresponding
// structured value through the normalizer.
type FlatFields struct {
	ScopeOfWork   *string `json:"scopeOfWork,omitempty"`
	PriceSchedule *string `json:"priceSchedule,omitempty"`
	Exclusions    *string `json:"exclusions,omitempty"`
	PaymentTerms  *string `json:"paymentTerms,omitempty"`
}

// Input is the submitted quotation-shaped payload: the structured content
// plus optional flat-form overrides from the rich-text editor.
type Input struct {
	Content
	Flat *FlatFields `json:"flat,omitempty"`
}

// Resolve normalizes the input into canonical structured content. Flat
// overrides are unflattened against the structured value being replaced,
// so the price schedule keeps its currency and VAT rate. Derived price
// fields are recomputed wholesale.
func (in Input) Resolve() (Content, error) {
	c := in.Content
	if in.Flat != nil {
		if in.Flat.ScopeOfWork != nil {
			c.ScopeOfWork = ParseScope(*in.Flat.ScopeOfWork)
		}
		if in.Flat.PriceSchedule != nil {
			c.PriceSchedule = ParsePrice(*in.Flat.PriceSchedule, c.PriceSchedule)
		}
		if in.Flat.Exclusions != nil {
			c.Exclusions = ParseExclusions(*in.Flat.Exclusions)
		}
		if in.Flat.PaymentTerms != nil {
			c.PaymentTerms = ParsePaymentTerms(*in.Flat.PaymentTerms)
		}
	}
	if c.PriceSchedule.Currency != "" && !ValidCurrency(c.PriceSchedule.Currency) {
		return Content{}, fmt.Errorf("%w: unknown currency %q", shared.ErrValidation, c.PriceSchedule.Currency)
	}
	Recalculate(&c.PriceSchedule)
	return c, nil
}
