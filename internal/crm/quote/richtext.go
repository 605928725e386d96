package quote

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The flat HTML form is the transient representation the rich-text editor
// works on. Flattening keeps only what the editor can show; parsing back is
// deliberately lossy for multi-item scope and price lists (they collapse to
// a single item), which downstream diffing and rendering rely on. Do not
// "fix" the collapse.

var (
	lineBreakRe   = regexp.MustCompile(`(?i)<br\s*/?>|\r?\n`)
	paymentTermRe = regexp.MustCompile(`^(.+?)(?:\s*-\s*(\d+(?:\.\d+)?)%)?$`)
)

// FlattenScope joins the scope descriptions into one editable string.
// Quantity, unit and location remarks do not survive flattening.
func FlattenScope(items []ScopeItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Description)
	}
	return strings.Join(parts, "<br>")
}

// ParseScope wraps the edited string as a single scope item. A structured
// list that went through the flat editor collapses to one item.
func ParseScope(flat string) []ScopeItem {
	if flat == "" {
		return nil
	}
	return []ScopeItem{{Description: flat}}
}

// FlattenPrice renders each item as one text line.
func FlattenPrice(ps PriceSchedule) string {
	parts := make([]string, 0, len(ps.Items))
	for _, item := range ps.Items {
		parts = append(parts, fmt.Sprintf("%s - Qty: %s %s @ %s = %.2f",
			item.Description,
			formatNumber(item.Quantity),
			item.Unit,
			formatNumber(item.UnitRate),
			item.TotalAmount,
		))
	}
	return strings.Join(parts, "<br>")
}

// ParsePrice wraps the edited string as a single zeroed line item. Currency
// and tax details carry over from the prior structured value; derived
// totals are recomputed.
func ParsePrice(flat string, prior PriceSchedule) PriceSchedule {
	ps := PriceSchedule{
		Currency:   prior.Currency,
		TaxDetails: TaxDetails{VATRate: prior.TaxDetails.VATRate},
	}
	if flat != "" {
		ps.Items = []PriceItem{{Description: flat}}
	}
	Recalculate(&ps)
	return ps
}

// FlattenExclusions joins exclusions into one editable string.
func FlattenExclusions(items []string) string {
	return strings.Join(items, "<br>")
}

// ParseExclusions splits the edited string on <br> tags and bare newlines.
func ParseExclusions(flat string) []string {
	if flat == "" {
		return nil
	}
	var items []string
	for _, part := range lineBreakRe.Split(flat, -1) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		items = append(items, part)
	}
	return items
}

// FlattenPaymentTerms renders each milestone as "<milestone> - <percent>%".
func FlattenPaymentTerms(terms []PaymentTerm) string {
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		parts = append(parts, fmt.Sprintf("%s - %s%%", term.MilestoneDescription, formatNumber(term.AmountPercent)))
	}
	return strings.Join(parts, "<br>")
}

// ParsePaymentTerms parses milestone lines back into structured terms. A
// line without a trailing percent keeps the whole line as the milestone
// with a zero percent. A milestone whose own text ends in " - <n>%" is
// ambiguous on reparse; the regex semantics are a compatibility contract
// and stay as they are.
func ParsePaymentTerms(flat string) []PaymentTerm {
	if flat == "" {
		return nil
	}
	var terms []PaymentTerm
	for _, line := range lineBreakRe.Split(flat, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := paymentTermRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		term := PaymentTerm{MilestoneDescription: m[1]}
		if m[2] != "" {
			if pct, err := strconv.ParseFloat(m[2], 64); err == nil {
				term.AmountPercent = pct
			}
		}
		terms = append(terms, term)
	}
	return terms
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
