package quote

import "context"

// DocumentData is the shape handed to the external document-layout
// collaborator that renders an offer to PDF. Layout is that collaborator's
// concern; the engine only guarantees this data is complete and priced.
type DocumentData struct {
	Title           string  `json:"title"`
	OfferReference  string  `json:"offerReference"`
	RevisionNumber  string  `json:"revisionNumber,omitempty"`
	VariationNumber int     `json:"variationNumber,omitempty"`
	Content         Content `json:"content"`
}

// DocumentRenderer is implemented by the external layout service client.
type DocumentRenderer interface {
	Render(ctx context.Context, data DocumentData) ([]byte, error)
}
