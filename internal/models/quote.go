package models

import (
	"math"
	"time"
)

// QuoteStatus describes how a quote was produced.
type QuoteStatus string

const (
	// QuoteStatusOK means the quote was composed from retrieved catalog items.
	QuoteStatusOK QuoteStatus = "ok"
	// QuoteStatusNoMatch means no catalog item cleared the similarity
	// threshold; the quote has no lines.
	QuoteStatusNoMatch QuoteStatus = "no_match"
	// QuoteStatusDegraded means the language model's output could not be
	// parsed and the quote fell back to the top retrieved item.
	QuoteStatusDegraded QuoteStatus = "degraded"
)

// InquiryRequest is a customer inquiry submitted for quotation.
type InquiryRequest struct {
	Inquiry string `json:"inquiry" validate:"required"`
	// Quantity is an optional hint used when the inquiry text does not state
	// one; zero means unspecified.
	Quantity float64 `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	// TopK overrides the configured retrieval depth when positive.
	TopK int `json:"top_k,omitempty" validate:"omitempty,gt=0,lte=50"`
}

// QuoteLine is one priced line of a quote. UnitPrice always comes from the
// catalog, never from model output, and Total is recomputed locally.
type QuoteLine struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	Spec      string  `json:"spec"`
	Supplier  string  `json:"supplier"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
	Total     float64 `json:"total"`
}

// Quote is the final quotation for an inquiry.
type Quote struct {
	Lines       []QuoteLine `json:"lines"`
	Subtotal    float64     `json:"subtotal"`
	Total       float64     `json:"total"`
	Status      QuoteStatus `json:"status"`
	Note        string      `json:"note,omitempty"`
	Inquiry     string      `json:"inquiry"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// RoundMoney rounds a monetary amount to two decimal places.
func RoundMoney(x float64) float64 {
	return math.Round(x*100) / 100
}

// NewQuoteLine builds a line for an item at the given quantity. Quantities at
// or below zero default to one.
func NewQuoteLine(item CatalogItem, quantity float64) QuoteLine {
	if quantity <= 0 {
		quantity = 1
	}
	return QuoteLine{
		ItemID:    item.ID,
		Name:      item.Name,
		Spec:      item.Spec,
		Supplier:  item.Supplier,
		Unit:      item.Unit,
		UnitPrice: item.Price,
		Quantity:  quantity,
		Total:     RoundMoney(item.Price * quantity),
	}
}

// Finalize recomputes every line total and the quote totals from catalog
// prices, and stamps the generation time.
func (q *Quote) Finalize() {
	var subtotal float64
	for i := range q.Lines {
		q.Lines[i].Total = RoundMoney(q.Lines[i].UnitPrice * q.Lines[i].Quantity)
		subtotal += q.Lines[i].Total
	}
	q.Subtotal = RoundMoney(subtotal)
	q.Total = q.Subtotal
	q.GeneratedAt = time.Now().UTC()
}
