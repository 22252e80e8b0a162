// Package models defines the core data structures shared across the quotation pipeline.
package models

import (
	"fmt"
	"time"
)

// CatalogItem is a single priced product entry in the supplier catalog.
type CatalogItem struct {
	ID       string  `json:"id"`
	Supplier string  `json:"supplier"`
	Name     string  `json:"name"`
	Spec     string  `json:"spec"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
	// Source tags where the item came from: a catalog file path, or "manual"
	// for items added through the API.
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmbeddingText returns the canonical text embedded for this item. Supplier is
// included so inquiries naming a supplier rank its items higher.
func (it CatalogItem) EmbeddingText() string {
	return fmt.Sprintf("%s %s supplier:%s", it.Name, it.Spec, it.Supplier)
}

// PriceRecord is a parsed or submitted price line before it becomes a catalog
// item. Validation tags are enforced on API submissions.
type PriceRecord struct {
	Supplier string  `json:"supplier" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Spec     string  `json:"spec"`
	Unit     string  `json:"unit" validate:"required"`
	Price    float64 `json:"price" validate:"required,gt=0"`
}

// RetrievedCandidate is a catalog item with its similarity score against an
// inquiry, as returned by the vector store.
type RetrievedCandidate struct {
	Item  CatalogItem `json:"item"`
	Score float64     `json:"score"`
}

// IngestSummary reports the outcome of a catalog ingestion run.
type IngestSummary struct {
	Files   int `json:"files"`
	Items   int `json:"items"`
	Skipped int `json:"skipped"`
}

// Add merges another summary into this one.
func (s *IngestSummary) Add(other IngestSummary) {
	s.Files += other.Files
	s.Items += other.Items
	s.Skipped += other.Skipped
}
