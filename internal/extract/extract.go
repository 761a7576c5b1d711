// Package extract turns free-form supplier text into structured product
// fields plus a brand and IP risk assessment.
package extract

import (
	"context"

	"github.com/Simplici0/listingdesk/internal/library"
)

// MaxInputRunes bounds how much raw text is analysed.
const MaxInputRunes = 5000

// Request is one extraction call.
type Request struct {
	Text string
	// ExcludeBrands are extra brand names the seller refuses to list.
	ExcludeBrands []string
}

// Result is the structured view of the raw text.
type Result struct {
	Title         string               `json:"title"`
	Price         string               `json:"price"`
	OriginalPrice string               `json:"originalPrice,omitempty"`
	Description   string               `json:"description"`
	Specs         map[string]string    `json:"specs"`
	Category      string               `json:"category"`
	Risk          library.RiskAnalysis `json:"riskAnalysis"`
}

// Extractor is the extraction collaborator. Implementations may call remote
// services and must honour ctx.
type Extractor interface {
	Extract(ctx context.Context, req Request) (Result, error)
}
