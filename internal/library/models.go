package library

import (
	"time"

	"github.com/Simplici0/listingdesk/internal/pricing"
)

// Status is the lifecycle state of a saved product.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusReady     Status = "READY"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReady, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// RiskAnalysis is the brand and IP risk assessment attached by extraction.
type RiskAnalysis struct {
	IsSafe              bool   `json:"isSafe"`
	RiskScore           int    `json:"riskScore"` // 0-100, 100 is highest risk
	BrandDetected       string `json:"brandDetected,omitempty"`
	RejectionReason     string `json:"rejectionReason,omitempty"`
	MarketPriceEstimate string `json:"marketPriceEstimate,omitempty"`
}

// Product is a supplier item on its way to becoming a listing.
type Product struct {
	ID            string                   `json:"id"`
	URL           string                   `json:"url"`
	Title         string                   `json:"title"`
	Price         string                   `json:"price"`
	OriginalPrice string                   `json:"originalPrice,omitempty"`
	Rating        string                   `json:"rating,omitempty"`
	Images        []string                 `json:"images"`
	Description   string                   `json:"description"`
	Specs         map[string]string        `json:"specs"`
	Category      string                   `json:"category"`
	Risk          *RiskAnalysis            `json:"riskAnalysis,omitempty"`
	Pricing       *pricing.ProfitBreakdown `json:"profitCalculation,omitempty"`
	Status        Status                   `json:"status,omitempty"`
	CreatedAt     time.Time                `json:"createdAt,omitzero"`
}

// ListingPrice returns the solved price to 2 places, or the raw price text.
func (p Product) ListingPrice() string {
	if p.Pricing != nil {
		return p.Pricing.ListingPrice.StringFixed(2)
	}
	return p.Price
}

// Action is the kind of activity a report records.
type Action string

const (
	ActionScan    Action = "SCAN"
	ActionExport  Action = "EXPORT"
	ActionBlock   Action = "BLOCK"
	ActionPublish Action = "PUBLISH"
	ActionEmail   Action = "EMAIL"
)

// ReportStatus is the outcome of a reported activity.
type ReportStatus string

const (
	ReportSuccess ReportStatus = "SUCCESS"
	ReportFailed  ReportStatus = "FAILED"
	ReportWarning ReportStatus = "WARNING"
)

// Report is one entry of the activity log.
type Report struct {
	ID          string       `json:"id"`
	Date        time.Time    `json:"date"`
	Action      Action       `json:"action"`
	ProductName string       `json:"productName"`
	Status      ReportStatus `json:"status"`
	Details     string       `json:"details"`
}
