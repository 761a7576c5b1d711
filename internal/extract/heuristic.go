package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Simplici0/listingdesk/internal/apperror"
	"github.com/Simplici0/listingdesk/internal/library"
)

const (
	defaultTitle    = "Untitled product"
	defaultCategory = "General"

	brandScore   = 70
	replicaScore = 60
	// UnsafeScore is the risk score from which an item is rejected.
	UnsafeScore = 50
)

// DefaultBrands are rights owners known to enforce their IP on marketplaces.
var DefaultBrands = []string{
	"Nike", "Adidas", "Apple", "Samsung", "Sony", "Gucci", "Disney", "Marvel",
	"Louis Vuitton", "Chanel", "Rolex", "Pokemon", "Lego", "Bose", "Beats",
}

var (
	replicaMarkers = []string{"replica", "high copy", "knock-off", "knockoff", "fake", "1:1", "aaa quality", "mirror quality"}
	genericBrand   = regexp.MustCompile(`(?i)^\s*(generic|unbranded|no brand|oem)\b`)
	amountPattern  = regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d+)?|\d[\d,]*(?:\.\d+)?\s?[$€£]`)
)

// Heuristic is a deterministic, local Extractor. It reads "key: value" lines
// and matches brand names; it does not call any remote model.
type Heuristic struct {
	brands []string
}

// NewHeuristic returns a Heuristic checking DefaultBrands plus extra.
func NewHeuristic(extra ...string) *Heuristic {
	brands := append([]string{}, DefaultBrands...)
	return &Heuristic{brands: append(brands, extra...)}
}

// Extract implements Extractor.
func (h *Heuristic) Extract(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, apperror.Validation(apperror.CodeRequiredField, "text")
	}

	text := truncateRunes(req.Text, MaxInputRunes)
	res := Result{Specs: map[string]string{}}
	var brandField, marketEstimate string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			if res.Title == "" {
				res.Title = line
			}
			continue
		}

		switch strings.ToLower(key) {
		case "title", "name":
			res.Title = value
		case "price", "sale price":
			res.Price = value
		case "original price", "was", "list price":
			res.OriginalPrice = value
		case "description":
			res.Description = value
		case "category":
			res.Category = value
		case "brand":
			brandField = value
		case "market price", "market estimate", "ebay price":
			marketEstimate = value
		default:
			res.Specs[key] = value
		}
	}

	if res.Title == "" {
		res.Title = defaultTitle
	}
	if res.Category == "" {
		res.Category = defaultCategory
	}
	if res.Price == "" {
		res.Price = amountPattern.FindString(text)
	}

	res.Risk = h.assess(res, brandField, req.ExcludeBrands)
	res.Risk.MarketPriceEstimate = marketEstimate
	return res, nil
}

func (h *Heuristic) assess(res Result, brandField string, exclude []string) library.RiskAnalysis {
	haystack := res.Title + "\n" + res.Description
	if brandField != "" && !genericBrand.MatchString(brandField) {
		haystack += "\n" + brandField
	}

	risk := library.RiskAnalysis{}
	reasons := make([]string, 0, 2)

	brands := append(append([]string{}, h.brands...), exclude...)
	for _, brand := range brands {
		if brand = strings.TrimSpace(brand); brand == "" {
			continue
		}
		if regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(brand) + `\b`).MatchString(haystack) {
			risk.BrandDetected = brand
			risk.RiskScore += brandScore
			reasons = append(reasons, fmt.Sprintf("registered brand %q", brand))
			break
		}
	}

	lower := strings.ToLower(haystack)
	for _, marker := range replicaMarkers {
		if strings.Contains(lower, marker) {
			risk.RiskScore += replicaScore
			reasons = append(reasons, fmt.Sprintf("replica marker %q", marker))
			break
		}
	}

	if risk.RiskScore > 100 {
		risk.RiskScore = 100
	}
	risk.IsSafe = risk.RiskScore < UnsafeScore
	if !risk.IsSafe {
		risk.RejectionReason = "VeRO risk: " + strings.Join(reasons, ", ")
	}
	return risk
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
