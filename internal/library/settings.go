package library

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/listingdesk/internal/pricing"
	"github.com/Simplici0/listingdesk/internal/validate"
)

// Settings are the user-tunable automation and notification rules.
type Settings struct {
	MinProfitMargin int    `json:"minProfitMargin" validate:"gte=0,lte=100"` // percent
	DailyLimit      int    `json:"dailyLimit" validate:"gte=0"`
	ExcludeBrands   string `json:"excludeBrands"` // comma separated

	AutoPublishListing bool `json:"autoPublishListing"`
	AutoPublishBlog    bool `json:"autoPublishBlog"`
	AutoPostSocial     bool `json:"autoPostSocial"`

	EnableEmailNotifications bool   `json:"enableEmailNotifications"`
	NotificationEmail        string `json:"notificationEmail" validate:"omitempty,email"`
	NotifyOnHighProfit       bool   `json:"notifyOnHighProfit"`
	NotifyOnVero             bool   `json:"notifyOnVero"`
	NotifyOnExportSuccess    bool   `json:"notifyOnExportSuccess"`
}

// DefaultSettings mirrors a fresh install.
func DefaultSettings() Settings {
	return Settings{
		MinProfitMargin:       20,
		DailyLimit:            50,
		ExcludeBrands:         "Nike, Apple, Samsung, Sony, Disney",
		NotifyOnHighProfit:    true,
		NotifyOnVero:          true,
		NotifyOnExportSuccess: false,
	}
}

// DefaultSettingsFor is DefaultSettings with the margin floor taken from the
// configured pricing options, rounded to a whole percent.
func DefaultSettingsFor(base pricing.Options) Settings {
	s := DefaultSettings()
	s.MinProfitMargin = int(base.MinMargin.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	return s
}

// Validate checks field ranges and that the margin still leaves a usable
// cost-plus divisor under base.
func (s Settings) Validate(base pricing.Options) error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	_, err := s.PricingOptions(base)
	return err
}

// PricingOptions returns base with the margin floor taken from these settings.
// When the merged options are unusable it returns base unchanged with the
// validation error, so callers can keep pricing and report the problem.
func (s Settings) PricingOptions(base pricing.Options) (pricing.Options, error) {
	merged := base.WithMinMargin(decimal.NewFromInt(int64(s.MinProfitMargin)).Div(decimal.NewFromInt(100)))
	if err := merged.Validate(); err != nil {
		return base, err
	}
	return merged, nil
}

// ExcludedBrands splits ExcludeBrands into trimmed, non-empty names.
func (s Settings) ExcludedBrands() []string {
	brands := make([]string, 0)
	for _, b := range strings.Split(s.ExcludeBrands, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brands = append(brands, b)
		}
	}
	return brands
}
