package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/listingdesk/internal/apperror"
)

// Options holds the pricing parameters for a single solve.
type Options struct {
	ShippingBuffer decimal.Decimal `json:"shippingBuffer"`
	FeeRate        decimal.Decimal `json:"feeRate"`
	FixedFee       decimal.Decimal `json:"fixedFee"`
	MinMargin      decimal.Decimal `json:"minMargin"`
	UndercutFactor decimal.Decimal `json:"undercutFactor"`
	MarketingRate  decimal.Decimal `json:"marketingRate"`
}

// DefaultOptions returns the marketplace defaults: 13.5% + $0.30 fees,
// $5.00 shipping buffer, 20% minimum margin, 5% undercut, 5% marketing.
func DefaultOptions() Options {
	return Options{
		ShippingBuffer: decimal.RequireFromString("5.00"),
		FeeRate:        decimal.RequireFromString("0.135"),
		FixedFee:       decimal.RequireFromString("0.30"),
		MinMargin:      decimal.RequireFromString("0.20"),
		UndercutFactor: decimal.RequireFromString("0.95"),
		MarketingRate:  decimal.RequireFromString("0.05"),
	}
}

// Validate rejects options the solver cannot use. The cost-plus divisor
// 1 - FeeRate - MinMargin must stay positive.
func (o Options) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"shippingBuffer", o.ShippingBuffer},
		{"feeRate", o.FeeRate},
		{"fixedFee", o.FixedFee},
		{"minMargin", o.MinMargin},
		{"undercutFactor", o.UndercutFactor},
		{"marketingRate", o.MarketingRate},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return apperror.Validation(apperror.CodeInvalidPricingOptions, fmt.Sprintf("%s must be >= 0", f.name))
		}
	}

	if !o.UndercutFactor.IsPositive() {
		return apperror.Validation(apperror.CodeInvalidPricingOptions, "undercutFactor must be > 0")
	}
	if !o.divisor().IsPositive() {
		return apperror.Validation(apperror.CodeInvalidPricingOptions, "feeRate + minMargin must be < 1")
	}

	return nil
}

// WithMinMargin returns a copy of o with a different margin floor.
func (o Options) WithMinMargin(minMargin decimal.Decimal) Options {
	o.MinMargin = minMargin
	return o
}

func (o Options) divisor() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(o.FeeRate).Sub(o.MinMargin)
}

func (o Options) feeAndProfit(source, price decimal.Decimal) (fee, profit decimal.Decimal) {
	fee = price.Mul(o.FeeRate).Add(o.FixedFee)
	profit = price.Sub(source).Sub(o.ShippingBuffer).Sub(fee)
	return fee, profit
}
