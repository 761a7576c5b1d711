package pricing

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Strategy names the branch that produced the listing price.
type Strategy string

const (
	// StrategyUndercut lists just below the estimated market price.
	StrategyUndercut Strategy = "undercut"
	// StrategyCostPlus lists at the price that meets the margin floor exactly.
	StrategyCostPlus Strategy = "cost_plus"
)

// ProfitBreakdown is the full cost and price split for one listing.
// Money fields are rounded to cents; MarginPercent comes from unrounded values.
type ProfitBreakdown struct {
	SourcePrice     decimal.Decimal `json:"sourcePrice"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	PlatformFee     decimal.Decimal `json:"platformFee"`
	PaymentFee      decimal.Decimal `json:"paymentFee"`
	MarketingBudget decimal.Decimal `json:"marketingBudget"`
	ListingPrice    decimal.Decimal `json:"listingPrice"`
	NetProfit       decimal.Decimal `json:"netProfit"`
	MarginPercent   string          `json:"marginPercent"`
	Strategy        Strategy        `json:"strategy"`
}

// MarshalJSON writes money fields as strings with exactly two decimals, so
// "5.00" is not shortened to "5". Decoding uses the default decimal parsing.
func (b ProfitBreakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SourcePrice     string   `json:"sourcePrice"`
		ShippingCost    string   `json:"shippingCost"`
		PlatformFee     string   `json:"platformFee"`
		PaymentFee      string   `json:"paymentFee"`
		MarketingBudget string   `json:"marketingBudget"`
		ListingPrice    string   `json:"listingPrice"`
		NetProfit       string   `json:"netProfit"`
		MarginPercent   string   `json:"marginPercent"`
		Strategy        Strategy `json:"strategy"`
	}{
		SourcePrice:     b.SourcePrice.StringFixed(2),
		ShippingCost:    b.ShippingCost.StringFixed(2),
		PlatformFee:     b.PlatformFee.StringFixed(2),
		PaymentFee:      b.PaymentFee.StringFixed(2),
		MarketingBudget: b.MarketingBudget.StringFixed(2),
		ListingPrice:    b.ListingPrice.StringFixed(2),
		NetProfit:       b.NetProfit.StringFixed(2),
		MarginPercent:   b.MarginPercent,
		Strategy:        b.Strategy,
	})
}

// Compute parses both price texts and solves with DefaultOptions.
func Compute(sourceText, marketText string) ProfitBreakdown {
	return Calculate(sourceText, marketText, DefaultOptions())
}

// Calculate parses both price texts and solves with opts.
// An empty or unparseable market estimate defaults to twice the source price.
func Calculate(sourceText, marketText string, opts Options) ProfitBreakdown {
	source, _ := ParseCurrency(sourceText)

	market, ok := ParseCurrency(marketText)
	if !ok {
		market = source.Mul(decimal.NewFromInt(2))
	}

	return Solve(source, market, opts)
}

// Solve computes the listing price for a source cost and a market estimate.
//
// The undercut price is tried first. If it nets less than MinMargin relative to
// the source cost, the price is replaced by the closed-form cost-plus price
//
//	(source + shipping + fixedFee) / (1 - feeRate - minMargin)
//
// at which net profit is exactly MinMargin of the listing price. A source cost
// of zero or less skips the margin test, so the undercut price is kept and the
// resulting margin has no cost basis. Options whose divisor is not positive
// have no cost-plus price either; the undercut price is kept for them too.
func Solve(source, market decimal.Decimal, opts Options) ProfitBreakdown {
	strategy := StrategyUndercut
	price := market.Mul(opts.UndercutFactor)
	fee, profit := opts.feeAndProfit(source, price)

	if source.IsPositive() && opts.divisor().IsPositive() && profit.Div(source).LessThan(opts.MinMargin) {
		strategy = StrategyCostPlus
		fixedCosts := source.Add(opts.ShippingBuffer).Add(opts.FixedFee)
		price = fixedCosts.Div(opts.divisor())
		fee, profit = opts.feeAndProfit(source, price)
	}

	return ProfitBreakdown{
		SourcePrice:     source.Round(2),
		ShippingCost:    opts.ShippingBuffer.Round(2),
		PlatformFee:     fee.Round(2),
		PaymentFee:      decimal.Zero.Round(2),
		MarketingBudget: price.Mul(opts.MarketingRate).Round(2),
		ListingPrice:    price.Round(2),
		NetProfit:       profit.Round(2),
		MarginPercent:   marginPercent(profit, price),
		Strategy:        strategy,
	}
}

// marginPercent formats profit/price as a one-decimal percentage.
// A zero price has no defined margin and reports 0.0%.
func marginPercent(profit, price decimal.Decimal) string {
	if price.IsZero() {
		return "0.0%"
	}
	return profit.Div(price).Mul(hundred).StringFixed(1) + "%"
}

// Margin returns the margin percent as a number, or zero when malformed.
func (b ProfitBreakdown) Margin() decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSuffix(b.MarginPercent, "%"))
	if err != nil {
		return decimal.Zero
	}
	return value
}
