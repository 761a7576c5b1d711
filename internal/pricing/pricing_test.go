package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/listingdesk/internal/apperror"
)

func equalDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", name, got, want)
	}
}

func TestCompute_UndercutPath(t *testing.T) {
	result := Compute("10", "50")

	if result.Strategy != StrategyUndercut {
		t.Fatalf("strategy = %q, want %q", result.Strategy, StrategyUndercut)
	}
	equalDecimal(t, "listingPrice", result.ListingPrice, "47.50")
	equalDecimal(t, "platformFee", result.PlatformFee, "6.71")
	equalDecimal(t, "netProfit", result.NetProfit, "25.79")
	equalDecimal(t, "marketingBudget", result.MarketingBudget, "2.38")
	equalDecimal(t, "shippingCost", result.ShippingCost, "5.00")
	equalDecimal(t, "paymentFee", result.PaymentFee, "0")
	equalDecimal(t, "sourcePrice", result.SourcePrice, "10")
	if result.MarginPercent != "54.3%" {
		t.Fatalf("marginPercent = %q, want %q", result.MarginPercent, "54.3%")
	}
}

func TestCompute_CostPlusFallback(t *testing.T) {
	result := Compute("40", "42")

	if result.Strategy != StrategyCostPlus {
		t.Fatalf("strategy = %q, want %q", result.Strategy, StrategyCostPlus)
	}

	// (40 + 5.00 + 0.30) / (1 - 0.135 - 0.20)
	want := decimal.RequireFromString("45.30").Div(decimal.RequireFromString("0.665")).Round(2)
	equalDecimal(t, "listingPrice", result.ListingPrice, want.String())
	equalDecimal(t, "listingPrice", result.ListingPrice, "68.12")
	equalDecimal(t, "platformFee", result.PlatformFee, "9.50")
	equalDecimal(t, "netProfit", result.NetProfit, "13.62")

	diff := result.Margin().Sub(decimal.NewFromInt(20)).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.1")) {
		t.Fatalf("margin = %s, want 20.0 +/- 0.1", result.MarginPercent)
	}
	if result.MarginPercent != "20.0%" {
		t.Fatalf("marginPercent = %q, want %q", result.MarginPercent, "20.0%")
	}
}

func TestCompute_MarginFloorHolds(t *testing.T) {
	floor := decimal.RequireFromString("0.19")

	for source := 1; source <= 400; source += 7 {
		for market := 0; market <= 900; market += 13 {
			src := decimal.NewFromInt(int64(source))
			result := Solve(src, decimal.NewFromInt(int64(market)), DefaultOptions())

			if !result.ListingPrice.IsPositive() {
				t.Fatalf("source=%d market=%d: listing price %s not positive", source, market, result.ListingPrice)
			}
			if ratio := result.NetProfit.Div(src); ratio.LessThan(floor) {
				t.Fatalf("source=%d market=%d: profit/source = %s below floor", source, market, ratio)
			}
		}
	}
}

func TestCompute_IsDeterministic(t *testing.T) {
	first, err := json.Marshal(Compute("$23.99", "$61.00"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(Compute("$23.99", "$61.00"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(first) != string(second) {
		t.Fatalf("outputs differ:\n%s\n%s", first, second)
	}
}

func TestProfitBreakdown_JSONHasTwoDecimals(t *testing.T) {
	data, err := json.Marshal(Compute("40", "42"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"sourcePrice":"40.00","shippingCost":"5.00","platformFee":"9.50","paymentFee":"0.00",` +
		`"marketingBudget":"3.41","listingPrice":"68.12","netProfit":"13.62","marginPercent":"20.0%","strategy":"cost_plus"}`
	if string(data) != want {
		t.Fatalf("json = %s\nwant   %s", data, want)
	}

	var decoded ProfitBreakdown
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	equalDecimal(t, "listingPrice", decoded.ListingPrice, "68.12")
	equalDecimal(t, "paymentFee", decoded.PaymentFee, "0")
}

func TestCompute_CurrencySymbolsDoNotChangeResult(t *testing.T) {
	withSymbols, _ := json.Marshal(Compute("$15.00", "$40.00"))
	plain, _ := json.Marshal(Compute("15.00", "40.00"))

	if string(withSymbols) != string(plain) {
		t.Fatalf("normalized results differ:\n%s\n%s", withSymbols, plain)
	}
}

func TestCompute_MissingMarketEstimateDoublesSource(t *testing.T) {
	absent := Compute("20", "")
	garbage := Compute("20", "n/a")
	explicit := Compute("20", "40")

	equalDecimal(t, "absent listingPrice", absent.ListingPrice, "38")
	equalDecimal(t, "garbage listingPrice", garbage.ListingPrice, "38")
	equalDecimal(t, "explicit listingPrice", explicit.ListingPrice, "38")
	equalDecimal(t, "netProfit", absent.NetProfit, "7.57")
}

func TestCompute_ZeroSourceCost(t *testing.T) {
	noMarket := Compute("0", "")
	equalDecimal(t, "listingPrice", noMarket.ListingPrice, "0")
	if noMarket.MarginPercent != "0.0%" {
		t.Fatalf("marginPercent = %q, want %q", noMarket.MarginPercent, "0.0%")
	}

	withMarket := Compute("free", "$50")
	if withMarket.Strategy != StrategyUndercut {
		t.Fatalf("zero cost must keep the undercut price, got %q", withMarket.Strategy)
	}
	equalDecimal(t, "listingPrice", withMarket.ListingPrice, "47.50")
	equalDecimal(t, "netProfit", withMarket.NetProfit, "35.79")
	if withMarket.MarginPercent != "75.3%" {
		t.Fatalf("marginPercent = %q, want %q", withMarket.MarginPercent, "75.3%")
	}
}

func TestCalculate_UsesGivenMinMargin(t *testing.T) {
	opts := DefaultOptions().WithMinMargin(decimal.RequireFromString("0.40"))

	result := Calculate("20", "40", opts)

	if result.Strategy != StrategyCostPlus {
		t.Fatalf("strategy = %q, want %q", result.Strategy, StrategyCostPlus)
	}
	// (20 + 5 + 0.30) / (1 - 0.135 - 0.40) = 54.408...
	equalDecimal(t, "listingPrice", result.ListingPrice, "54.41")
	if result.MarginPercent != "40.0%" {
		t.Fatalf("marginPercent = %q, want %q", result.MarginPercent, "40.0%")
	}
}

func TestSolve_NonPositiveDivisorKeepsUndercut(t *testing.T) {
	for _, feeRate := range []string{"0.80", "0.85"} {
		t.Run(feeRate, func(t *testing.T) {
			opts := DefaultOptions()
			opts.FeeRate = decimal.RequireFromString(feeRate)

			result := Calculate("40", "42", opts)

			if result.Strategy != StrategyUndercut {
				t.Fatalf("strategy = %q, want %q", result.Strategy, StrategyUndercut)
			}
			equalDecimal(t, "listingPrice", result.ListingPrice, "39.90")
			if !result.ListingPrice.IsPositive() {
				t.Fatalf("listingPrice must stay positive, got %s", result.ListingPrice)
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}

	tests := []struct {
		name string
		opts Options
	}{
		{"divisor_not_positive", DefaultOptions().WithMinMargin(decimal.RequireFromString("0.865"))},
		{"negative_fee", func() Options { o := DefaultOptions(); o.FeeRate = decimal.NewFromInt(-1); return o }()},
		{"zero_undercut", func() Options { o := DefaultOptions(); o.UndercutFactor = decimal.Zero; return o }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if code := apperror.GetCode(err); code != apperror.CodeInvalidPricingOptions {
				t.Fatalf("code = %s, want %s", code, apperror.CodeInvalidPricingOptions)
			}
		})
	}
}
