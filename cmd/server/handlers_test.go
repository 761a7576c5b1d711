package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/listingdesk/internal/content"
	"github.com/Simplici0/listingdesk/internal/db"
	"github.com/Simplici0/listingdesk/internal/extract"
	"github.com/Simplici0/listingdesk/internal/kvstore"
	"github.com/Simplici0/listingdesk/internal/library"
	"github.com/Simplici0/listingdesk/internal/listing"
	"github.com/Simplici0/listingdesk/internal/logging"
	"github.com/Simplici0/listingdesk/internal/migrations"
	"github.com/Simplici0/listingdesk/internal/notify"
	"github.com/Simplici0/listingdesk/internal/pricing"
	"github.com/Simplici0/listingdesk/internal/seed"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return newTestServerWithOptions(t, pricing.DefaultOptions(), library.DefaultSettingsFor(pricing.DefaultOptions()))
}

// newTestServerWithOptions builds the server from configured pricing options
// and the settings a previous seed left in the store.
func newTestServerWithOptions(t *testing.T, opts pricing.Options, defaults library.Settings) http.Handler {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, db.MemoryPath)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	store := kvstore.New(database)
	if _, err := seed.Run(ctx, store, defaults); err != nil {
		t.Fatalf("seed: %v", err)
	}

	lib := library.New(store, defaults)
	logger := logging.Nop()
	dispatcher := notify.NewDispatcher(notify.LogSender{Logger: logger}, "", logger)
	svc := listing.NewService(extract.NewHeuristic(), content.Template{}, lib, dispatcher, opts, logger)

	srv := &server{
		library: lib,
		listing: svc,
		pricing: opts,
		logger:  logger,
		now:     func() time.Time { return time.Date(2024, 7, 9, 8, 0, 0, 0, time.UTC) },
	}
	return srv.routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, rr, &body)
	return body.Error.Code
}

func TestHandlePricing(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/api/pricing", `{"sourcePrice":"$40.00","marketEstimate":"$42.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var b pricing.ProfitBreakdown
	decodeBody(t, rr, &b)
	if b.ListingPrice.StringFixed(2) != "68.12" || b.MarginPercent != "20.0%" || b.Strategy != pricing.StrategyCostPlus {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
}

func TestHandlePricing_ConfiguredMarginIsDefault(t *testing.T) {
	opts := pricing.DefaultOptions().WithMinMargin(decimal.RequireFromString("0.50"))
	h := newTestServerWithOptions(t, opts, library.DefaultSettingsFor(opts))

	rr := do(t, h, http.MethodPost, "/api/pricing", `{"sourcePrice":"40","marketEstimate":"42"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var b pricing.ProfitBreakdown
	decodeBody(t, rr, &b)
	// (40 + 5 + 0.30) / (1 - 0.135 - 0.50) = 124.109...
	if b.ListingPrice.StringFixed(2) != "124.11" || b.MarginPercent != "50.0%" {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
}

func TestHandlePricing_HighFeeRateWithStoredMargin(t *testing.T) {
	opts := pricing.DefaultOptions()
	opts.FeeRate = decimal.RequireFromString("0.80")
	opts.MinMargin = decimal.Zero
	// Settings stored under an earlier config keep the 20% floor; 0.80 + 0.20
	// leaves no cost-plus divisor.
	h := newTestServerWithOptions(t, opts, library.DefaultSettings())

	if rr := do(t, h, http.MethodPut, "/api/settings", `{"minProfitMargin":25}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("settings put: expected 400, got %d", rr.Code)
	}

	rr := do(t, h, http.MethodPost, "/api/pricing", `{"sourcePrice":"40","marketEstimate":"42"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var b pricing.ProfitBreakdown
	decodeBody(t, rr, &b)
	// (40 + 5 + 0.30) / (1 - 0.80 - 0) = 226.50
	if b.ListingPrice.StringFixed(2) != "226.50" || !b.ListingPrice.IsPositive() {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
}

func TestHandlePricing_RequiresSourcePrice(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/api/pricing", `{"sourcePrice":"  "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "VALIDATION_ERROR" {
		t.Fatalf("code = %q", code)
	}

	rr = do(t, h, http.MethodPost, "/api/pricing", `{not json`)
	if rr.Code != http.StatusBadRequest || errorCode(t, rr) != "INVALID_INPUT" {
		t.Fatalf("malformed body: status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestExtractSaveAndExport(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/api/extract", `{"text":"Portable Desk Fan\nPrice: $10.00\nMarket price: $50.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("extract: status %d: %s", rr.Code, rr.Body.String())
	}
	var out listing.Outcome
	decodeBody(t, rr, &out)
	if out.Blocked || out.Content == nil || out.Product.ID == "" {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	productJSON, err := json.Marshal(out.Product)
	if err != nil {
		t.Fatalf("marshal product: %v", err)
	}
	rr = do(t, h, http.MethodPost, "/api/products", string(productJSON))
	if rr.Code != http.StatusCreated {
		t.Fatalf("save: status %d: %s", rr.Code, rr.Body.String())
	}
	rr = do(t, h, http.MethodPost, "/api/products", string(productJSON))
	if rr.Code != http.StatusOK {
		t.Fatalf("second save: expected 200, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/api/products/"+out.Product.ID, "")
	var stored library.Product
	decodeBody(t, rr, &stored)
	if stored.Status != library.StatusReady || stored.CreatedAt.IsZero() {
		t.Fatalf("stored product = %+v", stored)
	}

	rr = do(t, h, http.MethodGet, "/api/products/export.csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export: status %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "ebay_export_2024-07-09.csv") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rr.Body.String(), "Add,Portable Desk Fan") {
		t.Fatalf("csv = %s", rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/api/reports", "")
	var reports []library.Report
	decodeBody(t, rr, &reports)
	if len(reports) != 2 || reports[0].Action != library.ActionExport || reports[1].Action != library.ActionScan {
		t.Fatalf("reports = %+v", reports)
	}
}

func TestProductStatusAndDelete(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/api/products", `{"id":"p1","title":"Mug","price":"$4.00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("save: status %d", rr.Code)
	}

	rr = do(t, h, http.MethodPatch, "/api/products/p1/status", `{"status":"PUBLISHED"}`)
	var p library.Product
	decodeBody(t, rr, &p)
	if rr.Code != http.StatusOK || p.Status != library.StatusPublished {
		t.Fatalf("status update: %d %+v", rr.Code, p)
	}

	rr = do(t, h, http.MethodPatch, "/api/products/p1/status", `{"status":"SOLD"}`)
	if rr.Code != http.StatusBadRequest || errorCode(t, rr) != "INVALID_STATUS" {
		t.Fatalf("invalid status: %d %s", rr.Code, rr.Body.String())
	}

	if rr = do(t, h, http.MethodDelete, "/api/products/p1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rr.Code)
	}
	rr = do(t, h, http.MethodGet, "/api/products/p1", "")
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "PRODUCT_NOT_FOUND" {
		t.Fatalf("get deleted: %d %s", rr.Code, rr.Body.String())
	}

	_ = do(t, h, http.MethodPost, "/api/products", `{"id":"p2","title":"Lamp"}`)
	_ = do(t, h, http.MethodPost, "/api/products", `{"id":"p3","title":"Desk"}`)
	rr = do(t, h, http.MethodDelete, "/api/products", "")
	var deleted map[string]int
	decodeBody(t, rr, &deleted)
	if deleted["deleted"] != 2 {
		t.Fatalf("delete all = %v", deleted)
	}
}

func TestSettingsRoundTripAndValidation(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodGet, "/api/settings", "")
	var s library.Settings
	decodeBody(t, rr, &s)
	if s.MinProfitMargin != 20 {
		t.Fatalf("default settings = %+v", s)
	}

	rr = do(t, h, http.MethodPut, "/api/settings", `{"minProfitMargin":35,"notificationEmail":"me@example.com"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put settings: %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, h, http.MethodGet, "/api/settings", "")
	decodeBody(t, rr, &s)
	if s.MinProfitMargin != 35 || s.NotificationEmail != "me@example.com" || s.DailyLimit != 50 {
		t.Fatalf("stored settings = %+v", s)
	}

	for _, body := range []string{`{"minProfitMargin":150}`, `{"notificationEmail":"not-an-email"}`, `{"minProfitMargin":90}`} {
		rr = do(t, h, http.MethodPut, "/api/settings", body)
		if rr.Code != http.StatusBadRequest || errorCode(t, rr) != "INVALID_SETTINGS" {
			t.Fatalf("%s: status %d %s", body, rr.Code, rr.Body.String())
		}
	}
}

func TestUnknownRouteReturnsJSONNotFound(t *testing.T) {
	rr := do(t, newTestServer(t), http.MethodGet, "/api/nope", "")
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "NOT_FOUND" {
		t.Fatalf("unknown route: %d %s", rr.Code, rr.Body.String())
	}
}

func TestHealth(t *testing.T) {
	rr := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Fatalf("healthz: %d %s", rr.Code, rr.Body.String())
	}
}
