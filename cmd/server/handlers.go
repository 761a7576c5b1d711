package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/listingdesk/internal/apperror"
	"github.com/Simplici0/listingdesk/internal/export"
	"github.com/Simplici0/listingdesk/internal/library"
	"github.com/Simplici0/listingdesk/internal/pricing"
	"github.com/Simplici0/listingdesk/internal/validate"
)

const maxBodyBytes = 1 << 20

type pricingRequest struct {
	SourcePrice    string `json:"sourcePrice" validate:"notblank"`
	MarketEstimate string `json:"marketEstimate"`
}

type extractRequest struct {
	Text string `json:"text" validate:"notblank"`
}

type statusRequest struct {
	Status library.Status `json:"status" validate:"required"`
}

func (s *server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, apperror.NotFound(apperror.CodeNotFound, r.URL.Path))
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handlePricing(w http.ResponseWriter, r *http.Request) {
	var req pricingRequest
	if !s.decode(w, r, &req) {
		return
	}

	settings, err := s.library.Settings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts, err := settings.PricingOptions(s.pricing)
	if err != nil {
		s.logger.Warn().Err(err).Int("min_profit_margin", settings.MinProfitMargin).Msg("stored margin unusable, pricing with configured floor")
	}
	writeJSON(w, http.StatusOK, pricing.Calculate(req.SourcePrice, req.MarketEstimate, opts))
}

func (s *server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.listing.Process(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.library.Products(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.library.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleProductSave(w http.ResponseWriter, r *http.Request) {
	var p library.Product
	if !s.decodeJSON(w, r, &p) {
		return
	}

	stored, saved, err := s.library.SaveProduct(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusOK
	if saved {
		status = http.StatusCreated
	}
	writeJSON(w, status, stored)
}

func (s *server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.library.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleProductsDeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.library.DeleteAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *server) handleProductStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.library.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleProductsExport(w http.ResponseWriter, r *http.Request) {
	// Buffered so a failure can still be reported as a JSON error.
	var buf bytes.Buffer
	if _, err := s.listing.Export(r.Context(), &buf); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(s.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.library.Settings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	// Fields missing from the body keep their stored values.
	settings, err := s.library.Settings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !s.decodeJSON(w, r, &settings) {
		return
	}
	if err := settings.Validate(s.pricing); err != nil {
		s.writeError(w, apperror.New(apperror.CodeInvalidSettings, apperror.WithContext(err.Error()), apperror.WithCause(err)))
		return
	}

	if err := s.library.SaveSettings(r.Context(), settings); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *server) handleReportsList(w http.ResponseWriter, r *http.Request) {
	reports, err := s.library.Reports(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// decode reads a JSON body into dst and validates its tags. It writes the
// error response and returns false on failure.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !s.decodeJSON(w, r, dst) {
		return false
	}
	if err := validate.Struct(dst); err != nil {
		s.writeError(w, err)
		return false
	}
	return true
}

func (s *server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, apperror.New(apperror.CodeInvalidInput, apperror.WithMessage("malformed JSON body"), apperror.WithCause(err)))
		return false
	}
	return true
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(apperror.CodeInternalError, "", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("code", string(appErr.Code)).Msg("request failed")
	}
	writeJSON(w, appErr.StatusCode, appErr.ToResponse())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
