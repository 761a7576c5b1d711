// Package listing runs raw supplier text through extraction, pricing, risk
// gating and content generation, and records the outcome.
package listing

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/listingdesk/internal/apperror"
	"github.com/Simplici0/listingdesk/internal/content"
	"github.com/Simplici0/listingdesk/internal/export"
	"github.com/Simplici0/listingdesk/internal/extract"
	"github.com/Simplici0/listingdesk/internal/library"
	"github.com/Simplici0/listingdesk/internal/notify"
	"github.com/Simplici0/listingdesk/internal/pricing"
)

// HighProfitMargin is the margin percent above which a high-profit alert is sent.
var HighProfitMargin = decimal.NewFromInt(40)

// Notifier is satisfied by *notify.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, s library.Settings, kind notify.Kind, productName, details string) (bool, error)
}

// Outcome is the result of processing one piece of raw text.
type Outcome struct {
	Product library.Product  `json:"product"`
	Content *content.Content `json:"content,omitempty"`
	Report  library.Report   `json:"report"`
	Blocked bool             `json:"blocked"`
	// Notified is true when an alert was sent for this outcome.
	Notified bool `json:"notified"`
}

// Service is the listing pipeline.
type Service struct {
	extractor extract.Extractor
	generator content.Generator
	library   *library.Library
	notifier  Notifier
	opts      pricing.Options
	logger    zerolog.Logger

	newID func() string
}

// NewService wires the pipeline. opts are the configured pricing options;
// the stored minimum margin setting overrides their MinMargin per call.
func NewService(
	extractor extract.Extractor,
	generator content.Generator,
	lib *library.Library,
	notifier Notifier,
	opts pricing.Options,
	logger zerolog.Logger,
) *Service {
	return &Service{
		extractor: extractor,
		generator: generator,
		library:   lib,
		notifier:  notifier,
		opts:      opts,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Process extracts, prices and assesses rawText. Unsafe items are blocked
// and reported; safe items get generated content. The product is not saved.
func (s *Service) Process(ctx context.Context, rawText string) (Outcome, error) {
	settings, err := s.library.Settings(ctx)
	if err != nil {
		return Outcome{}, err
	}

	res, err := s.extractor.Extract(ctx, extract.Request{Text: rawText, ExcludeBrands: settings.ExcludedBrands()})
	if err != nil {
		return Outcome{}, collaboratorError(err, apperror.CodeExtractionFailed, "extract product")
	}

	risk := res.Risk
	p := library.Product{
		ID:            s.newID(),
		Title:         res.Title,
		Price:         res.Price,
		OriginalPrice: res.OriginalPrice,
		Images:        []string{},
		Description:   res.Description,
		Specs:         res.Specs,
		Category:      res.Category,
		Risk:          &risk,
		Status:        library.StatusDraft,
	}
	log := s.logger.With().Str("product_id", p.ID).Str("title", p.Title).Logger()

	if res.Price != "" {
		opts, err := settings.PricingOptions(s.opts)
		if err != nil {
			log.Warn().Err(err).Int("min_profit_margin", settings.MinProfitMargin).Msg("stored margin unusable, pricing with configured floor")
		}
		breakdown := pricing.Calculate(res.Price, risk.MarketPriceEstimate, opts)
		p.Pricing = &breakdown
	}

	if !risk.IsSafe {
		log.Warn().Str("brand", risk.BrandDetected).Int("risk_score", risk.RiskScore).Msg("product blocked")

		report, err := s.library.AddReport(ctx, library.Report{
			Action:      library.ActionBlock,
			ProductName: p.Title,
			Status:      library.ReportFailed,
			Details:     risk.RejectionReason,
		})
		if err != nil {
			return Outcome{}, err
		}

		notified := s.notify(ctx, log, settings, notify.KindVero, p.Title, risk.RejectionReason)
		return Outcome{Product: p, Report: report, Blocked: true, Notified: notified}, nil
	}

	c, err := s.generator.Generate(ctx, p)
	if err != nil {
		return Outcome{}, collaboratorError(err, apperror.CodeGenerationFailed, "generate content")
	}

	details := "Extracted successfully"
	if p.Pricing != nil {
		details = fmt.Sprintf("Extracted successfully. Margin: %s", p.Pricing.MarginPercent)
	}
	report, err := s.library.AddReport(ctx, library.Report{
		Action:      library.ActionScan,
		ProductName: p.Title,
		Status:      library.ReportSuccess,
		Details:     details,
	})
	if err != nil {
		return Outcome{}, err
	}

	var notified bool
	if p.Pricing != nil && p.Pricing.Margin().GreaterThan(HighProfitMargin) {
		notified = s.notify(ctx, log, settings, notify.KindHighProfit, p.Title,
			fmt.Sprintf("Net profit %s at %s margin", p.Pricing.NetProfit.StringFixed(2), p.Pricing.MarginPercent))
	}

	log.Info().Bool("priced", p.Pricing != nil).Msg("product processed")
	return Outcome{Product: p, Content: &c, Report: report, Notified: notified}, nil
}

// Export writes every saved product as CSV to w, records an EXPORT report and
// sends the export notification. It returns the number of products written.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	products, err := s.library.Products(ctx)
	if err != nil {
		return 0, err
	}

	n, err := export.WriteCSV(w, products)
	if err != nil {
		return n, apperror.Internal(apperror.CodeExportFailed, "write csv", err)
	}

	details := fmt.Sprintf("Exported %d products to CSV", n)
	if _, err := s.library.AddReport(ctx, library.Report{
		Action:      library.ActionExport,
		ProductName: "Bulk Export",
		Status:      library.ReportSuccess,
		Details:     details,
	}); err != nil {
		return n, err
	}

	settings, err := s.library.Settings(ctx)
	if err != nil {
		return n, err
	}
	s.notify(ctx, s.logger, settings, notify.KindExport, fmt.Sprintf("%d products", n), details)
	return n, nil
}

// notify sends an alert and records an EMAIL report when one went out.
// Delivery failures are logged and never fail the calling operation.
func (s *Service) notify(ctx context.Context, log zerolog.Logger, settings library.Settings, kind notify.Kind, productName, details string) bool {
	sent, err := s.notifier.Notify(ctx, settings, kind, productName, details)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("notification failed")
		return false
	}
	if !sent {
		return false
	}

	if _, err := s.library.AddReport(ctx, library.Report{
		Action:      library.ActionEmail,
		ProductName: productName,
		Status:      library.ReportSuccess,
		Details:     fmt.Sprintf("%s notification sent to %s", kind, settings.NotificationEmail),
	}); err != nil {
		log.Error().Err(err).Msg("record notification report")
	}
	return true
}

func collaboratorError(err error, code apperror.Code, context string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.External(code, context, err)
}
