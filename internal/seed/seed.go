package seed

import (
	"context"
	"fmt"

	"github.com/Simplici0/listingdesk/internal/kvstore"
	"github.com/Simplici0/listingdesk/internal/library"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way. defaults are written
// as the settings of a fresh install; stored settings are never overwritten.
func Run(ctx context.Context, store *kvstore.Store, defaults library.Settings) (Stats, error) {
	stats := Stats{}

	if err := ensureSettings(ctx, store, defaults, &stats); err != nil {
		return Stats{}, err
	}
	if err := ensureReports(ctx, store, &stats); err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func ensureSettings(ctx context.Context, store *kvstore.Store, defaults library.Settings, stats *Stats) error {
	inserted, err := store.PutIfAbsent(ctx, library.SettingsKey, defaults)
	if err != nil {
		return fmt.Errorf("insert default settings: %w", err)
	}
	if inserted {
		stats.Inserts++
	}
	return nil
}

// ensureReports creates an empty activity log, or trims one written before
// the MaxReports cap existed.
func ensureReports(ctx context.Context, store *kvstore.Store, stats *Stats) error {
	inserted, err := store.PutIfAbsent(ctx, library.ReportsKey, []library.Report{})
	if err != nil {
		return fmt.Errorf("insert empty reports: %w", err)
	}
	if inserted {
		stats.Inserts++
		return nil
	}

	var reports []library.Report
	if _, err := store.Get(ctx, library.ReportsKey, &reports); err != nil {
		return fmt.Errorf("load reports: %w", err)
	}
	if len(reports) <= library.MaxReports {
		return nil
	}

	if err := store.Put(ctx, library.ReportsKey, reports[:library.MaxReports]); err != nil {
		return fmt.Errorf("trim reports: %w", err)
	}
	stats.Updates++
	return nil
}
