// Package library keeps saved products, the activity log, and user settings
// in the key-value store.
package library

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/listingdesk/internal/apperror"
	"github.com/Simplici0/listingdesk/internal/kvstore"
)

// Store keys. Products live under productPrefix + id.
const (
	productPrefix = "product:"
	ReportsKey    = "reports"
	SettingsKey   = "settings"

	// MaxReports caps the activity log; older entries are dropped.
	MaxReports = 50
)

// Library is the product, report and settings repository.
type Library struct {
	store    *kvstore.Store
	defaults Settings
	now      func() time.Time

	// reportsMu serializes the read-modify-write of the report list.
	reportsMu sync.Mutex
}

// New creates a Library over store. defaults fill settings fields that were
// never stored.
func New(store *kvstore.Store, defaults Settings) *Library {
	return &Library{store: store, defaults: defaults, now: time.Now}
}

// SaveProduct stores p as READY with a creation time. The first save of an id
// wins: a second save returns the stored product and saved=false.
func (l *Library) SaveProduct(ctx context.Context, p Product) (stored Product, saved bool, err error) {
	if p.ID == "" {
		return Product{}, false, apperror.Validation(apperror.CodeRequiredField, "product id")
	}

	p.Status = StatusReady
	p.CreatedAt = l.now().UTC()

	inserted, err := l.store.PutIfAbsent(ctx, productPrefix+p.ID, p)
	if err != nil {
		return Product{}, false, apperror.Wrap(err, apperror.CodeStorageError, "save product")
	}
	if !inserted {
		existing, err := l.Product(ctx, p.ID)
		return existing, false, err
	}
	return p, true, nil
}

// Product loads one product by id.
func (l *Library) Product(ctx context.Context, id string) (Product, error) {
	var p Product
	found, err := l.store.Get(ctx, productPrefix+id, &p)
	if err != nil {
		return Product{}, apperror.Wrap(err, apperror.CodeStorageError, "load product")
	}
	if !found {
		return Product{}, apperror.NotFound(apperror.CodeProductNotFound, id)
	}
	return p, nil
}

// Products lists every saved product, newest first.
func (l *Library) Products(ctx context.Context) ([]Product, error) {
	keys, err := l.store.Keys(ctx, productPrefix)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStorageError, "list products")
	}

	products := make([]Product, 0, len(keys))
	for _, key := range keys {
		var p Product
		found, err := l.store.Get(ctx, key, &p)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeStorageError, "load product")
		}
		// Deleted between Keys and Get.
		if !found {
			continue
		}
		products = append(products, p)
	}

	sort.SliceStable(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

// DeleteProduct removes one product.
func (l *Library) DeleteProduct(ctx context.Context, id string) error {
	existed, err := l.store.Delete(ctx, productPrefix+id)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStorageError, "delete product")
	}
	if !existed {
		return apperror.NotFound(apperror.CodeProductNotFound, id)
	}
	return nil
}

// DeleteAll removes every product and returns how many were removed.
func (l *Library) DeleteAll(ctx context.Context) (int, error) {
	n, err := l.store.DeletePrefix(ctx, productPrefix)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeStorageError, "delete products")
	}
	return n, nil
}

// SetStatus moves a product to status.
func (l *Library) SetStatus(ctx context.Context, id string, status Status) (Product, error) {
	if !status.Valid() {
		return Product{}, apperror.Validation(apperror.CodeInvalidStatus, string(status))
	}

	p, err := l.Product(ctx, id)
	if err != nil {
		return Product{}, err
	}

	p.Status = status
	if err := l.store.Put(ctx, productPrefix+id, p); err != nil {
		return Product{}, apperror.Wrap(err, apperror.CodeStorageError, "update product status")
	}
	return p, nil
}

// AddReport prepends r to the activity log, filling ID and Date when empty,
// and keeps at most MaxReports entries.
func (l *Library) AddReport(ctx context.Context, r Report) (Report, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Date.IsZero() {
		r.Date = l.now().UTC()
	}

	l.reportsMu.Lock()
	defer l.reportsMu.Unlock()

	reports, err := l.Reports(ctx)
	if err != nil {
		return Report{}, err
	}

	reports = append([]Report{r}, reports...)
	if len(reports) > MaxReports {
		reports = reports[:MaxReports]
	}

	if err := l.store.Put(ctx, ReportsKey, reports); err != nil {
		return Report{}, apperror.Wrap(err, apperror.CodeStorageError, "save reports")
	}
	return r, nil
}

// Reports returns the activity log, newest first.
func (l *Library) Reports(ctx context.Context) ([]Report, error) {
	reports := make([]Report, 0)
	if _, err := l.store.Get(ctx, ReportsKey, &reports); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStorageError, "load reports")
	}
	return reports, nil
}

// Settings returns the stored settings merged over the library defaults, so
// fields added after the settings were saved keep their defaults.
func (l *Library) Settings(ctx context.Context) (Settings, error) {
	s := l.defaults
	if _, err := l.store.Get(ctx, SettingsKey, &s); err != nil {
		return Settings{}, apperror.Wrap(err, apperror.CodeStorageError, "load settings")
	}
	return s, nil
}

// SaveSettings stores s. Callers validate against their pricing options first.
func (l *Library) SaveSettings(ctx context.Context, s Settings) error {
	if err := l.store.Put(ctx, SettingsKey, s); err != nil {
		return apperror.Wrap(err, apperror.CodeStorageError, "save settings")
	}
	return nil
}
