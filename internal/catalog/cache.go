// Package catalog keeps the desk's copy of the product list and the
// filtered, paginated views over it.
package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"invoice-desk/internal/models"
	"invoice-desk/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrSearchSuperseded means a newer search was issued before this one finished
var ErrSearchSuperseded = errors.New("search superseded by a newer request")

// Source is the remote catalog
type Source interface {
	ListItems(ctx context.Context) ([]models.Product, error)
	SearchItems(ctx context.Context, term string) ([]models.Product, error)
}

// Snapshots persists the last good catalog so a restarted desk can show
// something while the remote is unreachable.
type Snapshots interface {
	SaveCatalog(ctx context.Context, items []models.Product) error
	LoadCatalog(ctx context.Context) ([]models.Product, error)
}

// Cache holds the full product list plus the current search view.
type Cache struct {
	source    Source
	snapshots Snapshots
	debounce  time.Duration
	logger    *zap.Logger

	sfg       singleflight.Group
	searchSeq atomic.Uint64

	mu       sync.RWMutex
	all      []models.Product
	view     []models.Product
	viewTerm string
	loaded   bool
	lastErr  error
}

// NewCache creates a cache. snapshots may be nil.
func NewCache(source Source, snapshots Snapshots, debounce time.Duration) *Cache {
	return &Cache{
		source:    source,
		snapshots: snapshots,
		debounce:  debounce,
		logger:    util.GetLogger(),
	}
}

// Load fetches the full catalog. Concurrent callers share one request,
// which is not tied to any one caller's cancellation; the client timeout
// bounds it. On failure the error is returned together with whatever was
// visible before, which stays in place.
func (c *Cache) Load(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Catalog.Load")
	defer span.End()

	shared := context.WithoutCancel(ctx)
	ch := c.sfg.DoChan("catalog", func() (interface{}, error) {
		items, err := c.source.ListItems(shared)
		if err != nil {
			util.CatalogLoadsTotal.WithLabelValues("error").Inc()
			c.recordFailure(shared, err)
			return nil, err
		}

		util.CatalogLoadsTotal.WithLabelValues("ok").Inc()
		c.replace(items)

		if c.snapshots != nil {
			if err := c.snapshots.SaveCatalog(shared, items); err != nil {
				c.logger.Warn("Failed to save catalog snapshot", zap.Error(err))
			}
		}
		return nil, nil
	})

	select {
	case res := <-ch:
		return c.Products(), res.Err
	case <-ctx.Done():
		return c.Products(), ctx.Err()
	}
}

func (c *Cache) replace(items []models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.all = items
	c.loaded = true
	c.lastErr = nil
	if c.viewTerm == "" {
		c.view = items
	}
}

// recordFailure keeps the previous list; with nothing loaded yet it falls
// back to the stored snapshot.
func (c *Cache) recordFailure(ctx context.Context, err error) {
	c.logger.Warn("Catalog load failed", zap.Error(err))

	c.mu.Lock()
	c.lastErr = err
	loaded := c.loaded
	c.mu.Unlock()

	if loaded || c.snapshots == nil {
		return
	}

	items, snapErr := c.snapshots.LoadCatalog(ctx)
	if snapErr != nil {
		c.logger.Debug("No catalog snapshot available", zap.Error(snapErr))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.all = items
		if c.viewTerm == "" {
			c.view = items
		}
	}
	c.logger.Info("Serving catalog from snapshot", zap.Int("count", len(items)))
}

// Loaded reports whether a remote load has ever succeeded
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Products returns the full list as last loaded
func (c *Cache) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.all
}

// current returns the search view, or the full list when no search is active
func (c *Cache) current() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.viewTerm == "" {
		return c.all
	}
	return c.view
}

// Lookup finds a product by id in the full list or the current view
func (c *Cache) Lookup(id int64) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, list := range [][]models.Product{c.all, c.view} {
		for _, p := range list {
			if p.ID == id {
				return p, true
			}
		}
	}
	return models.Product{}, false
}

// LastError is the error of the most recent failed load, nil after a success
func (c *Cache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Filter matches term case-insensitively against product names in the full
// list. An empty term returns the list unchanged.
func (c *Cache) Filter(term string) []models.Product {
	return FilterByName(c.Products(), term)
}

// FilterByName is the stateless form of Cache.Filter
func FilterByName(items []models.Product, term string) []models.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}

	out := make([]models.Product, 0, len(items))
	for _, p := range items {
		if strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out
}

// Search runs a debounced server-side search. Only the latest call within
// the debounce window reaches the remote, and only the latest issued search
// may replace the view; older ones return ErrSearchSuperseded. An empty
// term resets the view to the full list without a remote call.
func (c *Cache) Search(ctx context.Context, term string) ([]models.Product, error) {
	token := c.searchSeq.Add(1)

	if c.debounce > 0 {
		timer := time.NewTimer(c.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if c.searchSeq.Load() != token {
			return nil, ErrSearchSuperseded
		}
	}

	term = strings.TrimSpace(term)
	if term == "" {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.searchSeq.Load() != token {
			return nil, ErrSearchSuperseded
		}
		c.viewTerm = ""
		c.view = c.all
		return c.all, nil
	}

	ctx, span := util.StartSpan(ctx, "Catalog.Search")
	defer span.End()

	items, err := c.source.SearchItems(ctx, term)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.searchSeq.Load() != token {
		util.CatalogSearchesDiscardedTotal.Inc()
		return nil, ErrSearchSuperseded
	}
	if err != nil {
		return nil, err
	}

	c.viewTerm = term
	c.view = items
	return items, nil
}
