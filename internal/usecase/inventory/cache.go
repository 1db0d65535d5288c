// Package inventory owns the target inventory cache: a point-in-time
// snapshot of the workspace's buildable targets, grouped by kind.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"bazel-mcp/internal/domain"
)

// Querier runs a single discovery query and returns matching labels.
type Querier interface {
	QueryLabels(ctx context.Context, expr string, flags []string) ([]string, error)
}

// Cache holds the current Inventory. It is created empty, lazily
// populated on first use, owned by the server process for its lifetime,
// and never persisted.
//
// Concurrent refreshes collapse: at most one discovery query per kind
// is in flight at any moment, and late callers share its result.
type Cache struct {
	querier  Querier
	repoRoot string
	kinds    []domain.Kind
	universe string
	logger   *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	current *domain.Inventory
}

// New creates an empty cache for the given workspace.
func New(querier Querier, repoRoot string, kinds []domain.Kind, universe string, logger *slog.Logger) *Cache {
	return &Cache{
		querier:  querier,
		repoRoot: repoRoot,
		kinds:    kinds,
		universe: universe,
		logger:   logger,
	}
}

// Get returns the current Inventory, refreshing it first when forced or
// when no snapshot covering the requested kinds exists. A nil kinds
// slice means the configured kind set.
//
// On a partial discovery failure the returned Inventory is still valid
// (failed kinds carry empty lists) and the error wraps
// domain.ErrDiscoveryPartial describing what failed; callers report
// both rather than discarding the snapshot.
func (c *Cache) Get(ctx context.Context, kinds []domain.Kind, forceRefresh bool) (*domain.Inventory, error) {
	if len(kinds) == 0 {
		kinds = c.kinds
	}

	if !forceRefresh {
		c.mu.RLock()
		inv := c.current
		c.mu.RUnlock()
		if inv.Covers(kinds) {
			return inv, nil
		}
	}

	return c.refresh(ctx, kinds)
}

// Current returns the snapshot as-is, never triggering a refresh. Nil
// when nothing has been discovered yet.
func (c *Cache) Current() *domain.Inventory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Invalidate drops the snapshot so the next Get refreshes. Used after
// setup scripts run, which commonly generate BUILD files.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// refresh runs one discovery query per requested kind, collapsing
// concurrent work through singleflight keyed by kind, and atomically
// swaps in a wholly new Inventory. Readers never observe a
// half-populated snapshot.
func (c *Cache) refresh(ctx context.Context, kinds []domain.Kind) (*domain.Inventory, error) {
	type kindResult struct {
		kind   domain.Kind
		labels []string
		err    error
	}

	results := make([]kindResult, len(kinds))
	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind domain.Kind) {
			defer wg.Done()
			v, err, _ := c.group.Do(string(kind), func() (any, error) {
				expr := fmt.Sprintf("kind('%s', %s)", kind, c.universe)
				return c.querier.QueryLabels(ctx, expr, nil)
			})
			labels, _ := v.([]string)
			results[i] = kindResult{kind: kind, labels: labels, err: err}
		}(i, kind)
	}
	wg.Wait()

	byKind := make(map[domain.Kind][]string, len(kinds))
	var failures []error
	for _, r := range results {
		if r.err != nil {
			// One kind failing does not poison the rest: it gets an
			// empty list and the failure is reported alongside.
			c.logger.Warn("target discovery failed for kind", "kind", r.kind, "error", r.err)
			byKind[r.kind] = []string{}
			failures = append(failures, fmt.Errorf("%s: %w", r.kind, r.err))
			continue
		}
		labels := r.labels
		if labels == nil {
			labels = []string{}
		}
		byKind[r.kind] = labels
	}

	inv := domain.NewInventory(c.repoRoot, byKind)

	c.mu.Lock()
	c.current = inv
	c.mu.Unlock()

	c.logger.Info("target inventory refreshed", "kinds", len(byKind), "targets", len(inv.All))

	if len(failures) > 0 {
		return inv, domain.NewDomainError("Cache.Get", domain.ErrDiscoveryPartial,
			errors.Join(failures...).Error())
	}
	return inv, nil
}
