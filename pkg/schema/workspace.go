package schema

import (
	"context"
	"sync"

	"github.com/bastiangx/sqlserve/internal/fuzzy"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Workspace is the single writer of a Store. It loads domains through a
// Provider, caches them and publishes the active one.
type Workspace struct {
	provider Provider
	cache    *Cache
	store    *Store

	mu     sync.Mutex
	domain string
}

// NewWorkspace creates a workspace caching up to cacheSize domains.
func NewWorkspace(provider Provider, cacheSize int) *Workspace {
	return &Workspace{
		provider: provider,
		cache:    NewCache(cacheSize),
		store:    &Store{},
	}
}

// Store returns the store readers should load snapshots from.
func (w *Workspace) Store() *Store {
	return w.store
}

// Domain returns the active domain, or "" before the first switch.
func (w *Workspace) Domain() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.domain
}

// Cache returns the snapshot cache.
func (w *Workspace) Cache() *Cache {
	return w.cache
}

// Domains lists the data types the provider knows about, when it can.
func (w *Workspace) Domains(ctx context.Context) ([]string, error) {
	lister, ok := w.provider.(DomainLister)
	if !ok {
		return nil, errors.New("schema provider cannot list domains")
	}
	return lister.Domains(ctx)
}

// SwitchDomain makes dataType the active domain. On provider failure the
// previously active snapshot stays published.
func (w *Workspace) SwitchDomain(ctx context.Context, dataType string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if snap, ok := w.cache.Get(dataType); ok {
		log.Debugf("Schema cache hit for domain '%s'", dataType)
		w.publish(dataType, snap)
		return nil
	}
	return w.loadLocked(ctx, dataType)
}

// Reload refetches the active domain, bypassing the cache.
func (w *Workspace) Reload(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.domain == "" {
		return errors.New("no active domain to reload")
	}
	w.cache.Invalidate(w.domain)
	return w.loadLocked(ctx, w.domain)
}

func (w *Workspace) loadLocked(ctx context.Context, dataType string) error {
	tables, err := w.provider.Tables(ctx, dataType)
	if err != nil {
		if errors.Is(err, ErrUnknownDomain) {
			if hint, ok := w.closestDomain(ctx, dataType); ok {
				return errors.Wrapf(err, "failed to load domain %s (did you mean %q?)", dataType, hint)
			}
		}
		return errors.Wrapf(err, "failed to load domain %s", dataType)
	}
	snap := NewSnapshot(dataType, tables)
	w.cache.Put(dataType, snap)
	w.publish(dataType, snap)
	log.Debugf("Switched to domain '%s' with %d tables", dataType, snap.Len())
	return nil
}

func (w *Workspace) publish(dataType string, snap *Snapshot) {
	w.domain = dataType
	w.store.Replace(snap)
}

// closestDomain looks for a known domain dataType may be a typo of.
func (w *Workspace) closestDomain(ctx context.Context, dataType string) (string, bool) {
	lister, ok := w.provider.(DomainLister)
	if !ok {
		return "", false
	}
	domains, err := lister.Domains(ctx)
	if err != nil {
		log.Debugf("Listing domains for a hint: %v", err)
		return "", false
	}
	return fuzzy.Closest(dataType, domains)
}
