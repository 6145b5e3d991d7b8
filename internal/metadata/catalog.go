// Package metadata looks up media metadata in third-party catalogs and maps
// the first match onto models.MetadataResponse.
//
// Every catalog follows the same contract: a nil error with Found=false means
// no match, and a *LookupError means the catalog could not be queried.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"metaproxy/internal/models"
)

// Kind names a media kind served by one route.
type Kind string

const (
	KindMusic Kind = "music"
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
	KindBook  Kind = "book"
)

// Catalog searches one upstream source.
type Catalog interface {
	// Lookup returns the best match for query.
	Lookup(ctx context.Context, query string) (*models.MetadataResponse, error)
	// Name identifies the upstream in logs and metrics.
	Name() string
}

// ErrCatalogDisabled is returned for kinds with no configured catalog.
var ErrCatalogDisabled = errors.New("catalog disabled")

// LookupError reports a failed upstream query.
type LookupError struct {
	Catalog    string
	StatusCode int // upstream HTTP status, zero when no response was received
	Err        error
}

func (e *LookupError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s lookup failed with status %d: %v", e.Catalog, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s lookup failed: %v", e.Catalog, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Gateway routes lookups to the catalog registered for each kind.
type Gateway struct {
	mu       sync.RWMutex
	catalogs map[Kind]Catalog
}

func NewGateway() *Gateway {
	return &Gateway{catalogs: make(map[Kind]Catalog)}
}

// Register binds a catalog to kind, replacing any previous one.
func (g *Gateway) Register(kind Kind, catalog Catalog) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.catalogs[kind] = catalog
}

// Catalog returns the catalog bound to kind.
func (g *Gateway) Catalog(kind Kind) (Catalog, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.catalogs[kind]
	return c, ok
}

// Lookup queries the catalog bound to kind.
func (g *Gateway) Lookup(ctx context.Context, kind Kind, query string) (*models.MetadataResponse, error) {
	catalog, ok := g.Catalog(kind)
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, ErrCatalogDisabled)
	}
	return catalog.Lookup(ctx, query)
}

// Enabled lists the kinds that have a catalog, sorted.
func (g *Gateway) Enabled() []Kind {
	g.mu.RLock()
	defer g.mu.RUnlock()
	kinds := make([]Kind, 0, len(g.catalogs))
	for k := range g.catalogs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
