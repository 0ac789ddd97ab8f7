package cache

import (
	"fmt"
	"time"
)

// Kind is the logical category of a cached artifact. Each kind owns a
// distinct key namespace and a default TTL.
type Kind string

const (
	// KindSidebar caches the procedure navigation sidebar.
	KindSidebar Kind = "sidebar"

	// KindCaseList caches one page of a filtered case listing.
	KindCaseList Kind = "caselist"

	// KindSingleCase caches a single case fetched by ID.
	KindSingleCase Kind = "case"

	// KindCarousel caches the front-page carousel payload.
	KindCarousel Kind = "carousel"

	// KindFilters caches the filter taxonomy.
	KindFilters Kind = "filters"

	// KindFavorites caches a visitor's favorites list.
	KindFavorites Kind = "favorites"
)

// Default TTLs per kind. These are tuning constants, not contract:
// deployments override them via Manager Config.
var defaultTTLs = map[Kind]time.Duration{
	KindSidebar:    6 * time.Hour,
	KindCaseList:   6 * time.Hour,
	KindSingleCase: 24 * time.Hour,
	KindCarousel:   12 * time.Hour,
	KindFilters:    6 * time.Hour,
	KindFavorites:  15 * time.Minute,
}

// Kinds returns all known cache kinds in stable order.
func Kinds() []Kind {
	return []Kind{
		KindSidebar,
		KindCaseList,
		KindSingleCase,
		KindCarousel,
		KindFilters,
		KindFavorites,
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := defaultTTLs[k]
	return ok
}

// DefaultTTL returns the built-in TTL for the kind.
func (k Kind) DefaultTTL() time.Duration {
	if ttl, ok := defaultTTLs[k]; ok {
		return ttl
	}
	return time.Hour
}

// ParseKind converts a string (e.g. from an admin request) to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown cache kind %q", s)
	}
	return k, nil
}
