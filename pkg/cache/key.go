package cache

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// namespaceVersion is the current key namespace generation. Bumping it
// makes every previously issued key unreachable; orphaned keys are
// reclaimed by the legacy sweep.
const namespaceVersion = "gal:v3"

// Key identifies one cached artifact by kind plus its selection
// parameters.
type Key struct {
	Kind   Kind
	Params map[string]string
}

// NewKey builds a key for the given kind and parameter map.
func NewKey(kind Kind, params map[string]string) Key {
	return Key{Kind: kind, Params: params}
}

// String generates the deterministic key string.
// Format: gal:v3:{kind}:{xxhash64(canonical params)}
//
// Parameters are normalized before hashing: empty values are dropped
// and keys are sorted, so set-equal maps always yield the same key.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%016x", namespaceVersion, k.Kind, k.hash())
}

// Hash returns the parameter hash portion of the key, used by the
// observability hook to reference keys without leaking parameters.
func (k Key) Hash() string {
	return fmt.Sprintf("%016x", k.hash())
}

func (k Key) hash() uint64 {
	names := make([]string, 0, len(k.Params))
	for name, value := range k.Params {
		if name == "" || value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	h := xxhash.New()
	for _, name := range names {
		_, _ = h.WriteString(name)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(k.Params[name])
		_, _ = h.WriteString("|")
	}
	return h.Sum64()
}

// Prefix returns the namespace prefix shared by every key of a kind,
// used for bulk flush and stats.
func Prefix(kind Kind) string {
	return fmt.Sprintf("%s:%s:", namespaceVersion, kind)
}

// legacyKeyPatterns matches key shapes produced by retired plugin
// generations. Extend this list when a format is retired:
//
//	gen 1: gallery_cache_<kind>_<md5hex>   (underscore style, pre-3.0)
//	gen 2: gal:v1:* / gal:v2:*             (namespaced, pre-current)
var legacyKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^gallery_cache_[a-z]+_[0-9a-f]{32}$`),
	regexp.MustCompile(`^gal:v[12]:`),
}

// IsLegacyKey reports whether raw was written under a superseded key
// format. Keys in the current namespace are never legacy.
func IsLegacyKey(raw string) bool {
	if strings.HasPrefix(raw, namespaceVersion+":") {
		return false
	}
	for _, pattern := range legacyKeyPatterns {
		if pattern.MatchString(raw) {
			return true
		}
	}
	return false
}
