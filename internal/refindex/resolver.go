package refindex

import (
	"context"
	"errors"
	"strings"

	"github.com/seenimoa/edgarlens/pkg/models"
)

// ErrNotFound is returned when a query matches no index row at any tier.
// It is a normal negative result, not an upstream failure.
var ErrNotFound = errors.New("no matching registrant")

// Resolver answers single-match resolution and ranked autocomplete queries
// against the cached reference index.
type Resolver struct {
	cache *IndexCache
}

// NewResolver creates a resolver over the given index cache.
func NewResolver(cache *IndexCache) *Resolver {
	return &Resolver{cache: cache}
}

// matcher is one tier of the resolution precedence chain. Tiers are tried
// in order; the first tier producing a match wins and within a tier the
// first row in index order is taken.
type matcher struct {
	name  string
	match func(query string, row models.ReferenceRow) bool
}

var tiers = []matcher{
	{"cik", func(q string, row models.ReferenceRow) bool {
		cik, ok := NormalizeCIK(q)
		return ok && row.CIK == cik
	}},
	{"symbol", func(q string, row models.ReferenceRow) bool {
		key := PlainKey(q)
		if key == "" {
			return false
		}
		for _, v := range Variants(row.Symbol) {
			if PlainKey(v) == key {
				return true
			}
		}
		return false
	}},
	{"name-prefix", func(q string, row models.ReferenceRow) bool {
		return strings.HasPrefix(strings.ToLower(row.Name), strings.ToLower(q))
	}},
	{"name-substring", func(q string, row models.ReferenceRow) bool {
		return strings.Contains(strings.ToLower(row.Name), strings.ToLower(q))
	}},
}

// Resolve returns the canonical CIK for a free-form identifier: a numeric
// registrant id, a ticker in any of its textual variants, or a company-name
// fragment. Returns ErrNotFound when every tier comes up empty.
func (r *Resolver) Resolve(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrNotFound
	}

	rows, err := r.cache.Rows(ctx)
	if err != nil {
		return "", err
	}

	for _, tier := range tiers {
		for _, row := range rows {
			if tier.match(query, row) {
				return row.CIK, nil
			}
		}
	}
	return "", ErrNotFound
}
