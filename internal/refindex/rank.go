package refindex

import (
	"context"
	"sort"
	"strings"

	"github.com/seenimoa/edgarlens/pkg/models"
)

// Suggest limit bounds. Caller-supplied limits are clamped into this range;
// a non-positive limit selects the default.
const (
	MinSuggestLimit     = 10
	MaxSuggestLimit     = 300
	DefaultSuggestLimit = 50
)

// Autocomplete scores, higher wins. A zero score excludes the row.
const (
	scoreSymbolExact     = 100
	scoreSymbolPrefix    = 90
	scoreSymbolContains  = 75
	scoreNamePrefix      = 65
	scoreNameContains    = 50
)

// Suggest returns ranked autocomplete candidates for a partial query,
// ordered by descending score and truncated to the clamped limit.
//
// A single-character query bypasses scoring: it returns every row whose
// symbol or name starts with that character, sorted ascending by symbol,
// which favors browseability for the degenerate case.
func (r *Resolver) Suggest(ctx context.Context, query string, limit int) ([]models.ReferenceRow, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.ReferenceRow{}, nil
	}
	limit = clampLimit(limit)

	rows, err := r.cache.Rows(ctx)
	if err != nil {
		return nil, err
	}

	if len(query) == 1 {
		return browseByInitial(rows, query, limit), nil
	}

	key := PlainKey(query)
	lowerQuery := strings.ToLower(query)

	type scored struct {
		row   models.ReferenceRow
		score int
	}
	candidates := make([]scored, 0, 64)
	for _, row := range rows {
		s := scoreRow(row, key, lowerQuery)
		if s > 0 {
			candidates = append(candidates, scored{row, s})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]models.ReferenceRow, len(candidates))
	for i, c := range candidates {
		out[i] = c.row
	}
	return out, nil
}

// scoreRow applies the ranking table: exact symbol variant 100, variant
// prefix 90, variant substring 75, name prefix 65, name substring 50.
func scoreRow(row models.ReferenceRow, plainQuery, lowerQuery string) int {
	if plainQuery != "" {
		best := 0
		for _, v := range Variants(row.Symbol) {
			switch {
			case v == plainQuery || PlainKey(v) == plainQuery:
				return scoreSymbolExact
			case strings.HasPrefix(v, plainQuery):
				if best < scoreSymbolPrefix {
					best = scoreSymbolPrefix
				}
			case strings.Contains(v, plainQuery):
				if best < scoreSymbolContains {
					best = scoreSymbolContains
				}
			}
		}
		if best > 0 {
			return best
		}
	}

	lowerName := strings.ToLower(row.Name)
	switch {
	case strings.HasPrefix(lowerName, lowerQuery):
		return scoreNamePrefix
	case strings.Contains(lowerName, lowerQuery):
		return scoreNameContains
	}
	return 0
}

func browseByInitial(rows []models.ReferenceRow, char string, limit int) []models.ReferenceRow {
	upper := strings.ToUpper(char)
	lower := strings.ToLower(char)

	out := make([]models.ReferenceRow, 0, 64)
	for _, row := range rows {
		if strings.HasPrefix(row.Symbol, upper) ||
			strings.HasPrefix(strings.ToLower(row.Name), lower) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSuggestLimit
	case limit < MinSuggestLimit:
		return MinSuggestLimit
	case limit > MaxSuggestLimit:
		return MaxSuggestLimit
	}
	return limit
}
