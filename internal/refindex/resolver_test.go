package refindex

import (
	"context"
	"errors"
	"testing"

	"github.com/seenimoa/edgarlens/pkg/models"
)

// fixedCache builds a resolver over a canned row list, bypassing upstream.
func fixedResolver(t *testing.T, rows []models.ReferenceRow) *Resolver {
	t.Helper()
	c := NewIndexCache(nil)
	c.rows = rows
	c.builtAt = c.now()
	return NewResolver(c)
}

var indexRows = []models.ReferenceRow{
	{Symbol: "AAPL", CIK: "0000320193", Name: "Apple Inc."},
	{Symbol: "BRK.B", CIK: "0001067983", Name: "Berkshire Hathaway Inc"},
	{Symbol: "APP", CIK: "0001751008", Name: "AppLovin Corp"},
	{Symbol: "MSFT", CIK: "0000789019", Name: "Microsoft Corp"},
}

func TestResolveNumericID(t *testing.T) {
	r := fixedResolver(t, indexRows)
	tests := []struct {
		query string
		want  string
	}{
		{"320193", "0000320193"},
		{"0000320193", "0000320193"},
		{"789019", "0000789019"},
	}
	for _, tt := range tests {
		got, err := r.Resolve(context.Background(), tt.query)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", tt.query, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestResolveSymbolVariants(t *testing.T) {
	r := fixedResolver(t, indexRows)
	for _, q := range []string{"BRK.B", "BRK-B", "BRKB", "brk.b"} {
		got, err := r.Resolve(context.Background(), q)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", q, err)
			continue
		}
		if got != "0001067983" {
			t.Errorf("Resolve(%q) = %q, want Berkshire CIK", q, got)
		}
	}
}

func TestResolveSymbolBeatsNameMatch(t *testing.T) {
	// "APP" is both an exact symbol (AppLovin) and a name prefix (Apple).
	r := fixedResolver(t, indexRows)
	got, err := r.Resolve(context.Background(), "APP")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "0001751008" {
		t.Errorf("symbol tier must beat name tiers, got %q", got)
	}
}

func TestResolveNamePrefixAndSubstring(t *testing.T) {
	r := fixedResolver(t, indexRows)

	got, err := r.Resolve(context.Background(), "berkshire")
	if err != nil || got != "0001067983" {
		t.Errorf("name prefix: got %q, %v", got, err)
	}

	got, err = r.Resolve(context.Background(), "hathaway")
	if err != nil || got != "0001067983" {
		t.Errorf("name substring: got %q, %v", got, err)
	}
}

func TestResolveNotFound(t *testing.T) {
	r := fixedResolver(t, indexRows)
	for _, q := range []string{"ZZZZZZ", "", "  "} {
		if _, err := r.Resolve(context.Background(), q); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(%q): expected ErrNotFound, got %v", q, err)
		}
	}
}
