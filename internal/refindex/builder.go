package refindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seenimoa/edgarlens/pkg/models"
)

// DefaultBaseURL is the host serving the EDGAR reference documents.
const DefaultBaseURL = "https://www.sec.gov"

const (
	primaryDocPath   = "/files/company_tickers.json"
	secondaryDocPath = "/files/company_tickers_exchange.json"
)

// Fetcher is the subset of the HTTP layer the builder needs.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string, headers map[string]string, dest any) error
}

// tickerEntry is one row of the primary reference document, a map of
// arbitrary string indices to these triples.
type tickerEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// exchangeEntry is one row of the secondary (broader) reference document.
// The exchange field is ignored.
type exchangeEntry struct {
	CIK    json.Number `json:"cik"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// Builder downloads the upstream reference documents and produces the flat,
// de-duplicated reference row list.
type Builder struct {
	fetcher Fetcher
	baseURL string
	logger  *slog.Logger
}

// NewBuilder creates a builder against the given host. An empty baseURL
// selects the production EDGAR host.
func NewBuilder(fetcher Fetcher, baseURL string) *Builder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Builder{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  slog.Default(),
	}
}

// Build downloads both reference documents and merges them into a flat row
// list keyed by plain symbol. The secondary document is best-effort: its
// failure contributes nothing and is only logged. A primary document
// failure propagates.
//
// Merge precedence: secondary rows are inserted first and the first row to
// claim a plain key is retained, so the secondary source wins on collision.
func (b *Builder) Build(ctx context.Context) ([]models.ReferenceRow, error) {
	secondary, err := b.fetchSecondary(ctx)
	if err != nil {
		b.logger.Warn("secondary reference source unavailable, continuing with primary only",
			"error", err)
		secondary = nil
	}

	primary, err := b.fetchPrimary(ctx)
	if err != nil {
		return nil, fmt.Errorf("build reference index: %w", err)
	}

	byKey := make(map[string]bool, len(primary)+len(secondary))
	rows := make([]models.ReferenceRow, 0, len(primary)+len(secondary))
	for _, row := range append(secondary, primary...) {
		key := PlainKey(row.Symbol)
		if key == "" || byKey[key] {
			continue
		}
		byKey[key] = true
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *Builder) fetchPrimary(ctx context.Context) ([]models.ReferenceRow, error) {
	var doc map[string]tickerEntry
	if err := b.fetcher.FetchJSON(ctx, b.baseURL+primaryDocPath, nil, &doc); err != nil {
		return nil, err
	}
	rows := make([]models.ReferenceRow, 0, len(doc))
	for _, e := range doc {
		if row, ok := toRow(e.CIK, e.Ticker, e.Title); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (b *Builder) fetchSecondary(ctx context.Context) ([]models.ReferenceRow, error) {
	var doc []exchangeEntry
	if err := b.fetcher.FetchJSON(ctx, b.baseURL+secondaryDocPath, nil, &doc); err != nil {
		return nil, err
	}
	rows := make([]models.ReferenceRow, 0, len(doc))
	for _, e := range doc {
		if row, ok := toRow(e.CIK, e.Ticker, e.Title); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func toRow(cik json.Number, ticker, title string) (models.ReferenceRow, bool) {
	canonical, ok := NormalizeCIK(cik.String())
	if !ok || ticker == "" {
		return models.ReferenceRow{}, false
	}
	return models.ReferenceRow{
		Symbol: strings.ToUpper(strings.TrimSpace(ticker)),
		CIK:    canonical,
		Name:   title,
	}, true
}
