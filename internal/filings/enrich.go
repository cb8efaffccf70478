package filings

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/edgarlens/pkg/models"
)

// DefaultConcurrency bounds how many primary documents are fetched at once
// for a single enrichment batch.
const DefaultConcurrency = 4

// textualExtensions are the primary-document extensions worth mining.
// Everything else passes through unmodified.
var textualExtensions = []string{".htm", ".html", ".txt"}

// Enricher runs the text-mining pipeline over a batch of filings.
type Enricher struct {
	fetcher     Fetcher
	concurrency int
	logger      *slog.Logger
}

// NewEnricher creates an enricher. concurrency <= 0 selects the default.
func NewEnricher(fetcher Fetcher, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Enricher{
		fetcher:     fetcher,
		concurrency: concurrency,
		logger:      slog.Default(),
	}
}

// enrichOutcome tags the result of one record's enrichment so the degraded
// path is explicit rather than an implicit fallthrough.
type enrichOutcome struct {
	signals  Signals
	degraded bool
}

// Enrich returns a copy of filings, same order and length, with each
// textual primary document fetched, stripped of markup, and run through
// the detector its form designation selects. A single record's fetch or
// extraction failure degrades that record to its unenriched form; it
// never aborts the batch.
func (e *Enricher) Enrich(ctx context.Context, filings []models.Filing) []models.Filing {
	out := make([]models.Filing, len(filings))
	copy(out, filings)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range out {
		if !needsEnrichment(out[i]) {
			continue
		}
		i := i
		g.Go(func() error {
			outcome := e.enrichOne(gctx, out[i])
			if outcome.degraded {
				return nil // record stays unenriched
			}
			applySignals(&out[i], outcome.signals)
			return nil
		})
	}
	g.Wait() // workers never return errors; degradation is per-record
	return out
}

func needsEnrichment(f models.Filing) bool {
	if f.PrimaryDoc == "" || Classify(f.FormType) == ClassOther {
		return false
	}
	lower := strings.ToLower(f.PrimaryDoc)
	for _, ext := range textualExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (e *Enricher) enrichOne(ctx context.Context, f models.Filing) enrichOutcome {
	body, err := e.fetcher.Fetch(ctx, f.PrimaryDoc, nil)
	if err != nil {
		e.logger.Warn("primary document unavailable, returning filing unenriched",
			"accession", f.AccessionNo, "error", err)
		return enrichOutcome{degraded: true}
	}
	text := StripMarkup(string(body))
	return enrichOutcome{signals: Detect(text, Classify(f.FormType))}
}

func applySignals(f *models.Filing, s Signals) {
	f.Items = s.Items
	f.Badges = s.Badges
	if s.HasAmount {
		f.AmountUSD = s.AmountUSD
		f.HasAmount = true
	}
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// StripMarkup renders a filing document as plain text. HTML is parsed
// properly; input the parser cannot handle falls back to removing
// angle-bracket-delimited tags.
func StripMarkup(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err == nil {
		if text := doc.Text(); strings.TrimSpace(text) != "" {
			return text
		}
	}
	return tagRe.ReplaceAllString(raw, " ")
}
