package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/edgarlens/internal/config"
	"github.com/seenimoa/edgarlens/internal/filings"
	"github.com/seenimoa/edgarlens/internal/infra"
	"github.com/seenimoa/edgarlens/internal/refindex"
	"github.com/seenimoa/edgarlens/pkg/models"
)

// newUpstream fakes the EDGAR hosts: reference documents, submissions,
// archived filing documents, and the Atom feed, all on one server.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
			"1": {"cik_str": 789019, "ticker": "MSFT", "title": "Microsoft Corp"}
		}`))
	})
	mux.HandleFunc("/files/company_tickers_exchange.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"cik": 1067983, "ticker": "BRK-B", "title": "Berkshire Hathaway Inc", "exchange": "NYSE"}]`))
	})
	mux.HandleFunc("/submissions/CIK0000320193.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"cik": "320193",
			"name": "Apple Inc.",
			"filings": {"recent": {
				"accessionNumber": ["0000320193-24-000123"],
				"filingDate": ["2024-11-01"],
				"form": ["8-K"],
				"primaryDocument": ["aapl-8k.htm"],
				"primaryDocDescription": ["Current report"]
			}}
		}`))
	})
	mux.HandleFunc("/Archives/edgar/data/320193/000032019324000123/aapl-8k.htm", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>See Item 5.02: the CFO resigned.</body></html>`))
	})
	mux.HandleFunc("/cgi-bin/browse-edgar", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>8-K - Current report</title>
    <link rel="alternate" href="https://example.com/idx"/>
    <updated>2024-11-01T16:30:00-04:00</updated>
    <category term="8-K"/>
  </entry>
</feed>`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	upstream := newUpstream(t)

	fetcher := infra.NewFetcher(
		infra.WithBaseDelay(time.Millisecond),
		infra.WithRateLimit(1000, time.Second),
	)
	cache := refindex.NewIndexCache(refindex.NewBuilder(fetcher, upstream.URL))

	cfg := &config.Config{}
	cfg.Enrich.FilingLimit = 40
	return NewServerWith(cfg,
		refindex.NewResolver(cache),
		filings.NewClient(fetcher, upstream.URL, upstream.URL),
		filings.NewEnricher(fetcher, 2),
		filings.NewFeed(fetcher, upstream.URL),
	)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestResolveEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/api/v1/resolve?q=aapl")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["cik"] != "0000320193" {
		t.Errorf("cik = %q, want 0000320193", resp["cik"])
	}
}

func TestResolveNotFoundIs404(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/resolve?q=ZZZZZZZZ")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestResolveMissingQueryIs400(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/resolve")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSuggestEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/suggest?q=micro&limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var rows []models.ReferenceRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].Symbol != "MSFT" {
		t.Errorf("rows = %v, want MSFT only", rows)
	}
}

func TestSuggestNoMatchesIsEmptyList(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/suggest?q=QQQQ")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty list", body)
	}
}

func TestFilingsEndpointEnriches(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/filings/320193")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var out []models.Filing
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 filing, got %d", len(out))
	}
	if len(out[0].Items) != 1 || out[0].Items[0] != "5.02" {
		t.Errorf("items = %v, want [5.02]", out[0].Items)
	}
	if len(out[0].Badges) != 1 || out[0].Badges[0] != "Executive Change" {
		t.Errorf("badges = %v", out[0].Badges)
	}
}

func TestFilingsAcceptsTicker(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/filings/AAPL")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestFeedEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/v1/feed/320193")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var entries []models.FeedEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Category != "8-K" {
		t.Errorf("entries = %v", entries)
	}
}
