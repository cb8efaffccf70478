// Package filings retrieves a registrant's recent SEC filings and enriches
// them with signals mined from each filing's primary document: item-code
// classification badges for periodic event reports and extracted monetary
// amounts for offering documents.
package filings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/edgarlens/pkg/models"
)

// Upstream hosts. Both are overridable for tests.
const (
	DefaultDataBaseURL    = "https://data.sec.gov"
	DefaultArchiveBaseURL = "https://www.sec.gov"
)

// DefaultFilingLimit bounds how many recent filings one request returns.
const DefaultFilingLimit = 40

// Fetcher is the subset of the HTTP layer the client needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error)
	FetchJSON(ctx context.Context, url string, headers map[string]string, dest any) error
}

// submissionsResponse mirrors the EDGAR submissions document. Filing
// attributes arrive as parallel arrays, newest first.
type submissionsResponse struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
			PrimaryDocDescription []string `json:"primaryDocDescription"`
		} `json:"recent"`
	} `json:"filings"`
}

// Client fetches filing metadata from the EDGAR submissions API.
type Client struct {
	fetcher        Fetcher
	dataBaseURL    string
	archiveBaseURL string
}

// NewClient creates a submissions client. Empty base URLs select the
// production EDGAR hosts.
func NewClient(fetcher Fetcher, dataBaseURL, archiveBaseURL string) *Client {
	if dataBaseURL == "" {
		dataBaseURL = DefaultDataBaseURL
	}
	if archiveBaseURL == "" {
		archiveBaseURL = DefaultArchiveBaseURL
	}
	return &Client{
		fetcher:        fetcher,
		dataBaseURL:    dataBaseURL,
		archiveBaseURL: archiveBaseURL,
	}
}

// Recent returns up to limit of the registrant's most recent filings,
// newest first. cik must be the canonical 10-digit form. The archive base
// URL and primary document URL are derived from the accession number.
func (c *Client) Recent(ctx context.Context, cik string, limit int) ([]models.Filing, error) {
	if limit <= 0 || limit > DefaultFilingLimit {
		limit = DefaultFilingLimit
	}

	u := fmt.Sprintf("%s/submissions/CIK%s.json", c.dataBaseURL, cik)
	var resp submissionsResponse
	if err := c.fetcher.FetchJSON(ctx, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch submissions for %s: %w", cik, err)
	}

	// The arrays are parallel; a truncated document must not panic.
	recent := resp.Filings.Recent
	n := len(recent.AccessionNumber)
	for _, l := range []int{len(recent.FilingDate), len(recent.Form), len(recent.PrimaryDocument)} {
		if l < n {
			n = l
		}
	}
	if n > limit {
		n = limit
	}

	out := make([]models.Filing, 0, n)
	for i := 0; i < n; i++ {
		accNo := recent.AccessionNumber[i]
		base := fmt.Sprintf("%s/Archives/edgar/data/%s/%s",
			c.archiveBaseURL, strings.TrimLeft(cik, "0"), strings.ReplaceAll(accNo, "-", ""))

		f := models.Filing{
			CIK:         cik,
			CompanyName: resp.Name,
			FormType:    recent.Form[i],
			FiledAt:     parseFilingDate(recent.FilingDate[i]),
			AccessionNo: accNo,
			FilingURL:   base,
		}
		if i < len(recent.PrimaryDocDescription) {
			f.Title = recent.PrimaryDocDescription[i]
		}
		if doc := recent.PrimaryDocument[i]; doc != "" {
			f.PrimaryDoc = base + "/" + doc
		}
		out = append(out, f)
	}
	return out, nil
}

func parseFilingDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
