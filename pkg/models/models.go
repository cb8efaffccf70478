// Package models defines the shared value types exchanged between the
// reference index, the filings pipeline, and the API layer.
package models

import "time"

// ReferenceRow is one entry of the EDGAR reference index: a ticker symbol
// mapped to its canonical registrant identifier and display name.
//
// CIK is always the 10-digit zero-padded form; Symbol is stored upper-cased.
// Rows are immutable once placed in the index.
type ReferenceRow struct {
	Symbol string `json:"symbol"`
	CIK    string `json:"cik"`
	Name   string `json:"name"`
}

// Filing represents one SEC filing of a registrant, optionally enriched
// with signals mined from its primary document.
type Filing struct {
	CIK         string    `json:"cik"`
	CompanyName string    `json:"company_name"`
	FormType    string    `json:"form_type"` // "10-K", "8-K", "S-1", etc.
	FiledAt     time.Time `json:"filed_at"`
	Title       string    `json:"title,omitempty"`
	AccessionNo string    `json:"accession_no"`
	FilingURL   string    `json:"filing_url"`
	PrimaryDoc  string    `json:"primary_doc_url,omitempty"`

	// Enrichment output. Items and Badges are populated only for periodic
	// event reports (8-K family); AmountUSD only for offering/registration
	// documents, and only when a monetary figure was found.
	Items     []string `json:"items,omitempty"`
	Badges    []string `json:"badges,omitempty"`
	AmountUSD float64  `json:"amount_usd,omitempty"`
	HasAmount bool     `json:"-"`
}

// FeedEntry is one item of a registrant's EDGAR Atom feed.
type FeedEntry struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Updated   time.Time `json:"updated"`
	Summary   string    `json:"summary,omitempty"`
	Category  string    `json:"category,omitempty"` // form type when present
}
