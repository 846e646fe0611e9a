package domain

import "time"

// Article is the normalized entity built from one raw PubMed record.
// Immutable after parsing except for Summary, which the summarizer
// fills in later.
type Article struct {
	PMID     string
	Title    string
	Abstract string
	Authors  []string
	Journal  string
	PubDate  string
	URL      string
	DOI      string
	Summary  []string
}

// SearchQuery describes one bounded catalog search: an OR-group of
// journal names restricted to a trailing publication-date window.
type SearchQuery struct {
	Journals   []string
	From       time.Time
	To         time.Time
	MaxResults int
}

// LedgerStats summarizes the persisted notification ledger for reporting.
type LedgerStats struct {
	TotalSent int
	Oldest    time.Time
	Newest    time.Time
}

// Digest is the unit handed to a notification channel: all novel
// articles of one run plus ledger context.
type Digest struct {
	Topic    string
	Date     time.Time
	Articles []Article
	Stats    LedgerStats
}
