package ports

import (
	"context"
	"time"

	"PubMedScanner/internal/domain"
)

// ArticleSearcher runs a bounded catalog search and returns article ids
// in source order.
type ArticleSearcher interface {
	Search(ctx context.Context, query domain.SearchQuery) ([]string, error)
}

// RecordFetcher retrieves the raw record payload for one id batch.
type RecordFetcher interface {
	FetchChunk(ctx context.Context, ids []string) ([]byte, error)
}

// RecordParser turns a raw payload into normalized articles, skipping
// records without an identifier.
type RecordParser interface {
	ParseRecords(payload []byte) ([]domain.Article, error)
}

// ArticleRetriever fetches and parses all ids, chunked and deduplicated.
type ArticleRetriever interface {
	FetchAll(ctx context.Context, ids []string) []domain.Article
}

// Summarizer condenses an abstract into exactly four bullet strings.
type Summarizer interface {
	Summarize(ctx context.Context, title, abstract string) ([]string, error)
}

// Notifier delivers one digest to its channel; an error means the
// digest must be treated as undelivered.
type Notifier interface {
	SendDigest(ctx context.Context, digest domain.Digest) error
}

// NoveltyLedger is the sole owner of the already-notified store.
type NoveltyLedger interface {
	Load(ctx context.Context) (map[string]bool, error)
	IsSeen(id string) bool
	Commit(ctx context.Context, ids []string) error
	Stats(ctx context.Context) (domain.LedgerStats, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
