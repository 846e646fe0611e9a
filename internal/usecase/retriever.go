package usecase

import (
	"context"
	"log/slog"
	"time"

	"PubMedScanner/internal/domain"
	"PubMedScanner/internal/ports"
)

const (
	// defaultChunkSize bounds one efetch payload.
	defaultChunkSize = 20

	// defaultChunkPause spaces consecutive chunk fetches to respect the
	// upstream rate limit.
	defaultChunkPause = 500 * time.Millisecond
)

// Retriever fetches article metadata for an id list in bounded chunks,
// parses each chunk, and deduplicates the merged result.
type Retriever struct {
	fetcher   ports.RecordFetcher
	parser    ports.RecordParser
	chunkSize int
	pause     time.Duration
	logger    *slog.Logger
}

var _ ports.ArticleRetriever = (*Retriever)(nil)

// NewRetriever wires the fetch and parse collaborators.
func NewRetriever(fetcher ports.RecordFetcher, parser ports.RecordParser, logger *slog.Logger) *Retriever {
	return &Retriever{
		fetcher:   fetcher,
		parser:    parser,
		chunkSize: defaultChunkSize,
		pause:     defaultChunkPause,
		logger:    logger,
	}
}

// FetchAll retrieves all ids chunk by chunk. A failed chunk (fetch error
// or unparsable payload) contributes zero articles and is logged; later
// chunks still run. The result keeps the first occurrence per id, in
// first-seen order.
func (r *Retriever) FetchAll(ctx context.Context, ids []string) []domain.Article {
	chunks := chunkIDs(ids, r.chunkSize)

	var merged []domain.Article
	for i, chunk := range chunks {
		payload, err := r.fetcher.FetchChunk(ctx, chunk)
		if err != nil {
			r.warn("chunk fetch failed", "chunk", i, "ids", len(chunk), "error", err)
		} else {
			articles, err := r.parser.ParseRecords(payload)
			if err != nil {
				r.warn("chunk payload unparsable", "chunk", i, "ids", len(chunk), "error", err)
			} else {
				merged = append(merged, articles...)
			}
		}

		if i < len(chunks)-1 {
			time.Sleep(r.pause)
		}
	}

	return dedupByID(merged)
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func dedupByID(articles []domain.Article) []domain.Article {
	seen := map[string]struct{}{}
	result := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		if _, ok := seen[article.PMID]; ok {
			continue
		}
		seen[article.PMID] = struct{}{}
		result = append(result, article)
	}
	return result
}

func (r *Retriever) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
