package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"PubMedScanner/internal/domain"
)

// fakeFetcher records requested chunks and replays canned payloads.
type fakeFetcher struct {
	chunks  [][]string
	fail    map[int]bool
	payload func(ids []string) []byte
}

func (f *fakeFetcher) FetchChunk(ctx context.Context, ids []string) ([]byte, error) {
	index := len(f.chunks)
	f.chunks = append(f.chunks, ids)
	if f.fail[index] {
		return nil, fmt.Errorf("chunk %d unavailable", index)
	}
	return f.payload(ids), nil
}

// idListParser turns a comma-joined payload back into one article per id.
type idListParser struct {
	failOn string
}

func (p *idListParser) ParseRecords(payload []byte) ([]domain.Article, error) {
	text := string(payload)
	if p.failOn != "" && strings.Contains(text, p.failOn) {
		return nil, fmt.Errorf("malformed payload")
	}

	var articles []domain.Article
	for _, id := range strings.Split(text, ",") {
		if id == "" {
			continue
		}
		articles = append(articles, domain.Article{PMID: id, Title: "Article " + id})
	}
	return articles, nil
}

func joinIDs(ids []string) []byte {
	return []byte(strings.Join(ids, ","))
}

func newTestRetriever(fetcher *fakeFetcher, parser *idListParser) *Retriever {
	r := NewRetriever(fetcher, parser, nil)
	r.pause = 0
	return r
}

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", 1000+i)
	}
	return ids
}

func TestFetchAllChunking(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{payload: joinIDs}
	r := newTestRetriever(fetcher, &idListParser{})

	articles := r.FetchAll(context.Background(), makeIDs(45))

	if len(fetcher.chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(fetcher.chunks))
	}
	if len(fetcher.chunks[0]) != 20 || len(fetcher.chunks[1]) != 20 || len(fetcher.chunks[2]) != 5 {
		t.Fatalf("unexpected chunk sizes: %d/%d/%d",
			len(fetcher.chunks[0]), len(fetcher.chunks[1]), len(fetcher.chunks[2]))
	}
	if len(articles) != 45 {
		t.Fatalf("expected 45 articles, got %d", len(articles))
	}
	if articles[0].PMID != "1000" || articles[44].PMID != "1044" {
		t.Fatalf("order not preserved: first %s last %s", articles[0].PMID, articles[44].PMID)
	}
}

func TestFetchAllSkipsFailedChunk(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{payload: joinIDs, fail: map[int]bool{1: true}}
	r := newTestRetriever(fetcher, &idListParser{})

	articles := r.FetchAll(context.Background(), makeIDs(50))

	if len(fetcher.chunks) != 3 {
		t.Fatalf("failed chunk must not abort the rest, got %d chunks", len(fetcher.chunks))
	}
	// 50 ids minus the 20 of the failed middle chunk.
	if len(articles) != 30 {
		t.Fatalf("expected 30 articles, got %d", len(articles))
	}
}

func TestFetchAllSkipsUnparsablePayload(t *testing.T) {
	t.Parallel()

	// Parser rejects the chunk containing id 1000 (the first chunk).
	fetcher := &fakeFetcher{payload: joinIDs}
	r := newTestRetriever(fetcher, &idListParser{failOn: "1000,"})

	articles := r.FetchAll(context.Background(), makeIDs(25))

	if len(articles) != 5 {
		t.Fatalf("expected 5 articles from the surviving chunk, got %d", len(articles))
	}
}

func TestFetchAllDeduplicatesFirstSeen(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{payload: func(ids []string) []byte {
		// Every chunk also claims to contain id 1000.
		withDup := append(append([]string(nil), ids...), "1000")
		return joinIDs(withDup)
	}}
	r := newTestRetriever(fetcher, &idListParser{})

	articles := r.FetchAll(context.Background(), makeIDs(40))

	count := 0
	for _, a := range articles {
		if a.PMID == "1000" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one article for the duplicated id, got %d", count)
	}
	if len(articles) != 40 {
		t.Fatalf("expected 40 deduplicated articles, got %d", len(articles))
	}
	if articles[0].PMID != "1000" {
		t.Fatalf("first occurrence must win, got %s", articles[0].PMID)
	}
}

func TestFetchAllEmptyInput(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{payload: joinIDs}
	r := newTestRetriever(fetcher, &idListParser{})

	if articles := r.FetchAll(context.Background(), nil); len(articles) != 0 {
		t.Fatalf("expected no articles, got %d", len(articles))
	}
	if len(fetcher.chunks) != 0 {
		t.Fatalf("expected no fetches, got %d", len(fetcher.chunks))
	}
}
