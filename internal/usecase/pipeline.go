package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"PubMedScanner/internal/domain"
	"PubMedScanner/internal/ports"
)

// defaultSummaryPause spaces consecutive summarizer calls.
const defaultSummaryPause = time.Second

// fallbackSummary replaces the bullets of an article whose
// summarization failed. The run continues; the article is still
// delivered and committed.
var fallbackSummary = []string{
	"- Automatic summarization failed for this article",
	"- Please check the original abstract",
	"- This may have been a temporary service error",
	"- Follow the PubMed link above for details",
}

// PipelineDeps wires all driven adapters into the discovery pipeline.
type PipelineDeps struct {
	Searcher   ports.ArticleSearcher
	Retriever  ports.ArticleRetriever
	Ledger     ports.NoveltyLedger
	Summarizer ports.Summarizer
	Notifier   ports.Notifier
	Journals   []string
	Topic      string
	DaysBack   int
	MaxResults int
	Logger     *slog.Logger
}

// PipelineResult reports what one run discovered.
type PipelineResult struct {
	NovelArticles []domain.Article
	TotalFound    int
}

// Pipeline implements the discovery workflow: search, filter against
// the novelty ledger, retrieve, summarize, notify, commit.
type Pipeline struct {
	searcher   ports.ArticleSearcher
	retriever  ports.ArticleRetriever
	ledger     ports.NoveltyLedger
	summarizer ports.Summarizer
	notifier   ports.Notifier
	journals   []string
	topic      string
	daysBack   int
	maxResults int
	pause      time.Duration
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		searcher:   deps.Searcher,
		retriever:  deps.Retriever,
		ledger:     deps.Ledger,
		summarizer: deps.Summarizer,
		notifier:   deps.Notifier,
		journals:   deps.Journals,
		topic:      deps.Topic,
		daysBack:   deps.DaysBack,
		maxResults: deps.MaxResults,
		pause:      defaultSummaryPause,
		logger:     deps.Logger,
	}
}

// Run executes one discovery pass anchored at now. The ledger is
// committed only after the notification went out, so a failed send
// leaves the same articles novel for the next run.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (PipelineResult, error) {
	query := domain.SearchQuery{
		Journals:   p.journals,
		From:       now.AddDate(0, 0, -p.daysBack),
		To:         now,
		MaxResults: p.maxResults,
	}

	ids, err := p.searcher.Search(ctx, query)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("search articles: %w", err)
	}

	if _, err := p.ledger.Load(ctx); err != nil {
		p.warn("ledger load failed, treating as empty", "error", err)
	}

	novelIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		if !p.ledger.IsSeen(id) {
			novelIDs = append(novelIDs, id)
		}
	}

	p.info("search complete", "found", len(ids), "novel", len(novelIDs))

	result := PipelineResult{TotalFound: len(ids)}

	if len(novelIDs) == 0 {
		digest := domain.Digest{Topic: p.topic, Date: now}
		if err := p.notifier.SendDigest(ctx, digest); err != nil {
			return result, fmt.Errorf("send empty digest: %w", err)
		}
		return result, nil
	}

	articles := p.retriever.FetchAll(ctx, novelIDs)

	for i := range articles {
		if i > 0 {
			time.Sleep(p.pause)
		}
		p.summarize(ctx, &articles[i])
	}

	stats, err := p.ledger.Stats(ctx)
	if err != nil {
		p.warn("ledger stats unavailable", "error", err)
		stats = domain.LedgerStats{}
	}

	digest := domain.Digest{
		Topic:    p.topic,
		Date:     now,
		Articles: articles,
		Stats:    stats,
	}
	if err := p.notifier.SendDigest(ctx, digest); err != nil {
		return result, fmt.Errorf("send digest: %w", err)
	}

	committed := make([]string, 0, len(articles))
	for _, article := range articles {
		committed = append(committed, article.PMID)
	}
	if err := p.ledger.Commit(ctx, committed); err != nil {
		return result, fmt.Errorf("commit ledger: %w", err)
	}

	result.NovelArticles = articles
	p.info("run complete", "delivered", len(articles))

	return result, nil
}

func (p *Pipeline) summarize(ctx context.Context, article *domain.Article) {
	bullets, err := p.summarizer.Summarize(ctx, article.Title, article.Abstract)
	if err != nil {
		p.warn("summarization failed", "pmid", article.PMID, "title", titlePrefix(article.Title), "error", err)
		article.Summary = fallbackSummary
		return
	}
	article.Summary = bullets
}

func titlePrefix(title string) string {
	const max = 40
	if len(title) <= max {
		return title
	}
	return title[:max]
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
