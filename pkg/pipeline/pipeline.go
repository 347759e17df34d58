// Package pipeline runs the processing phase: every discovered target is
// fetched, extracted, enriched and appended to the output log, with a
// bounded number of pages in flight at once.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/mwexler/corpusmith/internal/models"
)

// Fetcher retrieves pages and paces requests between them.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*models.FetchResult, error)
	Pace(ctx context.Context) error
}

// Extractor turns raw HTML into isolated page content.
type Extractor interface {
	Extract(rawHTML []byte, pageURL string) (*models.ExtractedContent, error)
}

// Enricher derives document metadata from extracted content.
type Enricher interface {
	Enrich(content *models.ExtractedContent, pageURL string, fetchedAt time.Time) *models.Document
}

// Sink persists finished documents and knows which URLs a prior run already
// covered.
type Sink interface {
	Write(doc *models.Document) error
	ShouldSkip(url string) bool
}

// Summary is the per-run outcome tally.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Config wires the pipeline's collaborators.
type Config struct {
	Fetcher       Fetcher
	Extractor     Extractor
	Enricher      Enricher
	Sink          Sink
	MaxConcurrent int
	MaxPages      int
	Logger        *zap.Logger
}

// Pipeline processes discovered targets into documents.
type Pipeline struct {
	fetcher   Fetcher
	extractor Extractor
	enricher  Enricher
	sink      Sink
	sem       *semaphore.Weighted
	maxPages  int
	logger    *zap.Logger

	mu        sync.Mutex
	succeeded int
	failed    int
	skipped   int
}

// New builds a pipeline. MaxConcurrent below 1 is treated as sequential.
func New(cfg Config) *Pipeline {
	concurrent := cfg.MaxConcurrent
	if concurrent < 1 {
		concurrent = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:   cfg.Fetcher,
		extractor: cfg.Extractor,
		enricher:  cfg.Enricher,
		sink:      cfg.Sink,
		sem:       semaphore.NewWeighted(int64(concurrent)),
		maxPages:  cfg.MaxPages,
		logger:    logger,
	}
}

// Run processes targets in order, bounded by the concurrency limit. Targets
// already covered by a prior run are skipped before any request is made.
// Scheduling stops once enough documents have been written to satisfy the
// page budget; work already in flight is drained, not cancelled.
func (p *Pipeline) Run(ctx context.Context, targets []models.Target) (Summary, error) {
	var wg sync.WaitGroup

	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		if p.budgetReached() {
			break
		}
		if p.sink.ShouldSkip(target.URL) {
			p.logger.Debug("skipping previously crawled url", zap.String("url", target.URL))
			p.addSkipped()
			continue
		}

		if err := p.sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(target models.Target) {
			defer wg.Done()
			defer p.sem.Release(1)
			p.process(ctx, target)
		}(target)
	}

	wg.Wait()
	return p.summary(), ctx.Err()
}

func (p *Pipeline) process(ctx context.Context, target models.Target) {
	// The budget may have filled while this target waited on the semaphore.
	if p.budgetReached() {
		p.addSkipped()
		return
	}
	if err := p.fetcher.Pace(ctx); err != nil {
		p.addFailed()
		return
	}

	result, err := p.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		p.logger.Warn("fetch failed", zap.String("url", target.URL), zap.Error(err))
		p.addFailed()
		return
	}

	content, err := p.extractor.Extract(result.Body, target.URL)
	if err != nil {
		// Extraction trouble degrades to a thin document rather than
		// dropping the page entirely; whatever fields the extractor
		// managed to fill are kept.
		p.logger.Warn("extraction failed, writing minimal record",
			zap.String("url", target.URL), zap.Error(err))
		if content == nil {
			content = &models.ExtractedContent{}
		}
	}

	doc := p.enricher.Enrich(content, target.URL, result.FetchedAt)

	if p.budgetReached() {
		p.addSkipped()
		return
	}
	if err := p.sink.Write(doc); err != nil {
		p.logger.Error("write failed", zap.String("url", target.URL), zap.Error(err))
		p.addFailed()
		return
	}
	p.addSucceeded()
	p.logger.Info("processed page",
		zap.String("url", target.URL),
		zap.Int("words", doc.WordCount),
		zap.String("type", doc.ContentType))
}

func (p *Pipeline) budgetReached() bool {
	if p.maxPages <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.succeeded >= p.maxPages
}

func (p *Pipeline) addSucceeded() { p.mu.Lock(); p.succeeded++; p.mu.Unlock() }
func (p *Pipeline) addFailed()    { p.mu.Lock(); p.failed++; p.mu.Unlock() }
func (p *Pipeline) addSkipped()   { p.mu.Lock(); p.skipped++; p.mu.Unlock() }

func (p *Pipeline) summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Summary{Succeeded: p.succeeded, Failed: p.failed, Skipped: p.skipped}
}
