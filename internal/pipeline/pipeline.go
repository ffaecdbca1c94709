// File path: internal/pipeline/pipeline.go

// Package pipeline sequences the five analysis stages (regulations, articles,
// documents, citations, summary) and emits a single ordered event stream. Stages fan out concurrently where units are independent, but every
// stage is barrier-synchronized: stage k+1 never starts before stage k's
// aggregation completes, and events within a stage follow submission order.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mjharlow/reglens/internal/common"
	"github.com/mjharlow/reglens/internal/compliance"
	"github.com/mjharlow/reglens/internal/generate"
	"github.com/mjharlow/reglens/internal/prompt"
	"github.com/mjharlow/reglens/internal/search"
)

const (
	// DefaultMaxConcurrency bounds fan-out so a run with many regulations
	// does not issue unbounded concurrent generation calls.
	DefaultMaxConcurrency = 4
	// DefaultDocumentLimit caps related documents kept per (regulation,
	// article) pair.
	DefaultDocumentLimit = 1
)

// ErrEmptyText rejects analysis requests without input.
var ErrEmptyText = errors.New("analysis text required")

// Config tunes one pipeline instance. Zero values fall back to defaults.
type Config struct {
	MaxConcurrency int
	DocumentLimit  int
}

// Stats summarizes what one run produced, for catalog records and logs.
type Stats struct {
	Events      int `json:"events"`
	Regulations int `json:"regulations"`
	Articles    int `json:"articles"`
	Documents   int `json:"documents"`
	Citations   int `json:"citations"`
	Errors      int `json:"errors"`
}

// Emit delivers one event to the caller. An error aborts the run: the
// connection is gone and nothing further can be delivered.
type Emit func(compliance.Event) error

// Pipeline orchestrates one analysis run. It holds no state across runs; the
// generation and search collaborators are passed in explicitly so tests can
// substitute fakes.
type Pipeline struct {
	gen    *generate.Client
	search search.Client
	cfg    Config
}

func New(gen *generate.Client, searchClient search.Client, cfg Config) *Pipeline {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.DocumentLimit <= 0 {
		cfg.DocumentLimit = DefaultDocumentLimit
	}
	return &Pipeline{gen: gen, search: searchClient, cfg: cfg}
}

// Run analyzes the text and pushes events through emit until the run
// completes, degrades, or the context is cancelled. Errors inside the run
// become error events on the stream; the returned error is non-nil only for
// cancellation or a dead emit target.
func (p *Pipeline) Run(ctx context.Context, text string, filters search.AccessFilters, emit Emit) (Stats, error) {
	logger := common.Logger()
	var stats Stats
	if text == "" {
		return stats, ErrEmptyText
	}
	send := func(event compliance.Event) error {
		stats.Events++
		if event.Type == compliance.EventError {
			stats.Errors++
		}
		return emit(event)
	}

	// Stage 1: regulations. A failure here is fatal to the run; there is
	// nothing to fan out over.
	regulations, err := p.runRegulations(ctx, text, send)
	if err != nil || regulations == nil {
		return stats, err
	}
	stats.Regulations = len(regulations)
	logger.Info("pipeline: regulations stage complete", "regulations", len(regulations))

	// Stage 2: one generation call per regulation, fanned out.
	articles, err := p.runArticles(ctx, text, regulations, send)
	if err != nil {
		return stats, err
	}
	stats.Articles = len(articles)
	logger.Info("pipeline: articles stage complete", "articles", len(articles))

	// Stage 3: document search per (regulation, article) pair. The lookup is
	// fully populated before stage 4 reads it, so no locking is needed.
	related, err := p.runDocuments(ctx, articles, filters, send, &stats)
	if err != nil {
		return stats, err
	}
	logger.Info("pipeline: documents stage complete", "documents", stats.Documents)

	// Stage 4: one generation call per article, fanned out.
	citations, err := p.runCitations(ctx, text, articles, related, send)
	if err != nil {
		return stats, err
	}
	stats.Citations = len(citations)
	logger.Info("pipeline: citations stage complete", "citations", len(citations))

	// Stage 5: the summary is always attempted once stage 1 succeeded, even
	// with zero articles or citations.
	if err := p.runSummary(ctx, text, regulations, articles, citations, send); err != nil {
		return stats, err
	}
	logger.Info("pipeline: run complete", "events", stats.Events, "errors", stats.Errors)
	return stats, nil
}

func (p *Pipeline) runRegulations(ctx context.Context, text string, send Emit) ([]compliance.Regulation, error) {
	result, err := p.gen.Generate(ctx, prompt.Regulations(text))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if sendErr := send(failureEvent("regulation", err)); sendErr != nil {
			return nil, sendErr
		}
		return nil, nil
	}
	if err := send(compliance.Event{Type: compliance.EventRegulation, Content: result.Raw}); err != nil {
		return nil, err
	}
	var regulations []compliance.Regulation
	if err := json.Unmarshal(result.Payload, &regulations); err != nil {
		common.Logger().Error("pipeline: regulations payload did not parse", "error", err)
		if sendErr := send(compliance.ErrorEvent("Invalid response format for regulation")); sendErr != nil {
			return nil, sendErr
		}
		return nil, nil
	}
	if len(regulations) == 0 {
		common.Logger().Error("pipeline: no valid regulations found")
		if sendErr := send(compliance.ErrorEvent("No valid regulations found")); sendErr != nil {
			return nil, sendErr
		}
		return nil, nil
	}
	return regulations, nil
}

func (p *Pipeline) runArticles(ctx context.Context, text string, regulations []compliance.Regulation, send Emit) ([]compliance.Article, error) {
	worker := func(ctx context.Context, index int) ([]compliance.Event, []compliance.Article, bool) {
		regulation := regulations[index]
		result, err := p.gen.Generate(ctx, prompt.Articles(text, regulation))
		if err != nil {
			return []compliance.Event{failureEvent("article", err)}, nil, false
		}
		var articles []compliance.Article
		if err := json.Unmarshal(result.Payload, &articles); err != nil {
			return []compliance.Event{compliance.ErrorEvent("Invalid response format for article")}, nil, false
		}
		// The unit's identity is authoritative: articles come back tagged
		// with the regulation they were requested for.
		for i := range articles {
			articles[i].Regulation = regulation.Regulation
		}
		events := []compliance.Event{{Type: compliance.EventArticle, Content: result.Raw}}
		return events, articles, true
	}
	events, results, err := runFanout(ctx, len(regulations), p.cfg.MaxConcurrency, worker)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		if err := send(event); err != nil {
			return nil, err
		}
	}
	var articles []compliance.Article
	for _, list := range results {
		articles = append(articles, list...)
	}
	return articles, nil
}

func (p *Pipeline) runDocuments(ctx context.Context, articles []compliance.Article, filters search.AccessFilters, send Emit, stats *Stats) (map[compliance.Key]compliance.RelatedDocument, error) {
	related := make(map[compliance.Key]compliance.RelatedDocument)
	if len(articles) == 0 || p.search == nil {
		return related, nil
	}
	logger := common.Logger()
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		query := article.Regulation + " " + article.Article
		candidates, err := p.search.Search(ctx, query, filters, p.cfg.DocumentLimit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Search being down degrades the run: citations proceed without
			// document context.
			logger.Error("pipeline: document search failed", "regulation", article.Regulation, "article", article.Article, "error", err)
			if sendErr := send(compliance.ErrorEvent("Error finding related documents: " + err.Error())); sendErr != nil {
				return nil, sendErr
			}
			break
		}
		accepted := search.Correlate(article.Regulation, article.Article, candidates, p.cfg.DocumentLimit)
		for _, doc := range accepted {
			stats.Documents++
			event := compliance.Event{
				Type: compliance.EventRelatedDocument,
				Content: compliance.RelatedDocumentContent{
					Regulation: article.Regulation,
					Article:    article.Article,
					Document:   doc,
				},
			}
			if err := send(event); err != nil {
				return nil, err
			}
			key := article.Key()
			if _, exists := related[key]; !exists {
				related[key] = doc
			}
		}
	}
	return related, nil
}

func (p *Pipeline) runCitations(ctx context.Context, text string, articles []compliance.Article, related map[compliance.Key]compliance.RelatedDocument, send Emit) ([]compliance.Citation, error) {
	worker := func(ctx context.Context, index int) ([]compliance.Event, []compliance.Citation, bool) {
		article := articles[index]
		var doc *compliance.RelatedDocument
		if found, ok := related[article.Key()]; ok {
			doc = &found
		}
		result, err := p.gen.Generate(ctx, prompt.Citations(text, article, doc))
		if err != nil {
			return []compliance.Event{failureEvent("citation", err)}, nil, false
		}
		var citations []compliance.Citation
		if err := json.Unmarshal(result.Payload, &citations); err != nil {
			return []compliance.Event{compliance.ErrorEvent("Invalid response format for citation")}, nil, false
		}
		for i := range citations {
			citations[i].Regulation = article.Regulation
			citations[i].Article = article.Article
		}
		events := []compliance.Event{{Type: compliance.EventCitation, Content: result.Raw}}
		return events, citations, true
	}
	events, results, err := runFanout(ctx, len(articles), p.cfg.MaxConcurrency, worker)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		if err := send(event); err != nil {
			return nil, err
		}
	}
	var citations []compliance.Citation
	for _, list := range results {
		citations = append(citations, list...)
	}
	return citations, nil
}

func (p *Pipeline) runSummary(ctx context.Context, text string, regulations []compliance.Regulation, articles []compliance.Article, citations []compliance.Citation, send Emit) error {
	result, err := p.gen.Generate(ctx, prompt.Summary(text, regulations, articles, citations))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return send(failureEvent("summary", err))
	}
	return send(compliance.Event{Type: compliance.EventSummary, Content: result.Raw})
}

// failureEvent translates a generation failure into the caller-visible error
// message for one unit, scoped by the stage's response type name.
func failureEvent(kind string, err error) compliance.Event {
	switch {
	case errors.Is(err, generate.ErrEmptyOutput):
		return compliance.ErrorEvent(fmt.Sprintf("No response received for %s", kind))
	case errors.Is(err, generate.ErrMalformedOutput):
		return compliance.ErrorEvent(fmt.Sprintf("Invalid response format for %s", kind))
	default:
		return compliance.ErrorEvent(fmt.Sprintf("Error getting %s: %v", kind, err))
	}
}
