package feed

import (
	"context"

	"postboard/internal/models"
)

// DefaultPageSize is the number of posts requested per page.
const DefaultPageSize = 12

// PageRequest is what the pipeline asks a Fetcher for.
type PageRequest struct {
	Page          int
	Limit         int
	Tag           string
	IncludeAuthor bool
}

// Fetcher loads one page of posts with its pagination metadata.
type Fetcher interface {
	FetchPage(ctx context.Context, req PageRequest) (*models.PostPage, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req PageRequest) (*models.PostPage, error)

// FetchPage calls f.
func (f FetcherFunc) FetchPage(ctx context.Context, req PageRequest) (*models.PostPage, error) {
	return f(ctx, req)
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	PageSize      int
	Tag           string
	IncludeAuthor bool
	Cards         CardOptions
}

// Pipeline fetches a page, filters it by title and turns it into cards.
type Pipeline struct {
	fetch Fetcher
	cfg   PipelineConfig
}

// NewPipeline returns a pipeline reading from fetch.
func NewPipeline(fetch Fetcher, cfg PipelineConfig) *Pipeline {
	if cfg.PageSize < 1 {
		cfg.PageSize = DefaultPageSize
	}
	return &Pipeline{fetch: fetch, cfg: cfg}
}

// Outcome is the result of loading one page, ready to be applied to a View.
type Outcome struct {
	Page  int
	Query string
	Cards []Card
	Meta  *models.PaginationMetadata
	Err   error
}

// Empty reports a successful load that matched nothing.
func (o Outcome) Empty() bool {
	return o.Err == nil && len(o.Cards) == 0
}

// Load fetches page and filters it by query. The query never leaves the
// process: filtering happens on the fetched page only.
func (p *Pipeline) Load(ctx context.Context, page int, query string) Outcome {
	out := Outcome{Page: page, Query: query}

	res, err := p.fetch.FetchPage(ctx, PageRequest{
		Page:          page,
		Limit:         p.cfg.PageSize,
		Tag:           p.cfg.Tag,
		IncludeAuthor: p.cfg.IncludeAuthor,
	})
	if err != nil {
		out.Err = err
		return out
	}

	out.Meta = res.Meta
	out.Cards = BuildCards(FilterByTitle(res.Data, query), p.cfg.Cards)
	return out
}

// Apply draws o on v. On failure only the error is drawn, so whatever v
// showed before stays in place.
func (p *Pipeline) Apply(v View, o Outcome) {
	switch {
	case o.Err != nil:
		v.RenderError(ErrorPrefix + models.UserMessage(o.Err))
	case o.Empty():
		v.RenderEmpty(EmptyMessage)
	default:
		v.RenderList(o.Cards)
	}
}

// Render loads and applies in one step.
func (p *Pipeline) Render(ctx context.Context, v View, page int, query string) Outcome {
	o := p.Load(ctx, page, query)
	p.Apply(v, o)
	return o
}
