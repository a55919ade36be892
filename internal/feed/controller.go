package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"postboard/internal/models"
	"postboard/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// ErrSuperseded is returned by a navigation whose result was discarded
// because a newer navigation started while it was in flight.
var ErrSuperseded = errors.New("feed: navigation superseded")

// Controller maps navigation triggers onto State and Pipeline and draws the
// result on a View. Triggers may be called concurrently: each one takes a new
// generation and cancels the one in flight, and only the latest generation
// reaches the view.
type Controller struct {
	pipeline *Pipeline
	view     View

	mu     sync.Mutex
	state  *State
	query  string
	phase  Phase
	gen    uint64
	cancel context.CancelFunc
}

// NewController returns an idle controller on page 1.
func NewController(p *Pipeline, v View, maxVisible int) *Controller {
	return &Controller{
		pipeline: p,
		view:     v,
		state:    NewState(maxVisible),
	}
}

// SetQuery sets the search text without resetting the page, e.g. when a page
// URL carries both.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = strings.TrimSpace(q)
}

// Query is the active search text.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Phase is the current lifecycle state.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Page is the current page number.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Current()
}

// Metadata is the latest pagination metadata, or nil.
func (c *Controller) Metadata() *models.PaginationMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m := c.state.Metadata(); m != nil {
		copied := *m
		return &copied
	}
	return nil
}

// Controls computes the pagination controls for the current state.
func (c *Controller) Controls() Controls {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controlsLocked()
}

// Load renders page, typically taken from a URL, on first mount.
func (c *Controller) Load(ctx context.Context, page int) error {
	return c.navigate(ctx, "load", false, func(s *State) int {
		return s.ClampAndSet(page)
	})
}

// GoTo jumps to page, keeping the current query.
func (c *Controller) GoTo(ctx context.Context, page int) error {
	return c.navigate(ctx, "goto", true, func(s *State) int {
		return s.ClampAndSet(page)
	})
}

// Previous moves to meta.previousPage, or current-1 when the server gave none.
func (c *Controller) Previous(ctx context.Context) error {
	return c.navigate(ctx, "previous", true, func(s *State) int {
		return s.ClampAndSet(previousTarget(s))
	})
}

// Next moves to meta.nextPage, or current+1 when the server gave none.
func (c *Controller) Next(ctx context.Context) error {
	return c.navigate(ctx, "next", true, func(s *State) int {
		return s.ClampAndSet(nextTarget(s))
	})
}

// Search starts over on page 1 with query.
func (c *Controller) Search(ctx context.Context, query string) error {
	c.SetQuery(query)
	return c.navigate(ctx, "search", true, func(s *State) int {
		s.Reset()
		return s.Current()
	})
}

func previousTarget(s *State) int {
	if m := s.Metadata(); m != nil && m.PreviousPage != nil {
		return *m.PreviousPage
	}
	return s.Current() - 1
}

func nextTarget(s *State) int {
	if m := s.Metadata(); m != nil && m.NextPage != nil {
		return *m.NextPage
	}
	return s.Current() + 1
}

// begin moves to a new generation, cancelling the previous one.
func (c *Controller) begin(ctx context.Context) (context.Context, uint64) {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	ctx, c.cancel = context.WithCancel(ctx)
	c.phase = PhaseLoading
	return ctx, c.gen
}

// finishLocked releases the context of the generation that just completed.
func (c *Controller) finishLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) navigate(ctx context.Context, trigger string, scroll bool, move func(*State) int) (err error) {
	ctx, span := observability.StartInternalSpan(ctx, "feed."+trigger)
	defer func() {
		if errors.Is(err, ErrSuperseded) {
			observability.EndSpan(span, nil)
			return
		}
		observability.EndSpan(span, err)
	}()

	c.mu.Lock()
	prev := c.state.Current()
	page := move(c.state)
	query := c.query
	runCtx, gen := c.begin(ctx)
	c.mu.Unlock()

	span.SetAttributes(attribute.Int("feed.page", page), attribute.String("feed.query", query))

	// At most one refetch: when the first response shows the requested page is
	// past the end, clamp against the fresh metadata and load again.
	for attempt := 0; ; attempt++ {
		out := c.pipeline.Load(runCtx, page, query)

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			observability.StaleRenders.Inc()
			return ErrSuperseded
		}

		if out.Err != nil {
			// The rendered page is still prev; keep state in step with it.
			c.state.ClampAndSet(prev)
			c.phase = PhaseError
			c.pipeline.Apply(c.view, out)
			c.finishLocked()
			c.mu.Unlock()
			return out.Err
		}

		c.state.RecordMetadata(out.Meta)
		if attempt == 0 && c.state.Current() > c.state.MaxAllowed() {
			page = c.state.ClampAndSet(c.state.Current())
			c.mu.Unlock()
			continue
		}

		c.pipeline.Apply(c.view, out)
		c.view.RenderControls(c.controlsLocked())
		if scroll {
			c.view.ScrollToTop()
		}
		c.phase = PhaseLoaded
		c.finishLocked()
		c.mu.Unlock()
		return nil
	}
}

func (c *Controller) controlsLocked() Controls {
	s := c.state
	cur := s.Current()
	eff := s.EffectivePageCount()

	ctl := Controls{
		Current:    cur,
		Effective:  eff,
		Status:     fmt.Sprintf("%d/%d", cur, eff),
		PrevTarget: s.Clamp(previousTarget(s)),
		NextTarget: s.Clamp(nextTarget(s)),
	}

	meta := s.Metadata()
	if meta == nil {
		ctl.PrevDisabled = true
		ctl.NextDisabled = true
		return ctl
	}

	ctl.PrevDisabled = cur <= 1 || meta.PreviousPage == nil || meta.IsFirstPage
	ctl.NextDisabled = cur >= eff || meta.NextPage == nil || meta.IsLastPage
	return ctl
}
