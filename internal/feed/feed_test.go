package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"postboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingView struct {
	mu       sync.Mutex
	lists    [][]Card
	empties  []string
	errs     []string
	controls []Controls
	scrolls  int
}

func (v *recordingView) RenderList(cards []Card) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lists = append(v.lists, cards)
}

func (v *recordingView) RenderEmpty(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.empties = append(v.empties, msg)
}

func (v *recordingView) RenderError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs = append(v.errs, msg)
}

func (v *recordingView) RenderControls(ctl Controls) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls = append(v.controls, ctl)
}

func (v *recordingView) ScrollToTop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolls++
}

func (v *recordingView) lastControls() Controls {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.controls[len(v.controls)-1]
}

// pagedFetcher serves posts like the remote API does and records requests.
type pagedFetcher struct {
	mu       sync.Mutex
	posts    []models.Post
	requests []PageRequest
}

func newPagedFetcher(titles ...string) *pagedFetcher {
	f := &pagedFetcher{}
	for i, title := range titles {
		f.posts = append(f.posts, models.Post{ID: i + 1, Title: title, Tags: []string{}})
	}
	return f
}

func (f *pagedFetcher) pages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.Page)
	}
	return out
}

func (f *pagedFetcher) FetchPage(_ context.Context, req PageRequest) (*models.PostPage, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	total := len(f.posts)
	pageCount := (total + req.Limit - 1) / req.Limit
	start := min((req.Page-1)*req.Limit, total)
	end := min(start+req.Limit, total)

	meta := &models.PaginationMetadata{
		IsFirstPage: req.Page == 1,
		IsLastPage:  req.Page >= pageCount,
		CurrentPage: req.Page,
		PageCount:   pageCount,
		TotalCount:  total,
	}
	if req.Page > 1 {
		meta.PreviousPage = models.IntPtr(req.Page - 1)
	}
	if req.Page < pageCount {
		meta.NextPage = models.IntPtr(req.Page + 1)
	}
	return &models.PostPage{Data: f.posts[start:end], Meta: meta}, nil
}

func titles(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Post %d", i+1)
	}
	return out
}

func newTestController(f Fetcher, v View, pageSize, maxVisible int) *Controller {
	return NewController(NewPipeline(f, PipelineConfig{PageSize: pageSize, IncludeAuthor: true}), v, maxVisible)
}

func TestState_ClampAlwaysWithinBounds(t *testing.T) {
	t.Parallel()
	for maxVisible := 1; maxVisible <= 8; maxVisible++ {
		for pageCount := 0; pageCount <= 10; pageCount++ {
			for requested := -3; requested <= 14; requested++ {
				s := NewState(maxVisible)
				s.RecordMetadata(&models.PaginationMetadata{PageCount: pageCount})

				got := s.ClampAndSet(requested)
				upper := min(max(pageCount, 1), maxVisible)
				assert.GreaterOrEqual(t, got, 1)
				assert.LessOrEqual(t, got, upper)
				assert.Equal(t, got, s.Current())
			}
		}
	}
}

func TestState_WithoutMetadataUsesCap(t *testing.T) {
	t.Parallel()
	s := NewState(50)
	assert.Equal(t, 50, s.ClampAndSet(99))
	assert.Equal(t, 1, s.ClampAndSet(0))
	assert.Equal(t, 7, s.ClampAndSet(7))
}

func TestState_RecordMetadataNilKeepsPrevious(t *testing.T) {
	t.Parallel()
	s := NewState(50)
	s.RecordMetadata(&models.PaginationMetadata{PageCount: 4})
	s.RecordMetadata(nil)
	require.NotNil(t, s.Metadata())
	assert.Equal(t, 4, s.Metadata().PageCount)
}

func TestState_Reset(t *testing.T) {
	t.Parallel()
	s := NewState(50)
	s.ClampAndSet(9)
	s.Reset()
	assert.Equal(t, 1, s.Current())
}

func TestSnippet(t *testing.T) {
	t.Parallel()
	hundred := strings.Repeat("a", 100)

	assert.Equal(t, NoContent, Snippet(""))
	assert.Equal(t, NoContent, Snippet("   "))
	assert.Equal(t, "short body", Snippet("short body"))
	assert.Equal(t, hundred, Snippet(hundred))
	assert.Equal(t, hundred+"...", Snippet(hundred+"b"))
	assert.Equal(t, strings.Repeat("ø", 100)+"...", Snippet(strings.Repeat("ø", 150)))
}

func TestBuildCard_NullBodyNoTags(t *testing.T) {
	t.Parallel()
	post := models.Post{
		ID:      42,
		Title:   "Learning to code with AI",
		Body:    nil,
		Tags:    []string{},
		Created: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
	}

	card := BuildCard(post, CardOptions{})
	assert.Equal(t, NoContent, card.Snippet)
	assert.False(t, card.HasTags())
	assert.Equal(t, "/post/?id=42", card.Href)
	assert.Equal(t, DefaultPostImage, card.ImageURL)
	assert.Equal(t, "Learning to code with AI", card.ImageAlt)
	assert.Equal(t, "Posted 05/03/2024", card.Posted)
}

func TestBuildCard_ImageAltFollowsTitle(t *testing.T) {
	t.Parallel()
	post := models.Post{
		ID:    7,
		Title: "Fjord trip",
		Media: &models.Media{URL: "https://img.example/b.png", Alt: "A boat on a fjord"},
	}
	assert.Equal(t, "Fjord trip", BuildCard(post, CardOptions{}).ImageAlt)

	post.Title = "   "
	assert.Equal(t, DefaultImageAlt, BuildCard(post, CardOptions{}).ImageAlt)
}

func TestBuildCard_MediaAndTags(t *testing.T) {
	t.Parallel()
	post := models.Post{
		ID:     1,
		Title:  "",
		Body:   models.StringPtr("Hello"),
		Tags:   []string{"Travel", " ", "Food"},
		Media:  &models.Media{URL: "https://img.example/a.png"},
		Author: &models.Author{Name: "ola_n"},
	}

	card := BuildCard(post, CardOptions{DateLayout: "2006-01-02"})
	assert.Equal(t, "https://img.example/a.png", card.ImageURL)
	assert.Equal(t, DefaultImageAlt, card.ImageAlt)
	assert.Equal(t, []string{"Travel", "Food"}, card.Tags)
	assert.Equal(t, "ola_n", card.Author)
	assert.Equal(t, "Hello", card.Snippet)
}

func TestFilterByTitle(t *testing.T) {
	t.Parallel()
	posts := []models.Post{{Title: "Cats in Oslo"}, {Title: "Dogs"}, {Title: "CATALOGUE"}}

	assert.Len(t, FilterByTitle(posts, "cat"), 2)
	assert.Len(t, FilterByTitle(posts, "  "), 3)
	assert.Empty(t, FilterByTitle(posts, "zebra"))
}

func TestController_MetadataControls(t *testing.T) {
	t.Parallel()
	meta := &models.PaginationMetadata{
		IsFirstPage: true, IsLastPage: false, CurrentPage: 1,
		PreviousPage: nil, NextPage: models.IntPtr(2), PageCount: 5, TotalCount: 60,
	}
	fetch := FetcherFunc(func(context.Context, PageRequest) (*models.PostPage, error) {
		return &models.PostPage{Data: []models.Post{{ID: 1, Title: "A"}}, Meta: meta}, nil
	})
	v := &recordingView{}
	c := newTestController(fetch, v, 12, 50)

	require.NoError(t, c.Load(context.Background(), 1))

	ctl := v.lastControls()
	assert.True(t, ctl.PrevDisabled)
	assert.False(t, ctl.NextDisabled)
	assert.Equal(t, "1/5", ctl.Status)
	assert.Equal(t, 2, ctl.NextTarget)
	assert.Equal(t, PhaseLoaded, c.Phase())
}

func TestController_NoMetadataControls(t *testing.T) {
	t.Parallel()
	c := newTestController(newPagedFetcher(), &recordingView{}, 12, 50)

	ctl := c.Controls()
	assert.True(t, ctl.PrevDisabled)
	assert.True(t, ctl.NextDisabled)
	assert.Equal(t, "1/50", ctl.Status)
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestController_EffectivePageCountCapped(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher(titles(30)...)
	v := &recordingView{}
	c := newTestController(f, v, 2, 4)

	require.NoError(t, c.Load(context.Background(), 4))
	ctl := v.lastControls()
	assert.Equal(t, "4/4", ctl.Status)
	assert.True(t, ctl.NextDisabled)
	assert.False(t, ctl.PrevDisabled)

	require.NoError(t, c.Next(context.Background()))
	assert.Equal(t, 4, c.Page())
}

func TestController_SearchResetsToFirstPage(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher(titles(40)...)
	v := &recordingView{}
	c := newTestController(f, v, 12, 50)
	ctx := context.Background()

	require.NoError(t, c.GoTo(ctx, 3))
	require.NoError(t, c.Search(ctx, "  Post 1  "))

	assert.Equal(t, 1, c.Page())
	assert.Equal(t, "Post 1", c.Query())
	assert.Equal(t, []int{3, 1}, f.pages())
}

func TestController_QueryIsFilteredLocally(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher("Cats in Oslo", "Dogs", "catalogue")
	v := &recordingView{}
	c := newTestController(f, v, 12, 50)

	require.NoError(t, c.Search(context.Background(), "CAT"))
	require.Len(t, v.lists, 1)
	assert.Len(t, v.lists[0], 2)
	assert.Equal(t, "Cats in Oslo", v.lists[0][0].Title)
}

func TestController_EmptyFilteredSet(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher("Cats", "Dogs")
	v := &recordingView{}
	c := newTestController(f, v, 12, 50)

	require.NoError(t, c.Search(context.Background(), "zebra"))
	assert.Equal(t, []string{EmptyMessage}, v.empties)
	assert.Empty(t, v.lists)
	assert.Empty(t, v.errs)
}

func TestController_FetchErrorKeepsPreviousRendering(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher(titles(30)...)
	fail := false
	fetch := FetcherFunc(func(ctx context.Context, req PageRequest) (*models.PostPage, error) {
		if fail {
			return nil, models.NewRequestError(500, "Server exploded", nil)
		}
		return f.FetchPage(ctx, req)
	})
	v := &recordingView{}
	c := newTestController(fetch, v, 12, 50)
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, 1))
	fail = true
	err := c.Next(ctx)

	require.Error(t, err)
	assert.Equal(t, PhaseError, c.Phase())
	assert.Equal(t, []string{"Error fetching posts: Server exploded"}, v.errs)
	assert.Len(t, v.lists, 1)
	assert.Len(t, v.controls, 1)
}

func TestController_FetchErrorRestoresCurrentPage(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher(titles(60)...)
	fail := false
	fetch := FetcherFunc(func(ctx context.Context, req PageRequest) (*models.PostPage, error) {
		if fail {
			return nil, models.NewRequestError(500, "Server exploded", nil)
		}
		return f.FetchPage(ctx, req)
	})
	v := &recordingView{}
	c := newTestController(fetch, v, 12, 50)
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, 1))
	fail = true
	require.Error(t, c.Next(ctx))

	assert.Equal(t, 1, c.Page())
	ctl := c.Controls()
	assert.Equal(t, "1/5", ctl.Status)
	assert.Equal(t, 2, ctl.NextTarget)

	fail = false
	require.NoError(t, c.Next(ctx))
	assert.Equal(t, 2, c.Page())
}

func TestController_PreviousNextTargets(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher(titles(36)...)
	v := &recordingView{}
	c := newTestController(f, v, 12, 50)
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, 1))
	require.NoError(t, c.Previous(ctx))
	assert.Equal(t, 1, c.Page())

	require.NoError(t, c.Next(ctx))
	require.NoError(t, c.Next(ctx))
	assert.Equal(t, 3, c.Page())
	assert.Equal(t, "3/3", v.lastControls().Status)

	require.NoError(t, c.Next(ctx))
	assert.Equal(t, 3, c.Page())

	assert.Equal(t, []int{1, 1, 2, 3, 3}, f.pages())
}

func TestController_ScrollsOnlyAfterNavigation(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher(titles(30)...)
	v := &recordingView{}
	c := newTestController(f, v, 12, 50)
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, 1))
	assert.Equal(t, 0, v.scrolls)

	require.NoError(t, c.Next(ctx))
	require.NoError(t, c.Search(ctx, "Post"))
	require.NoError(t, c.GoTo(ctx, 2))
	assert.Equal(t, 3, v.scrolls)
}

func TestController_ReclampsAfterMetadata(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher(titles(30)...)
	v := &recordingView{}
	c := newTestController(f, v, 12, 50)

	require.NoError(t, c.Load(context.Background(), 40))

	assert.Equal(t, 3, c.Page())
	assert.Equal(t, []int{40, 3}, f.pages())
	require.Len(t, v.lists, 1)
	assert.Equal(t, "3/3", v.lastControls().Status)
}

func TestController_EmptyResultStaysOnPageOne(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher()
	v := &recordingView{}
	c := newTestController(f, v, 12, 50)

	require.NoError(t, c.Load(context.Background(), 5))
	assert.Equal(t, 1, c.Page())
	assert.Equal(t, "1/1", v.lastControls().Status)
	assert.Equal(t, []string{EmptyMessage}, v.empties)
}

func TestController_StaleGenerationDiscarded(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher(titles(40)...)

	started := make(chan struct{})
	release := make(chan struct{})
	var first sync.Once

	fetch := FetcherFunc(func(ctx context.Context, req PageRequest) (*models.PostPage, error) {
		if req.Page == 2 {
			first.Do(func() { close(started) })
			// Ignores cancellation on purpose: the controller must still drop it.
			<-release
		}
		return f.FetchPage(ctx, req)
	})

	v := &recordingView{}
	c := newTestController(fetch, v, 12, 50)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() { errCh <- c.GoTo(ctx, 2) }()
	<-started

	require.NoError(t, c.GoTo(ctx, 3))
	close(release)

	assert.ErrorIs(t, <-errCh, ErrSuperseded)
	require.Len(t, v.lists, 1)
	assert.Equal(t, "Post 25", v.lists[0][0].Title)
	assert.Equal(t, 3, c.Page())
	assert.Equal(t, PhaseLoaded, c.Phase())
}

func TestController_CancelsInFlightFetch(t *testing.T) {
	t.Parallel()
	f := newPagedFetcher(titles(40)...)
	started := make(chan struct{})
	cancelled := make(chan struct{})

	fetch := FetcherFunc(func(ctx context.Context, req PageRequest) (*models.PostPage, error) {
		if req.Page == 2 {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return f.FetchPage(ctx, req)
	})

	v := &recordingView{}
	c := newTestController(fetch, v, 12, 50)

	errCh := make(chan error, 1)
	go func() { errCh <- c.GoTo(context.Background(), 2) }()
	<-started

	require.NoError(t, c.GoTo(context.Background(), 1))

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight fetch was not cancelled")
	}
	assert.True(t, errors.Is(<-errCh, ErrSuperseded))
	assert.Empty(t, v.errs)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchPage(ctx context.Context, req PageRequest) (*models.PostPage, error) {
	args := m.Called(ctx, req)
	page, _ := args.Get(0).(*models.PostPage)
	return page, args.Error(1)
}

func TestPipeline_RequestCarriesListOptions(t *testing.T) {
	f := new(mockFetcher)
	want := PageRequest{Page: 3, Limit: 12, Tag: "Pets", IncludeAuthor: true}
	f.On("FetchPage", mock.Anything, want).Return(&models.PostPage{
		Data: []models.Post{{ID: 1, Title: "Cats and code", Tags: []string{}}},
		Meta: &models.PaginationMetadata{CurrentPage: 3, PageCount: 4},
	}, nil).Once()

	p := NewPipeline(f, PipelineConfig{PageSize: 12, Tag: "Pets", IncludeAuthor: true})
	out := p.Load(context.Background(), 3, "  cats ")

	require.NoError(t, out.Err)
	require.Len(t, out.Cards, 1)
	assert.Equal(t, 4, out.Meta.PageCount)
	f.AssertExpectations(t)
}
