package view

import (
	"bytes"
	"io/fs"
	"testing"
	"time"

	"postboard/internal/feed"
	"postboard/internal/models"
	"postboard/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, name string, binding any) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, binding))
	return buf.String()
}

func TestRenderer_AllPagesParse(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	for _, name := range pageNames {
		assert.Contains(t, r.pages, name)
	}

	var buf bytes.Buffer
	assert.Error(t, r.Render(&buf, "missing", Page{}))
}

func TestRenderer_NavDependsOnSession(t *testing.T) {
	out := render(t, PageNotFound, Page{Title: "Not found"})
	assert.Contains(t, out, `href="/auth/login/"`)
	assert.NotContains(t, out, "Logout")

	out = render(t, PageNotFound, Page{Title: "Not found", User: &models.SessionUser{Name: "ola_n"}})
	assert.Contains(t, out, "Logout")
	assert.Contains(t, out, `href="/profile/"`)
}

func TestRenderer_Flashes(t *testing.T) {
	out := render(t, PageAuth, Page{
		Title:   "Welcome",
		Flashes: []session.Flash{{Kind: session.FlashInfo, Message: "You have been logged out"}},
	})
	assert.Contains(t, out, `alert-info`)
	assert.Contains(t, out, "You have been logged out")
}

func TestRenderer_HomeFeed(t *testing.T) {
	v := NewPageView(ListBase("/", "code", ""))
	v.RenderList([]feed.Card{{
		ID: 7, Href: "/post/?id=7", Title: "Learning <Go>", Snippet: feed.NoContent,
		ImageURL: feed.DefaultPostImage, ImageAlt: "Learning <Go>", Posted: "Posted 01/02/2024",
	}})
	v.RenderControls(feed.Controls{PrevDisabled: true, Status: "1/5", Current: 1, Effective: 5, PrevTarget: 1, NextTarget: 2})

	out := render(t, PageHome, HomePage{Page: Page{Title: "Home"}, Feed: v, Query: "code"})
	assert.Contains(t, out, "Learning &lt;Go&gt;")
	assert.Contains(t, out, feed.NoTags)
	assert.Contains(t, out, "1/5")
	assert.Contains(t, out, `href="/?page=2&amp;q=code"`)
	assert.Contains(t, out, `aria-disabled="true">Previous`)
}

func TestRenderer_HomeEmptyAndError(t *testing.T) {
	v := NewPageView("/")
	v.RenderEmpty(feed.EmptyMessage)
	out := render(t, PageHome, HomePage{Page: Page{Title: "Home"}, Feed: v})
	assert.Contains(t, out, feed.EmptyMessage)
	assert.NotContains(t, out, `class="post"`)
	assert.NotContains(t, out, "pagination")

	v.RenderError(feed.ErrorPrefix + "boom")
	out = render(t, PageHome, HomePage{Page: Page{Title: "Home"}, Feed: v})
	assert.Contains(t, out, feed.ErrorPrefix+"boom")
	assert.Contains(t, out, feed.EmptyMessage)
}

func TestPageView_ErrorKeepsList(t *testing.T) {
	v := NewPageView("/")
	v.RenderList([]feed.Card{{ID: 1}})
	v.RenderError("x")
	assert.Len(t, v.Cards, 1)
	assert.Equal(t, "x", v.Error)

	v.RenderList([]feed.Card{{ID: 2}})
	assert.Empty(t, v.Error)
}

func TestListBase(t *testing.T) {
	assert.Equal(t, "/", ListBase("/", "", ""))
	assert.Equal(t, "/?q=a+b&tag=Food", ListBase("/", "a b", "Food"))
	assert.Equal(t, "/?page=3&q=x", pageHref("/?q=x", 3))
}

func TestBuildDetail(t *testing.T) {
	created := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	d := BuildDetail(models.Post{ID: 3, Title: "Hello", Created: created, Body: models.StringPtr("  ")}, "")
	assert.Equal(t, UnknownAuthor, d.Author)
	assert.Equal(t, feed.DefaultPostImage, d.ImageURL)
	assert.Equal(t, DetailImageAlt, d.ImageAlt)
	assert.Empty(t, d.Body)
	assert.Equal(t, "Posted "+created.Local().Format(feed.DefaultDateLayout), d.Posted)

	d = BuildDetail(models.Post{
		Title:  "Hello",
		Body:   models.StringPtr("full body"),
		Media:  &models.Media{URL: "https://img.example/a.jpg"},
		Author: &models.Author{Name: "ola_n"},
		Tags:   []string{"Food"},
	}, "2006-01-02")
	assert.Equal(t, "ola_n", d.Author)
	assert.Equal(t, "https://img.example/a.jpg", d.ImageURL)
	assert.Equal(t, "Hello", d.ImageAlt)
	assert.Equal(t, "full body", d.Body)

	out := render(t, PagePost, PostPage{Page: Page{Title: "Hello"}, Detail: &d})
	assert.Contains(t, out, "Written by: ola_n")
	assert.Contains(t, out, `class="tag-item">Food`)
}

func TestProfilePage_SetProfile(t *testing.T) {
	var pp ProfilePage
	pp.SetProfile(&models.Profile{Name: "ola_n"})
	assert.Equal(t, "ola_n's Profile", pp.Heading)
	assert.Equal(t, DefaultAvatar, pp.AvatarURL)
	assert.Equal(t, DefaultAvatarAlt, pp.AvatarAlt)

	pp.SetProfile(nil)
	assert.Equal(t, ProfileUnavailable, pp.Heading)

	pp.Feed = NewPageView("/profile/")
	out := render(t, PageProfile, pp)
	assert.Contains(t, out, ProfileUnavailable)
	assert.Contains(t, out, AvatarUnavailable)
}

func TestFormFromPost(t *testing.T) {
	f := FormFromPost(models.Post{
		Title: "T", Tags: []string{"Food", "Travel"},
		Media: &models.Media{URL: "https://img.example/a.jpg"},
	})
	assert.Equal(t, "Food, Travel", f.Tags)
	assert.Equal(t, "https://img.example/a.jpg", f.MediaURL)
	assert.Empty(t, f.Body)
}

func TestStaticAssets(t *testing.T) {
	for _, name := range []string{
		"static/images/default-post-image.png",
		"static/images/default-avatar.png",
		"static/css/site.css",
	} {
		_, err := fs.Stat(Static(), name)
		assert.NoError(t, err, name)
	}
}
