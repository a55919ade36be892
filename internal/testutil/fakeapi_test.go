package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeAPI_RequiresAPIKey(t *testing.T) {
	f := NewFakeAPI()

	req := httptest.NewRequest(http.MethodGet, "/social/posts", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+f.Token("ola"))
	resp, err := f.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestFakeAPI_ListPaginates(t *testing.T) {
	f := NewFakeAPI()
	f.SeedPosts(5, "ola")

	req := httptest.NewRequest(http.MethodGet, "/social/posts?limit=2&page=3", nil)
	req.Header.Set("X-Noroff-API-Key", DefaultAPIKey)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+f.Token("ola"))
	resp, err := f.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, f.CallsTo("GET /social/posts"))
}

func TestFakeAPI_FailNext(t *testing.T) {
	f := NewFakeAPI()
	f.FailNext(fiber.StatusInternalServerError, "kaboom")

	resp, err := f.App().Test(httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{}")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 1, f.Calls())
}

func TestRouteFamily(t *testing.T) {
	assert.Equal(t, "/social/posts", routeFamily("/social/posts"))
	assert.Equal(t, "/social/posts/:post", routeFamily("/social/posts/12"))
	assert.Equal(t, "/social/profiles/:profile/posts", routeFamily("/social/profiles/ola/posts"))
	assert.Equal(t, "/auth/login", routeFamily("/auth/login"))
}

func TestNewPost_RespectsBodyLimit(t *testing.T) {
	for i := 0; i < 20; i++ {
		p := NewPost()
		require.NotNil(t, p.Body)
		assert.LessOrEqual(t, len([]rune(*p.Body)), 280)
	}
}
