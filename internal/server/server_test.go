package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"postboard/internal/api"
	"postboard/internal/config"
	"postboard/internal/feed"
	"postboard/internal/models"
	"postboard/internal/session"
	"postboard/internal/testutil"
	"postboard/internal/view"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ola@stud.noroff.no"
	testPassword = "password1"
)

type harness struct {
	t       *testing.T
	fake    *testutil.FakeAPI
	app     *fiber.App
	cookies map[string]string
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		Port:              "0",
		Env:               "test",
		APIBaseURL:        apiURL,
		APIKey:            testutil.DefaultAPIKey,
		APITimeoutSeconds: 5,
		SessionSecret:     "test-session-secret",
		SessionTTLHours:   24,
		PageSize:          feed.DefaultPageSize,
		MaxVisiblePages:   feed.DefaultMaxVisiblePages,
		DateLayout:        feed.DefaultDateLayout,
		CacheTTLSeconds:   60,
		FeatureFlags:      "post_cache=on,tag_filter=on",
	}
}

func newHarness(t *testing.T, rdb *redis.Client) *harness {
	t.Helper()
	fake, apiSrv := testutil.StartFakeAPI(t)
	fake.AddProfile(models.Profile{Name: "ola_n", Email: testEmail}, testPassword)

	cfg := testConfig(apiSrv.URL)
	client := api.NewClient(cfg.APIBaseURL, cfg.APIKey, api.WithTimeout(cfg.APITimeout()))
	srv, err := NewServerWithDeps(cfg, client, rdb)
	require.NoError(t, err)

	return &harness{t: t, fake: fake, app: srv.NewApp(), cookies: map[string]string{}}
}

func (h *harness) do(method, target string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	for name, value := range h.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	for _, ck := range resp.Cookies() {
		h.cookies[ck.Name] = ck.Value
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(raw)
}

func (h *harness) login() {
	h.t.Helper()
	resp, _ := h.do(http.MethodPost, "/auth/login/", url.Values{
		"email":    {testEmail},
		"password": {testPassword},
	})
	require.Equal(h.t, fiber.StatusSeeOther, resp.StatusCode)
	require.Equal(h.t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func TestAuthGuard_RedirectsAnonymous(t *testing.T) {
	h := newHarness(t, nil)
	for _, path := range []string{"/", "/profile/", "/post/create/", "/post/edit/?id=1"} {
		resp, _ := h.do(http.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/auth/login/", resp.Header.Get(fiber.HeaderLocation), path)
	}
}

func TestNotFound(t *testing.T) {
	h := newHarness(t, nil)
	resp, body := h.do(http.MethodGet, "/does/not/exist", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"up"`)

	resp, body = h.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"redis":"unavailable"`)
}

func TestStaticImages(t *testing.T) {
	h := newHarness(t, nil)
	resp, _ := h.do(http.MethodGet, feed.DefaultPostImage, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = h.do(http.MethodGet, view.DefaultAvatar, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLogin_StoresSessionAndFlashes(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.SeedPosts(3, "ola_n")
	h.login()

	resp, body := h.do(http.MethodGet, "/", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, msgLoggedIn)
	assert.Contains(t, body, "Logout")
	assert.Equal(t, 3, strings.Count(body, `class="post"`))
	assert.Contains(t, body, `page-status">1/1<`)

	_, body = h.do(http.MethodGet, "/", nil)
	assert.NotContains(t, body, msgLoggedIn, "flashes are shown once")
}

func TestLogin_IssuesFreshSessionCookie(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodGet, "/auth/login/", nil)
	before, ok := h.cookies[session.CookieName]
	require.True(t, ok)

	h.login()
	after := h.cookies[session.CookieName]
	assert.NotEqual(t, before, after)

	resp, _ := h.do(http.MethodGet, "/profile/", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	h.cookies[session.CookieName] = before
	resp, _ = h.do(http.MethodGet, "/profile/", nil)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth/login/", resp.Header.Get(fiber.HeaderLocation))
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t, nil)
	resp, body := h.do(http.MethodPost, "/auth/login/", url.Values{
		"email":    {testEmail},
		"password": {"wrong-password"},
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, msgLoginFailed+"Invalid email or password")

	resp, _ = h.do(http.MethodGet, "/", nil)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
}

func TestLogin_ValidationSkipsUpstream(t *testing.T) {
	h := newHarness(t, nil)
	resp, _ := h.do(http.MethodPost, "/auth/login/", url.Values{"email": {"not-an-email"}, "password": {"x"}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, h.fake.CallsTo("POST /auth/login"))
}

func TestLogout_ClearsSession(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	resp, _ := h.do(http.MethodPost, "/auth/logout/", nil)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth/", resp.Header.Get(fiber.HeaderLocation))

	_, body := h.do(http.MethodGet, "/auth/", nil)
	assert.Contains(t, body, msgLoggedOut)

	resp, _ = h.do(http.MethodGet, "/", nil)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
}

func TestRegister_RedirectsToLogin(t *testing.T) {
	h := newHarness(t, nil)
	resp, _ := h.do(http.MethodPost, "/auth/register/", url.Values{
		"name":     {"kari_n"},
		"email":    {"kari@stud.noroff.no"},
		"password": {"password1"},
	})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth/login/", resp.Header.Get(fiber.HeaderLocation))

	resp, _ = h.do(http.MethodPost, "/auth/login/", url.Values{
		"email":    {"kari@stud.noroff.no"},
		"password": {"password1"},
	})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
}

func TestHome_SearchFiltersTheFetchedPage(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.AddPost(testutil.NewPost(testutil.WithTitle("Travel notes"), testutil.WithAuthor("ola_n")))
	h.fake.AddPost(testutil.NewPost(testutil.WithTitle("Cooking pasta"), testutil.WithAuthor("ola_n")))
	h.login()

	_, body := h.do(http.MethodGet, "/?q=travel&search=1", nil)
	assert.Contains(t, body, "Travel notes")
	assert.NotContains(t, body, "Cooking pasta")

	_, body = h.do(http.MethodGet, "/?q=zzz&search=1", nil)
	assert.Equal(t, 1, strings.Count(body, feed.EmptyMessage))
	assert.Zero(t, strings.Count(body, `class="post"`))
}

func TestHome_Pagination(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.SeedPosts(30, "ola_n")
	h.login()

	_, body := h.do(http.MethodGet, "/", nil)
	assert.Contains(t, body, `page-status">1/3<`)
	assert.Contains(t, body, `aria-disabled="true">Previous`)
	assert.Contains(t, body, `href="/?page=2"`)

	_, body = h.do(http.MethodGet, "/?page=2", nil)
	assert.Contains(t, body, `page-status">2/3<`)
	assert.Contains(t, body, `href="/?page=1"`)
	assert.Contains(t, body, `href="/?page=3"`)

	_, body = h.do(http.MethodGet, "/?page=99", nil)
	assert.Contains(t, body, `page-status">3/3<`)
	assert.Equal(t, 6, strings.Count(body, `class="post"`))
}

func TestHome_FetchErrorRendersInline(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	h.fake.FailNext(fiber.StatusInternalServerError, "upstream exploded")
	resp, body := h.do(http.MethodGet, "/", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, feed.ErrorPrefix+"upstream exploded")
}

func TestCreatePost_BodyLimit(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	resp, body := h.do(http.MethodPost, "/post/create/", url.Values{
		"title": {"Too long"},
		"body":  {strings.Repeat("a", 281)},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "cannot exceed 280 characters")
	assert.Zero(t, h.fake.CallsTo("POST /social/posts"))

	resp, _ = h.do(http.MethodPost, "/post/create/", url.Values{
		"title": {"Just right"},
		"body":  {strings.Repeat("a", 280)},
	})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 1, h.fake.CallsTo("POST /social/posts"))
}

func TestCreatePost_SuggestsTagsAndMedia(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	resp, _ := h.do(http.MethodPost, "/post/create/", url.Values{
		"title":    {"Learning to code with AI"},
		"mediaUrl": {"https://img.example/ai.jpg"},
	})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile/", resp.Header.Get(fiber.HeaderLocation))

	stored, ok := h.fake.Post(1)
	require.True(t, ok)
	assert.Equal(t, []string{"Education", "Technology"}, stored.Tags)
	require.NotNil(t, stored.Media)
	assert.Equal(t, "Learning to code with AI", stored.Media.Alt)
	assert.Nil(t, stored.Body)

	_, body := h.do(http.MethodGet, "/profile/", nil)
	assert.Contains(t, body, msgPostCreated)
	assert.Contains(t, body, "ola_n&#39;s Profile")
	assert.Contains(t, body, "Learning to code with AI")
}

func TestEditPost(t *testing.T) {
	h := newHarness(t, nil)
	p := h.fake.AddPost(testutil.NewPost(testutil.WithTitle("Old title"), testutil.WithTags("Food"), testutil.WithAuthor("ola_n")))
	h.login()

	_, body := h.do(http.MethodGet, "/post/edit/?id="+strconv.Itoa(p.ID), nil)
	assert.Contains(t, body, `value="Old title"`)
	assert.Contains(t, body, `value="Food"`)

	resp, _ := h.do(http.MethodPost, "/post/edit/", url.Values{
		"id":    {strconv.Itoa(p.ID)},
		"title": {"Weekend travel"},
	})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	stored, _ := h.fake.Post(p.ID)
	assert.Equal(t, "Weekend travel", stored.Title)
	assert.Equal(t, []string{"Travel"}, stored.Tags)
	assert.Equal(t, p.Body, stored.Body, "empty fields are not sent")

	_, body = h.do(http.MethodGet, "/profile/", nil)
	assert.Contains(t, body, msgPostUpdated)
}

func TestEditPost_Missing(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	resp, _ := h.do(http.MethodGet, "/post/edit/?id=999", nil)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile/", resp.Header.Get(fiber.HeaderLocation))

	_, body := h.do(http.MethodGet, "/profile/", nil)
	assert.Contains(t, body, "trying to edit does not exist.")
}

func TestDeletePost(t *testing.T) {
	h := newHarness(t, nil)
	p := h.fake.AddPost(testutil.NewPost(testutil.WithAuthor("ola_n")))
	h.login()

	resp, _ := h.do(http.MethodPost, "/post/delete/", url.Values{"id": {strconv.Itoa(p.ID)}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	_, ok := h.fake.Post(p.ID)
	assert.False(t, ok)

	_, body := h.do(http.MethodGet, "/profile/", nil)
	assert.Contains(t, body, msgPostDeleted)
}

func TestProfile_PartialFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.SeedPosts(2, "ola_n")
	h.login()

	h.fake.FailNext(fiber.StatusInternalServerError, "profile service down")
	resp, body := h.do(http.MethodGet, "/profile/", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, view.ProfileUnavailable)
	assert.Contains(t, body, view.AvatarUnavailable)
	assert.Equal(t, 2, strings.Count(body, `class="post"`))
}

func TestPostDetail(t *testing.T) {
	h := newHarness(t, nil)
	p := h.fake.AddPost(testutil.NewPost(testutil.WithTitle("Detail me"), testutil.WithBody(nil), testutil.WithoutMedia(), testutil.WithAuthor("ola_n")))
	h.login()

	resp, body := h.do(http.MethodGet, "/post/?id="+strconv.Itoa(p.ID), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Written by: ola_n")
	assert.Contains(t, body, view.DetailImageAlt)
	assert.Contains(t, body, "full-post-body-empty")

	resp, _ = h.do(http.MethodGet, "/post/?id=4242", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCachedReads(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	h := newHarness(t, rdb)
	h.fake.SeedPosts(3, "ola_n")
	h.login()

	h.do(http.MethodGet, "/", nil)
	h.do(http.MethodGet, "/", nil)
	assert.Equal(t, 1, h.fake.CallsTo("GET /social/posts"))

	resp, _ := h.do(http.MethodPost, "/post/create/", url.Values{"title": {"Fresh"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	_, body := h.do(http.MethodGet, "/", nil)
	assert.Contains(t, body, "Fresh")
	assert.Equal(t, 2, h.fake.CallsTo("GET /social/posts"))

	keys := mr.Keys()
	var sessions int
	for _, k := range keys {
		if strings.HasPrefix(k, "session:") && !strings.HasSuffix(k, ":flash") {
			sessions++
		}
	}
	assert.Equal(t, 1, sessions)
}

func TestSessionTTLFollowsToken(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	h := newHarness(t, rdb)
	h.fake.TokenTTL = 2 * time.Hour
	h.login()

	var found bool
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "session:") && !strings.HasSuffix(k, ":flash") {
			found = true
			assert.InDelta(t, (2 * time.Hour).Seconds(), mr.TTL(k).Seconds(), 5)
			assert.NotEmpty(t, mr.HGet(k, "token"))
		}
	}
	assert.True(t, found)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"Food", "Travel"}, splitTags(" Food, ,Travel ,"))
	assert.Nil(t, splitTags(""))
}

func TestCookieKey(t *testing.T) {
	assert.Len(t, cookieKey("anything"), 44)
	assert.NotEqual(t, cookieKey("a"), cookieKey("b"))
}

func TestSessionCookieIsEncrypted(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodGet, "/auth/", nil)
	value, ok := h.cookies[session.CookieName]
	require.True(t, ok)
	_, err := uuid.Parse(value)
	assert.Error(t, err, "the browser never sees the raw session id")
}
