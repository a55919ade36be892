package testutil

import (
	"fmt"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"postboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultAPIKey is the key the fake API accepts unless told otherwise.
const DefaultAPIKey = "test-api-key"

type account struct {
	profile  models.Profile
	password string
}

type cannedResponse struct {
	status int
	body   string
}

// FakeAPI is an in-memory stand-in for the remote social API. It speaks the
// same envelope format ({data, meta}) and error format ({errors: [...]}).
type FakeAPI struct {
	APIKey   string
	TokenTTL time.Duration

	mu       sync.Mutex
	posts    map[int]models.Post
	accounts map[string]*account // keyed by lower-case name
	nextID   int
	secret   []byte
	calls    map[string]int
	total    int
	canned   []cannedResponse
	app      *fiber.App
}

// NewFakeAPI returns an empty fake with the default API key.
func NewFakeAPI() *FakeAPI {
	f := &FakeAPI{
		APIKey:   DefaultAPIKey,
		TokenTTL: time.Hour,
		posts:    make(map[int]models.Post),
		accounts: make(map[string]*account),
		nextID:   1,
		secret:   []byte("fake-api-signing-secret"),
		calls:    make(map[string]int),
	}
	f.app = f.newApp()
	return f
}

// StartFakeAPI starts f on an httptest server that is closed with the test.
func StartFakeAPI(t testing.TB) (*FakeAPI, *httptest.Server) {
	t.Helper()
	f := NewFakeAPI()
	srv := httptest.NewServer(adaptor.FiberApp(f.App()))
	t.Cleanup(srv.Close)
	return f, srv
}

// App exposes the underlying Fiber app, e.g. for Listen in cmd/devapi.
func (f *FakeAPI) App() *fiber.App {
	return f.app
}

// AddProfile registers an account that can log in.
func (f *FakeAPI) AddProfile(p models.Profile, password string) models.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Count == nil {
		p.Count = &models.ProfileCount{}
	}
	f.accounts[strings.ToLower(p.Name)] = &account{profile: p, password: password}
	return p
}

// AddPost stores p under a fresh ID and returns the stored copy.
func (f *FakeAPI) AddPost(p models.Post) models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(p)
}

// SeedPosts stores n generated posts by author.
func (f *FakeAPI) SeedPosts(n int, author string) []models.Post {
	out := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f.AddPost(NewPost(WithAuthor(author))))
	}
	return out
}

// Post returns a stored post.
func (f *FakeAPI) Post(id int) (models.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	return p, ok
}

// Token issues a bearer token for name, as the login endpoint would.
func (f *FakeAPI) Token(name string) string {
	claims := jwt.MapClaims{
		"name": name,
		"iat":  time.Now().Unix(),
	}
	if f.TokenTTL > 0 {
		claims["exp"] = time.Now().Add(f.TokenTTL).Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// FailNext makes the next request fail with status and an API-style error body.
func (f *FakeAPI) FailNext(status int, message string) {
	f.RespondNext(status, fmt.Sprintf(`{"errors":[{"message":%q}],"status":"Error","statusCode":%d}`, message, status))
}

// RespondNext makes the next request return body verbatim.
func (f *FakeAPI) RespondNext(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canned = append(f.canned, cannedResponse{status: status, body: body})
}

// Calls returns the total number of requests served.
func (f *FakeAPI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// CallsTo returns the number of requests for one route, e.g. "GET /social/posts".
func (f *FakeAPI) CallsTo(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *FakeAPI) insertLocked(p models.Post) models.Post {
	p.ID = f.nextID
	f.nextID++
	if p.Created.IsZero() {
		p.Created = time.Now().UTC()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Count == nil {
		p.Count = &models.PostCount{}
	}
	f.posts[p.ID] = p
	if p.Author != nil {
		if acc, ok := f.accounts[strings.ToLower(p.Author.Name)]; ok {
			acc.profile.Count.Posts++
		}
	}
	return p
}

func (f *FakeAPI) newApp() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(f.record)

	app.Post("/auth/login", f.login)
	app.Post("/auth/register", f.register)

	social := app.Group("/social", f.requireAPIKey, f.requireBearer)
	social.Get("/posts", f.listPosts)
	social.Get("/posts/:id", f.getPost)
	social.Post("/posts", f.createPost)
	social.Put("/posts/:id", f.updatePost)
	social.Delete("/posts/:id", f.deletePost)
	social.Get("/profiles/:name", f.getProfile)
	social.Get("/profiles/:name/posts", f.listProfilePosts)

	return app
}

func (f *FakeAPI) record(c *fiber.Ctx) error {
	f.mu.Lock()
	f.total++
	route := c.Method() + " " + routeFamily(c.Path())
	f.calls[route]++
	var canned *cannedResponse
	if len(f.canned) > 0 {
		canned = &f.canned[0]
		f.canned = f.canned[1:]
	}
	f.mu.Unlock()

	if canned != nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(canned.status).SendString(canned.body)
	}
	return c.Next()
}

// routeFamily collapses IDs so "/social/posts/7" counts as "/social/posts/:post".
func routeFamily(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 3 && parts[0] == "social" {
		parts[2] = ":" + strings.TrimSuffix(parts[1], "s")
	}
	return "/" + strings.Join(parts, "/")
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"errors":     []fiber.Map{{"message": message}},
		"status":     httpStatusText(status),
		"statusCode": status,
	})
}

func httpStatusText(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "Bad Request"
	case fiber.StatusUnauthorized:
		return "Unauthorized"
	case fiber.StatusForbidden:
		return "Forbidden"
	case fiber.StatusNotFound:
		return "Not Found"
	}
	return "Error"
}

func envelope(c *fiber.Ctx, status int, data any, meta any) error {
	if meta == nil {
		meta = fiber.Map{}
	}
	return c.Status(status).JSON(fiber.Map{"data": data, "meta": meta})
}

func (f *FakeAPI) requireAPIKey(c *fiber.Ctx) error {
	if c.Get("X-Noroff-API-Key") != f.APIKey {
		return apiError(c, fiber.StatusUnauthorized, "No API key header was found")
	}
	return c.Next()
}

func (f *FakeAPI) requireBearer(c *fiber.Ctx) error {
	raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || raw == "" {
		return apiError(c, fiber.StatusUnauthorized, "No authorization header was found")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return f.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "Invalid authorization token")
	}
	name, _ := claims["name"].(string)
	c.Locals("name", name)
	return c.Next()
}

func (f *FakeAPI) login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	f.mu.Lock()
	var found *account
	for _, acc := range f.accounts {
		if strings.EqualFold(acc.profile.Email, in.Email) && acc.password == in.Password {
			found = acc
			break
		}
	}
	f.mu.Unlock()

	if found == nil {
		return apiError(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	return envelope(c, fiber.StatusOK, fiber.Map{
		"name":        found.profile.Name,
		"email":       found.profile.Email,
		"bio":         found.profile.Bio,
		"avatar":      found.profile.Avatar,
		"banner":      found.profile.Banner,
		"accessToken": f.Token(found.profile.Name),
	}, nil)
}

func (f *FakeAPI) register(c *fiber.Ctx) error {
	var in models.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if in.Name == "" || in.Email == "" || len(in.Password) < 8 {
		return apiError(c, fiber.StatusBadRequest, "Name, email and a password of at least 8 characters are required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[strings.ToLower(in.Name)]; exists {
		return apiError(c, fiber.StatusBadRequest, "Profile already exists")
	}

	p := models.Profile{Name: in.Name, Email: in.Email, Avatar: in.Avatar, Count: &models.ProfileCount{}}
	f.accounts[strings.ToLower(in.Name)] = &account{profile: p, password: in.Password}
	return envelope(c, fiber.StatusCreated, p, nil)
}

func (f *FakeAPI) sortedLocked(keep func(models.Post) bool) []models.Post {
	out := make([]models.Post, 0, len(f.posts))
	for _, p := range f.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func paginate(c *fiber.Ctx, posts []models.Post) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 {
		limit = 100
	}
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	total := len(posts)
	pageCount := (total + limit - 1) / limit

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	withAuthor := c.QueryBool("_author", false)
	data := make([]models.Post, 0, end-start)
	for _, p := range posts[start:end] {
		if !withAuthor {
			p.Author = nil
		}
		data = append(data, p)
	}

	meta := models.PaginationMetadata{
		IsFirstPage: page == 1,
		IsLastPage:  page >= pageCount,
		CurrentPage: page,
		PageCount:   pageCount,
		TotalCount:  total,
	}
	if page > 1 {
		meta.PreviousPage = models.IntPtr(page - 1)
	}
	if page < pageCount {
		meta.NextPage = models.IntPtr(page + 1)
	}

	return envelope(c, fiber.StatusOK, data, meta)
}

func (f *FakeAPI) listPosts(c *fiber.Ctx) error {
	tag := c.Query("tag")

	f.mu.Lock()
	posts := f.sortedLocked(func(p models.Post) bool {
		if tag == "" {
			return true
		}
		for _, t := range p.Tags {
			if strings.EqualFold(t, tag) {
				return true
			}
		}
		return false
	})
	f.mu.Unlock()

	return paginate(c, posts)
}

func (f *FakeAPI) listProfilePosts(c *fiber.Ctx) error {
	name := c.Params("name")

	f.mu.Lock()
	_, exists := f.accounts[strings.ToLower(name)]
	posts := f.sortedLocked(func(p models.Post) bool {
		return p.Author != nil && strings.EqualFold(p.Author.Name, name)
	})
	f.mu.Unlock()

	if !exists {
		return apiError(c, fiber.StatusNotFound, "No profile with this name")
	}
	return paginate(c, posts)
}

func (f *FakeAPI) getPost(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "ID must be a number")
	}

	f.mu.Lock()
	p, ok := f.posts[id]
	f.mu.Unlock()

	if !ok {
		return apiError(c, fiber.StatusNotFound, "No post with this id")
	}
	if !c.QueryBool("_author", false) {
		p.Author = nil
	}
	return envelope(c, fiber.StatusOK, p, nil)
}

func validatePayload(in models.PostInput, requireTitle bool) string {
	if requireTitle && strings.TrimSpace(in.Title) == "" {
		return "Title is required"
	}
	if utf8.RuneCountInString(in.Body) > 280 {
		return "Body cannot be greater than 280 characters"
	}
	return ""
}

func (f *FakeAPI) createPost(c *fiber.Ctx) error {
	var in models.PostInput
	if err := c.BodyParser(&in); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if msg := validatePayload(in, true); msg != "" {
		return apiError(c, fiber.StatusBadRequest, msg)
	}

	name, _ := c.Locals("name").(string)

	p := models.Post{
		Title:  in.Title,
		Tags:   in.Tags,
		Media:  in.Media,
		Author: &models.Author{Name: name},
	}
	if in.Body != "" {
		p.Body = models.StringPtr(in.Body)
	}

	f.mu.Lock()
	if acc, ok := f.accounts[strings.ToLower(name)]; ok {
		p.Author.Email = acc.profile.Email
		p.Author.Avatar = acc.profile.Avatar
	}
	stored := f.insertLocked(p)
	f.mu.Unlock()

	return envelope(c, fiber.StatusCreated, stored, nil)
}

func (f *FakeAPI) updatePost(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "ID must be a number")
	}
	var in models.PostInput
	if err := c.BodyParser(&in); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if msg := validatePayload(in, false); msg != "" {
		return apiError(c, fiber.StatusBadRequest, msg)
	}

	name, _ := c.Locals("name").(string)

	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return apiError(c, fiber.StatusNotFound, "No post with this id")
	}
	if p.Author == nil || !strings.EqualFold(p.Author.Name, name) {
		return apiError(c, fiber.StatusForbidden, "You are not the owner of this post")
	}

	if in.Title != "" {
		p.Title = in.Title
	}
	if in.Body != "" {
		p.Body = models.StringPtr(in.Body)
	}
	if in.Tags != nil {
		p.Tags = in.Tags
	}
	if in.Media != nil {
		p.Media = in.Media
	}
	updated := time.Now().UTC()
	p.Updated = &updated
	f.posts[id] = p

	return envelope(c, fiber.StatusOK, p, nil)
}

func (f *FakeAPI) deletePost(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "ID must be a number")
	}
	name, _ := c.Locals("name").(string)

	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return apiError(c, fiber.StatusNotFound, "No post with this id")
	}
	if p.Author == nil || !strings.EqualFold(p.Author.Name, name) {
		return apiError(c, fiber.StatusForbidden, "You are not the owner of this post")
	}
	delete(f.posts, id)
	if acc, ok := f.accounts[strings.ToLower(name)]; ok && acc.profile.Count.Posts > 0 {
		acc.profile.Count.Posts--
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (f *FakeAPI) getProfile(c *fiber.Ctx) error {
	f.mu.Lock()
	acc, ok := f.accounts[strings.ToLower(c.Params("name"))]
	var p models.Profile
	if ok {
		p = acc.profile
		count := *acc.profile.Count
		p.Count = &count
	}
	f.mu.Unlock()

	if !ok {
		return apiError(c, fiber.StatusNotFound, "No profile with this name")
	}
	return envelope(c, fiber.StatusOK, p, nil)
}
