package server

import (
	"strconv"
	"strings"

	"postboard/internal/featureflags"
	"postboard/internal/feed"
	"postboard/internal/session"
	"postboard/internal/view"

	"github.com/gofiber/fiber/v2"
)

// subject is the identity feature-flag rollouts are bucketed on.
func subject(c *fiber.Ctx) string {
	if sess := session.FromCtx(c); sess.LoggedIn() {
		return sess.User.Name
	}
	return c.IP()
}

// socialAPI picks the cached client when Redis is up and the flag allows it.
func (s *Server) socialAPI(c *fiber.Ctx) SocialAPI {
	if s.cached != nil && s.featureFlags.Enabled(featureflags.PostCache, subject(c)) {
		return s.cached
	}
	return s.client
}

func token(c *fiber.Ctx) string {
	return session.FromCtx(c).Token
}

// page builds the layout binding and consumes pending flashes.
func (s *Server) page(c *fiber.Ctx, title string) view.Page {
	p := view.Page{Title: title, Flashes: s.sessions.Flashes(c)}
	if sess := session.FromCtx(c); sess.LoggedIn() {
		p.User = sess.User
	}
	return p
}

// withError adds an inline error to p for pages rendered without a redirect.
func withError(p view.Page, msg string) view.Page {
	p.Flashes = append(p.Flashes, session.Flash{Kind: session.FlashError, Message: msg})
	return p
}

func (s *Server) redirectWithFlash(c *fiber.Ctx, kind, message, to string) error {
	s.sessions.Flash(c, kind, message)
	return c.Redirect(to, fiber.StatusSeeOther)
}

// rateLimited answers a throttled form post with a flash on the form page.
func (s *Server) rateLimited(to string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.redirectWithFlash(c, session.FlashError, "Too many attempts. Please wait a moment and try again.", to)
	}
}

// parseID reads a positive post id from the query string or the form.
func parseID(c *fiber.Ctx) (int, bool) {
	raw := c.Query("id")
	if raw == "" {
		raw = c.FormValue("id")
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// cardOptions formats cards with the configured date layout.
func (s *Server) cardOptions() feed.CardOptions {
	return feed.CardOptions{DateLayout: s.config.DateLayout}
}

// newController wires a per-request controller to a list endpoint.
func (s *Server) newController(v feed.View, tag string, includeAuthor bool, fetch feed.FetcherFunc) *feed.Controller {
	p := feed.NewPipeline(fetch, feed.PipelineConfig{
		PageSize:      s.config.PageSize,
		Tag:           tag,
		IncludeAuthor: includeAuthor,
		Cards:         s.cardOptions(),
	})
	return feed.NewController(p, v, s.config.MaxVisiblePages)
}

// splitTags parses a comma separated tag list, dropping blanks.
func splitTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
