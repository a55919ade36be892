package server

import (
	"context"
	"errors"
	"strings"

	"postboard/internal/api"
	"postboard/internal/featureflags"
	"postboard/internal/feed"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/session"
	"postboard/internal/view"

	"github.com/gofiber/fiber/v2"
)

// navigateFromQuery drives ctrl the way the request asks: a submitted search
// starts over on page 1, an explicit page jumps there, anything else is a
// first load.
func navigateFromQuery(c *fiber.Ctx, ctrl *feed.Controller, query string) error {
	ctx := c.UserContext()
	switch {
	case c.Query("search") != "":
		return ctrl.Search(ctx, query)
	case c.Query("page") != "":
		ctrl.SetQuery(query)
		return ctrl.GoTo(ctx, c.QueryInt("page", 1))
	default:
		ctrl.SetQuery(query)
		return ctrl.Load(ctx, 1)
	}
}

func logFeedError(c *fiber.Ctx, err error) {
	if err != nil && !errors.Is(err, feed.ErrSuperseded) {
		observability.Logger.WarnContext(c.UserContext(), "feed load failed", "error", err)
	}
}

// Home handles GET / with ?q, ?tag and ?page.
func (s *Server) Home(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	showTag := s.featureFlags.Enabled(featureflags.TagFilter, subject(c))
	tag := ""
	if showTag {
		tag = strings.TrimSpace(c.Query("tag"))
	}

	client := s.socialAPI(c)
	tok := token(c)
	v := view.NewPageView(view.ListBase("/", query, tag))
	ctrl := s.newController(v, tag, true, func(ctx context.Context, req feed.PageRequest) (*models.PostPage, error) {
		return client.ListPosts(ctx, tok, api.ListParams{
			Limit:         req.Limit,
			Page:          req.Page,
			Tag:           req.Tag,
			IncludeAuthor: req.IncludeAuthor,
		})
	})

	logFeedError(c, navigateFromQuery(c, ctrl, query))

	return c.Render(view.PageHome, view.HomePage{
		Page:          s.page(c, "Home"),
		Feed:          v,
		Query:         query,
		Tag:           tag,
		ShowTagFilter: showTag,
	})
}

// Profile handles GET /profile: the signed-in user's header and own posts.
// A failed profile read degrades the header only.
func (s *Server) Profile(c *fiber.Ctx) error {
	sess := session.FromCtx(c)
	name := sess.User.Name
	client := s.socialAPI(c)
	ctx := c.UserContext()

	pp := view.ProfilePage{Page: s.page(c, "Profile")}

	profile, err := client.GetProfile(ctx, sess.Token, name)
	if err != nil {
		observability.Logger.WarnContext(ctx, "profile unavailable", "profile", name, "error", err)
	}
	pp.SetProfile(profile)

	pp.Feed = view.NewPageView(view.ListBase("/profile/", "", ""))
	ctrl := s.newController(pp.Feed, "", false, func(ctx context.Context, req feed.PageRequest) (*models.PostPage, error) {
		return client.ListProfilePosts(ctx, sess.Token, name, api.ListParams{
			Limit: req.Limit,
			Page:  req.Page,
		})
	})

	var navErr error
	if c.Query("page") != "" {
		navErr = ctrl.GoTo(ctx, c.QueryInt("page", 1))
	} else {
		navErr = ctrl.Load(ctx, 1)
	}
	logFeedError(c, navErr)

	return c.Render(view.PageProfile, pp)
}
