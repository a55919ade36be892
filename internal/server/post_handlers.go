package server

import (
	"strings"

	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/session"
	"postboard/internal/validation"
	"postboard/internal/view"

	"github.com/gofiber/fiber/v2"
)

const (
	msgPostCreated   = "Success! You just created a new post"
	msgPostUpdated   = "Post updated successfully!"
	msgPostDeleted   = "Your post was successfully deleted!"
	msgPostMissing   = "The post you're trying to edit does not exist."
	msgCreateFailed  = "Failed to create new post. Please try again. Error: "
	msgUpdateFailed  = "An error occurred while updating the post. Please refresh the page and try again"
	msgDeleteFailed  = "An error occurred while deleting the post. Please try again."
	msgLoadPostError = "Error loading post: "
)

func readPostForm(c *fiber.Ctx) view.PostForm {
	return view.PostForm{
		Title:    strings.TrimSpace(c.FormValue("title")),
		Body:     strings.TrimSpace(c.FormValue("body")),
		MediaURL: strings.TrimSpace(c.FormValue("mediaUrl")),
		Tags:     strings.TrimSpace(c.FormValue("tags")),
	}
}

func createForm(p view.Page, form view.PostForm) view.PostFormPage {
	return view.PostFormPage{
		Page:    p,
		Heading: "Create a new post",
		Action:  "/post/create/",
		Submit:  "Publish",
		Form:    form,
	}
}

func editForm(p view.Page, id int, form view.PostForm) view.PostFormPage {
	return view.PostFormPage{
		Page:    p,
		Heading: "Edit post",
		Action:  "/post/edit/",
		Submit:  "Update post",
		ID:      id,
		Form:    form,
	}
}

// PostDetail handles GET /post?id=.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return s.NotFound(c)
	}

	pp := view.PostPage{Page: s.page(c, "Post")}
	post, err := s.socialAPI(c).GetPost(c.UserContext(), token(c), id, true)
	switch {
	case models.HasCode(err, models.CodeNotFound):
		return s.NotFound(c)
	case err != nil:
		pp.Error = msgLoadPostError + models.UserMessage(err)
		return c.Status(fiber.StatusBadGateway).Render(view.PagePost, pp)
	}

	d := view.BuildDetail(*post, s.config.DateLayout)
	pp.Title = post.Title
	pp.Detail = &d
	return c.Render(view.PagePost, pp)
}

// CreatePostForm handles GET /post/create.
func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	return c.Render(view.PagePostForm, createForm(s.page(c, "New post"), view.PostForm{}))
}

// CreatePost handles POST /post/create. Tags are suggested from the title;
// the input is validated before anything is sent upstream.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form := readPostForm(c)
	in := models.PostInput{
		Title: form.Title,
		Body:  form.Body,
		Tags:  s.tags.Suggest(form.Title),
	}
	if form.MediaURL != "" {
		in.Media = &models.Media{URL: form.MediaURL, Alt: form.Title}
	}

	if err := validation.ValidatePostInput(in); err != nil {
		p := withError(s.page(c, "New post"), models.UserMessage(err))
		return c.Status(fiber.StatusUnprocessableEntity).Render(view.PagePostForm, createForm(p, form))
	}

	if _, err := s.socialAPI(c).CreatePost(c.UserContext(), token(c), in); err != nil {
		observability.Logger.WarnContext(c.UserContext(), "create post failed", "error", err)
		p := withError(s.page(c, "New post"), msgCreateFailed+models.UserMessage(err))
		return c.Status(fiber.StatusBadGateway).Render(view.PagePostForm, createForm(p, form))
	}

	return s.redirectWithFlash(c, session.FlashSuccess, msgPostCreated, "/profile/")
}

// EditPostForm handles GET /post/edit?id=, pre-filled from the stored post.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return s.redirectWithFlash(c, session.FlashError, msgPostMissing, "/profile/")
	}

	post, err := s.socialAPI(c).GetPost(c.UserContext(), token(c), id, false)
	switch {
	case models.HasCode(err, models.CodeNotFound):
		return s.redirectWithFlash(c, session.FlashError, msgPostMissing, "/profile/")
	case err != nil:
		return s.redirectWithFlash(c, session.FlashError, msgLoadPostError+models.UserMessage(err), "/profile/")
	}

	return c.Render(view.PagePostForm, editForm(s.page(c, "Edit post"), id, view.FormFromPost(*post)))
}

// updateInput keeps only the fields the user filled in. An empty tag list
// falls back to tags suggested from the title.
func (s *Server) updateInput(form view.PostForm) models.PostInput {
	in := models.PostInput{Title: form.Title, Body: form.Body}
	if form.MediaURL != "" {
		in.Media = &models.Media{URL: form.MediaURL, Alt: form.Title}
	}
	in.Tags = splitTags(form.Tags)
	if len(in.Tags) == 0 {
		in.Tags = s.tags.Suggest(form.Title)
	}
	return in
}

// UpdatePost handles POST /post/edit.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return s.redirectWithFlash(c, session.FlashError, msgPostMissing, "/profile/")
	}

	form := readPostForm(c)
	in := s.updateInput(form)
	if err := validation.ValidatePostUpdate(in); err != nil {
		p := withError(s.page(c, "Edit post"), models.UserMessage(err))
		return c.Status(fiber.StatusUnprocessableEntity).Render(view.PagePostForm, editForm(p, id, form))
	}

	if _, err := s.socialAPI(c).UpdatePost(c.UserContext(), token(c), id, in); err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return s.redirectWithFlash(c, session.FlashError, msgPostMissing, "/profile/")
		}
		observability.Logger.WarnContext(c.UserContext(), "update post failed", "post_id", id, "error", err)
		p := withError(s.page(c, "Edit post"), msgUpdateFailed)
		return c.Status(fiber.StatusBadGateway).Render(view.PagePostForm, editForm(p, id, form))
	}

	return s.redirectWithFlash(c, session.FlashSuccess, msgPostUpdated, "/profile/")
}

// DeletePost handles POST /post/delete from the profile page.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return s.redirectWithFlash(c, session.FlashError, msgDeleteFailed, "/profile/")
	}

	if err := s.socialAPI(c).DeletePost(c.UserContext(), token(c), id); err != nil {
		observability.Logger.WarnContext(c.UserContext(), "delete post failed", "post_id", id, "error", err)
		return s.redirectWithFlash(c, session.FlashError, msgDeleteFailed, "/profile/")
	}
	return s.redirectWithFlash(c, session.FlashSuccess, msgPostDeleted, "/profile/")
}
