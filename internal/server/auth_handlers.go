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
	msgLoggedIn     = "Welcome back!"
	msgLoggedOut    = "You have been logged out"
	msgRegistered   = "Registration successful! Please log in."
	msgLoginFailed  = "Login failed: "
	msgRegisterFail = "Could not register account: "
)

// AuthLanding handles GET /auth.
func (s *Server) AuthLanding(c *fiber.Ctx) error {
	if session.FromCtx(c).LoggedIn() {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Render(view.PageAuth, s.page(c, "Welcome"))
}

// LoginForm handles GET /auth/login.
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return c.Render(view.PageLogin, view.LoginPage{Page: s.page(c, "Login")})
}

// Login handles POST /auth/login. Token and user are stored together.
func (s *Server) Login(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	fail := func(status int, msg string) error {
		p := withError(s.page(c, "Login"), msg)
		return c.Status(status).Render(view.PageLogin, view.LoginPage{Page: p, Email: email})
	}

	if err := validation.ValidateLogin(email, password); err != nil {
		return fail(fiber.StatusUnprocessableEntity, models.UserMessage(err))
	}

	res, err := s.client.Login(c.UserContext(), email, password)
	if err != nil {
		observability.Logger.InfoContext(c.UserContext(), "login rejected", "error", err)
		return fail(fiber.StatusUnauthorized, msgLoginFailed+models.UserMessage(err))
	}

	if err := s.sessions.Login(c, res.AccessToken, res.User); err != nil {
		observability.Logger.ErrorContext(c.UserContext(), "store session", "error", err)
		return fail(fiber.StatusServiceUnavailable, msgLoginFailed+"session storage unavailable")
	}

	return s.redirectWithFlash(c, session.FlashSuccess, msgLoggedIn, "/")
}

// RegisterForm handles GET /auth/register.
func (s *Server) RegisterForm(c *fiber.Ctx) error {
	return c.Render(view.PageRegister, view.RegisterPage{Page: s.page(c, "Register")})
}

// Register handles POST /auth/register and sends the new user to login.
func (s *Server) Register(c *fiber.Ctx) error {
	rp := view.RegisterPage{
		Name:   strings.TrimSpace(c.FormValue("name")),
		Email:  strings.TrimSpace(c.FormValue("email")),
		Avatar: strings.TrimSpace(c.FormValue("avatar")),
	}
	in := models.RegisterInput{Name: rp.Name, Email: rp.Email, Password: c.FormValue("password")}
	if rp.Avatar != "" {
		in.Avatar = &models.Media{URL: rp.Avatar, Alt: rp.Name}
	}

	if err := validation.ValidateRegistration(in); err != nil {
		rp.Page = withError(s.page(c, "Register"), models.UserMessage(err))
		return c.Status(fiber.StatusUnprocessableEntity).Render(view.PageRegister, rp)
	}

	if _, err := s.client.Register(c.UserContext(), in); err != nil {
		rp.Page = withError(s.page(c, "Register"), msgRegisterFail+models.UserMessage(err))
		return c.Status(fiber.StatusBadRequest).Render(view.PageRegister, rp)
	}

	return s.redirectWithFlash(c, session.FlashSuccess, msgRegistered, "/auth/login/")
}

// Logout handles POST /auth/logout. Token and user are cleared together.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Logout(c); err != nil {
		observability.Logger.ErrorContext(c.UserContext(), "clear session", "error", err)
	}
	return s.redirectWithFlash(c, session.FlashInfo, msgLoggedOut, "/auth/")
}

// NotFound renders the not-found page for every unknown path.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render(view.PageNotFound, s.page(c, "Not found"))
}
