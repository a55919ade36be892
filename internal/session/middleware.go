package session

import (
	"time"

	"postboard/internal/models"
	"postboard/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CookieName names the browser cookie carrying the session id.
const CookieName = "postboard_session"

const localsKey = "session"

// Session is the per-request view of a browser session.
type Session struct {
	ID string
	Data
}

// Manager loads sessions into requests and writes them back.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager returns a manager using ttl when the token carries no expiry.
func NewManager(store Store, ttl time.Duration, secure bool) *Manager {
	return &Manager{store: store, ttl: ttl, secure: secure, now: time.Now}
}

// Middleware attaches the session to every request, issuing a new id when
// the browser has none.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(CookieName)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			m.setCookie(c, id)
		}

		sess := &Session{ID: id}
		data, err := m.store.Get(c.UserContext(), id)
		if err != nil {
			observability.Logger.WarnContext(c.UserContext(), "session unavailable", "error", err)
		} else {
			sess.Data = data
		}

		c.Locals(localsKey, sess)
		if sess.LoggedIn() {
			c.Locals("userName", sess.User.Name)
			c.SetUserContext(observability.WithUser(c.UserContext(), sess.User.Name))
		}
		return c.Next()
	}
}

func (m *Manager) setCookie(c *fiber.Ctx, id string) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// FromCtx returns the request's session. It is never nil once the
// middleware has run.
func FromCtx(c *fiber.Ctx) *Session {
	if s, ok := c.Locals(localsKey).(*Session); ok {
		return s
	}
	return &Session{}
}

// Login stores token and user together under a fresh session id, so an id
// issued before sign-in never carries the credential. Pending flashes move
// to the new id.
func (m *Manager) Login(c *fiber.Ctx, token string, user models.SessionUser) error {
	ctx := c.UserContext()
	sess := FromCtx(c)
	oldID := sess.ID
	newID := uuid.NewString()

	data := Data{Token: token, User: &user}
	if err := m.store.Save(ctx, newID, data, TTLFor(token, m.ttl, m.now())); err != nil {
		return err
	}
	if oldID != "" {
		if err := m.store.Clear(ctx, oldID); err != nil {
			observability.Logger.WarnContext(ctx, "clear previous session", "error", err)
		}
		flashes, err := m.store.PopFlashes(ctx, oldID)
		if err != nil {
			observability.Logger.WarnContext(ctx, "carry flashes", "error", err)
		}
		for _, f := range flashes {
			if err := m.store.PushFlash(ctx, newID, f); err != nil {
				observability.Logger.WarnContext(ctx, "flash dropped", "error", err)
			}
		}
	}

	m.setCookie(c, newID)
	sess.ID = newID
	sess.Data = data
	c.Locals(localsKey, sess)
	c.Locals("userName", user.Name)
	return nil
}

// Logout clears token and user together.
func (m *Manager) Logout(c *fiber.Ctx) error {
	sess := FromCtx(c)
	if err := m.store.Clear(c.UserContext(), sess.ID); err != nil {
		return err
	}
	sess.Data = Data{}
	return nil
}

// Flash queues a message for the next page render.
func (m *Manager) Flash(c *fiber.Ctx, kind, message string) {
	if err := m.store.PushFlash(c.UserContext(), FromCtx(c).ID, Flash{Kind: kind, Message: message}); err != nil {
		observability.Logger.WarnContext(c.UserContext(), "flash dropped", "error", err)
	}
}

// Flashes returns and clears the queued messages.
func (m *Manager) Flashes(c *fiber.Ctx) []Flash {
	flashes, err := m.store.PopFlashes(c.UserContext(), FromCtx(c).ID)
	if err != nil {
		observability.Logger.WarnContext(c.UserContext(), "read flashes", "error", err)
		return nil
	}
	return flashes
}
