package view

import (
	"net/url"
	"strings"
	"sync"

	"postboard/internal/feed"
	"postboard/internal/models"
	"postboard/internal/session"
)

// Display literals of the detail and profile pages.
const (
	UnknownAuthor        = "Unknown user"
	DetailImageAlt       = "Default post image. Illustration of a cat painting"
	DefaultAvatar        = "/images/default-avatar.png"
	DefaultAvatarAlt     = "Default profile avatar"
	ProfileUnavailable   = "Unable to load username."
	AvatarUnavailable    = "Avatar not available."
	profileHeadingSuffix = "'s Profile"
)

// Page is the frame every template receives.
type Page struct {
	Title   string
	User    *models.SessionUser
	Flashes []session.Flash
}

// PageView collects what a feed.Controller draws during one request. The
// list region is replaced wholesale by each Render call; an error is kept
// alongside whatever list was drawn before it.
type PageView struct {
	mu sync.Mutex

	// Base is the list URL the pagination links are built on.
	Base     string
	Cards    []feed.Card
	Message  string
	Error    string
	Controls feed.Controls
	// HasControls is false until the controller has drawn its controls once.
	HasControls bool
	Scrolled    bool
}

// NewPageView returns a view whose pagination links extend base.
func NewPageView(base string) *PageView {
	return &PageView{Base: base}
}

func (v *PageView) RenderList(cards []feed.Card) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Cards = cards
	v.Message = ""
	v.Error = ""
}

func (v *PageView) RenderEmpty(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Cards = nil
	v.Message = message
	v.Error = ""
}

func (v *PageView) RenderError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Error = message
}

func (v *PageView) RenderControls(ctl feed.Controls) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Controls = ctl
	v.HasControls = true
}

func (v *PageView) ScrollToTop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Scrolled = true
}

// ListBase builds the base URL of a list page carrying the search and tag
// parameters forward to the pagination links.
func ListBase(path, query, tag string) string {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if tag != "" {
		q.Set("tag", tag)
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// HomePage is the binding of the home template.
type HomePage struct {
	Page
	Feed          *PageView
	Query         string
	Tag           string
	ShowTagFilter bool
}

// Detail is the display form of a single post.
type Detail struct {
	ID       int
	Title    string
	Author   string
	Posted   string
	ImageURL string
	ImageAlt string
	Body     string
	Tags     []string
}

// BuildDetail derives the detail display of p.
func BuildDetail(p models.Post, dateLayout string) Detail {
	if dateLayout == "" {
		dateLayout = feed.DefaultDateLayout
	}
	d := Detail{
		ID:       p.ID,
		Title:    p.Title,
		Author:   UnknownAuthor,
		Posted:   "Posted " + p.Created.Local().Format(dateLayout),
		ImageURL: feed.DefaultPostImage,
		ImageAlt: DetailImageAlt,
		Tags:     p.Tags,
	}
	if p.Author != nil && p.Author.Name != "" {
		d.Author = p.Author.Name
	}
	if p.Media != nil && p.Media.URL != "" {
		d.ImageURL = p.Media.URL
		d.ImageAlt = p.Media.Alt
		if d.ImageAlt == "" {
			d.ImageAlt = p.Title
		}
	}
	if body := p.BodyText(); strings.TrimSpace(body) != "" {
		d.Body = body
	}
	return d
}

// PostPage is the binding of the detail template.
type PostPage struct {
	Page
	Detail *Detail
	Error  string
}

// PostForm holds the editable fields of the create and edit forms.
type PostForm struct {
	Title    string
	Body     string
	MediaURL string
	Tags     string
}

// FormFromPost pre-fills the edit form from p.
func FormFromPost(p models.Post) PostForm {
	f := PostForm{
		Title: p.Title,
		Body:  p.BodyText(),
		Tags:  strings.Join(p.Tags, ", "),
	}
	if p.Media != nil {
		f.MediaURL = p.Media.URL
	}
	return f
}

// PostFormPage is the binding of the create/edit template.
type PostFormPage struct {
	Page
	Heading string
	Action  string
	Submit  string
	// ID is zero on the create form.
	ID   int
	Form PostForm
}

// ProfilePage is the binding of the profile template.
type ProfilePage struct {
	Page
	Heading   string
	AvatarURL string
	AvatarAlt string
	Feed      *PageView
}

// SetProfile fills the header from p. A nil p renders the degraded header.
func (pp *ProfilePage) SetProfile(p *models.Profile) {
	if p == nil {
		pp.Heading = ProfileUnavailable
		pp.AvatarURL = ""
		pp.AvatarAlt = AvatarUnavailable
		return
	}
	pp.Heading = p.Name + profileHeadingSuffix
	pp.AvatarURL = DefaultAvatar
	pp.AvatarAlt = DefaultAvatarAlt
	if p.Avatar != nil && p.Avatar.URL != "" {
		pp.AvatarURL = p.Avatar.URL
		if p.Avatar.Alt != "" {
			pp.AvatarAlt = p.Avatar.Alt
		}
	}
}

// LoginPage is the binding of the login template.
type LoginPage struct {
	Page
	Email string
}

// RegisterPage is the binding of the register template.
type RegisterPage struct {
	Page
	Name   string
	Email  string
	Avatar string
}
