package feed

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"postboard/internal/models"
)

// Display literals.
const (
	EmptyMessage       = "No posts found. Try searching for something else!"
	ErrorPrefix        = "Error fetching posts: "
	NoContent          = "No content available"
	NoTags             = "No tags"
	DefaultImageAlt    = "Post Image"
	DefaultPostImage   = "/images/default-post-image.png"
	DefaultDateLayout  = "02/01/2006"
	SnippetLength      = 100
	snippetEllipsis    = "..."
	postedPrefix       = "Posted "
	detailHrefTemplate = "/post/?id="
)

// Card is the display form of one post in a list.
type Card struct {
	ID       int
	Href     string
	ImageURL string
	ImageAlt string
	Title    string
	Snippet  string
	Posted   string
	Tags     []string
	Author   string
}

// HasTags reports whether the card has any tag to show.
func (c Card) HasTags() bool {
	return len(c.Tags) > 0
}

// CardOptions controls card formatting.
type CardOptions struct {
	DateLayout   string
	DefaultImage string
}

func (o CardOptions) withDefaults() CardOptions {
	if o.DateLayout == "" {
		o.DateLayout = DefaultDateLayout
	}
	if o.DefaultImage == "" {
		o.DefaultImage = DefaultPostImage
	}
	return o
}

// BuildCard derives the display form of p. The post itself is not modified.
func BuildCard(p models.Post, opts CardOptions) Card {
	opts = opts.withDefaults()

	card := Card{
		ID:       p.ID,
		Href:     detailHrefTemplate + strconv.Itoa(p.ID),
		ImageURL: opts.DefaultImage,
		ImageAlt: DefaultImageAlt,
		Title:    p.Title,
		Snippet:  Snippet(p.BodyText()),
		Posted:   postedPrefix + p.Created.Local().Format(opts.DateLayout),
	}

	if p.Media != nil && strings.TrimSpace(p.Media.URL) != "" {
		card.ImageURL = p.Media.URL
	}
	if strings.TrimSpace(p.Title) != "" {
		card.ImageAlt = p.Title
	}

	for _, tag := range p.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			card.Tags = append(card.Tags, tag)
		}
	}
	if p.Author != nil {
		card.Author = p.Author.Name
	}
	return card
}

// BuildCards maps posts to cards, preserving order.
func BuildCards(posts []models.Post, opts CardOptions) []Card {
	cards := make([]Card, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, BuildCard(p, opts))
	}
	return cards
}

// Snippet returns the first SnippetLength characters of body, with an
// ellipsis only when something was cut.
func Snippet(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return NoContent
	}
	if utf8.RuneCountInString(body) <= SnippetLength {
		return body
	}
	return string([]rune(body)[:SnippetLength]) + snippetEllipsis
}

// FilterByTitle keeps posts whose title contains query, ignoring case. A
// blank query keeps everything.
func FilterByTitle(posts []models.Post, query string) []models.Post {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return posts
	}

	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), query) {
			out = append(out, p)
		}
	}
	return out
}
