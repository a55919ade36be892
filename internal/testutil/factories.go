// Package testutil provides an in-memory fake of the social API and fixture
// factories for tests and local development.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"postboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// PostOption customizes a generated post.
type PostOption func(*models.Post)

// WithTitle overrides the generated title.
func WithTitle(title string) PostOption {
	return func(p *models.Post) { p.Title = title }
}

// WithBody overrides the generated body; nil removes it.
func WithBody(body *string) PostOption {
	return func(p *models.Post) { p.Body = body }
}

// WithTags overrides the generated tags.
func WithTags(tags ...string) PostOption {
	return func(p *models.Post) { p.Tags = tags }
}

// WithoutMedia drops the generated image.
func WithoutMedia() PostOption {
	return func(p *models.Post) { p.Media = nil }
}

// WithAuthor sets the post author.
func WithAuthor(name string) PostOption {
	return func(p *models.Post) {
		p.Author = &models.Author{Name: name, Email: name + "@stud.noroff.no"}
	}
}

// NewPost builds a realistic post. IDs are assigned by the fake API.
func NewPost(opts ...PostOption) models.Post {
	body := truncateRunes(gofakeit.Paragraph(1, 2, 6, " "), 280)

	title := strings.TrimSuffix(gofakeit.Sentence(5), ".")
	post := models.Post{
		Title: title,
		Body:  &body,
		Tags:  []string{gofakeit.Hobby()},
		Media: &models.Media{
			URL: fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
			Alt: title,
		},
		Created: time.Now().Add(-time.Duration(rand.Intn(90*24)) * time.Hour).UTC(),
		Count:   &models.PostCount{},
	}

	for _, opt := range opts {
		opt(&post)
	}
	return post
}

// NewProfile builds a realistic profile with a name the API would accept.
func NewProfile() models.Profile {
	name := strings.ReplaceAll(gofakeit.Username(), "-", "_")
	if len(name) > 16 {
		name = name[:16]
	}
	name += fmt.Sprintf("%d", gofakeit.Number(100, 999))

	return models.Profile{
		Name:   name,
		Email:  strings.ToLower(name) + "@stud.noroff.no",
		Bio:    gofakeit.Sentence(10),
		Avatar: &models.Media{URL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()), Alt: name},
		Count:  &models.ProfileCount{},
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
