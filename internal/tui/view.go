package tui

import (
	"strings"
	"sync"

	"postboard/internal/feed"
	"postboard/internal/view"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TextView is the terminal implementation of feed.View. The controller draws
// into it from command goroutines while the program reads it in View, so all
// state sits behind mu.
type TextView struct {
	mu          sync.Mutex
	cards       []feed.Card
	message     string
	err         string
	controls    feed.Controls
	hasControls bool
	selected    int
}

var _ feed.View = (*TextView)(nil)

// NewTextView returns an empty view.
func NewTextView() *TextView {
	return &TextView{}
}

func (v *TextView) RenderList(cards []feed.Card) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cards = cards
	v.message = ""
	v.err = ""
	if v.selected >= len(cards) {
		v.selected = max(len(cards)-1, 0)
	}
}

func (v *TextView) RenderEmpty(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cards = nil
	v.message = message
	v.err = ""
	v.selected = 0
}

// RenderError keeps whatever list was on screen and shows message above it.
func (v *TextView) RenderError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = message
}

func (v *TextView) RenderControls(ctl feed.Controls) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls = ctl
	v.hasControls = true
}

// ScrollToTop moves the selection back to the first card.
func (v *TextView) ScrollToTop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = 0
}

// Move shifts the selection by delta, staying on the list.
func (v *TextView) Move(delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.cards) == 0 {
		return
	}
	v.selected = min(max(v.selected+delta, 0), len(v.cards)-1)
}

// Selected returns the highlighted card.
func (v *TextView) Selected() (feed.Card, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected < 0 || v.selected >= len(v.cards) {
		return feed.Card{}, false
	}
	return v.cards[v.selected], true
}

// Controls returns the last controls drawn and whether any were.
func (v *TextView) Controls() (feed.Controls, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.controls, v.hasControls
}

// Cards returns a copy of the cards on screen.
func (v *TextView) Cards() []feed.Card {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]feed.Card(nil), v.cards...)
}

// Render draws the list region at width. With highlight false no card is
// marked, which is what one-shot output wants.
func (v *TextView) Render(width int, highlight bool) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	if v.err != "" {
		b.WriteString(errorStyle.Render(ansi.Truncate(v.err, width, "…")))
		b.WriteString("\n\n")
	}

	switch {
	case v.message != "":
		b.WriteString(emptyStyle.Render(v.message))
		b.WriteString("\n")
	default:
		for i, card := range v.cards {
			b.WriteString(renderCard(card, width, highlight && i == v.selected))
			b.WriteString("\n")
		}
	}

	if v.hasControls {
		b.WriteString("\n")
		b.WriteString(renderControls(v.controls))
		b.WriteString("\n")
	}
	return b.String()
}

func renderCard(card feed.Card, width int, selected bool) string {
	marker := "  "
	title := cardTitleStyle
	if selected {
		marker = "› "
		title = selectedTitleStyle
	}
	inner := max(width-2, 10)

	meta := card.Posted
	if card.Author != "" {
		meta = "by " + card.Author + " · " + meta
	}

	tags := feed.NoTags
	if card.HasTags() {
		tags = "#" + strings.Join(card.Tags, " #")
	}

	lines := []string{
		marker + title.Render(ansi.Truncate(card.Title, inner, "…")),
		"  " + metaStyle.Render(ansi.Truncate(meta, inner, "…")),
		"  " + ansi.Truncate(card.Snippet, inner, "…"),
		"  " + tagStyle.Render(ansi.Truncate(tags, inner, "…")),
	}
	return strings.Join(lines, "\n")
}

func renderControls(ctl feed.Controls) string {
	prev := enabledStyle.Render("‹ prev")
	if ctl.PrevDisabled {
		prev = disabledStyle.Render("‹ prev")
	}
	next := enabledStyle.Render("next ›")
	if ctl.NextDisabled {
		next = disabledStyle.Render("next ›")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, prev, statusStyle.Render(ctl.Status), next)
}

// RenderDetail draws a single post the way the detail page shows it.
func RenderDetail(d view.Detail, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	inner := max(width-8, 20)

	body := d.Body
	if body == "" {
		body = feed.NoContent
	}
	tags := feed.NoTags
	if len(d.Tags) > 0 {
		tags = "#" + strings.Join(d.Tags, " #")
	}

	content := strings.Join([]string{
		titleStyle.Render(d.Title),
		metaStyle.Render("Written by: " + d.Author + " · " + d.Posted),
		metaStyle.Render("Image: " + ansi.Truncate(d.ImageURL, inner, "…")),
		"",
		lipgloss.NewStyle().Width(inner).Render(body),
		"",
		tagStyle.Render(tags),
	}, "\n")
	return detailBox.Width(inner + 4).Render(content)
}
