// Package tui is the terminal post browser: a bubbletea program driving a
// feed.Controller that draws into a TextView.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"postboard/internal/feed"
	"postboard/internal/models"
	"postboard/internal/view"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultWidth  = 80
	noticeTimeout = 4 * time.Second

	noticeInfo  = "info"
	noticeError = "error"

	helpLine       = "←/h prev · →/l next · ↑/↓ select · / search · enter open · r reload · q quit"
	detailHelpLine = "esc back · q quit"
)

// DetailFunc loads one post for the detail screen.
type DetailFunc func(ctx context.Context, id int) (*models.Post, error)

// Options configures New.
type Options struct {
	Controller *feed.Controller
	View       *TextView
	Detail     DetailFunc
	StartPage  int
	DateLayout string
	// Heading is shown above the list, e.g. the active tag.
	Heading string
	Context context.Context
}

type navDoneMsg struct {
	seq int
	err error
}

type detailMsg struct {
	seq  int
	post *models.Post
	err  error
}

type dismissMsg struct{ id int }

// Model is the bubbletea model of the browser.
type Model struct {
	ctx        context.Context
	ctrl       *feed.Controller
	view       *TextView
	detailFn   DetailFunc
	dateLayout string
	heading    string
	startPage  int

	spinner   spinner.Model
	search    textinput.Model
	searching bool

	// seq tags each navigation; only the latest one clears the spinner.
	seq     int
	loading bool

	detailSeq     int
	detailLoading bool
	detail        *view.Detail

	notice     string
	noticeKind string
	noticeID   int

	width  int
	height int
}

// New returns a model that loads opts.StartPage on Init.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = enabledStyle

	ti := textinput.New()
	ti.Placeholder = "Search titles on this page"
	ti.Prompt = "/ "
	ti.CharLimit = 120

	start := opts.StartPage
	if start < 1 {
		start = 1
	}

	return Model{
		ctx:        ctx,
		ctrl:       opts.Controller,
		view:       opts.View,
		detailFn:   opts.Detail,
		dateLayout: opts.DateLayout,
		heading:    opts.Heading,
		startPage:  start,
		spinner:    sp,
		search:     ti,
		seq:        1,
		loading:    true,
		width:      defaultWidth,
	}
}

// Init runs the first load. It does not scroll.
func (m Model) Init() tea.Cmd {
	page := m.startPage
	return tea.Batch(m.spinner.Tick, m.run(m.seq, func(ctx context.Context) error {
		return m.ctrl.Load(ctx, page)
	}))
}

func (m Model) run(seq int, nav func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return navDoneMsg{seq: seq, err: nav(ctx)}
	}
}

// navigate starts a new navigation generation.
func (m Model) navigate(nav func(context.Context) error) (Model, tea.Cmd) {
	m.seq++
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.run(m.seq, nav))
}

func (m Model) notify(kind, text string) (Model, tea.Cmd) {
	m.noticeID++
	m.notice = text
	m.noticeKind = kind
	id := m.noticeID
	return m, tea.Tick(noticeTimeout, func(time.Time) tea.Msg {
		return dismissMsg{id: id}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(msg.Width-4, 10)
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.detailLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case navDoneMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		// A failed fetch is already drawn inline by the view.
		return m, nil

	case detailMsg:
		if msg.seq != m.detailSeq {
			return m, nil
		}
		m.detailLoading = false
		if msg.err != nil {
			return m.notify(noticeError, "Error loading post: "+models.UserMessage(msg.err))
		}
		d := view.BuildDetail(*msg.post, m.dateLayout)
		m.detail = &d
		return m, nil

	case dismissMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.detail != nil || m.detailLoading {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc", "backspace":
			m.detail = nil
			m.detailLoading = false
			m.detailSeq++
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "left", "h":
		if ctl, ok := m.view.Controls(); !ok || ctl.PrevDisabled {
			return m, nil
		}
		return m.navigate(m.ctrl.Previous)

	case "right", "l":
		if ctl, ok := m.view.Controls(); !ok || ctl.NextDisabled {
			return m, nil
		}
		return m.navigate(m.ctrl.Next)

	case "up", "k":
		m.view.Move(-1)
		return m, nil

	case "down", "j":
		m.view.Move(1)
		return m, nil

	case "r":
		page := m.ctrl.Page()
		return m.navigate(func(ctx context.Context) error {
			return m.ctrl.GoTo(ctx, page)
		})

	case "/":
		m.searching = true
		m.search.SetValue(m.ctrl.Query())
		m.search.CursorEnd()
		return m, m.search.Focus()

	case "enter":
		card, ok := m.view.Selected()
		if !ok || m.detailFn == nil {
			return m, nil
		}
		m.detailSeq++
		m.detailLoading = true
		seq, id, ctx, fn := m.detailSeq, card.ID, m.ctx, m.detailFn
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			post, err := fn(ctx, id)
			return detailMsg{seq: seq, post: post, err: err}
		})
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		query := strings.TrimSpace(m.search.Value())
		return m.navigate(func(ctx context.Context) error {
			return m.ctrl.Search(ctx, query)
		})
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	header := titleStyle.Render("postboard")
	if m.heading != "" {
		header += metaStyle.Render("  " + m.heading)
	}
	if q := m.ctrl.Query(); q != "" && !m.searching {
		header += metaStyle.Render("  search: " + q)
	}
	if m.loading || m.detailLoading {
		header += "  " + m.spinner.View()
	}
	b.WriteString(header + "\n\n")

	if m.searching {
		b.WriteString(m.search.View() + "\n\n")
	}

	help := helpLine
	if m.detail != nil {
		b.WriteString(RenderDetail(*m.detail, m.width) + "\n")
		help = detailHelpLine
	} else {
		b.WriteString(m.view.Render(m.width, true))
	}

	if m.notice != "" {
		b.WriteString("\n" + noticeStyles[m.noticeKind].Render(m.notice) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(help) + "\n")
	return b.String()
}

// Run starts the browser full screen and blocks until the user quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
