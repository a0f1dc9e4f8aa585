package tui

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/usercards/internal/journal"
	"github.com/jask/usercards/internal/loader"
	"github.com/jask/usercards/internal/view"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// title, status, controls, blank, help
	chromeLines = 6
)

// Recorder persists request outcomes.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Options are the optional collaborators of the App.
type Options struct {
	Title    string
	Endpoint string
	Journal  Recorder
	Logger   *slog.Logger
}

type focusTarget int

const (
	focusRefresh focusTarget = iota
	focusRetry
)

// App is the bubbletea model: it owns the event loop on which every load is
// started and settled, and it is the coordinator's renderer.
type App struct {
	ctx      context.Context
	coord    *loader.Coordinator
	journal  Recorder
	endpoint string
	title    string
	log      *slog.Logger

	model    view.Model
	renders  int
	focus    focusTarget
	keys     keyMap
	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model
	width    int
	height   int
	cards    []view.Card
	listSet  bool
}

// New builds the App around fetch. The App creates and owns the shared state.
func New(ctx context.Context, fetch loader.Fetcher, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	title := opts.Title
	if title == "" {
		title = "Users"
	}
	a := &App{
		ctx:      ctx,
		journal:  opts.Journal,
		endpoint: opts.Endpoint,
		title:    title,
		log:      logger,
		keys:     defaultKeys(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(statusStyle)),
		viewport: viewport.New(defaultWidth, defaultHeight-chromeLines),
		help:     help.New(),
		width:    defaultWidth,
		height:   defaultHeight,
	}
	a.coord = loader.New(&loader.State{}, fetch, a, logger)
	return a
}

// Coordinator exposes the request coordinator (export and tests).
func (a *App) Coordinator() *loader.Coordinator { return a.coord }

// Model returns the last rendered view model.
func (a *App) Model() view.Model { return a.model }

// Render implements loader.Renderer.
func (a *App) Render(s loader.State) {
	a.renders++
	a.model = view.Build(s)
	a.keys.Refresh.SetEnabled(!a.model.RefreshDisabled)

	switch {
	case a.model.FocusRetry:
		a.focus = focusRetry
	case !a.model.Status.Retry && a.focus == focusRetry:
		a.focus = focusRefresh
	}
	if a.model.ShowList {
		a.cards = a.model.Cards
		a.listSet = true
		a.viewport.SetContent(a.renderCards())
		a.viewport.GotoTop()
	}
}

func (a *App) Init() tea.Cmd {
	a.coord.Render()
	return a.load()
}

// load starts a request and returns the command that completes it.
func (a *App) load() tea.Cmd {
	pending := a.coord.Load(a.ctx)
	return tea.Batch(
		func() tea.Msg { return loadedMsg(pending()) },
		a.spinner.Tick,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(m.Width, m.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(m, a.keys.Quit):
			a.coord.Cancel()
			return a, tea.Quit
		case key.Matches(m, a.keys.Refresh):
			return a, a.pressRefresh()
		case key.Matches(m, a.keys.Focus):
			a.cycleFocus()
		case key.Matches(m, a.keys.Press):
			return a, a.pressFocused()
		default:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(m)
			return a, cmd
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(m)
		return a, cmd
	case loadedMsg:
		out := a.coord.Settle(loader.Result(m))
		return a, a.record(out)
	case spinner.TickMsg:
		if !a.model.Status.Spinner {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case journalErrMsg:
		a.log.Warn("journal write failed", "err", m.error)
	}
	return a, nil
}

func (a *App) pressRefresh() tea.Cmd {
	if a.model.RefreshDisabled {
		return nil
	}
	return a.load()
}

func (a *App) pressFocused() tea.Cmd {
	switch a.focus {
	case focusRetry:
		if !a.model.Status.Retry {
			return nil
		}
		return a.load()
	default:
		return a.pressRefresh()
	}
}

func (a *App) cycleFocus() {
	if a.focus == focusRefresh && a.model.Status.Retry {
		a.focus = focusRetry
		return
	}
	a.focus = focusRefresh
}

func (a *App) record(out loader.Outcome) tea.Cmd {
	if a.journal == nil || out.RequestID == "" {
		return nil
	}
	e := journal.FromOutcome(out, a.endpoint)
	rec := a.journal
	ctx := a.ctx
	return func() tea.Msg {
		if err := rec.Record(ctx, e); err != nil {
			return journalErrMsg{err}
		}
		return nil
	}
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	a.viewport.Width = w
	a.viewport.Height = max(1, h-chromeLines)
	a.help.Width = w
	if a.listSet {
		a.viewport.SetContent(a.renderCards())
	}
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(a.title))
	b.WriteString("\n")
	b.WriteString(a.renderStatus())
	b.WriteString("\n")
	b.WriteString(a.renderButton(view.RefreshLabel, focusRefresh, a.model.RefreshDisabled))
	b.WriteString("\n\n")
	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	b.WriteString(a.help.View(a.keys))
	return b.String()
}

func (a *App) renderStatus() string {
	st := a.model.Status
	switch st.Kind {
	case view.StatusLoading:
		return a.spinner.View() + " " + statusStyle.Render(clean(st.Message))
	case view.StatusError:
		return statusErrStyle.Render(clean(st.Message)) + " " + a.renderButton(view.RetryLabel, focusRetry, false)
	default:
		return ""
	}
}

func (a *App) renderButton(label string, target focusTarget, disabled bool) string {
	text := "[ " + label + " ]"
	switch {
	case disabled:
		return buttonDisabledStyle.Render(text)
	case a.focus == target:
		return buttonFocusStyle.Render(text)
	default:
		return buttonStyle.Render(text)
	}
}

func (a *App) renderCards() string {
	if len(a.cards) == 0 {
		return emptyStyle.Render(view.EmptyMessage)
	}
	width := max(20, a.width-2)
	parts := make([]string, 0, len(a.cards))
	for _, c := range a.cards {
		parts = append(parts, renderCard(c, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderCard(c view.Card, width int) string {
	email := clean(c.Email)
	if email != "" {
		email = ansi.SetHyperlink(c.MailTo) + email + ansi.ResetHyperlink()
	}
	lines := []string{
		cardNameStyle.Render(clean(c.Name)),
		cardLabelStyle.Render("Username: ") + clean(c.Username),
		cardLabelStyle.Render("Email: ") + email,
		cardLabelStyle.Render("Company: ") + clean(c.Company),
		cardLabelStyle.Render("City: ") + clean(c.City),
	}
	return cardStyle.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// clean drops terminal escape sequences and control characters from
// remote text so it cannot restyle or move the cursor.
func clean(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

type loadedMsg loader.Result

type journalErrMsg struct{ error }
