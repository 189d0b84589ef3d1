package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nutriview/catalog-client/pkg/api"
	"github.com/nutriview/catalog-client/pkg/browse"
	"github.com/nutriview/catalog-client/pkg/scroll"
)

// rowThreshold is the near-end distance in list rows that requests the next
// page.
const rowThreshold = 5

type screen int

const (
	screenLogin screen = iota
	screenList
)

// Messages from the controller goroutines into the Bubble Tea loop.
type (
	stateMsg       struct{ state browse.State }
	loggedOutMsg   struct{}
	loginResultMsg struct{ err error }
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// App is the root Bubble Tea model. List state lives in the controller; the
// App only renders snapshots it receives via stateMsg.
type App struct {
	client  *api.Client
	ctrl    *browse.Controller
	trigger *scroll.Trigger

	screen screen
	state  browse.State

	username textinput.Model
	password textinput.Model
	search   textinput.Model
	spin     spinner.Model

	cursor    int // selected row
	top       int // first visible row
	searching bool
	loggingIn bool
	loginErr  string

	width  int
	height int
}

func newApp(client *api.Client, ctrl *browse.Controller, loggedIn bool) *App {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 64
	password.EchoMode = textinput.EchoPassword

	search := textinput.New()
	search.Placeholder = "search products..."
	search.CharLimit = 100
	search.Width = 40

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	app := &App{
		client:   client,
		ctrl:     ctrl,
		screen:   screenLogin,
		username: username,
		password: password,
		search:   search,
		spin:     spin,
	}
	if loggedIn {
		app.screen = screenList
	}
	app.trigger = scroll.New(rowThreshold, ctrl.Gate, ctrl.OnScrollNearEnd)
	return app
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, a.spin.Tick}
	if a.screen == screenList {
		cmds = append(cmds, func() tea.Msg {
			a.ctrl.ResetAndFetch("")
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case stateMsg:
		grew := len(msg.state.Items) > len(a.state.Items)
		a.state = msg.state
		a.clampCursor()
		if grew {
			a.trigger.ContentGrew()
		}
		return a, nil

	case loggedOutMsg:
		a.screen = screenLogin
		a.loginErr = "session expired, please sign in again"
		a.username.SetValue("")
		a.password.SetValue("")
		a.username.Focus()
		a.password.Blur()
		return a, nil

	case loginResultMsg:
		a.loggingIn = false
		if msg.err != nil {
			if api.IsUnauthorized(msg.err) {
				a.loginErr = "invalid credentials"
			} else {
				a.loginErr = msg.err.Error()
			}
			return a, nil
		}
		a.loginErr = ""
		a.screen = screenList
		return a, func() tea.Msg {
			a.ctrl.ResetAndFetch(a.search.Value())
			return nil
		}

	case tea.KeyMsg:
		if a.screen == screenLogin {
			return a.updateLogin(msg)
		}
		return a.updateList(msg)
	}

	return a, nil
}

func (a *App) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return a, tea.Quit

	case "tab", "shift+tab":
		if a.username.Focused() {
			a.username.Blur()
			a.password.Focus()
		} else {
			a.password.Blur()
			a.username.Focus()
		}
		return a, nil

	case "enter":
		if a.loggingIn {
			return a, nil
		}
		a.loggingIn = true
		a.loginErr = ""
		username, password := a.username.Value(), a.password.Value()
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_, err := a.client.Login(ctx, username, password)
			return loginResultMsg{err: err}
		}
	}

	var cmd tea.Cmd
	if a.username.Focused() {
		a.username, cmd = a.username.Update(msg)
	} else {
		a.password, cmd = a.password.Update(msg)
	}
	return a, cmd
}

func (a *App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.searching {
		switch msg.String() {
		case "esc", "enter":
			a.searching = false
			a.search.Blur()
			return a, nil
		case "ctrl+c":
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		// Every keystroke feeds the debounce window; the controller resets
		// only after the quiet period, and only on a real change.
		a.ctrl.OnQueryChanged(a.search.Value())
		return a, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit

	case "/":
		a.searching = true
		a.search.Focus()
		return a, textinput.Blink

	case "up", "k":
		a.moveCursor(-1)
		return a, nil

	case "down", "j":
		a.moveCursor(1)
		return a, nil

	case "pgup":
		a.moveCursor(-a.visibleRows())
		return a, nil

	case "pgdown":
		a.moveCursor(a.visibleRows())
		return a, nil

	case "r":
		a.ctrl.OnPullToRefresh()
		return a, nil

	case "enter":
		if a.state.Err != nil {
			a.ctrl.OnRetryPressed()
		}
		return a, nil

	case "ctrl+l":
		a.ctrl.OnLogoutPressed()
		return a, nil
	}

	return a, nil
}

// moveCursor moves the selection, scrolls the window, and feeds the scroll
// trigger with the new geometry.
func (a *App) moveCursor(delta int) {
	a.cursor += delta
	a.clampCursor()

	visible := a.visibleRows()
	if a.cursor < a.top {
		a.top = a.cursor
	}
	if a.cursor >= a.top+visible {
		a.top = a.cursor - visible + 1
	}

	a.trigger.Observe(float64(a.top), float64(visible), float64(len(a.state.Items)))
}

func (a *App) clampCursor() {
	if a.cursor >= len(a.state.Items) {
		a.cursor = len(a.state.Items) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
	if a.top > a.cursor {
		a.top = a.cursor
	}
	if a.top < 0 {
		a.top = 0
	}
}

func (a *App) visibleRows() int {
	rows := a.height - 6 // title, search, status, help chrome
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (a *App) View() string {
	if a.screen == screenLogin {
		return a.loginView()
	}
	return a.listView()
}

func (a *App) loginView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("catalog-browse — sign in"))
	b.WriteString("\n\n")
	b.WriteString(a.username.View())
	b.WriteString("\n")
	b.WriteString(a.password.View())
	b.WriteString("\n")
	if a.loggingIn {
		b.WriteString(a.spin.View() + " signing in...\n")
	}
	if a.loginErr != "" {
		b.WriteString(errorStyle.Render(a.loginErr) + "\n")
	}
	b.WriteString(helpStyle.Render("tab: switch field • enter: sign in • esc: quit"))
	return b.String()
}

func (a *App) listView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("catalog-browse"))
	b.WriteString("  ")
	b.WriteString(a.search.View())
	b.WriteString("\n\n")

	items := a.state.Items
	visible := a.visibleRows()
	end := a.top + visible
	if end > len(items) {
		end = len(items)
	}

	if len(items) == 0 && !a.state.Loading && !a.state.Refreshing {
		b.WriteString(dimStyle.Render("no products") + "\n")
	}

	for i := a.top; i < end; i++ {
		line := formatItem(items[i])
		if i == a.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	switch {
	case a.state.Refreshing:
		b.WriteString(a.spin.View() + " refreshing...")
	case a.state.Loading:
		b.WriteString(a.spin.View() + " loading...")
	case a.state.Err != nil:
		b.WriteString(errorStyle.Render("error: "+a.state.Err.Error()) + dimStyle.Render("  (enter: retry)"))
	case !a.state.HasMore:
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d products", len(items))))
	default:
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d products loaded", len(items))))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("/: search • j/k: move • r: refresh • ctrl+l: logout • q: quit"))
	return b.String()
}

func formatItem(item api.Item) string {
	kcal := "      "
	if item.Kcal100g != nil {
		kcal = fmt.Sprintf("%4.0f k", *item.Kcal100g)
	}
	return fmt.Sprintf("%-40.40s %s", item.Name, dimStyle.Render(kcal))
}
