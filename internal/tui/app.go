package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/investa/internal/browser"
	"github.com/naveenspark/investa/internal/session"
	"github.com/naveenspark/investa/pkg/client"
	"github.com/naveenspark/investa/pkg/domain"
)

// API is the part of the auth client the interface calls.
type API interface {
	session.API
	session.Authenticator
	SendSMS(ctx context.Context, phone string) (*domain.APIResponse, error)
	VerifySMS(ctx context.Context, phone, code string) (*domain.APIResponse, error)
	Health(ctx context.Context) bool
}

type view int

const (
	viewHome view = iota
	viewLogin
	viewRegister
	viewMyPage
)

// sessionMsg carries the latest session snapshot from the subscription.
type sessionMsg session.Snapshot

// sessionClosedMsg is sent once the subscription channel has been closed.
type sessionClosedMsg struct{}

// logoutDoneMsg reports the server side of a logout. Local state is already cleared.
type logoutDoneMsg struct{ err error }

// openURL is swapped out in tests.
var openURL = browser.Open

// App is the root Bubbletea model.
type App struct {
	sess    *session.Session
	api     API
	updates <-chan session.Snapshot
	cancel  func()

	snap       session.Snapshot
	view       view
	afterLogin view
	home       homeModel
	login      loginModel
	register   registerModel
	mypage     mypageModel
	helpOpen   bool
	helpCursor int
	helpItems  []helpItem
	notice     string
	width      int
	height     int
	frame      int // logo shimmer animation frame
}

// NewApp creates the TUI for sess. webURL is the storefront site linked from
// the help overlay.
func NewApp(sess *session.Session, api API, webURL string) App {
	updates, cancel := sess.Subscribe()
	return App{
		sess:       sess,
		api:        api,
		updates:    updates,
		cancel:     cancel,
		snap:       sess.Snapshot(),
		afterLogin: viewMyPage,
		home:       newHomeModel(api),
		login:      newLoginModel(sess, api),
		register:   newRegisterModel(sess, api),
		mypage:     newMypageModel(sess, api),
		helpItems:  storefrontLinks(webURL),
	}
}

func storefrontLinks(webURL string) []helpItem {
	var items []helpItem
	for _, page := range browser.Pages() {
		u, err := browser.PageURL(webURL, page)
		if err != nil {
			continue
		}
		items = append(items, helpItem{label: page, desc: u, url: u})
	}
	return items
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.startSession(), waitForSession(a.updates), a.home.Init(), shimmerTickCmd())
}

// startSession validates the stored token. The result arrives through the
// subscription like every other transition.
func (a App) startSession() tea.Cmd {
	sess := a.sess
	return func() tea.Msg {
		sess.Start(context.Background())
		return nil
	}
}

func waitForSession(updates <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionMsg(snap)
	}
}

// Unsubscribe stops session updates. Call it after the program exits.
func (a App) Unsubscribe() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + notice(1) + help(1) = 5 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.home, _ = a.home.Update(bodyMsg)
		a.mypage, _ = a.mypage.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case sessionMsg:
		a = a.applySession(session.Snapshot(msg))
		return a, waitForSession(a.updates)

	case sessionClosedMsg:
		return a, nil

	// Results of my page commands belong to my page whichever view is showing.
	case profileRefreshedMsg, copyResultMsg:
		var cmd tea.Cmd
		a.mypage, cmd = a.mypage.Update(msg)
		return a, cmd

	case logoutDoneMsg:
		a.notice = "signed out"
		if msg.err != nil {
			a.notice = "signed out locally (server: " + client.Message(msg.err) + ")"
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Help overlay captures all keys when open
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc":
				a.helpOpen = false
			case "q":
				return a, tea.Quit
			case "j", "down":
				if a.helpCursor < len(a.helpItems)-1 {
					a.helpCursor++
				}
			case "k", "up":
				if a.helpCursor > 0 {
					a.helpCursor--
				}
			case "enter":
				if a.helpCursor < len(a.helpItems) {
					openURL(a.helpItems[a.helpCursor].url) //nolint:errcheck // best-effort browser open
				}
			}
			return a, nil
		}

		if a.isEditing() {
			if msg.String() == "esc" {
				return a.navigate(viewHome)
			}
			break
		}

		switch msg.String() {
		case "h":
			a.helpOpen = true
			a.helpCursor = 0
			return a, nil
		case "q":
			return a, tea.Quit
		case "1":
			return a.navigate(viewHome)
		case "2":
			return a.navigate(viewLogin)
		case "3":
			return a.navigate(viewRegister)
		case "4":
			return a.navigate(viewMyPage)
		case "o":
			if a.view == viewMyPage && a.snap.Authenticated() {
				return a.logout()
			}
		case "esc":
			if a.view != viewHome {
				return a.navigate(viewHome)
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewHome:
		a.home, cmd = a.home.Update(msg)
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewRegister:
		a.register, cmd = a.register.Update(msg)
	case viewMyPage:
		a.mypage, cmd = a.mypage.Update(msg)
	}
	return a, cmd
}

// applySession records snap and moves away from views that no longer match it.
func (a App) applySession(snap session.Snapshot) App {
	prev := a.snap.Status
	if snap.Token != a.snap.Token {
		a.mypage = a.mypage.reset()
	}
	a.snap = snap
	switch {
	case snap.Authenticated() && (a.view == viewLogin || a.view == viewRegister):
		a.view = a.afterLogin
		a.afterLogin = viewMyPage
		a.login = newLoginModel(a.sess, a.api)
		a.register = newRegisterModel(a.sess, a.api)
		a.notice = "signed in as " + snap.User.DisplayName()
	case a.view == viewMyPage && !snap.Authenticated() && snap.Status != session.Initializing:
		a.view = viewLogin
		a.afterLogin = viewMyPage
		if prev == session.Authenticated {
			a.notice = "session ended, sign in again"
		} else {
			a.notice = "sign in to view my page"
		}
	}
	return a
}

// navigate switches views, redirecting to login when my page needs a session.
func (a App) navigate(to view) (tea.Model, tea.Cmd) {
	a.notice = ""
	switch to {
	case viewLogin, viewRegister:
		if a.snap.Authenticated() {
			a.view = viewMyPage
			return a, nil
		}
		if to == viewLogin {
			a.login = newLoginModel(a.sess, a.api)
		} else {
			a.register = newRegisterModel(a.sess, a.api)
		}
		a.afterLogin = viewMyPage
	case viewMyPage:
		if _, err := session.RequireAuth(a.sess); err != nil && a.snap.Status != session.Initializing {
			a.login = newLoginModel(a.sess, a.api)
			a.view = viewLogin
			a.afterLogin = viewMyPage
			a.notice = "sign in to view my page"
			return a, nil
		}
	case viewHome:
		a.view = viewHome
		return a, a.home.Init()
	}
	a.view = to
	return a, nil
}

func (a App) logout() (tea.Model, tea.Cmd) {
	sess := a.sess
	a.view = viewHome
	a.notice = "signing out..."
	return a, func() tea.Msg {
		return logoutDoneMsg{err: sess.Logout(context.Background())}
	}
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin, viewRegister:
		return true
	}
	return false
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	header := center(logo, a.width) + "\n" + center(a.statusLine(), a.width)

	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Home", viewHome},
		{"2", "Login", viewLogin},
		{"3", "Register", viewRegister},
		{"4", "My page", viewMyPage},
	}
	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := max((colWidth-labelWidth)/2, 0)
		rightPad := max(colWidth-labelWidth-leftPad, 0)
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}

	var body, help string
	switch a.view {
	case viewHome:
		body = a.home.View(a.snap)
		help = " " + helpEntry("1-4", "tabs") + helpBar("r", "recheck", "h", "help", "q", "quit")
	case viewLogin:
		body = a.login.View(a.frame)
		help = " " + helpEntry("tab", "next") + helpBar("enter", "submit", "esc", "back")
	case viewRegister:
		body = a.register.View(a.frame)
		help = " " + helpEntry("tab", "next") + helpBar("enter", "continue", "esc", "cancel")
	case viewMyPage:
		body = a.mypage.View(a.snap)
		help = " " + helpEntry("1-4", "tabs") + helpBar("r", "refresh", "c", "copy json", "o", "log out", "q", "quit")
	}

	if a.helpOpen {
		body = helpView(a.helpItems, a.helpCursor)
		help = " " + helpEntry("j/k", "nav") + helpBar("enter", "open", "esc", "close")
	}

	notice := ""
	if a.notice != "" {
		notice = " " + goldStyle.Render(a.notice)
	}

	chrome := 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar.String(), body, notice, help)
}

// statusLine summarizes the session under the logo.
func (a App) statusLine() string {
	s := statusStyle(a.snap.Status)
	switch a.snap.Status {
	case session.Initializing:
		return s.Render("checking session...")
	case session.Authenticated:
		return s.Render("●") + " " + normalStyle.Render(a.snap.User.DisplayName())
	case session.Error:
		return s.Render("signed out") + metaStyle.Render(" . "+client.Message(a.snap.Err))
	default:
		return s.Render("signed out")
	}
}

func center(s string, width int) string {
	pad := max((width-lipgloss.Width(s))/2, 0)
	return strings.Repeat(" ", pad) + s
}
