package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/investa/internal/session"
	"github.com/naveenspark/investa/pkg/domain"
)

// healthPollInterval is how often the home view re-probes the backend.
const healthPollInterval = 30 * time.Second

type healthTickMsg time.Time

func healthTickCmd() tea.Cmd {
	return tea.Tick(healthPollInterval, func(t time.Time) tea.Msg {
		return healthTickMsg(t)
	})
}

type healthCheckedMsg struct {
	ok bool
	at time.Time
}

type homeModel struct {
	api      API
	checking bool
	checked  bool
	healthy  bool
	at       time.Time
	width    int
	height   int
}

func newHomeModel(api API) homeModel {
	return homeModel{api: api}
}

func (m homeModel) Init() tea.Cmd {
	return m.probe()
}

func (m homeModel) probe() tea.Cmd {
	api := m.api
	if api == nil {
		return nil
	}
	return func() tea.Msg {
		return healthCheckedMsg{ok: api.Health(context.Background()), at: time.Now()}
	}
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case healthCheckedMsg:
		m.checking = false
		m.checked = true
		m.healthy = msg.ok
		m.at = msg.at
		return m, healthTickCmd()

	case healthTickMsg:
		return m, m.probe()

	case tea.KeyMsg:
		if msg.String() == "r" && !m.checking {
			m.checking = true
			return m, m.probe()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m homeModel) View(snap session.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("\n")

	switch snap.Status {
	case session.Initializing:
		sb.WriteString(" " + goldStyle.Render("Checking your saved session...") + "\n")
	case session.Authenticated:
		sb.WriteString(" " + normalStyle.Render("Welcome back, ") + selectedStyle.Render(snap.User.DisplayName()) + "\n")
		sb.WriteString(" " + dimStyle.Render("Press 4 for your profile.") + "\n")
	default:
		sb.WriteString(" " + normalStyle.Render("You are not signed in.") + "\n")
		sb.WriteString(" " + dimStyle.Render("Press 2 to sign in or 3 to create an account.") + "\n")
	}

	sb.WriteString("\n " + sectionHeaderStyle.Render("backend") + "  ")
	switch {
	case m.checking || !m.checked:
		sb.WriteString(dimStyle.Render("checking..."))
	case m.healthy:
		sb.WriteString(okStyle.Render("● online"))
	default:
		sb.WriteString(errorStyle.Render("● unreachable"))
	}
	if m.checked {
		sb.WriteString(metaStyle.Render("  " + formatTime(m.at)))
	}
	sb.WriteString("\n")

	sb.WriteString("\n " + sectionHeaderStyle.Render("rules") + "    ")
	sb.WriteString(dimStyle.Render(
		"phone numbers are " + itoa(domain.MinPhoneDigits) + "-" + itoa(domain.MaxPhoneDigits) +
			" digits, passwords exactly " + itoa(domain.PasswordDigits) + " digits"))
	sb.WriteString("\n")
	return sb.String()
}
