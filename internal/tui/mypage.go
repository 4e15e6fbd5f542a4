package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/investa/internal/session"
	"github.com/naveenspark/investa/pkg/client"
	"github.com/naveenspark/investa/pkg/domain"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

type profileRefreshedMsg struct {
	err error
}

type copyResultMsg struct {
	err error
}

// mypageModel shows the signed-in profile. It reads the user from the session
// on every render and never caches it.
type mypageModel struct {
	sess       *session.Session
	api        API
	refreshing bool
	flash      string
	flashErr   bool
	width      int
	height     int
}

func newMypageModel(sess *session.Session, api API) mypageModel {
	return mypageModel{sess: sess, api: api}
}

func (m mypageModel) Update(msg tea.Msg) (mypageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case profileRefreshedMsg:
		m.refreshing = false
		if errors.Is(msg.err, session.ErrSuperseded) {
			return m, nil
		}
		if msg.err != nil {
			m.flash, m.flashErr = client.Message(msg.err), true
		} else {
			m.flash, m.flashErr = "profile refreshed", false
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.flash, m.flashErr = "copy failed: "+msg.err.Error(), true
		} else {
			m.flash, m.flashErr = "profile JSON copied", false
		}
		return m, nil

	case tea.KeyMsg:
		snap, err := session.RequireAuth(m.sess)
		if err != nil {
			return m, nil
		}
		switch msg.String() {
		case "r":
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, m.refresh(snap.Token)
		case "c":
			user := *snap.User
			return m, func() tea.Msg {
				data, err := json.MarshalIndent(user, "", "  ")
				if err != nil {
					return copyResultMsg{err: err}
				}
				return copyResultMsg{err: writeClipboard(string(data))}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

// refresh re-fetches the profile for token. A rejected token ends the session,
// but only if it is still the session's token when the answer arrives.
func (m mypageModel) refresh(token string) tea.Cmd {
	sess, api := m.sess, m.api
	return func() tea.Msg {
		user, err := api.Me(context.Background(), token)
		if err != nil {
			if errors.Is(err, client.ErrTokenInvalid) {
				if expErr := sess.Expire(token); expErr != nil {
					return profileRefreshedMsg{err: expErr}
				}
			}
			return profileRefreshedMsg{err: err}
		}
		return profileRefreshedMsg{err: sess.RefreshUser(token, *user)}
	}
}

// reset drops refresh and flash state that belonged to an earlier session.
func (m mypageModel) reset() mypageModel {
	m.refreshing = false
	m.flash, m.flashErr = "", false
	return m
}

func (m mypageModel) View(snap session.Snapshot) string {
	if snap.Status == session.Initializing {
		return "\n " + goldStyle.Render("Checking your saved session...")
	}
	if !snap.Authenticated() {
		return "\n " + dimStyle.Render("Not signed in.")
	}
	u := snap.User

	var sb strings.Builder
	sb.WriteString("\n " + selectedStyle.Render(truncStr(u.DisplayName(), 32)) + "\n\n")
	row := func(label, value string) {
		sb.WriteString("   " + labelStyle.Render(label) + normalStyle.Render(value) + "\n")
	}
	row("member no.", "#"+itoa(int(u.ID)))
	row("phone", domain.MaskPhone(u.PhoneNumber))
	row("type", u.Type.Label())
	row("kyc", u.KYCStatus.Label())
	if u.Active {
		row("account", "active")
	} else {
		row("account", "inactive")
	}
	if joined, ok := u.Joined(); ok {
		row("joined", joined.Format("2006-01-02"))
	}

	data, err := json.MarshalIndent(u, "", "  ")
	if err == nil {
		sb.WriteString("\n " + sectionHeaderStyle.Render("raw profile") + "\n")
		block := codeBlockStyle.Render(string(data))
		for _, line := range strings.Split(block, "\n") {
			sb.WriteString(" " + line + "\n")
		}
	}

	switch {
	case m.refreshing:
		sb.WriteString(" " + dimStyle.Render("refreshing...") + "\n")
	case m.flash != "" && m.flashErr:
		sb.WriteString(" " + errorStyle.Render(m.flash) + "\n")
	case m.flash != "":
		sb.WriteString(" " + okStyle.Render(m.flash) + "\n")
	}
	return sb.String()
}
