package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/investa/internal/session"
	"github.com/naveenspark/investa/pkg/client"
	"github.com/naveenspark/investa/pkg/domain"
)

// signedInMsg reports the result of a login or registration. On success the
// session has already moved to Authenticated.
type signedInMsg struct {
	user *domain.User
	err  error
}

const (
	loginFieldPhone = iota
	loginFieldPassword
	loginFieldCount
)

type loginModel struct {
	sess       *session.Session
	api        API
	phone      string
	password   string
	focus      int
	submitting bool
	err        string
}

func newLoginModel(sess *session.Session, api API) loginModel {
	return loginModel{sess: sess, api: api}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signedInMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = client.Message(msg.err)
			m.password = ""
			m.focus = loginFieldPassword
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch key := msg.String(); key {
		case "tab", "down":
			m.focus = (m.focus + 1) % loginFieldCount
		case "shift+tab", "up":
			m.focus = (m.focus + loginFieldCount - 1) % loginFieldCount
		case "enter":
			if m.focus == loginFieldPhone {
				m.focus = loginFieldPassword
				return m, nil
			}
			return m.submit()
		default:
			if m.focus == loginFieldPhone {
				m.phone = editDigits(m.phone, key, domain.MaxPhoneDigits)
			} else {
				m.password = editDigits(m.password, key, domain.PasswordDigits)
			}
		}
	}
	return m, nil
}

// submit validates locally and, if the input is well formed, signs in.
func (m loginModel) submit() (loginModel, tea.Cmd) {
	phone := domain.NormalizePhone(m.phone)
	if err := domain.ValidatePhone(phone); err != nil {
		m.err = client.Message(err)
		m.focus = loginFieldPhone
		return m, nil
	}
	if err := domain.ValidatePassword(m.password); err != nil {
		m.err = client.Message(err)
		return m, nil
	}
	m.err = ""
	m.submitting = true
	sess, api, password := m.sess, m.api, m.password
	return m, func() tea.Msg {
		user, err := session.SignIn(context.Background(), sess, api, phone, password)
		return signedInMsg{user: user, err: err}
	}
}

func (m loginModel) View(frame int) string {
	s := "\n " + selectedStyle.Render("Sign in") + "\n\n"
	s += renderField("phone", domain.FormatPhone(m.phone), "010-1234-5678", m.focus == loginFieldPhone, false, frame) + "\n"
	s += renderField("password", m.password, "6 digits", m.focus == loginFieldPassword, true, frame) + "\n\n"
	switch {
	case m.submitting:
		s += " " + dimStyle.Render("signing in...") + "\n"
	case m.err != "":
		s += " " + errorStyle.Render(m.err) + "\n"
	}
	return s
}
