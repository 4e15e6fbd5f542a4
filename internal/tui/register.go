package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/investa/internal/session"
	"github.com/naveenspark/investa/pkg/client"
	"github.com/naveenspark/investa/pkg/domain"
)

type registerStep int

const (
	stepPhone registerStep = iota
	stepCode
	stepPassword
)

const (
	regFieldPassword = iota
	regFieldConfirm
	regFieldName
	regFieldCount
)

type codeSentMsg struct {
	message string
	err     error
}

type codeVerifiedMsg struct {
	err error
}

// registerModel is the three-step sign-up wizard: phone, SMS code, then
// password with confirmation and an optional display name.
type registerModel struct {
	sess     *session.Session
	api      API
	step     registerStep
	phone    string
	code     string
	password string
	confirm  string
	name     string
	focus    int
	busy     bool
	info     string
	err      string
}

func newRegisterModel(sess *session.Session, api API) registerModel {
	return registerModel{sess: sess, api: api}
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case codeSentMsg:
		m.busy = false
		if msg.err != nil {
			m.err = client.Message(msg.err)
			return m, nil
		}
		m.err = ""
		m.info = msg.message
		m.step = stepCode
		return m, nil

	case codeVerifiedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = client.Message(msg.err)
			m.code = ""
			return m, nil
		}
		m.err = ""
		m.info = "phone verified"
		m.step = stepPassword
		m.focus = regFieldPassword
		return m, nil

	case signedInMsg:
		m.busy = false
		if msg.err != nil {
			m.err = client.Message(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m registerModel) handleKey(key string) (registerModel, tea.Cmd) {
	switch m.step {
	case stepPhone:
		if key == "enter" {
			return m.sendCode()
		}
		m.phone = editDigits(m.phone, key, domain.MaxPhoneDigits)

	case stepCode:
		switch key {
		case "enter":
			return m.verifyCode()
		case "ctrl+r":
			return m.sendCode()
		case "shift+tab":
			m.step = stepPhone
			m.code = ""
			m.info = ""
			m.err = ""
		default:
			m.code = editDigits(m.code, key, domain.CodeDigits)
		}

	case stepPassword:
		switch key {
		case "tab", "down":
			m.focus = (m.focus + 1) % regFieldCount
		case "shift+tab", "up":
			m.focus = (m.focus + regFieldCount - 1) % regFieldCount
		case "enter":
			if m.focus < regFieldName {
				m.focus++
				return m, nil
			}
			return m.submit()
		default:
			switch m.focus {
			case regFieldPassword:
				m.password = editDigits(m.password, key, domain.PasswordDigits)
			case regFieldConfirm:
				m.confirm = editDigits(m.confirm, key, domain.PasswordDigits)
			case regFieldName:
				m.name = editRune(m.name, key)
			}
		}
	}
	return m, nil
}

func (m registerModel) sendCode() (registerModel, tea.Cmd) {
	phone := domain.NormalizePhone(m.phone)
	if err := domain.ValidatePhone(phone); err != nil {
		m.err = client.Message(err)
		return m, nil
	}
	m.err = ""
	m.busy = true
	api := m.api
	return m, func() tea.Msg {
		resp, err := api.SendSMS(context.Background(), phone)
		if err != nil {
			return codeSentMsg{err: err}
		}
		text := resp.Message
		if text == "" {
			text = "verification code sent"
		}
		return codeSentMsg{message: text}
	}
}

func (m registerModel) verifyCode() (registerModel, tea.Cmd) {
	if err := domain.ValidateCode(m.code); err != nil {
		m.err = client.Message(err)
		return m, nil
	}
	m.err = ""
	m.busy = true
	api, phone, code := m.api, domain.NormalizePhone(m.phone), m.code
	return m, func() tea.Msg {
		_, err := api.VerifySMS(context.Background(), phone, code)
		return codeVerifiedMsg{err: err}
	}
}

func (m registerModel) submit() (registerModel, tea.Cmd) {
	if err := domain.ValidatePassword(m.password); err != nil {
		m.err = client.Message(err)
		m.focus = regFieldPassword
		return m, nil
	}
	if m.confirm != m.password {
		m.err = "passwords do not match"
		m.confirm = ""
		m.focus = regFieldConfirm
		return m, nil
	}
	m.err = ""
	m.busy = true
	sess, api := m.sess, m.api
	phone, password, name := domain.NormalizePhone(m.phone), m.password, strings.TrimSpace(m.name)
	return m, func() tea.Msg {
		user, err := session.SignUp(context.Background(), sess, api, phone, password, name)
		return signedInMsg{user: user, err: err}
	}
}

func (m registerModel) View(frame int) string {
	steps := []string{"phone", "verify", "password"}
	var header strings.Builder
	header.WriteString("\n " + selectedStyle.Render("Create account") + "   ")
	for i, s := range steps {
		label := itoa(i+1) + " " + s
		switch {
		case registerStep(i) == m.step:
			header.WriteString(accentStyle.Render(label))
		case registerStep(i) < m.step:
			header.WriteString(okStyle.Render(label))
		default:
			header.WriteString(metaStyle.Render(label))
		}
		if i < len(steps)-1 {
			header.WriteString(metaStyle.Render("  ›  "))
		}
	}
	out := header.String() + "\n\n"

	switch m.step {
	case stepPhone:
		out += renderField("phone", domain.FormatPhone(m.phone), "010-1234-5678", true, false, frame) + "\n"
	case stepCode:
		out += " " + metaStyle.Render("   "+domain.FormatPhone(m.phone)) + "\n"
		out += renderField("code", m.code, "6-digit code", true, false, frame) + "\n"
		out += " " + metaStyle.Render("   ctrl+r resend . shift+tab change number") + "\n"
	case stepPassword:
		out += renderField("password", m.password, "6 digits", m.focus == regFieldPassword, true, frame) + "\n"
		out += renderField("confirm", m.confirm, "repeat password", m.focus == regFieldConfirm, true, frame) + "\n"
		out += renderField("name", m.name, "optional", m.focus == regFieldName, false, frame) + "\n"
	}

	out += "\n"
	switch {
	case m.busy:
		out += " " + dimStyle.Render("working...") + "\n"
	case m.err != "":
		out += " " + errorStyle.Render(m.err) + "\n"
	case m.info != "":
		out += " " + okStyle.Render(m.info) + "\n"
	}
	return out
}
