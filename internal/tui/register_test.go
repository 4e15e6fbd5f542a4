package tui

import (
	"strings"
	"testing"

	"github.com/naveenspark/investa/internal/session"
)

// toRegister opens the wizard and enters phone.
func toRegister(t *testing.T, phone string) (App, *session.Session, *fakeAPI) {
	t.Helper()
	a, sess, api := newTestApp(t)
	a, _ = press(t, a, "3")
	if a.view != viewRegister {
		t.Fatalf("expected register view, got %d", a.view)
	}
	return typeText(t, a, phone), sess, api
}

func TestRegisterWizard(t *testing.T) {
	a, sess, api := toRegister(t, "01098765432")

	a, cmd := press(t, a, "enter")
	a = deliver(t, a, cmd)
	if a.register.step != stepCode {
		t.Fatalf("step = %d, want code", a.register.step)
	}
	if len(api.sent) != 1 || api.sent[0] != "01098765432" {
		t.Errorf("sent = %v", api.sent)
	}
	if !strings.Contains(a.register.info, "010-9876-5432") {
		t.Errorf("info = %q", a.register.info)
	}

	a = typeText(t, a, "123456")
	a, cmd = press(t, a, "enter")
	a = deliver(t, a, cmd)
	if a.register.step != stepPassword {
		t.Fatalf("step = %d, want password", a.register.step)
	}

	a = typeText(t, a, "135790")
	a, _ = press(t, a, "enter")
	a = typeText(t, a, "135790")
	a, _ = press(t, a, "enter")
	a = typeText(t, a, "Park")
	a, cmd = press(t, a, "enter")
	a = deliver(t, a, cmd)

	snap := sess.Snapshot()
	if snap.Status != session.Authenticated || snap.Token != "new-token" {
		t.Fatalf("snapshot = %+v, want authenticated with new-token", snap)
	}
	if snap.User.Name != "Park" {
		t.Errorf("name = %q", snap.User.Name)
	}
	if a.view != viewMyPage {
		t.Errorf("expected my page after sign-up, got view=%d", a.view)
	}
}

func TestRegisterCodeMismatch(t *testing.T) {
	a, _, _ := toRegister(t, "01098765432")
	a, cmd := press(t, a, "enter")
	a = deliver(t, a, cmd)

	a = typeText(t, a, "000000")
	a, cmd = press(t, a, "enter")
	a = deliver(t, a, cmd)
	if a.register.step != stepCode {
		t.Errorf("step = %d, want to stay on code", a.register.step)
	}
	if a.register.err != "verification code does not match" {
		t.Errorf("err = %q", a.register.err)
	}
	if a.register.code != "" {
		t.Error("code should be cleared after a mismatch")
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	m := newRegisterModel(nil, nil)
	m.step = stepPassword
	m.phone = "01098765432"
	m.password = "135790"
	m.confirm = "135791"
	m.focus = regFieldName

	m, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Error("mismatched confirmation must not reach the network")
	}
	if m.err != "passwords do not match" || m.focus != regFieldConfirm || m.confirm != "" {
		t.Errorf("got err=%q focus=%d confirm=%q", m.err, m.focus, m.confirm)
	}
}

func TestRegisterPasswordRule(t *testing.T) {
	m := newRegisterModel(nil, nil)
	m.step = stepPassword
	m.password = "1234"
	m.confirm = "1234"
	m.focus = regFieldName

	m, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Error("short password must not reach the network")
	}
	if !strings.Contains(m.err, "exactly 6 digits") {
		t.Errorf("err = %q", m.err)
	}
}

func TestRegisterDuplicateAccount(t *testing.T) {
	a, sess, _ := toRegister(t, "0101234567")
	a, cmd := press(t, a, "enter")
	a = deliver(t, a, cmd)
	a = typeText(t, a, "123456")
	a, cmd = press(t, a, "enter")
	a = deliver(t, a, cmd)

	a = typeText(t, a, "123456")
	a, _ = press(t, a, "tab")
	a = typeText(t, a, "123456")
	a, _ = press(t, a, "tab")
	a, cmd = press(t, a, "enter")
	a = deliver(t, a, cmd)

	if !strings.Contains(a.register.err, "already exists") {
		t.Errorf("err = %q", a.register.err)
	}
	if sess.Snapshot().Status != session.Error {
		t.Errorf("status = %v, want error", sess.Snapshot().Status)
	}
}

func TestRegisterBackToPhone(t *testing.T) {
	a, _, _ := toRegister(t, "01098765432")
	a, cmd := press(t, a, "enter")
	a = deliver(t, a, cmd)
	a, _ = press(t, a, "shift+tab")
	if a.register.step != stepPhone {
		t.Errorf("step = %d, want phone", a.register.step)
	}
	if a.register.phone != "01098765432" {
		t.Error("phone should be kept when going back")
	}
}

func TestRegisterInvalidPhoneStaysLocal(t *testing.T) {
	a, _, api := toRegister(t, "0109")
	a, cmd := press(t, a, "enter")
	if cmd != nil {
		t.Error("invalid phone must not send an SMS")
	}
	if a.register.err == "" || len(api.sent) != 0 {
		t.Errorf("err=%q sent=%v", a.register.err, api.sent)
	}
}
