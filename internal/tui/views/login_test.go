package views

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/servicesaver/servicesaver/internal/tui"
)

func fill(m LoginModel, values ...string) LoginModel {
	for i, v := range values {
		m, _ = m.Update(keyMsg(v))
		if i < len(values)-1 {
			m, _ = m.Update(keyMsg("tab"))
		}
	}
	return m
}

func TestLoginCanSubmit(t *testing.T) {
	m := NewLoginModel(100, 30)
	if m.CanSubmit() {
		t.Fatal("empty form should not be submittable")
	}

	m = fill(m, "dana@example.com")
	if m.CanSubmit() {
		t.Fatal("form without password should not be submittable")
	}

	m, _ = m.Update(keyMsg("tab"))
	m, _ = m.Update(keyMsg("hunter22"))
	if !m.CanSubmit() {
		t.Fatal("filled sign-in form should be submittable")
	}

	m, _ = m.Update(keyMsg("ctrl+t"))
	if m.Mode() != ModeRegister {
		t.Fatalf("Mode() = %v, want ModeRegister", m.Mode())
	}
	if m.CanSubmit() {
		t.Error("register form needs the confirmation field")
	}
}

func TestLoginSubmitSignIn(t *testing.T) {
	m := fill(NewLoginModel(100, 30), " dana@example.com ", "hunter22")

	m, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("expected LoginSubmitMsg")
	}
	got, ok := cmd().(LoginSubmitMsg)
	if !ok {
		t.Fatal("expected LoginSubmitMsg")
	}
	want := LoginSubmitMsg{Email: "dana@example.com", Password: "hunter22"}
	if got != want {
		t.Errorf("submit = %+v, want %+v", got, want)
	}
	if !m.Submitting() {
		t.Error("submitting flag not set")
	}

	if _, cmd := m.Update(keyMsg("enter")); cmd != nil {
		t.Error("second submit while in flight should be ignored")
	}
}

func TestLoginEnterAdvancesFocus(t *testing.T) {
	m := NewLoginModel(100, 30)
	m, _ = m.Update(keyMsg("dana@example.com"))
	m, cmd := m.Update(keyMsg("enter"))
	if cmd != nil {
		t.Fatal("enter on a filled email field should move focus, not submit")
	}
	m, _ = m.Update(keyMsg("hunter22"))
	if !m.CanSubmit() {
		t.Error("password was not typed into the second field")
	}
}

func TestLoginSubmitRegister(t *testing.T) {
	m := NewLoginModel(100, 30)
	m, _ = m.Update(keyMsg("ctrl+t"))
	m = fill(m, "dana@example.com", "hunter22", "hunter23")

	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("expected LoginSubmitMsg")
	}
	got := cmd().(LoginSubmitMsg)
	want := LoginSubmitMsg{Email: "dana@example.com", Password: "hunter22", Confirm: "hunter23", Register: true}
	if got != want {
		t.Errorf("submit = %+v, want %+v", got, want)
	}
}

func TestLoginAuthErrorResetsPasswords(t *testing.T) {
	m := fill(NewLoginModel(100, 30), "dana@example.com", "wrong")
	m, _ = m.Update(keyMsg("enter"))

	m, _ = m.Update(tui.AuthErrorMsg{Err: errors.New("invalid password")})
	if m.Submitting() {
		t.Error("submitting flag should clear on failure")
	}
	if m.CanSubmit() {
		t.Error("password should be cleared after a failed sign-in")
	}

	m, _ = m.Update(keyMsg("again"))
	if !m.CanSubmit() {
		t.Error("focus should return to the password field")
	}
}

func TestLoginView(t *testing.T) {
	m := NewLoginModel(100, 30)
	if view := m.View(); !strings.Contains(view, "Welcome Back") || strings.Contains(view, "Confirm") {
		t.Errorf("sign-in view unexpected:\n%s", view)
	}

	m, _ = m.Update(keyMsg("ctrl+t"))
	if view := m.View(); !strings.Contains(view, "Create Account") || !strings.Contains(view, "Confirm") {
		t.Errorf("register view unexpected:\n%s", view)
	}

	m, _ = m.Update(tea.WindowSizeMsg{Width: 30, Height: 20})
	if m.View() == "" {
		t.Error("narrow view should still render")
	}
}
