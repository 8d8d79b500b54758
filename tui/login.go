package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/triovision/erpauth"
)

const (
	loginIdentifier = iota
	loginPassword
)

type loginResultMsg struct {
	result *erpauth.LoginResult
	err    error
}

// LoginModel drives an [erpauth.LoginForm].
type LoginModel struct {
	ctx    context.Context
	form   *erpauth.LoginForm
	fields focusGroup
	styles Styles
	status status
	busy   bool
	result *erpauth.LoginResult
	quit   bool
}

// NewLoginModel creates a login screen for client.
func NewLoginModel(ctx context.Context, client *erpauth.Client) LoginModel {
	return LoginModel{
		ctx:    ctx,
		form:   client.LoginForm(),
		fields: newFocusGroup(newInput("Trio ID or email", false), newInput("Password", true)),
		styles: DefaultStyles(),
	}
}

func (m LoginModel) Init() tea.Cmd {
	return nil
}

// Result is the successful sign-in, or nil.
func (m LoginModel) Result() *erpauth.LoginResult {
	return m.result
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.busy = false
		m.fields.set(loginPassword, "")
		if msg.err != nil {
			if errors.Is(msg.err, erpauth.ErrStaleResponse) {
				return m, nil
			}
			m.status = status{text: erpauth.UserMessage(msg.err), kind: statusErr}
			if m.form.Locked() {
				m.fields.set(loginIdentifier, "")
			}
			return m, nil
		}
		m.result = msg.result
		m.status = status{text: msg.result.Message, kind: statusOK}
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		case "tab", "down":
			m.fields.move(1)
			return m, nil
		case "shift+tab", "up":
			m.fields.move(-1)
			return m, nil
		case "enter":
			return m.submit()
		}
		if m.form.Locked() {
			return m, nil
		}
	}

	cmd, changed := m.fields.update(msg)
	if changed {
		m.form.SetIdentifier(m.fields.value(loginIdentifier))
		m.form.SetPassword(m.fields.value(loginPassword))
	}
	return m, cmd
}

func (m LoginModel) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if m.fields.index == loginIdentifier && m.fields.value(loginPassword) == "" && !m.form.Locked() {
		m.fields.move(1)
		return m, nil
	}
	m.busy = true
	m.status = status{text: "Signing in...", kind: statusInfo}
	form, ctx := m.form, m.ctx
	return m, func() tea.Msg {
		res, err := form.Submit(ctx)
		return loginResultMsg{result: res, err: err}
	}
}

func (m LoginModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Trio ERP · Sign in"))
	b.WriteString("\n")

	if m.form.Locked() {
		b.WriteString(m.styles.Error.Render("Too many failed attempts. Login is locked."))
		b.WriteString("\n\n")
		b.WriteString("Contact support: " + m.form.ContactSupport())
		b.WriteString("\n\n")
		b.WriteString(m.styles.Muted.Render("esc quit"))
		return m.styles.Box.Render(b.String())
	}

	b.WriteString(m.styles.field("User ID", m.fields.index == loginIdentifier, m.fields.inputs[loginIdentifier].View()))
	b.WriteString("\n")
	b.WriteString(m.styles.field("Password", m.fields.index == loginPassword, m.fields.inputs[loginPassword].View()))
	b.WriteString("\n\n")
	if line := m.styles.renderStatus(m.status); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render(m.form.StatusLine()))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("tab next · enter sign in · esc quit"))
	return m.styles.Box.Render(b.String())
}
