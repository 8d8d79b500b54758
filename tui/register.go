package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/triovision/erpauth"
)

const (
	regTrioID = iota
	regUsername
	regEmail
	regOTP
	regPassword
)

type (
	regSendMsg struct {
		notice *erpauth.Notice
		err    error
	}
	regVerifyMsg struct {
		notice *erpauth.Notice
		err    error
	}
	regSubmitMsg struct {
		result *erpauth.RegistrationResult
		err    error
	}
)

// RegisterModel drives an [erpauth.Registration]. Enter on the email field
// sends the OTP, on the OTP field verifies it, and elsewhere submits.
type RegisterModel struct {
	ctx    context.Context
	reg    *erpauth.Registration
	fields focusGroup
	styles Styles
	status status
	result *erpauth.RegistrationResult
}

// NewRegisterModel creates a registration screen for client.
func NewRegisterModel(ctx context.Context, client *erpauth.Client) RegisterModel {
	reg := client.NewRegistration()
	m := RegisterModel{
		ctx: ctx,
		reg: reg,
		fields: newFocusGroup(
			newInput("Trio ID", false),
			newInput("Username", false),
			newInput("name@triovisioninternational.com", false),
			newInput("6-digit code", false),
			newInput("Password", true),
		),
		styles: DefaultStyles(),
	}
	m.fields.set(regTrioID, reg.Draft().TrioID)
	return m
}

func (m RegisterModel) Init() tea.Cmd {
	return nil
}

// Result is the completed registration, or nil.
func (m RegisterModel) Result() *erpauth.RegistrationResult {
	return m.result
}

func (m RegisterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case regSendMsg:
		return m.finish(msg.notice, msg.err), nil
	case regVerifyMsg:
		return m.finish(msg.notice, msg.err), nil
	case regSubmitMsg:
		if msg.err != nil {
			return m.finish(nil, msg.err), nil
		}
		m.result = msg.result
		m.status = status{text: msg.result.Message, kind: statusOK}
		return m, tea.Tick(msg.result.RedirectAfter, func(time.Time) tea.Msg { return tea.Quit() })

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			m.fields.move(1)
			return m, nil
		case "shift+tab", "up":
			m.fields.move(-1)
			return m, nil
		case "ctrl+r":
			return m.send()
		case "enter":
			switch m.fields.index {
			case regEmail:
				return m.send()
			case regOTP:
				return m.verify()
			default:
				return m.submit()
			}
		}
	}

	cmd, changed := m.fields.update(msg)
	if changed {
		m.apply(m.fields.index)
	}
	return m, cmd
}

// apply pushes the edited field into the registration and mirrors any
// normalization back into the input.
func (m *RegisterModel) apply(field int) {
	v := m.fields.value(field)
	var err error
	switch field {
	case regTrioID:
		m.reg.SetTrioID(v)
	case regUsername:
		m.reg.SetUsername(v)
	case regEmail:
		if out := m.reg.SetEmail(v); out != v {
			m.fields.set(regEmail, out)
		}
		m.fields.set(regUsername, m.reg.Draft().Username)
	case regOTP:
		err = m.reg.SetOTP(v)
	case regPassword:
		err = m.reg.SetPassword(v)
	}
	if err != nil {
		m.fields.set(field, "")
		m.status = status{text: erpauth.UserMessage(err), kind: statusErr}
	}
}

func (m RegisterModel) finish(notice *erpauth.Notice, err error) RegisterModel {
	if err != nil {
		if errors.Is(err, erpauth.ErrStaleResponse) {
			return m
		}
		m.status = status{text: erpauth.UserMessage(err), kind: statusErr}
		return m
	}
	m.status = status{text: notice.Message, kind: statusOK}
	if m.reg.Verified() {
		m.fields.focus(regPassword)
	} else if _, sent := m.reg.CanonicalEmail(); sent {
		m.fields.focus(regOTP)
	}
	return m
}

func (m RegisterModel) send() (tea.Model, tea.Cmd) {
	if !m.reg.CanSendOTP() {
		return m, nil
	}
	m.status = status{text: "Sending OTP...", kind: statusInfo}
	reg, ctx := m.reg, m.ctx
	return m, func() tea.Msg {
		n, err := reg.SendOTP(ctx)
		return regSendMsg{notice: n, err: err}
	}
}

func (m RegisterModel) verify() (tea.Model, tea.Cmd) {
	m.status = status{text: "Verifying...", kind: statusInfo}
	reg, ctx := m.reg, m.ctx
	return m, func() tea.Msg {
		n, err := reg.VerifyOTP(ctx)
		return regVerifyMsg{notice: n, err: err}
	}
}

func (m RegisterModel) submit() (tea.Model, tea.Cmd) {
	m.status = status{text: "Creating account...", kind: statusInfo}
	reg, ctx := m.reg, m.ctx
	return m, func() tea.Msg {
		res, err := reg.Submit(ctx)
		return regSubmitMsg{result: res, err: err}
	}
}

func (m RegisterModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Trio ERP · Create account"))
	b.WriteString("\n")

	labels := []string{"Trio ID", "Username", "Email", "OTP", "Password"}
	for i, label := range labels {
		view := m.fields.inputs[i].View()
		switch i {
		case regEmail:
			view += "  " + m.styles.Muted.Render("["+m.reg.SendLabel()+"]")
		case regOTP:
			if m.reg.Verified() {
				view += "  " + m.styles.Success.Render("verified")
			}
		case regPassword:
			if !m.reg.Verified() {
				view = m.styles.Muted.Render("verify your email first")
			}
		}
		b.WriteString(m.styles.field(label, m.fields.index == i, view))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if line := m.styles.renderStatus(m.status); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render("enter on email sends · ctrl+r resend · enter on OTP verifies · esc quit"))
	return m.styles.Box.Render(b.String())
}
