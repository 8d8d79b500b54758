package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/triovision/erpauth"
)

const (
	resetEmail = iota
	resetOTP
	resetNew
	resetConfirm
)

type (
	resetStepMsg struct {
		notice *erpauth.Notice
		err    error
	}
	resetDoneMsg struct {
		result *erpauth.ResetResult
		err    error
	}
	resetClosedMsg struct{}
)

// ResetModel drives an [erpauth.PasswordReset] through its three steps.
// Esc cancels at any point.
type ResetModel struct {
	ctx    context.Context
	reset  *erpauth.PasswordReset
	fields focusGroup
	styles Styles
	status status
	done   bool
}

// NewResetModel opens a forgot-password modal for client.
func NewResetModel(ctx context.Context, client *erpauth.Client) ResetModel {
	return ResetModel{
		ctx:   ctx,
		reset: client.NewPasswordReset(),
		fields: newFocusGroup(
			newInput("you@triovisioninternational.com", false),
			newInput("6-digit code", false),
			newInput("New password", true),
			newInput("Confirm password", true),
		),
		styles: DefaultStyles(),
	}
}

// Init waits for the modal to close, whether by cancel or after success.
func (m ResetModel) Init() tea.Cmd {
	return waitClosed(m.reset)
}

func waitClosed(p *erpauth.PasswordReset) tea.Cmd {
	return func() tea.Msg {
		<-p.Closed()
		return resetClosedMsg{}
	}
}

// Done reports whether the password was changed.
func (m ResetModel) Done() bool {
	return m.done
}

// Step is the modal's current step.
func (m ResetModel) Step() erpauth.ResetStep {
	return m.reset.Step()
}

func (m ResetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resetClosedMsg:
		return m, tea.Quit

	case resetStepMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, erpauth.ErrStaleResponse) {
				m.status = status{text: erpauth.UserMessage(msg.err), kind: statusErr}
			}
			return m, nil
		}
		m.status = status{text: msg.notice.Message, kind: statusOK}
		m.syncFocus()
		return m, nil

	case resetDoneMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, erpauth.ErrStaleResponse) {
				m.status = status{text: erpauth.UserMessage(msg.err), kind: statusErr}
			}
			return m, nil
		}
		m.done = true
		m.status = status{text: msg.result.Message, kind: statusOK}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.reset.Cancel()
			return m, nil
		case "tab", "down", "shift+tab", "up":
			if m.reset.Step() == erpauth.ResetStepReset {
				m.fields.focus(resetNew + (m.fields.index-resetNew+1)%2)
			}
			return m, nil
		case "ctrl+r":
			if m.reset.Step() == erpauth.ResetStepOTP {
				return m.run(m.reset.SendOTP)
			}
		case "enter":
			return m.advance()
		}
	}

	cmd, changed := m.fields.update(msg)
	if changed {
		var err error
		switch m.fields.index {
		case resetEmail:
			err = m.reset.SetEmail(m.fields.value(resetEmail))
		case resetOTP:
			err = m.reset.SetOTP(m.fields.value(resetOTP))
		}
		if err != nil {
			m.status = status{text: erpauth.UserMessage(err), kind: statusErr}
		}
	}
	return m, cmd
}

func (m *ResetModel) syncFocus() {
	switch m.reset.Step() {
	case erpauth.ResetStepEmail:
		m.fields.focus(resetEmail)
	case erpauth.ResetStepOTP:
		m.fields.focus(resetOTP)
	case erpauth.ResetStepReset:
		m.fields.focus(resetNew)
	}
}

func (m ResetModel) advance() (tea.Model, tea.Cmd) {
	if m.done || m.reset.Busy() {
		return m, nil
	}
	switch m.reset.Step() {
	case erpauth.ResetStepEmail:
		return m.run(m.reset.SendOTP)
	case erpauth.ResetStepOTP:
		return m.run(m.reset.VerifyOTP)
	}
	if m.fields.index == resetNew {
		m.fields.focus(resetConfirm)
		return m, nil
	}
	m.status = status{text: "Updating password...", kind: statusInfo}
	p, ctx := m.reset, m.ctx
	pw, confirm := m.fields.value(resetNew), m.fields.value(resetConfirm)
	return m, func() tea.Msg {
		res, err := p.Submit(ctx, pw, confirm)
		return resetDoneMsg{result: res, err: err}
	}
}

func (m ResetModel) run(step func(context.Context) (*erpauth.Notice, error)) (tea.Model, tea.Cmd) {
	m.status = status{text: "Please wait...", kind: statusInfo}
	ctx := m.ctx
	return m, func() tea.Msg {
		n, err := step(ctx)
		return resetStepMsg{notice: n, err: err}
	}
}

func (m ResetModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Forgot password"))
	b.WriteString("\n")

	step := m.reset.Step()
	if m.done {
		step = -1
	}
	switch step {
	case erpauth.ResetStepEmail:
		b.WriteString(m.styles.field("Email", true, m.fields.inputs[resetEmail].View()))
	case erpauth.ResetStepOTP:
		b.WriteString(m.styles.Muted.Render("Code sent to " + m.reset.Draft().Email))
		b.WriteString("\n")
		b.WriteString(m.styles.field("OTP", true, m.fields.inputs[resetOTP].View()))
	case erpauth.ResetStepReset:
		b.WriteString(m.styles.field("New", m.fields.index == resetNew, m.fields.inputs[resetNew].View()))
		b.WriteString("\n")
		b.WriteString(m.styles.field("Confirm", m.fields.index == resetConfirm, m.fields.inputs[resetConfirm].View()))
	}
	b.WriteString("\n\n")
	if line := m.styles.renderStatus(m.status); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render("enter continue · ctrl+r resend · esc cancel"))
	return m.styles.Box.Render(b.String())
}
