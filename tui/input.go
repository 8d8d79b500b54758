package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func newInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 128
	in.Width = 36
	in.Prompt = ""
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

// focusGroup tracks which of a fixed set of inputs receives keystrokes.
type focusGroup struct {
	inputs []textinput.Model
	index  int
}

func newFocusGroup(inputs ...textinput.Model) focusGroup {
	g := focusGroup{inputs: inputs}
	if len(g.inputs) > 0 {
		g.inputs[0].Focus()
	}
	return g
}

func (g *focusGroup) move(delta int) {
	if len(g.inputs) == 0 {
		return
	}
	g.inputs[g.index].Blur()
	g.index = (g.index + delta + len(g.inputs)) % len(g.inputs)
	g.inputs[g.index].Focus()
}

func (g *focusGroup) focus(i int) {
	if i < 0 || i >= len(g.inputs) || i == g.index {
		return
	}
	g.move(i - g.index)
}

// update forwards msg to the focused input and reports whether its value changed.
func (g *focusGroup) update(msg tea.Msg) (tea.Cmd, bool) {
	if len(g.inputs) == 0 {
		return nil, false
	}
	before := g.inputs[g.index].Value()
	var cmd tea.Cmd
	g.inputs[g.index], cmd = g.inputs[g.index].Update(msg)
	return cmd, g.inputs[g.index].Value() != before
}

func (g *focusGroup) value(i int) string {
	return g.inputs[i].Value()
}

func (g *focusGroup) set(i int, v string) {
	g.inputs[i].SetValue(v)
	g.inputs[i].CursorEnd()
}
