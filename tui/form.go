// Package tui is the interactive form behind `appkit new --interactive`.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type (
	// Answers are the values the form starts from and returns.
	Answers struct {
		Name    string
		Edition string
		Key     string
		CPUs    int
		Memory  int
	}

	textField struct {
		label       string
		desc        string
		ti          textinput.Model
		numeric     bool
		highlighted bool
	}

	choiceField struct {
		label       string
		desc        string
		choices     []string
		chosen      int
		highlighted bool
	}

	formItem interface {
		ToggleHighlight()
		Cycle()
		Desc() string
		Update(tea.Msg) tea.Cmd
		View() string
	}

	Form struct {
		help      help.Model
		items     []formItem
		problem   string
		index     int
		navMode   bool
		submitted bool
		cancelled bool
	}

	navModeKeyMap struct{}

	inputModeKeyMap struct{}

	submitButtonKeyMap struct{}
)

const (
	fieldName = iota
	fieldEdition
	fieldCPUs
	fieldMemory
	fieldKey
)

var (
	ErrCancelled = errors.New("form cancelled")

	keys = struct {
		up     key.Binding
		down   key.Binding
		input  key.Binding
		finish key.Binding
		submit key.Binding
		cycle  key.Binding
		help   key.Binding
		quit   key.Binding
	}{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		input: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "edit"),
		),
		finish: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "finish input"),
		),
		submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "create project"),
		),
		cycle: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x", "next choice"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}

	palette = struct {
		magenta lipgloss.Color
		red     lipgloss.Color
	}{
		magenta: lipgloss.Color("212"),
		red:     lipgloss.Color("196"),
	}

	highlightedStyle = lipgloss.NewStyle().Foreground(palette.magenta)
	problemStyle     = lipgloss.NewStyle().Foreground(palette.red)
)

func (navModeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.help, keys.quit}
}

func (navModeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.up, keys.down, keys.input, keys.cycle},
		{keys.help, keys.quit},
	}
}

func (inputModeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.finish, keys.quit}
}

func (inputModeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.finish, keys.quit},
	}
}

func (submitButtonKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.submit, keys.quit}
}

func (submitButtonKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.up, keys.down, keys.submit},
		{keys.help, keys.quit},
	}
}

func cursor(highlighted bool) string {
	if highlighted {
		return highlightedStyle.Render("> ")
	}

	return "  "
}

func newTextField(label, desc, value string, numeric bool) *textField {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 32
	ti.Prompt = " "
	ti.SetValue(value)

	return &textField{label: label, desc: desc, ti: ti, numeric: numeric}
}

func (f *textField) ToggleHighlight() {
	f.highlighted = !f.highlighted
}

func (f *textField) Cycle() {}

func (f *textField) Desc() string {
	return f.desc
}

func (f *textField) View() string {
	style := lipgloss.NewStyle()
	if f.highlighted {
		style = highlightedStyle
	}

	return cursor(f.highlighted) + style.Render(f.label+":") + f.ti.View()
}

func (f *textField) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, keys.input) {
		if !f.ti.Focused() {
			return f.ti.Focus()
		}

		f.ti.Blur()

		return nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && f.numeric && keyMsg.Type == tea.KeyRunes {
		for _, r := range keyMsg.Runes {
			if r < '0' || r > '9' {
				return nil
			}
		}
	}

	f.ti, cmd = f.ti.Update(msg)

	return cmd
}

func (f *textField) value() string {
	return strings.TrimSpace(f.ti.Value())
}

func (c *choiceField) ToggleHighlight() {
	c.highlighted = !c.highlighted
}

func (c *choiceField) Cycle() {
	c.chosen = (c.chosen + 1) % len(c.choices)
}

func (c *choiceField) Desc() string {
	return c.desc
}

func (c *choiceField) View() string {
	var b strings.Builder

	style := lipgloss.NewStyle()
	if c.highlighted {
		style = highlightedStyle
	}

	b.WriteString(cursor(c.highlighted))
	b.WriteString(style.Render(c.label + ":"))

	for i, choice := range c.choices {
		if i == c.chosen {
			b.WriteString(" (x) " + choice)
		} else {
			b.WriteString(" ( ) " + choice)
		}
	}

	return b.String()
}

func (c *choiceField) Update(tea.Msg) tea.Cmd {
	return nil
}

func (c *choiceField) value() string {
	return c.choices[c.chosen]
}

func itoa(n int) string {
	if n <= 0 {
		return ""
	}

	return strconv.Itoa(n)
}

// NewForm builds the form pre-filled with a. editions is the list of selectable editions.
func NewForm(a Answers, editions []string) Form {
	edition := &choiceField{
		label:   "Edition",
		desc:    "Enterprise projects also need a license key.",
		choices: editions,
	}

	for i, e := range editions {
		if e == a.Edition {
			edition.chosen = i
		}
	}

	m := Form{
		help:    help.New(),
		navMode: true,
		items: []formItem{
			newTextField("Name", "The application name; it becomes the directory and identifier.", a.Name, false),
			edition,
			newTextField("CPUs", "Number of CPUs for the development VM.", itoa(a.CPUs), true),
			newTextField("Memory (MB)", "Memory for the development VM.", itoa(a.Memory), true),
			newTextField("License key", "Leave empty to use the stored key.", a.Key, false),
		},
	}

	m.items[0].ToggleHighlight()

	return m
}

// Answers returns what the form currently holds. Empty numeric fields come back as 0.
func (m Form) Answers() Answers {
	text := func(i int) string {
		f, _ := m.items[i].(*textField)

		return f.value()
	}

	cpus, _ := strconv.Atoi(text(fieldCPUs))
	memory, _ := strconv.Atoi(text(fieldMemory))

	choice, _ := m.items[fieldEdition].(*choiceField)

	return Answers{
		Name:    text(fieldName),
		Edition: choice.value(),
		Key:     text(fieldKey),
		CPUs:    cpus,
		Memory:  memory,
	}
}

func (m Form) Submitted() bool {
	return m.submitted
}

func (m Form) Cancelled() bool {
	return m.cancelled
}

func (m Form) validate() string {
	if m.Answers().Name == "" {
		return "a name is required"
	}

	return ""
}

func (m Form) Init() tea.Cmd {
	return nil
}

func (m Form) View() string {
	if m.submitted || m.cancelled {
		return ""
	}

	var b strings.Builder

	b.WriteString("Let's create an AppKit application!\n\n")

	if m.index < len(m.items) {
		b.WriteString(m.items[m.index].Desc())
	}

	b.WriteString("\n\n")

	for i := range m.items {
		b.WriteString(m.items[i].View())
		b.WriteRune('\n')
	}

	b.WriteRune('\n')
	b.WriteString(cursor(m.index == len(m.items)))

	if m.index == len(m.items) {
		b.WriteString(highlightedStyle.Render("[ Create ]"))
	} else {
		b.WriteString("[ Create ]")
	}

	if m.problem != "" {
		b.WriteString("  " + problemStyle.Render(m.problem))
	}

	b.WriteString("\n\n")

	switch {
	case m.navMode && m.index == len(m.items):
		b.WriteString(m.help.View(submitButtonKeyMap{}))
	case m.navMode:
		b.WriteString(m.help.View(navModeKeyMap{}))
	default:
		b.WriteString(m.help.View(inputModeKeyMap{}))
	}

	b.WriteRune('\n')

	return b.String()
}

func (m *Form) move(delta int) {
	next := m.index + delta
	if next < 0 || next > len(m.items) {
		return
	}

	if m.index < len(m.items) {
		m.items[m.index].ToggleHighlight()
	}

	if next < len(m.items) {
		m.items[next].ToggleHighlight()
	}

	m.index = next
}

func (m *Form) navModeUpdate(msg tea.KeyMsg) tea.Cmd {
	onButton := m.index == len(m.items)

	switch {
	case key.Matches(msg, keys.up):
		m.move(-1)
	case key.Matches(msg, keys.down):
		m.move(1)
	case onButton:
		return nil
	case key.Matches(msg, keys.cycle):
		m.items[m.index].Cycle()
	case key.Matches(msg, keys.input):
		if _, ok := m.items[m.index].(*textField); !ok {
			return nil
		}

		m.navMode = false
		m.help.ShowAll = false

		return m.items[m.index].Update(msg)
	}

	return nil
}

func (m Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.quit):
			m.cancelled = true

			return m, tea.Quit
		case m.index == len(m.items) && key.Matches(msg, keys.submit):
			if m.problem = m.validate(); m.problem != "" {
				return m, nil
			}

			m.submitted = true

			return m, tea.Quit
		case m.navMode && key.Matches(msg, keys.help):
			m.help.ShowAll = !m.help.ShowAll

			return m, nil
		case m.navMode:
			cmd = m.navModeUpdate(msg)

			return m, cmd
		case key.Matches(msg, keys.finish):
			cmd = m.items[m.index].Update(msg)
			m.navMode = true

			return m, cmd
		}
	}

	if m.index < len(m.items) {
		cmd = m.items[m.index].Update(msg)
	}

	return m, cmd
}

// Run shows the form on out, reading keys from in, and returns the submitted answers.
func Run(ctx context.Context, in io.Reader, out io.Writer, a Answers, editions []string) (Answers, error) {
	p := tea.NewProgram(NewForm(a, editions), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))

	final, err := p.Run()
	if err != nil {
		return Answers{}, fmt.Errorf("failed to run the project form: %w", err)
	}

	m, ok := final.(Form)
	if !ok || !m.Submitted() {
		return Answers{}, ErrCancelled
	}

	return m.Answers(), nil
}
