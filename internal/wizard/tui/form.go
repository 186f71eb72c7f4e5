package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/muurk/bhkiosk/internal/form"
	"github.com/muurk/bhkiosk/internal/keyboard"
	"github.com/muurk/bhkiosk/internal/keypad"
	"github.com/muurk/bhkiosk/internal/registration"
	"github.com/muurk/bhkiosk/internal/ui"
	"github.com/muurk/bhkiosk/internal/validation"
	"github.com/muurk/bhkiosk/internal/wizard"
)

// Messages for async operations
type submitCompleteMsg struct {
	step wizard.StepID
	next wizard.NextStepInput
	err  error
}

// keypadMsg carries a remote keypad event into the program
type keypadMsg struct {
	event keypad.Event
}

const (
	zoneSubmit = "form:submit"
	zoneBack   = "form:back"
)

func fieldZoneID(name string) string {
	return "field:" + name
}

// formKeyMap defines key bindings while the on-screen keyboard is closed
type formKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Edit   key.Binding
	Submit key.Binding
	Back   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Edit, k.Submit, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Edit}, {k.Submit, k.Back}}
}

// editKeyMap defines key bindings while typing into a field
type editKeyMap struct {
	Next  key.Binding
	Erase key.Binding
	Close key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k editKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Erase, k.Close}
}

// FullHelp returns keybindings for the expanded help view
func (k editKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Erase, k.Close}}
}

// FormModel is one wizard step: its fields, the on-screen keyboard and the
// submit button.
type FormModel struct {
	Step   wizard.Step
	Store  *form.Store
	Router *keyboard.Router

	// Cursor is the highlighted field while the keyboard is closed
	Cursor int

	// Submitting is set while the step's POST is in flight
	Submitting bool
	Spinner    spinner.Model

	// Err is the last validation failure, shown above the fields
	Err error

	Width  int
	Height int

	nav       *wizard.Navigator
	back      bool
	keys      formKeyMap
	editKeys  editKeyMap
	help      help.Model
	fieldRows int
}

// NewFormModel creates a form for step with a fresh store
func NewFormModel(step wizard.Step, nav *wizard.Navigator) FormModel {
	store := step.NewStore()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return FormModel{
		Step:    step,
		Store:   store,
		Router:  keyboard.New(store),
		Spinner: s,
		nav:     nav,
		help:    help.New(),
		keys: formKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "shift+tab", "k"), key.WithHelp("↑", "previous")),
			Down:   key.NewBinding(key.WithKeys("down", "tab", "j"), key.WithHelp("↓", "next")),
			Edit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "type")),
			Submit: key.NewBinding(key.WithKeys("ctrl+s", "s"), key.WithHelp("s", "submit")),
			Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "menu")),
		},
		editKeys: editKeyMap{
			Next:  key.NewBinding(key.WithKeys("enter", "tab"), key.WithHelp("enter", "next field")),
			Erase: key.NewBinding(key.WithKeys("backspace"), key.WithHelp("bksp", "erase")),
			Close: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close keyboard")),
		},
		fieldRows: 12,
	}
}

// Init implements tea.Model
func (m FormModel) Init() tea.Cmd {
	return nil
}

// IsBackRequested reports whether the user asked to leave the form
func (m FormModel) IsBackRequested() bool {
	return m.back
}

// Update implements tea.Model
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case submitCompleteMsg:
		if msg.step != m.Step.ID {
			return m, nil
		}
		m.Submitting = false
		m.Err = nil
		if registration.IsValidationError(msg.err) {
			m.Err = msg.err
			m.Store.Revalidate()
			m.moveCursorToFirstError()
		}
		return m, nil

	case keypadMsg:
		if m.Submitting {
			return m, nil
		}
		return m.handleKeypad(msg.event)

	case tea.MouseMsg:
		if m.Submitting {
			return m, nil
		}
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.Submitting {
			// Input is blocked until the submission resolves
			return m, nil
		}
		if m.Router.State() == keyboard.Editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

func (m FormModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	names := m.Store.Names()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.Cursor < len(names)-1 {
			m.Cursor++
		}
	case key.Matches(msg, m.keys.Edit):
		if len(names) > 0 {
			_ = m.Router.Focus(names[m.Cursor])
		}
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Back):
		m.back = true
	}
	return m, nil
}

// updateEditing routes a physical key press through the keyboard router,
// the same path on-screen and remote keys take
func (m FormModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.editKeys.Next):
		return m.press(keyboard.Key{Type: keyboard.KeyEnter})
	case key.Matches(msg, m.editKeys.Erase):
		return m.press(keyboard.Key{Type: keyboard.KeyDelete})
	case key.Matches(msg, m.editKeys.Close):
		return m.press(keyboard.Key{Type: keyboard.KeyClose})
	}

	switch msg.Type {
	case tea.KeySpace:
		return m.press(keyboard.Char(' '))
	case tea.KeyRunes:
		var cmd tea.Cmd
		model := tea.Model(m)
		for _, r := range msg.Runes {
			model, cmd = model.(FormModel).press(keyboard.Char(r))
		}
		return model, cmd
	}
	return m, nil
}

func (m FormModel) handleKeypad(ev keypad.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case keypad.TypeFocus:
		if err := m.Router.Focus(ev.Field); err == nil {
			m.syncCursor()
		}
		return m, nil
	case keypad.TypeClose:
		m.Router.Close()
		return m, nil
	case keypad.TypeKey:
		return m.press(ev.Key)
	}
	return m, nil
}

func (m FormModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	if m.Router.State() == keyboard.Editing {
		spec, _ := m.Store.Spec(m.Router.Current())
		for _, label := range keyLabels(layoutFor(spec.Kind)) {
			if z := zone.Get(keyZoneID(label)); z != nil && z.InBounds(msg) {
				return m.press(keyboard.ParseKey(label))
			}
		}
	}

	for i, name := range m.Store.Names() {
		if z := zone.Get(fieldZoneID(name)); z != nil && z.InBounds(msg) {
			m.Cursor = i
			_ = m.Router.Focus(name)
			return m, nil
		}
	}

	if z := zone.Get(zoneSubmit); z != nil && z.InBounds(msg) {
		return m.submit()
	}
	if z := zone.Get(zoneBack); z != nil && z.InBounds(msg) {
		m.back = true
	}
	return m, nil
}

// press hands one key to the router and reacts to what it did
func (m FormModel) press(k keyboard.Key) (tea.Model, tea.Cmd) {
	switch m.Router.Press(k) {
	case keyboard.ActionAdvance:
		m.syncCursor()
	case keyboard.ActionSubmit:
		return m.submit()
	}
	return m, nil
}

// submit starts the step's POST unless one is already running
func (m FormModel) submit() (tea.Model, tea.Cmd) {
	if m.Submitting || m.nav == nil || m.nav.Busy() {
		return m, nil
	}
	m.Router.Close()
	m.Submitting = true
	m.Err = nil
	return m, tea.Batch(m.Spinner.Tick, submitCmd(m.nav, m.Step, m.Store))
}

// Retry submits the form again with its current values
func (m FormModel) Retry() (FormModel, tea.Cmd) {
	model, cmd := m.submit()
	return model.(FormModel), cmd
}

func submitCmd(nav *wizard.Navigator, step wizard.Step, store *form.Store) tea.Cmd {
	return func() tea.Msg {
		next, err := nav.Submit(context.Background(), step, store)
		return submitCompleteMsg{step: step.ID, next: next, err: err}
	}
}

func (m *FormModel) syncCursor() {
	current := m.Router.Current()
	for i, name := range m.Store.Names() {
		if name == current {
			m.Cursor = i
			return
		}
	}
}

func (m *FormModel) moveCursorToFirstError() {
	for i, name := range m.Store.Names() {
		if m.Store.HasError(name) {
			m.Cursor = i
			return
		}
	}
}

// HelpView returns the footer help for the current mode
func (m FormModel) HelpView() string {
	if m.Submitting {
		return "Submitting… please wait"
	}
	if m.Router.State() == keyboard.Editing {
		return m.help.View(m.editKeys)
	}
	return m.help.View(m.keys)
}

// View renders the form without the application container
func (m FormModel) View() string {
	var b strings.Builder

	b.WriteString(RenderTitle(m.Step.Title))
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(WarningBoxStyle.Render("⚠ " + registration.ShortMessage(m.Err)))
		b.WriteString("\n\n")
	}

	editing := m.Router.State() == keyboard.Editing
	specs := m.Store.Specs()
	start, end := visibleWindow(m.Cursor, len(specs), m.visibleFields(editing))
	if start > 0 {
		b.WriteString(HintStyle.Render(fmt.Sprintf("  ↑ %d more", start)))
		b.WriteString("\n")
	}
	for _, spec := range specs[start:end] {
		b.WriteString(m.renderField(spec, editing))
		b.WriteString("\n")
	}
	if end < len(specs) {
		b.WriteString(HintStyle.Render(fmt.Sprintf("  ↓ %d more", len(specs)-end)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.Submitting {
		b.WriteString(m.Spinner.View() + " Sending to the registration server…")
	} else {
		submit := ButtonStyle.Render("Submit")
		if !m.Store.AllValid() {
			submit = DisabledButtonStyle.Render("Submit")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			zone.Mark(zoneSubmit, submit), "  ",
			zone.Mark(zoneBack, DisabledButtonStyle.Render("Back")),
		))
	}

	if editing {
		spec, _ := m.Store.Spec(m.Router.Current())
		b.WriteString("\n\n")
		b.WriteString(renderKeyboard(layoutFor(spec.Kind)))
	}

	return b.String()
}

func (m FormModel) renderField(spec form.Spec, editing bool) string {
	value := m.Store.Field(spec.Name)
	focused := editing && m.Router.Current() == spec.Name
	highlighted := !editing && m.Store.Names()[m.Cursor] == spec.Name

	label := spec.Label
	if spec.Required {
		label += " *"
	}

	var shown string
	switch {
	case focused:
		shown = FocusedFieldStyle.Render(value + "▌")
	case value == "" && spec.Placeholder != "":
		shown = PlaceholderStyle.Render(spec.Placeholder)
	case m.Store.HasError(spec.Name):
		shown = InvalidFieldStyle.Render(value)
	default:
		shown = ValueStyle.Render(value)
	}

	prefix := "  "
	if highlighted {
		prefix = CursorFieldStyle.Render("→ ")
	}
	line := zone.Mark(fieldZoneID(spec.Name), prefix+LabelStyle.Render(label)+" "+shown)

	if m.Store.HasError(spec.Name) {
		hint := ui.FieldHint(spec.Kind)
		if value == "" && spec.Required {
			hint = "Required"
		} else if spec.Kind == validation.Numeric && spec.Min > 0 {
			hint = fmt.Sprintf("At least %d", spec.Min)
		}
		if hint != "" {
			line += "\n" + FieldHintStyle.Render("✗ "+hint)
		}
	}
	return line
}

// visibleFields is how many field rows fit above the buttons
func (m FormModel) visibleFields(editing bool) int {
	if m.Height == 0 {
		return m.fieldRows
	}
	rows := m.Height - 14
	if editing {
		spec, _ := m.Store.Spec(m.Router.Current())
		rows -= keyboardHeight(layoutFor(spec.Kind))
	}
	if rows < 3 {
		rows = 3
	}
	return rows
}

// visibleWindow returns the [start, end) slice of n rows that keeps cursor
// in view with at most size rows shown
func visibleWindow(cursor, n, size int) (int, int) {
	if size <= 0 || n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}

// errSubmitBusy reports a submission that was refused because another is in flight
func errSubmitBusy(err error) bool {
	return errors.Is(err, wizard.ErrSubmitInProgress)
}
