package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"go.uber.org/zap"

	"github.com/muurk/bhkiosk/internal/discovery"
	"github.com/muurk/bhkiosk/internal/keypad"
	"github.com/muurk/bhkiosk/internal/logging"
	"github.com/muurk/bhkiosk/internal/registration"
	"github.com/muurk/bhkiosk/internal/wizard"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenMenu      Screen = "menu"
	ScreenDiscovery Screen = "discovery"
	ScreenForm      Screen = "form"
	ScreenSuccess   Screen = "success"
	ScreenFailure   Screen = "failure"
	ScreenDone      Screen = "done"
)

// Options configure the kiosk program
type Options struct {
	KioskName       string
	BoardingHouseID int
	Rooms           int

	// BackendURL is the registration server; empty opens the server finder
	BackendURL string
	Timeout    time.Duration

	// Backend replaces the HTTP client built from BackendURL
	Backend wizard.Backend

	// Scanner finds servers over mDNS; nil means manual entry only
	Scanner *discovery.Scanner

	// StartStep opens that step's form instead of the menu once a server
	// is known
	StartStep wizard.StepID
}

type menuItem struct {
	label string
	step  wizard.StepID
}

// menuItems lists what the kiosk offers; an empty step opens the server finder
var menuItems = []menuItem{
	{"Register as owner", wizard.StepOwner},
	{"Register as boarder", wizard.StepBoarder},
	{"Set up rooms", wizard.StepRooms},
	{"Change registration server", ""},
}

func menuZoneID(i int) string {
	return fmt.Sprintf("menu:%d", i)
}

// menuKeyMap defines key bindings for the start screen
type menuKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k menuKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k menuKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Select, k.Quit}}
}

// successKeyMap defines key bindings for the success screen
type successKeyMap struct {
	Continue key.Binding
	Menu     key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k successKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Continue, k.Menu, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k successKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Continue, k.Menu, k.Quit}}
}

// failureKeyMap defines key bindings for the failure screen
type failureKeyMap struct {
	Retry key.Binding
	Edit  key.Binding
	Menu  key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k failureKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Retry, k.Edit, k.Menu, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k failureKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Retry, k.Edit, k.Menu, k.Quit}}
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen  Screen
	PreviousScreen Screen

	MenuCursor     int
	DiscoveryModel DiscoveryModel
	FormModel      FormModel

	// BackendURL is the server submissions go to, "" until one is chosen
	BackendURL string

	// LastNext is the handoff from the most recent successful step
	LastNext wizard.NextStepInput
	LastStep wizard.Step
	// LastError is the most recent submission failure
	LastError error

	Width  int
	Height int

	opts        Options
	nav         *wizard.Navigator
	help        help.Model
	menuKeys    menuKeyMap
	successKeys successKeyMap
	failureKeys failureKeyMap
}

// NewAppModel creates the kiosk model. Without a backend it opens on the
// server finder.
func NewAppModel(opts Options) AppModel {
	m := AppModel{
		CurrentScreen: ScreenMenu,
		Width:         MinTerminalWidth + 8,
		Height:        MinTerminalHeight + 6,
		opts:          opts,
		help:          help.New(),
		menuKeys: menuKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
			Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "start")),
			Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		},
		successKeys: successKeyMap{
			Continue: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
			Menu:     key.NewBinding(key.WithKeys("m", "esc"), key.WithHelp("m", "menu")),
			Quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		},
		failureKeys: failureKeyMap{
			Retry: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
			Edit:  key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit entries")),
			Menu:  key.NewBinding(key.WithKeys("m", "esc"), key.WithHelp("m", "menu")),
			Quit:  key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		},
	}

	switch {
	case opts.Backend != nil:
		m.nav = wizard.NewNavigator(opts.Backend)
		m.BackendURL = opts.BackendURL
	case opts.BackendURL != "":
		m.useBackend(opts.BackendURL)
	default:
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(opts.Scanner)
	}

	if opts.StartStep != "" && m.nav != nil {
		m.FormModel = NewFormModel(m.stepFor(opts.StartStep), m.nav)
		m.CurrentScreen = ScreenForm
	}
	return m
}

func (m *AppModel) useBackend(baseURL string) {
	client := registration.NewClient(baseURL)
	if m.opts.Timeout > 0 {
		client.SetTimeout(m.opts.Timeout)
	}
	m.BackendURL = client.BaseURL
	m.nav = wizard.NewNavigator(client)
	logging.Info("Using registration server", zap.String("url", m.BackendURL))
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	if m.CurrentScreen == ScreenDiscovery {
		return m.DiscoveryModel.Init()
	}
	return nil
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.DiscoveryModel.Width, m.DiscoveryModel.Height = msg.Width, msg.Height
		m.FormModel.Width, m.FormModel.Height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case submitCompleteMsg:
		return m.handleSubmitComplete(msg)
	}

	return m.updateCurrentScreen(msg)
}

func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.CurrentScreen {
	case ScreenMenu:
		return m.updateMenu(msg)

	case ScreenDiscovery:
		updated, cmd := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)
		if m.DiscoveryModel.Selected != "" {
			m.useBackend(m.DiscoveryModel.Selected)
			return m.transitionTo(ScreenMenu)
		}
		if m.DiscoveryModel.IsBackRequested() {
			return m.transitionTo(ScreenMenu)
		}
		return m, cmd

	case ScreenForm:
		updated, cmd := m.FormModel.Update(msg)
		m.FormModel = updated.(FormModel)
		if m.FormModel.IsBackRequested() {
			return m.transitionTo(ScreenMenu)
		}
		return m, cmd

	case ScreenSuccess:
		return m.handleSuccessScreen(msg)

	case ScreenFailure:
		return m.handleFailureScreen(msg)

	case ScreenDone:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			if keyMsg.String() == "q" {
				return m, tea.Quit
			}
			return m.transitionTo(ScreenMenu)
		}
	}
	return m, nil
}

func (m AppModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.menuKeys.Up):
			if m.MenuCursor > 0 {
				m.MenuCursor--
			}
		case key.Matches(msg, m.menuKeys.Down):
			if m.MenuCursor < len(menuItems)-1 {
				m.MenuCursor++
			}
		case key.Matches(msg, m.menuKeys.Select):
			return m.selectMenuItem(m.MenuCursor)
		case key.Matches(msg, m.menuKeys.Quit):
			return m, tea.Quit
		}

	case tea.MouseMsg:
		if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
			return m, nil
		}
		for i := range menuItems {
			if z := zone.Get(menuZoneID(i)); z != nil && z.InBounds(msg) {
				m.MenuCursor = i
				return m.selectMenuItem(i)
			}
		}
	}
	return m, nil
}

func (m AppModel) selectMenuItem(i int) (tea.Model, tea.Cmd) {
	item := menuItems[i]
	if item.step == "" || m.nav == nil {
		return m.transitionTo(ScreenDiscovery)
	}
	return m.startStep(m.stepFor(item.step))
}

func (m AppModel) stepFor(id wizard.StepID) wizard.Step {
	switch id {
	case wizard.StepBoarder:
		return wizard.BoarderStep(m.opts.BoardingHouseID)
	case wizard.StepRooms:
		return wizard.RoomsStep(m.opts.BoardingHouseID, m.opts.Rooms)
	default:
		return wizard.OwnerStep()
	}
}

func (m AppModel) startStep(step wizard.Step) (tea.Model, tea.Cmd) {
	m.FormModel = NewFormModel(step, m.nav)
	m.FormModel.Width, m.FormModel.Height = m.Width, m.Height
	return m.transitionTo(ScreenForm)
}

// handleSubmitComplete moves to the success or failure screen. Validation
// failures stay on the form with the fields flagged.
func (m AppModel) handleSubmitComplete(msg submitCompleteMsg) (tea.Model, tea.Cmd) {
	updated, _ := m.FormModel.Update(msg)
	m.FormModel = updated.(FormModel)

	switch {
	case msg.err == nil:
		m.LastStep = m.FormModel.Step
		m.LastNext = msg.next
		m.LastError = nil
		if msg.next.Route == wizard.RouteDone {
			return m.transitionTo(ScreenDone)
		}
		return m.transitionTo(ScreenSuccess)

	case registration.IsValidationError(msg.err), errSubmitBusy(msg.err):
		return m, nil

	default:
		m.LastError = msg.err
		return m.transitionTo(ScreenFailure)
	}
}

func (m AppModel) handleSuccessScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.successKeys.Continue):
		if step, ok := m.nextStep(); ok {
			return m.startStep(step)
		}
		return m.transitionTo(ScreenMenu)
	case key.Matches(keyMsg, m.successKeys.Menu):
		return m.transitionTo(ScreenMenu)
	case key.Matches(keyMsg, m.successKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// nextStep maps the handoff route to a step this kiosk runs itself. The
// boarding house route continues with room setup; the guardian route is
// handled elsewhere.
func (m AppModel) nextStep() (wizard.Step, bool) {
	if m.LastNext.Route == wizard.RouteBoardingHouse {
		return wizard.RoomsStep(m.opts.BoardingHouseID, m.opts.Rooms), true
	}
	return wizard.Step{}, false
}

func (m AppModel) handleFailureScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.failureKeys.Retry):
		form, cmd := m.FormModel.Retry()
		m.FormModel = form
		model, _ := m.transitionTo(ScreenForm)
		return model, cmd
	case key.Matches(keyMsg, m.failureKeys.Edit):
		return m.transitionTo(ScreenForm)
	case key.Matches(keyMsg, m.failureKeys.Menu):
		return m.transitionTo(ScreenMenu)
	case key.Matches(keyMsg, m.failureKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m AppModel) transitionTo(screen Screen) (tea.Model, tea.Cmd) {
	m.PreviousScreen = m.CurrentScreen
	m.CurrentScreen = screen

	var cmd tea.Cmd
	switch screen {
	case ScreenDiscovery:
		m.DiscoveryModel = NewDiscoveryModel(m.opts.Scanner)
		m.DiscoveryModel.Width, m.DiscoveryModel.Height = m.Width, m.Height
		cmd = m.DiscoveryModel.Init()
	case ScreenMenu:
		m.FormModel.back = false
	}
	return m, cmd
}

// View renders the current screen inside the application container
func (m AppModel) View() string {
	var content, helpText string

	switch m.CurrentScreen {
	case ScreenMenu:
		content, helpText = m.buildMenuContent(), m.help.View(m.menuKeys)
	case ScreenDiscovery:
		content, helpText = m.DiscoveryModel.View(), m.DiscoveryModel.HelpView()
	case ScreenForm:
		content, helpText = m.FormModel.View(), m.FormModel.HelpView()
	case ScreenSuccess:
		content, helpText = m.buildSuccessContent(), m.help.View(m.successKeys)
	case ScreenFailure:
		content, helpText = m.buildFailureContent(), m.help.View(m.failureKeys)
	case ScreenDone:
		content, helpText = m.buildDoneContent(), "any key - back to menu • q - quit"
	default:
		content = "Unknown screen"
	}

	return zone.Scan(RenderApplicationContainer(m.opts.KioskName, content, helpText, m.Width, m.Height))
}

func (m AppModel) buildMenuContent() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Welcome"))
	b.WriteString("\n")

	server := "not set"
	if m.BackendURL != "" {
		server = m.BackendURL
	}
	b.WriteString(RenderSubtitle("Registration server: " + server))
	b.WriteString("\n\n")

	for i, item := range menuItems {
		b.WriteString(zone.Mark(menuZoneID(i), RenderMenuItem(item.label, i == m.MenuCursor)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m AppModel) buildSuccessContent() string {
	var b strings.Builder
	b.WriteString(RenderTitle("✓ " + m.LastStep.Title + " saved"))
	b.WriteString("\n")

	if m.LastNext.Key != "" {
		b.WriteString(SuccessBoxStyle.Render("Reference number: "+m.LastNext.ID.String()))
		b.WriteString("\n\n")
	}

	b.WriteString("Next: " + routeLabel(m.LastNext.Route))
	for k, v := range m.LastNext.Params() {
		b.WriteString(HintStyle.Render(fmt.Sprintf("  (%s=%s)", k, v)))
	}
	b.WriteString("\n\n")

	if _, ok := m.nextStep(); ok {
		b.WriteString(MenuItemStyle.Render("  Enter - Continue to room setup"))
	} else {
		b.WriteString(MenuItemStyle.Render("  Enter - Back to the start screen"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m AppModel) buildFailureContent() string {
	var b strings.Builder
	b.WriteString(RenderTitle("✗ " + m.FormModel.Step.Title + " was not saved"))
	b.WriteString("\n")

	if m.LastError != nil {
		b.WriteString(ErrorBoxStyle.Render(registration.ShortMessage(m.LastError)))
		b.WriteString("\n\n")
		b.WriteString(registration.TroubleshootingHint(m.LastError))
		b.WriteString("\n\n")
	}

	b.WriteString(HintStyle.Render("Your entries have been kept."))
	b.WriteString("\n\n")
	b.WriteString(MenuItemStyle.Render("  r - Try again"))
	b.WriteString("\n")
	b.WriteString(MenuItemStyle.Render("  e - Edit entries"))
	b.WriteString("\n")
	b.WriteString(MenuItemStyle.Render("  m - Start screen"))
	b.WriteString("\n")
	return b.String()
}

func (m AppModel) buildDoneContent() string {
	var b strings.Builder
	b.WriteString(RenderTitle("✓ Registration complete"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("Rooms saved for boarding house %d. Thank you!", m.opts.BoardingHouseID)))
	b.WriteString("\n\n")
	if rooms, ok := m.LastNext.Payload.([]registration.RoomRecord); ok {
		b.WriteString(ValueStyle.Render(registration.FormatRooms(rooms)))
	}
	return b.String()
}

func routeLabel(route string) string {
	switch route {
	case wizard.RouteBoardingHouse:
		return "boarding house registration"
	case wizard.RouteGuardian:
		return "guardian registration (at the front desk)"
	case wizard.RouteDone:
		return "finished"
	default:
		return route
	}
}

// KeypadSink forwards remote keypad events into the running program.
// Pass the program's Send method.
func KeypadSink(send func(tea.Msg)) keypad.Sink {
	return keypad.SinkFunc(func(ev keypad.Event) error {
		send(keypadMsg{event: ev})
		return nil
	})
}

// NewProgram creates the full-screen kiosk program with mouse support
func NewProgram(model AppModel, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}, opts...)...)
}
