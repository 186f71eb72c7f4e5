package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/muurk/bhkiosk/internal/discovery"
)

// Messages for async operations
type scanCompleteMsg struct {
	backends []*discovery.Backend
	err      error
}

// discoveryKeyMap defines key bindings for the server list
type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Back   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Enter}, {k.Rescan, k.Manual, k.Back}}
}

// manualModeKeyMap defines key bindings for manual URL entry
type manualModeKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (m manualModeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.Confirm, m.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (m manualModeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.Confirm, m.Cancel}}
}

func backendZoneID(i int) string {
	return fmt.Sprintf("backend:%d", i)
}

// DiscoveryModel finds the registration server on the local network
type DiscoveryModel struct {
	Scanning bool
	Backends []*discovery.Backend
	Cursor   int
	Err      error

	// Selected is the chosen server's base URL, set once the user picks one
	Selected string

	ManualMode bool
	URLInput   textinput.Model

	Width         int
	Height        int
	Spinner       spinner.Model
	ScanStartTime time.Time

	scanner    *discovery.Scanner
	back       bool
	help       help.Model
	keys       discoveryKeyMap
	manualKeys manualModeKeyMap
}

// NewDiscoveryModel creates the server finder. A nil scanner starts in
// manual entry.
func NewDiscoveryModel(scanner *discovery.Scanner) DiscoveryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "http://192.168.1.20:8000"
	input.CharLimit = 120
	input.Width = 40

	m := DiscoveryModel{
		URLInput: input,
		Spinner:  s,
		scanner:  scanner,
		help:     help.New(),
		keys: discoveryKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "use server")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter URL")),
			Back:   key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "menu")),
		},
		manualKeys: manualModeKeyMap{
			Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
			Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		},
	}
	if scanner == nil {
		m.startManual()
	} else {
		m.Scanning = true
		m.ScanStartTime = time.Now()
	}
	return m
}

// Init starts a scan when a scanner is available
func (m DiscoveryModel) Init() tea.Cmd {
	if m.scanner == nil {
		return textinput.Blink
	}
	return tea.Batch(scanBackends(m.scanner), m.Spinner.Tick)
}

// IsBackRequested reports whether the user asked to return to the menu
func (m DiscoveryModel) IsBackRequested() bool {
	return m.back
}

// Update handles messages and updates the model
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		m.Backends = msg.backends
		m.Cursor = 0
		return m, nil

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if m.ManualMode || m.Scanning {
			return m, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease {
			for i := range m.Backends {
				if z := zone.Get(backendZoneID(i)); z != nil && z.InBounds(msg) {
					m.Cursor = i
					m.Selected = m.Backends[i].BaseURL()
				}
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)
	}

	if m.ManualMode {
		var cmd tea.Cmd
		m.URLInput, cmd = m.URLInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m DiscoveryModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Manual):
		m.startManual()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Back):
		m.back = true
		return m, nil
	}

	if m.Scanning {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.Cursor < len(m.Backends)-1 {
			m.Cursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if len(m.Backends) > 0 {
			m.Selected = m.Backends[m.Cursor].BaseURL()
		}
	case key.Matches(msg, m.keys.Rescan):
		if m.scanner == nil {
			return m, nil
		}
		m.scanner.Invalidate()
		m.Backends = nil
		m.Err = nil
		m.Scanning = true
		m.ScanStartTime = time.Now()
		return m, tea.Batch(scanBackends(m.scanner), m.Spinner.Tick)
	}
	return m, nil
}

func (m DiscoveryModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.manualKeys.Cancel):
		m.ManualMode = false
		m.URLInput.Blur()
		if m.scanner == nil {
			m.back = true
		}
		return m, nil

	case key.Matches(msg, m.manualKeys.Confirm):
		value, err := normalizeBackendURL(m.URLInput.Value())
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.Err = nil
		m.ManualMode = false
		m.URLInput.Blur()
		m.Selected = value
		return m, nil
	}

	var cmd tea.Cmd
	m.URLInput, cmd = m.URLInput.Update(msg)
	return m, cmd
}

func (m *DiscoveryModel) startManual() {
	m.ManualMode = true
	m.Err = nil
	m.URLInput.SetValue("")
	m.URLInput.Focus()
}

// normalizeBackendURL accepts "host:port" or a full http(s) URL
func normalizeBackendURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("enter the registration server address")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%q is not a valid server address", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// View renders the screen content; the app wraps it in the container
func (m DiscoveryModel) View() string {
	switch {
	case m.ManualMode:
		return m.renderManualEntry()
	case m.Scanning:
		return m.renderScanning()
	default:
		return m.renderResults()
	}
}

// HelpView returns the footer help for the current mode
func (m DiscoveryModel) HelpView() string {
	if m.ManualMode {
		return m.help.View(m.manualKeys)
	}
	return m.help.View(m.keys)
}

func (m DiscoveryModel) renderScanning() string {
	elapsed := time.Since(m.ScanStartTime).Round(time.Second)
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR THE REGISTRATION SERVER"),
		SubtitleStyle.Render(fmt.Sprintf("Browsing %s on the local network… (%s)", discovery.ServiceType, elapsed)),
	)
}

func (m DiscoveryModel) renderResults() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Registration server"))
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(ErrorBoxStyle.Render(fmt.Sprintf("✗ Scan failed: %v", m.Err)))
		b.WriteString("\n\n")
	}

	if len(m.Backends) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Bold(true).
			Render("⚠ No registration server found on this network"))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Check the server is running and advertising " + discovery.ServiceName + "\n")
		b.WriteString("    • Check the kiosk is on the same network as the server\n")
		b.WriteString("    • Press m to type the server address instead\n")
		return b.String()
	}

	for i, backend := range m.Backends {
		line := fmt.Sprintf("%s  %s", backend.Instance, HintStyle.Render(backend.BaseURL()))
		if house := backend.BoardingHouse(); house > 0 {
			line += HintStyle.Render(fmt.Sprintf("  house %d", house))
		}
		b.WriteString(zone.Mark(backendZoneID(i), RenderMenuItem(line, i == m.Cursor)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m DiscoveryModel) renderManualEntry() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Registration server"))
	b.WriteString("\n")
	b.WriteString(RenderSubtitle("Enter the registration server address"))
	b.WriteString("\n\n  Address: ")
	b.WriteString(m.URLInput.View())
	b.WriteString("\n")
	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(InvalidFieldStyle.Render("  ✗ " + m.Err.Error()))
		b.WriteString("\n")
	}
	return b.String()
}

// scanBackends browses for registration servers
func scanBackends(scanner *discovery.Scanner) tea.Cmd {
	return func() tea.Msg {
		backends, err := scanner.Scan(context.Background())
		return scanCompleteMsg{backends: backends, err: err}
	}
}
