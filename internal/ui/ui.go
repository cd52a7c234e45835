// Package ui is the terminal frontend: a message list, a detail pane and a
// command prompt. It talks to the core only through its public APIs and owns
// no protocol state of its own.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"simcpdlc/internal/bus"
	"simcpdlc/internal/session"
	"simcpdlc/internal/simbrief"
	"simcpdlc/internal/store"
)

const (
	headerHeight = 1
	statusHeight = 1
	inputHeight  = 1
	detailHeight = 7
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("63"))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("57"))
	ackMarkStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))
)

// Deps wires the model to the application core.
type Deps struct {
	Logger  zerolog.Logger
	Store   *store.Store
	Session *session.Session
	Bus     bus.MessageBus
	// Events delivers bus payloads (InboundMessage, Notice) to the UI.
	Events bus.Subscription
	// Connect establishes the relay session and starts polling.
	Connect func(ctx context.Context, callsign string) error
	// Disconnect drops the relay session.
	Disconnect func()
	Connected func() bool
	// FlightPlan returns the fetched SimBrief plan, nil when unavailable.
	FlightPlan func() *simbrief.OFP
	Version    string
}

// coreEvent carries a bus payload into the bubbletea loop.
type coreEvent struct {
	payload any
}

// actionResult reports the outcome of an executed command.
type actionResult struct {
	notice string
	err    error
	quit   bool
}

type Model struct {
	deps Deps

	width    int
	height   int
	input    string
	selected int
	status   string
}

func New(deps Deps) Model {
	return Model{
		deps:     deps,
		width:    80,
		height:   24,
		selected: -1,
		status:   "Type 'connect <callsign>' to begin. 'quit' exits.",
	}
}

func (m Model) Init() tea.Cmd {
	return m.listenEvents()
}

// listenEvents waits for the next bus payload.
func (m Model) listenEvents() tea.Cmd {
	return func() tea.Msg {
		payload, ok := <-m.deps.Events
		if !ok {
			return tea.Quit()
		}
		return coreEvent{payload: payload}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case coreEvent:
		switch payload := msg.payload.(type) {
		case bus.InboundMessage:
			m.selected = payload.ID
			m.status = m.ackHint(payload.ID)
		case bus.Notice:
			m.status = payload.Text
		}
		return m, m.listenEvents()

	case actionResult:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.deps.Logger.Error().Err(msg.err).Msg("command failed")
			return m, nil
		}
		if msg.quit {
			return m, tea.Quit
		}
		if msg.notice != "" {
			m.status = msg.notice
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		input := m.input
		m.input = ""
		return m, m.execute(input)
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil
	case "up":
		m.moveSelection(-1)
		return m, nil
	case "down":
		m.moveSelection(1)
		return m, nil
	default:
		if msg.Type == tea.KeyRunes {
			m.input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.input += " "
		}
		return m, nil
	}
}

func (m *Model) moveSelection(delta int) {
	entries := m.deps.Store.Entries()
	if len(entries) == 0 {
		return
	}

	idx := 0
	for i, e := range entries {
		if e.ID == m.selected {
			idx = i
			break
		}
	}

	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(entries) {
		idx = len(entries) - 1
	}
	m.selected = entries[idx].ID
	m.status = m.ackHint(m.selected)
}

// ackHint builds a status line for a selected message, listing the allowed
// responses when one is still owed.
func (m Model) ackHint(id int) string {
	entry, ok := m.deps.Store.Get(id)
	if !ok || entry.Protocol == nil {
		return ""
	}

	needs, responses := m.deps.Store.NeedsAcknowledgement(*entry.Protocol)
	if !needs {
		return ""
	}
	return fmt.Sprintf("Message %d needs response: ack %d %s", id, id, strings.Join(responses, "|"))
}

// execute parses and runs one prompt line. Network work happens inside the
// returned command so the UI loop never blocks on the relay.
func (m Model) execute(input string) tea.Cmd {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	cmd, err := ParseCommand(input)
	if err != nil {
		return func() tea.Msg { return actionResult{err: err} }
	}

	deps := m.deps
	return func() tea.Msg {
		ctx := context.Background()

		switch cmd.Name {
		case "quit":
			return actionResult{quit: true}

		case "connect":
			callsign := strings.ToUpper(cmd.Args[0])
			if err := deps.Connect(ctx, callsign); err != nil {
				return actionResult{err: err}
			}
			deps.Store.AddSynthetic("Connected as "+callsign, "")
			return actionResult{notice: "Connected as " + callsign}

		case "disconnect":
			deps.Disconnect()
			deps.Store.AddSynthetic("Disconnected from network", "")
			return actionResult{notice: "Disconnected"}

		case "logon":
			station := strings.ToUpper(cmd.Args[0])
			if err := deps.Session.Logon(ctx, station); err != nil {
				return actionResult{err: err}
			}
			deps.Store.AddSynthetic("Logon request sent to "+station, "")
			return actionResult{notice: "Logon request sent to " + station}

		case "logoff":
			station, err := deps.Session.Logoff(ctx)
			if err != nil {
				return actionResult{err: err}
			}
			deps.Store.AddSynthetic("Logged off from "+station, "")
			deps.Bus.Publish(bus.TopicSession, bus.SessionEvent{Station: "", LoggedOn: false})
			return actionResult{notice: "Logged off from " + station}

		case "climb", "descend":
			altitude, reason := AltitudeReason(cmd.Args)
			altitude = strings.ToUpper(altitude)
			isClimb := cmd.Name == "climb"
			if err := deps.Session.SendAltitudeChangeRequest(ctx, altitude, isClimb, reason); err != nil {
				return actionResult{err: err}
			}
			text := requestText(altitude, isClimb, reason)
			deps.Store.AddSynthetic(text, deps.Session.Callsign())
			deps.Bus.Publish(bus.TopicOutbound, bus.OutboundMessage{Recipient: deps.Session.CurrentStation(), Text: text})
			return actionResult{notice: "Request sent"}

		case "telex":
			recipient := strings.ToUpper(cmd.Args[0])
			text := strings.Join(cmd.Args[1:], " ")
			if err := deps.Session.SendTelex(ctx, recipient, text); err != nil {
				return actionResult{err: err}
			}
			deps.Store.AddSynthetic("TELEX to "+recipient+": "+text, deps.Session.Callsign())
			deps.Bus.Publish(bus.TopicOutbound, bus.OutboundMessage{Recipient: recipient, Text: text})
			return actionResult{notice: "Telex sent to " + recipient}

		case "pdc":
			var origin, dest, aircraft, stand, atis string
			if len(cmd.Args) == 2 {
				if deps.FlightPlan == nil {
					return actionResult{err: fmt.Errorf("no flight plan source configured")}
				}
				ofp := deps.FlightPlan()
				if ofp == nil {
					return actionResult{err: fmt.Errorf("no SimBrief plan loaded; use the five-argument form")}
				}
				origin, dest = ofp.Origin.ICAO, ofp.Destination.ICAO
				aircraft = ofp.Aircraft.ICAOCode
				stand, atis = cmd.Args[0], cmd.Args[1]
			} else {
				origin, dest = strings.ToUpper(cmd.Args[0]), strings.ToUpper(cmd.Args[1])
				aircraft, stand, atis = cmd.Args[2], cmd.Args[3], cmd.Args[4]
			}
			if err := deps.Session.SendPdcRequest(ctx, origin, dest, aircraft, stand, atis); err != nil {
				return actionResult{err: err}
			}
			deps.Store.AddSynthetic("PDC requested from "+origin, deps.Session.Callsign())
			deps.Bus.Publish(bus.TopicOutbound, bus.OutboundMessage{Recipient: origin, Text: "PDC REQUEST"})
			return actionResult{notice: "PDC requested from " + origin}

		case "ack":
			id, _ := strconv.Atoi(cmd.Args[0])
			response := strings.ToUpper(cmd.Args[1])
			return ackAction(ctx, deps, id, response)
		}

		return actionResult{err: fmt.Errorf("unknown command %q", cmd.Name)}
	}
}

func ackAction(ctx context.Context, deps Deps, id int, response string) actionResult {
	entry, ok := deps.Store.Get(id)
	if !ok || entry.Protocol == nil {
		return actionResult{err: fmt.Errorf("no protocol message with id %d", id)}
	}

	msg := *entry.Protocol
	needs, responses := deps.Store.NeedsAcknowledgement(msg)
	if !needs {
		return actionResult{err: fmt.Errorf("message %d does not need a response", id)}
	}

	allowed := false
	for _, r := range responses {
		if r == response {
			allowed = true
			break
		}
	}
	if !allowed {
		return actionResult{err: fmt.Errorf("message %d allows: %s", id, strings.Join(responses, ", "))}
	}

	if err := deps.Session.SendAcknowledgement(ctx, msg.Sender, msg.Min, response); err != nil {
		return actionResult{err: err}
	}

	deps.Store.MarkAcknowledged(msg)
	deps.Store.AddSynthetic(response+" sent to "+msg.Sender, deps.Session.Callsign())
	deps.Bus.Publish(bus.TopicOutbound, bus.OutboundMessage{Recipient: msg.Sender, Text: response})
	return actionResult{notice: response + " sent to " + msg.Sender}
}

func requestText(altitude string, isClimb bool, reason string) string {
	direction := "DESCENT"
	if isClimb {
		direction = "CLIMB"
	}
	text := fmt.Sprintf("REQUEST %s TO %s", direction, altitude)
	if reason != "" {
		text += " DUE TO " + strings.ToUpper(reason)
	}
	return text
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.listView())
	b.WriteString("\n")
	b.WriteString(m.detailView())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(promptStyle.Render("> ") + m.input)

	return b.String()
}

func (m Model) headerView() string {
	connection := "offline"
	if m.deps.Connected != nil && m.deps.Connected() {
		connection = "online"
	}

	station := m.deps.Session.CurrentStation()
	if station == "" {
		station = "----"
	}
	callsign := m.deps.Session.Callsign()
	if callsign == "" {
		callsign = "--------"
	}

	title := fmt.Sprintf(" simcpdlc %s | %s | station %s | %s ", m.deps.Version, callsign, station, connection)
	return headerStyle.Width(m.width).Render(title)
}

func (m Model) listView() string {
	entries := m.deps.Store.Entries()

	rows := m.height - headerHeight - detailHeight - statusHeight - inputHeight - 4
	if rows < 3 {
		rows = 3
	}
	if len(entries) > rows {
		entries = entries[len(entries)-rows:]
	}

	var b strings.Builder
	for i, e := range entries {
		sender, text := m.deps.Store.DisplayText(e.ID)

		mark := " "
		if e.Protocol != nil {
			if needs, _ := m.deps.Store.NeedsAcknowledgement(*e.Protocol); needs {
				mark = ackMarkStyle.Render("!")
			}
		}

		line := fmt.Sprintf("%s %3d %-8s %s", mark, e.ID, sender, text)
		if len(line) > m.width && m.width > 3 {
			line = line[:m.width-3] + "..."
		}
		if e.ID == m.selected {
			line = selectedStyle.Render(line)
		}

		b.WriteString(line)
		if i < len(entries)-1 {
			b.WriteString("\n")
		}
	}

	if len(entries) == 0 {
		b.WriteString(statusStyle.Render("  no messages yet"))
	}

	return b.String()
}

func (m Model) detailView() string {
	content := ""
	if m.selected >= 0 {
		content = m.deps.Store.DetailText(m.selected)
	}

	width := m.width - 4
	if width < 10 {
		width = 10
	}
	return detailStyle.Width(width).Height(detailHeight - 2).Render(content)
}
