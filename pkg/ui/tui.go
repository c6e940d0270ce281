// Package ui provides the Bubble Tea TUI for the arbitrage engine.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
	"github.com/fd1az/cycle-arb/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading modules
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

var startupOrder = []string{"config", "pricing", "detector"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	quotes        *components.QuotesComponent
	opportunities *components.OpportunitiesComponent
	stats         *components.StatsComponent
	status        *components.StatusComponent
	spinner       spinner.Model
	help          help.Model
	keys          KeyMap

	// Phase state
	phase        Phase
	welcomeStart time.Time
	startupSteps map[string]*StartupStep
	startupTime  time.Time
	onStart      func()

	// State
	quitting     bool
	paused       bool
	width        int
	lastUpdate   time.Time
	lastScanTime time.Time
	errors       []ErrorEntry // last 3
	activityFeed []string
}

// New creates a new TUI model for pair. onStart is invoked once, when the
// welcome screen completes.
func New(pair string, onStart func()) Model {
	now := time.Now()
	return Model{
		quotes:        components.NewQuotesComponent(pair),
		opportunities: components.NewOpportunitiesComponent(50, 6),
		stats:         components.NewStatsComponent(),
		status:        components.NewStatusComponent(),
		spinner:       spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(StatusConnected)),
		help:          help.New(),
		keys:          DefaultKeyMap(),
		phase:         PhaseWelcome,
		welcomeStart:  now,
		startupTime:   now,
		onStart:       onStart,
		startupSteps: map[string]*StartupStep{
			"config":   {Name: "Loading configuration", Status: "done"},
			"pricing":  {Name: "Connecting rate provider", Status: "pending"},
			"detector": {Name: "Starting detector", Status: "pending"},
		},
		errors:       make([]ErrorEntry, 0, 3),
		activityFeed: make([]string, 0, 8),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) advanceToStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	if m.onStart != nil {
		go m.onStart()
		m.onStart = nil
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			m.advanceToStartup()
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
		case key.Matches(msg, m.keys.Errors):
			m.errors = make([]ErrorEntry, 0, 3)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.advanceToStartup()
		}
		return m, tickCmd()

	case QuotesMsg:
		if m.paused || msg.Snapshot == nil {
			return m, nil
		}
		m.quotes.Update(quoteRows(msg.Snapshot))
		m.lastUpdate = time.Now()

	case ScanMsg:
		m.stats.Record(msg.Outcome, len(msg.Excluded), msg.Duration)
		m.lastScanTime = msg.At
		m.lastUpdate = time.Now()
		m.markRunning()
		if m.paused {
			return m, nil
		}

		m.quotes.MarkExcluded(msg.Excluded)
		if msg.BuyVenue != "" {
			m.quotes.SetSpread(&components.Spread{BuyVenue: msg.BuyVenue, SellVenue: msg.SellVenue, Bps: msg.SpreadBps})
		} else {
			m.quotes.SetSpread(nil)
		}
		m.activityFeed = addActivity(m.activityFeed, msg.At, describeScan(msg))

	case OpportunityMsg:
		if m.paused || msg.Opportunity == nil {
			return m, nil
		}
		m.opportunities.Add(opportunityRow(msg.Opportunity))
		m.lastUpdate = time.Now()

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Latency:    msg.Latency,
			LastUpdate: time.Now(),
		})
		m.lastUpdate = time.Now()

	case ErrorMsg:
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.activityFeed = addActivity(m.activityFeed, time.Now(), msg.Level+": "+msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		if m.startupComplete() && m.phase == PhaseStartup {
			m.phase = PhaseDashboard
		}
	}

	return m, nil
}

// markRunning moves past the startup screen once the first scan arrives.
func (m *Model) markRunning() {
	for _, step := range m.startupSteps {
		if step.Status != "failed" {
			step.Status = "done"
		}
	}
	if m.phase != PhaseWelcome {
		m.phase = PhaseDashboard
	}
}

func (m Model) startupComplete() bool {
	for _, step := range m.startupSteps {
		if step.Status != "connected" && step.Status != "done" {
			return false
		}
	}
	return true
}

func quoteRows(s *domain.QuoteSnapshot) []components.QuoteRow {
	quotes := s.Quotes()
	rows := make([]components.QuoteRow, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, components.QuoteRow{
			Venue:         string(q.Venue),
			Rate:          q.Rate,
			TradingFeePct: q.TradingFeePct,
			WithdrawalFee: q.WithdrawalFee,
			Excluded:      q.Validate() != nil,
		})
	}
	return rows
}

func opportunityRow(opp *domain.Opportunity) components.OpportunityRow {
	row := components.OpportunityRow{
		Time:       opp.DetectedAt.Format("15:04:05"),
		Path:       opp.Cycle.String(),
		Hops:       opp.Cycle.Hops(),
		Profitable: opp.IsProfitable(),
	}
	if opp.Profit != nil {
		row.ReturnBps = opp.Profit.ReturnBps
		row.PerUnit = opp.Profit.PerUnit
	}
	return row
}

func describeScan(msg ScanMsg) string {
	switch msg.Outcome {
	case "opportunity":
		return fmt.Sprintf("cycle found across %d venues", msg.Venues)
	case "no_cycle":
		return fmt.Sprintf("no cycle (%d venues, %d edges)", msg.Venues, msg.Edges)
	case "insufficient_venues":
		return fmt.Sprintf("only %d valid venue(s)", msg.Venues)
	default:
		if msg.Err != nil {
			return "scan failed: " + msg.Err.Error()
		}
		return "scan failed"
	}
}

// addActivity adds an activity message and returns the updated slice (keeps last 6).
func addActivity(feed []string, at time.Time, message string) []string {
	line := fmt.Sprintf("[%s] %s", at.Format("15:04:05"), message)
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Cycle Arbitrage "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.quotes.View()

	var right strings.Builder
	right.WriteString(m.renderActivityFeed())
	right.WriteString("\n\n")
	right.WriteString(m.opportunities.View())
	rightCol := right.String()

	width := m.width
	if width == 0 {
		width = 120
	}
	if width > 100 {
		left := BoxStyle.Width(width/2 - 2).Render(leftCol)
		r := BoxStyle.Width(width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, r))
	} else {
		b.WriteString(BoxStyle.Width(width - 4).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width - 4).Render(rightCol))
	}
	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(StatusDisconnected.Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(NegativeValue.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(PausedStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderActivityFeed() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("LIVE ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(MutedValue.Render("  Waiting for first scan..."))
		return sb.String()
	}
	for _, activity := range m.activityFeed {
		sb.WriteString(MutedValue.Render("  " + activity))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderWelcomeScreen() string {
	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	logo := `
    ██████╗██╗   ██╗ ██████╗██╗     ███████╗
   ██╔════╝╚██╗ ██╔╝██╔════╝██║     ██╔════╝
   ██║      ╚████╔╝ ██║     ██║     █████╗
   ██║       ╚██╔╝  ██║     ██║     ██╔══╝
   ╚██████╗   ██║   ╚██████╗███████╗███████╗
    ╚═════╝   ╚═╝    ╚═════╝╚══════╝╚══════╝
`
	var sb strings.Builder
	sb.WriteString("\n\n\n\n")
	sb.WriteString(LogoStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("          C R O S S - V E N U E   A R B I T R A G E"))
	sb.WriteString("\n\n\n")
	sb.WriteString(PositiveValue.Render(fmt.Sprintf("                  Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("            Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStartupScreen() string {

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(HeaderStyle.Render("  Cycle Arbitrage"))
	sb.WriteString("\n\n  Starting up...\n\n")

	for _, k := range startupOrder {
		step := m.startupSteps[k]

		var icon, statusText string
		var style lipgloss.Style
		switch step.Status {
		case "connected", "done":
			icon, statusText, style = "✓", "Ready", PositiveValue
		case "connecting":
			icon, statusText, style = m.spinner.View(), "Connecting...", WarningValue
		case "failed":
			icon, statusText, style = "✗", "Failed", StatusDisconnected
		default:
			icon, statusText, style = "○", "Pending", MutedValue
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			MutedValue.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if time.Since(m.lastScanTime) < time.Second {
		parts = append(parts, m.spinner.View()+StatusConnected.Render(" Scanning"))
	}
	if n := m.stats.Stats().Scans; n > 0 {
		parts = append(parts, PositiveValue.Render(fmt.Sprintf("Scans: %d", n)))
	}
	parts = append(parts, m.status.View())

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// NewProgram creates the program for pair and stores it in Program.
func NewProgram(pair string, onStart func()) *tea.Program {
	Program = tea.NewProgram(New(pair, onStart), tea.WithAltScreen())
	return Program
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
