package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

// ConnectionStatus is one status report for a named source.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	Latency    time.Duration
	LastUpdate time.Time
}

type sourceState struct {
	ConnectionStatus
	lastOK   time.Time
	failures int // consecutive
}

// StatusComponent tracks the health of each quote source across reports.
type StatusComponent struct {
	sources []sourceState
	now     func() time.Time
}

// NewStatusComponent creates an empty status bar.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{now: time.Now}
}

// Update folds a report into the source's state.
func (s *StatusComponent) Update(status ConnectionStatus) {
	if status.LastUpdate.IsZero() {
		status.LastUpdate = s.now()
	}

	i := s.index(status.Name)
	if i < 0 {
		s.sources = append(s.sources, sourceState{})
		i = len(s.sources) - 1
	}

	st := &s.sources[i]
	st.ConnectionStatus = status
	if status.Connected {
		st.failures = 0
		st.lastOK = status.LastUpdate
	} else {
		st.failures++
	}
}

func (s *StatusComponent) index(name string) int {
	for i := range s.sources {
		if s.sources[i].Name == name {
			return i
		}
	}
	return -1
}

// Failures returns the consecutive failure count for name.
func (s *StatusComponent) Failures(name string) int {
	if i := s.index(name); i >= 0 {
		return s.sources[i].failures
	}
	return 0
}

// View renders the status component.
func (s *StatusComponent) View() string {
	if len(s.sources) == 0 {
		return "No connections"
	}

	parts := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		if src.Connected {
			line := upStyle.Render("●") + " " + src.Name
			if src.Latency > 0 {
				line += fmt.Sprintf(" (%s)", src.Latency.Round(time.Millisecond))
			}
			parts = append(parts, line)
			continue
		}

		line := downStyle.Render("○") + " " + src.Name + fmt.Sprintf(" (down x%d", src.failures)
		if !src.lastOK.IsZero() {
			line += fmt.Sprintf(", last ok %s ago", s.now().Sub(src.lastOK).Round(time.Second))
		}
		parts = append(parts, line+")")
	}

	return strings.Join(parts, "  │  ")
}
