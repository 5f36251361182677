// Package tui provides the Bubble Tea screens for the arena: live duels,
// roulette games and the leaderboard.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/deathbattle/internal/multiplayer"
)

// sessionClosedMsg is sent once a session's event channel has been drained.
type sessionClosedMsg struct{}

// waitForEvent returns a command that waits for the next session event.
func waitForEvent(events <-chan multiplayer.SessionEvent) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return sessionClosedMsg{}
		}
		evt, ok := <-events
		if !ok {
			return sessionClosedMsg{}
		}
		return evt
	}
}

// respond answers an invitation on behalf of both participants, the way a
// hot-seat terminal consents for the two players sitting at it. A decline
// only needs one voice.
func respond(c *multiplayer.Consent, d multiplayer.Decision) tea.Cmd {
	return func() tea.Msg {
		for _, p := range c.Participants() {
			//nolint:errcheck // A resolved invitation rejects late answers, which is fine
			c.Respond(p, d)
			if d == multiplayer.Decline {
				break
			}
		}
		return nil
	}
}

// Run starts the Bubble Tea program with the given model and returns the
// final model once the user quits.
func Run(model tea.Model, altScreen bool) (tea.Model, error) {
	var opts []tea.ProgramOption
	if altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, opts...)
	return p.Run()
}
