package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to refresh countdowns.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(tickRate int) tea.Cmd {
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// countdown formats the time left until deadline, never negative.
func countdown(deadline, now time.Time) string {
	left := deadline.Sub(now).Round(time.Second)
	if left < 0 {
		left = 0
	}
	return left.String()
}
