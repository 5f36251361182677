package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/deathbattle/internal/multiplayer"
	"github.com/vovakirdan/deathbattle/internal/storage"
)

// Leaderboard layout constants
const (
	maxRecords = 100 // Max records to load
)

// RecordSource is the part of storage.Store the leaderboard reads.
type RecordSource interface {
	Leaderboard(ctx context.Context, kind multiplayer.Kind, ranked bool, limit int) ([]storage.Record, error)
}

// board is one selectable leaderboard tab.
type board struct {
	Title  string
	Kind   multiplayer.Kind
	Ranked bool
}

var boards = []board{
	{"Ranked Deathbattle", multiplayer.KindDuel, true},
	{"Casual Deathbattle", multiplayer.KindDuel, false},
	{"Russian Roulette", multiplayer.KindElimination, false},
}

// LeaderboardKeyMap defines the key bindings for the leaderboard.
type LeaderboardKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextBoard key.Binding
	PrevBoard key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k LeaderboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextBoard, k.PrevBoard, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k LeaderboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextBoard, k.PrevBoard},
		{k.Quit},
	}
}

// DefaultLeaderboardKeyMap returns default key bindings.
func DefaultLeaderboardKeyMap() LeaderboardKeyMap {
	return LeaderboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextBoard: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next board"),
		),
		PrevBoard: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev board"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// LeaderboardModel is the Bubble Tea model for the leaderboard screen.
type LeaderboardModel struct {
	source   RecordSource
	cursor   int // Currently selected board
	records  []storage.Record
	loadErr  error
	table    table.Model
	help     help.Model
	keys     LeaderboardKeyMap
	width    int
	height   int
	quitting bool
}

// NewLeaderboardModel creates a leaderboard opened on the board for kind and
// ranked.
func NewLeaderboardModel(source RecordSource, kind multiplayer.Kind, ranked bool, width, height int) LeaderboardModel {
	h := help.New()
	h.ShowAll = false

	m := LeaderboardModel{
		source: source,
		keys:   DefaultLeaderboardKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	for i, b := range boards {
		if b.Kind == kind && (b.Ranked == ranked || kind == multiplayer.KindElimination) {
			m.cursor = i
			break
		}
	}

	m.table = m.createTable()
	m.loadRecords()
	return m
}

// createTable creates a new table with appropriate columns.
func (m *LeaderboardModel) createTable() table.Model {
	nameWidth := 20
	if w := m.width - 50; w > nameWidth {
		nameWidth = min(w, 32)
	}
	columns := []table.Column{
		{Title: "Rank", Width: 6},
		{Title: "Fighter", Width: nameWidth},
		{Title: "W", Width: 5},
		{Title: "L", Width: 5},
		{Title: "Win %", Width: 7},
		{Title: "Score", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(3, m.height-8)), // Leave room for header, help, and margins
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadRecords loads records for the selected board.
func (m *LeaderboardModel) loadRecords() {
	m.records, m.loadErr = nil, nil
	if m.source != nil {
		b := boards[m.cursor]
		m.records, m.loadErr = m.source.Leaderboard(context.Background(), b.Kind, b.Ranked, maxRecords)
	}
	m.updateTableRows()
}

// updateTableRows updates the table with current records.
func (m *LeaderboardModel) updateTableRows() {
	rows := make([]table.Row, len(m.records))
	for i, r := range m.records {
		name := r.Name
		if name == "" {
			name = string(r.ParticipantID)
		}
		rows[i] = table.Row{
			fmt.Sprintf("#%d", i+1),
			name,
			fmt.Sprintf("%d", r.Wins),
			fmt.Sprintf("%d", r.Losses),
			fmt.Sprintf("%.0f%%", r.WinRate()*100),
			fmt.Sprintf("%.2f", r.Score),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the leaderboard model.
func (m LeaderboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the leaderboard.
func (m LeaderboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextBoard):
			m.cursor = (m.cursor + 1) % len(boards)
			m.loadRecords()
			return m, nil

		case key.Matches(msg, m.keys.PrevBoard):
			m.cursor = (m.cursor + len(boards) - 1) % len(boards)
			m.loadRecords()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the leaderboard.
func (m LeaderboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("LEADERBOARD", m.width)))
	b.WriteString("\n\n")

	tabs := make([]string, len(boards))
	for i, bd := range boards {
		if i == m.cursor {
			tabs[i] = promptStyle.Render(bd.Title)
		} else {
			tabs[i] = mutedStyle.Render(" " + bd.Title + " ")
		}
	}
	b.WriteString(centerText(strings.Join(tabs, " "), m.width))
	b.WriteString("\n\n")

	b.WriteString(panelStyle.Render(m.renderTableContent()))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// renderTableContent renders the table or an empty message.
func (m LeaderboardModel) renderTableContent() string {
	if m.loadErr != nil {
		return errorStyle.Render("Could not load records: " + m.loadErr.Error())
	}
	if len(m.records) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return emptyStyle.Render("No battles recorded yet.\nFight one to claim the top spot!")
	}
	return m.table.View()
}

// Board returns the title of the selected board.
func (m LeaderboardModel) Board() string {
	return boards[m.cursor].Title
}
