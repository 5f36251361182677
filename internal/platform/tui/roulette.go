package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/deathbattle/internal/multiplayer"
	"github.com/vovakirdan/deathbattle/internal/roulette"
)

// RouletteModel renders an elimination game. When player is set, that
// participant's moves are read from the keyboard and sent to moves.
type RouletteModel struct {
	session *multiplayer.ChannelSession
	player  multiplayer.ParticipantID
	moves   chan<- multiplayer.Move
	keys    RouletteKeyMap
	help    help.Model
	width   int
	height  int
	now     time.Time

	consent         *multiplayer.Consent
	consentDeadline time.Time

	names    map[multiplayer.ParticipantID]string
	state    roulette.State
	deadline time.Time
	myTurn   bool
	chamber  int

	lines    []string
	notice   string
	ended    bool
	summary  string
	outcome  *multiplayer.Outcome
	quitting bool
}

// NewRouletteModel creates a roulette screen. player may be empty to spectate.
func NewRouletteModel(session *multiplayer.ChannelSession, player multiplayer.ParticipantID, moves chan<- multiplayer.Move, width, height int) RouletteModel {
	h := help.New()
	h.ShowAll = false
	return RouletteModel{
		session: session,
		player:  player,
		moves:   moves,
		keys:    DefaultRouletteKeyMap(),
		help:    h,
		width:   width,
		height:  height,
		now:     time.Now(),
		names:   map[multiplayer.ParticipantID]string{},
		chamber: 1,
	}
}

// Init starts listening for session events.
func (m RouletteModel) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.session.Events()), tickCmd(tickPerSecond))
}

// Update handles messages.
func (m RouletteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		m.now = time.Time(msg)
		if m.ended {
			return m, nil
		}
		return m, tickCmd(tickPerSecond)

	case sessionClosedMsg:
		return m, nil

	case multiplayer.SessionEvent:
		m = m.apply(msg)
		if m.ended {
			return m, nil
		}
		return m, waitForEvent(m.session.Events())
	}
	return m, nil
}

func (m RouletteModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.session.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Accept), key.Matches(msg, m.keys.Decline):
		if m.consent == nil {
			return m, nil
		}
		d := multiplayer.Accept
		if key.Matches(msg, m.keys.Decline) {
			d = multiplayer.Decline
		}
		c := m.consent
		m.consent = nil
		return m, respond(c, d)

	case key.Matches(msg, m.keys.Shoot):
		return m.submit(roulette.ActionShoot)
	case key.Matches(msg, m.keys.ShootSelf):
		return m.submit(roulette.ActionShootSelf)
	case key.Matches(msg, m.keys.Pass):
		return m.submit(roulette.ActionPass)
	}
	return m, nil
}

func (m RouletteModel) submit(a roulette.Action) (tea.Model, tea.Cmd) {
	if !m.myTurn || m.moves == nil {
		return m, nil
	}
	if a == roulette.ActionShootSelf && !m.state.CanShootSelf {
		m.notice = "You cannot shoot yourself twice in a row."
		return m, nil
	}
	m.myTurn = false
	m.notice = ""
	mv := multiplayer.Move{Player: m.player, Action: a}
	moves := m.moves
	return m, func() tea.Msg {
		moves <- mv
		return nil
	}
}

func (m RouletteModel) apply(evt multiplayer.SessionEvent) RouletteModel {
	switch evt := evt.(type) {
	case multiplayer.ConsentRequestedEvent:
		m.consent = evt.Consent
		m.consentDeadline = evt.Deadline
		m.log(promptStyle.Render(fmt.Sprintf("%s challenges %s to Russian Roulette!", evt.Inviter, evt.Target)))

	case multiplayer.ConsentResolvedEvent:
		m.consent = nil
		if !evt.Result.OK() {
			m.log(mutedStyle.Render("Invitation " + evt.Result.Status.String()))
		}

	case multiplayer.EliminationStartedEvent:
		for id, name := range evt.Names {
			m.names[id] = name
		}
		m.log(mutedStyle.Render(fmt.Sprintf("One bullet, %d chambers. %s holds the gun.",
			roulette.Chambers, m.nameOf(string(evt.Inviter)))))

	case multiplayer.YourMoveEvent:
		m.state = evt.State
		m.chamber = evt.State.Chamber
		m.deadline = evt.Deadline
		m.myTurn = m.player != "" && evt.State.Player == string(m.player)

	case multiplayer.RoundEvent:
		ev := evt.Round
		m.myTurn = false
		line := NarrateRound(ev, m.nameOf(ev.PlayerID), m.nameOf(ev.OpponentID))
		if ev.Fired {
			line = critStyle.Render(line)
		}
		m.log(line)

	case multiplayer.MoveRejectedEvent:
		if evt.Player == m.player {
			m.notice = errorStyle.Render(rejection(evt.Err))
			m.myTurn = m.state.Player == string(m.player)
		}

	case multiplayer.SessionEndedEvent:
		m.ended = true
		m.myTurn = false
		m.summary = NarrateEnd(evt)
		m.outcome = evt.Outcome
	}
	return m
}

func rejection(err error) string {
	switch {
	case errors.Is(err, roulette.ErrNotYourTurn):
		return "It is not your turn."
	case errors.Is(err, roulette.ErrShootSelfLocked):
		return "You cannot shoot yourself twice in a row."
	}
	return err.Error()
}

func (m *RouletteModel) log(line string) {
	m.lines = append(m.lines, line)
}

func (m RouletteModel) nameOf(id string) string {
	if name, ok := m.names[multiplayer.ParticipantID(id)]; ok {
		return name
	}
	return id
}

// View renders the game.
func (m RouletteModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("RUSSIAN ROULETTE", m.width)))
	b.WriteString("\n\n")
	b.WriteString(panelStyle.Render(m.renderCylinder()))
	b.WriteString("\n")

	if m.consent != nil {
		b.WriteString(promptStyle.Render(fmt.Sprintf("Accept the game? y/n (%s left)", countdown(m.consentDeadline, m.now))))
		b.WriteString("\n")
	}

	visible := max(minLogLines, m.height-headerLines)
	start := max(0, len(m.lines)-visible)
	b.WriteString(strings.Join(m.lines[start:], "\n"))
	b.WriteString("\n")

	switch {
	case m.ended:
		b.WriteString(m.renderResult())
		b.WriteString("\n")
	case m.myTurn:
		b.WriteString(promptStyle.Render(fmt.Sprintf("Your move (%s left)", countdown(m.deadline, m.now))))
		b.WriteString("\n")
	case m.state.Player != "":
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Waiting for %s (%s left)", m.nameOf(m.state.Player), countdown(m.deadline, m.now))))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(m.notice)
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// renderCylinder draws spent chambers, the next chamber and the unknown rest.
func (m RouletteModel) renderCylinder() string {
	cells := make([]string, roulette.Chambers)
	for i := range cells {
		switch {
		case i+1 < m.chamber:
			cells[i] = mutedStyle.Render("o")
		case i+1 == m.chamber && !m.ended:
			cells[i] = winnerStyle.Render("?")
		default:
			cells[i] = "."
		}
	}
	if m.outcome != nil && m.outcome.Chamber > 0 {
		cells[m.outcome.Chamber-1] = critStyle.Render("*")
	}
	return "Chamber " + strings.Join(cells, " ")
}

func (m RouletteModel) renderResult() string {
	if m.outcome == nil {
		return mutedStyle.Render("Game ended: " + m.summary)
	}
	return winnerStyle.Render(fmt.Sprintf("%s survives! %s fell on chamber %d.",
		m.outcome.WinnerName, m.outcome.LoserName, m.outcome.Chamber))
}

// Outcome returns the result once the game has completed.
func (m RouletteModel) Outcome() *multiplayer.Outcome {
	return m.outcome
}
