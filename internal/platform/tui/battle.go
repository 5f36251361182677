package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/deathbattle/internal/combat"
	"github.com/vovakirdan/deathbattle/internal/fighter"
	"github.com/vovakirdan/deathbattle/internal/multiplayer"
)

// Battle screen layout constants
const (
	hpBarWidth    = 30
	minLogLines   = 5
	headerLines   = 12 // Title, two fighter panels, prompt and help
	tickPerSecond = 4
)

// BattleModel renders a live duel from a session's events.
type BattleModel struct {
	session *multiplayer.ChannelSession
	keys    BattleKeyMap
	help    help.Model
	bar     progress.Model
	width   int
	height  int

	// Consent state
	consent         *multiplayer.Consent
	consentDeadline time.Time
	now             time.Time

	// Battle state
	started bool
	ranked  bool
	seed    uint64
	f1, f2  fighter.Fighter
	turn    int

	lines  []string
	scroll int // Lines scrolled up from the bottom

	// Result state
	ended    bool
	summary  string
	outcome  *multiplayer.Outcome
	quitting bool
}

// NewBattleModel creates a battle screen reading from session.
func NewBattleModel(session *multiplayer.ChannelSession, width, height int) BattleModel {
	h := help.New()
	h.ShowAll = false
	return BattleModel{
		session: session,
		keys:    DefaultBattleKeyMap(),
		help:    h,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(hpBarWidth), progress.WithoutPercentage()),
		width:   width,
		height:  height,
		now:     time.Now(),
	}
}

// Init starts listening for session events.
func (m BattleModel) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.session.Events()), tickCmd(tickPerSecond))
}

// Update handles messages.
func (m BattleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

func (m BattleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.session.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Accept):
		if m.consent != nil {
			c := m.consent
			m.consent = nil
			return m, respond(c, multiplayer.Accept)
		}

	case key.Matches(msg, m.keys.Decline):
		if m.consent != nil {
			c := m.consent
			m.consent = nil
			return m, respond(c, multiplayer.Decline)
		}

	case key.Matches(msg, m.keys.Up):
		if m.scroll < len(m.lines)-1 {
			m.scroll++
		}

	case key.Matches(msg, m.keys.Down):
		if m.scroll > 0 {
			m.scroll--
		}
	}
	return m, nil
}

// apply folds one session event into the model.
func (m BattleModel) apply(evt multiplayer.SessionEvent) BattleModel {
	switch evt := evt.(type) {
	case multiplayer.ConsentRequestedEvent:
		m.consent = evt.Consent
		m.consentDeadline = evt.Deadline
		m.ranked = evt.Ranked
		m.log(promptStyle.Render(fmt.Sprintf("%s challenges %s to a ranked deathbattle!", evt.Inviter, evt.Target)))

	case multiplayer.ConsentResolvedEvent:
		m.consent = nil
		if !evt.Result.OK() {
			m.log(mutedStyle.Render("Invitation " + evt.Result.Status.String()))
		}

	case multiplayer.DuelStartedEvent:
		m.started = true
		m.ranked = evt.Ranked
		m.seed = evt.Seed
		m.f1, m.f2 = evt.Fighter1, evt.Fighter2
		first := m.nameOf(evt.FirstID)
		m.log(mutedStyle.Render(fmt.Sprintf("%s has the speed advantage and moves first.", first)))

	case multiplayer.TurnEvent:
		m.turn = evt.Battle.Turn
		m.f1.HP, m.f2.HP = evt.Battle.Fighter1HP, evt.Battle.Fighter2HP
		m.log(m.renderTurn(evt.Battle))

	case multiplayer.SessionEndedEvent:
		m.ended = true
		m.summary = NarrateEnd(evt)
		m.outcome = evt.Outcome
		if evt.Outcome != nil {
			if evt.Outcome.ForcedStop {
				m.log(mutedStyle.Render(fmt.Sprintf("The battle reached %d turns and was called.", evt.Outcome.Turns)))
			}
			m.log(NarrateDeath(evt.Outcome.LoserName, evt.Outcome.Turns))
		}
	}
	return m
}

func (m *BattleModel) log(line string) {
	m.lines = append(m.lines, line)
}

func (m BattleModel) nameOf(id string) string {
	switch id {
	case m.f1.ID:
		return m.f1.Name
	case m.f2.ID:
		return m.f2.Name
	}
	return id
}

func (m BattleModel) renderTurn(ev combat.BattleEvent) string {
	line := NarrateTurn(ev, m.nameOf(ev.AttackerID), m.nameOf(ev.DefenderID))
	switch {
	case ev.Crit && ev.Action == combat.ActionAttack:
		line = critStyle.Render(line)
	case ev.Action == combat.ActionAbility && ev.Healed > 0:
		line = healStyle.Render(line)
	case ev.Action == combat.ActionAbility:
		line = abilityStyle.Render(line)
	}
	return fmt.Sprintf("%s %s", statStyle.Render(fmt.Sprintf("T%02d", ev.Turn)), line)
}

// View renders the battle.
func (m BattleModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "DEATHBATTLE"
	if m.ranked {
		title = "RANKED DEATHBATTLE"
	}
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	if m.started {
		left := m.renderFighter(m.f1, fighter1Style)
		right := m.renderFighter(m.f2, fighter2Style)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
		b.WriteString("\n")
	}

	if m.consent != nil {
		b.WriteString(promptStyle.Render(fmt.Sprintf("Accept the ranked battle? y/n (%s left)",
			countdown(m.consentDeadline, m.now))))
		b.WriteString("\n")
	}

	b.WriteString(m.renderLog())
	b.WriteString("\n")

	if m.ended {
		b.WriteString(m.renderResult())
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m BattleModel) renderFighter(f fighter.Fighter, nameStyle lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(nameStyle.Render(f.Name))
	b.WriteString(statStyle.Render(fmt.Sprintf(" (%d%% aura)", f.Aura)))
	b.WriteString("\n")

	ratio := 0.0
	if f.MaxHP > 0 {
		ratio = float64(f.HP) / float64(f.MaxHP)
	}
	b.WriteString(m.bar.ViewAs(ratio))
	b.WriteString(fmt.Sprintf(" %d/%d\n", f.HP, f.MaxHP))

	b.WriteString(statStyle.Render(fmt.Sprintf("ATK %d  DEF %d  SPD %d  CRIT %.0f%%",
		f.Attack, f.Defense, f.Speed, f.CritChance*100)))
	b.WriteString("\n")
	b.WriteString(abilityStyle.Render(fmt.Sprintf("%s / %s", f.Abilities[0], f.Abilities[1])))

	return panelStyle.Render(b.String())
}

// renderLog shows the tail of the battle log that fits the window.
func (m BattleModel) renderLog() string {
	visible := max(minLogLines, m.height-headerLines)
	end := len(m.lines) - m.scroll
	start := max(0, end-visible)
	if end <= 0 {
		return ""
	}
	return strings.Join(m.lines[start:end], "\n")
}

func (m BattleModel) renderResult() string {
	if m.outcome == nil {
		return mutedStyle.Render("Session ended: " + m.summary)
	}
	o := m.outcome
	return winnerStyle.Render(fmt.Sprintf("%s wins after %d turns with %d/%d HP left! (seed %d)",
		o.WinnerName, o.Turns, o.WinnerHP, o.WinnerMaxHP, m.seed))
}

// Ended reports whether the session has finished.
func (m BattleModel) Ended() bool {
	return m.ended
}

// Outcome returns the result once the duel has completed.
func (m BattleModel) Outcome() *multiplayer.Outcome {
	return m.outcome
}
