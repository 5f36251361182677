package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/deathbattle/internal/fighter"
	"github.com/vovakirdan/deathbattle/internal/multiplayer"
	"github.com/vovakirdan/deathbattle/internal/platform/tui"
)

var (
	flagRanked bool
	flagWatch  bool
)

var duelCmd = &cobra.Command{
	Use:   "duel <fighter1> <fighter2>",
	Short: "Run a deathbattle between two fighters",
	Long: `Generate two fighters from their names and let them fight to the death.

Casual duels scale stats by each fighter's aura. Ranked duels use a fixed
scale for both fighters, ask both sides to accept, and count towards the
ranked leaderboard.

In watch mode the battle plays out in a full-screen view at the configured
pacing; y/n answers a ranked invitation. Otherwise the narration is printed
as the battle resolves.

Examples:
  arena duel alice bob
  arena duel alice bob --ranked
  arena duel alice bob --watch
  arena duel alice bob --seed 42`,
	Args: cobra.ExactArgs(2),
	RunE: runDuel,
}

func init() {
	duelCmd.Flags().BoolVar(&flagRanked, "ranked", false, "Run a ranked duel")
	duelCmd.Flags().BoolVar(&flagWatch, "watch", false, "Watch the battle in a full-screen view")
}

func runDuel(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	req := multiplayer.DuelRequest{
		Arena:     multiplayer.ArenaID(flagArena),
		Initiator: multiplayer.ParticipantID(args[0]),
		Fighter1:  multiplayer.ParticipantID(args[0]),
		Fighter2:  multiplayer.ParticipantID(args[1]),
		Ranked:    flagRanked,
	}

	if flagWatch && isTerminal() {
		return watchDuel(ctx, a, req)
	}

	res, err := a.coord.RunDuel(ctx, req, multiplayer.Tee(acceptAll(), newPrinter(os.Stdout)))
	if err != nil {
		return err
	}
	return sessionError(res)
}

func watchDuel(ctx context.Context, a *app, req multiplayer.DuelRequest) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := multiplayer.NewChannelSession(multiplayer.NewSessionID(), 16)
	done := make(chan ended, 1)
	go func() {
		res, err := a.coord.RunDuel(ctx, req, session)
		done <- ended{res, err}
	}()

	width, height := terminalSize()
	if _, err := tui.Run(tui.NewBattleModel(session, width, height), true); err != nil {
		session.Close()
		cancel()
		<-done
		return fmt.Errorf("run battle view: %w", err)
	}

	session.Close()
	cancel()
	return (<-done).err()
}

// acceptAll answers every invitation for both participants. The terminal
// running the command speaks for both fighters.
func acceptAll() multiplayer.EventSink {
	return multiplayer.SinkFunc(func(evt multiplayer.SessionEvent) {
		req, ok := evt.(multiplayer.ConsentRequestedEvent)
		if !ok {
			return
		}
		for _, p := range req.Consent.Participants() {
			//nolint:errcheck // A resolved invitation rejects late answers, which is fine
			req.Consent.Respond(p, multiplayer.Accept)
		}
	})
}

// ended is what a session goroutine hands back to a full-screen view.
type ended struct {
	res multiplayer.Result
	run error
}

// err is the command's exit error. Quitting a view mid-session abandons the
// session, which is not an error.
func (e ended) err() error {
	if errors.Is(e.run, context.Canceled) {
		return nil
	}
	if e.run != nil {
		return e.run
	}
	return sessionError(e.res)
}

// sessionError turns a session that ended without a winner into an error.
func sessionError(res multiplayer.Result) error {
	switch res.Status {
	case multiplayer.StatusCompleted:
		return nil
	case multiplayer.StatusBusy:
		return fmt.Errorf("session %s ended: %s: %s", res.SessionID, res.Status, res.Reason)
	default:
		return fmt.Errorf("session %s ended: %s", res.SessionID, res.Status)
	}
}

// printer writes session narration as plain text.
type printer struct {
	w     io.Writer
	names map[string]string
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, names: map[string]string{}}
}

func (p *printer) name(id string) string {
	if n, ok := p.names[id]; ok {
		return n
	}
	return id
}

func (p *printer) fighter(f fighter.Fighter) {
	fmt.Fprintf(p.w, "%-20s HP %3d  ATK %2d  DEF %2d  SPD %2d  aura %d%%  [%s / %s]\n",
		f.Name, f.MaxHP, f.Attack, f.Defense, f.Speed, f.Aura, f.Abilities[0], f.Abilities[1])
}

// Send implements multiplayer.EventSink.
func (p *printer) Send(evt multiplayer.SessionEvent) {
	switch evt := evt.(type) {
	case multiplayer.ConsentResolvedEvent:
		if !evt.Result.OK() {
			fmt.Fprintf(p.w, "Invitation %s\n", evt.Result.Status)
		}

	case multiplayer.DuelStartedEvent:
		f1, f2 := evt.Fighter1, evt.Fighter2
		p.names[f1.ID], p.names[f2.ID] = f1.Name, f2.Name
		p.fighter(f1)
		p.fighter(f2)
		fmt.Fprintf(p.w, "%s moves first. (seed %d)\n\n", p.name(evt.FirstID), evt.Seed)

	case multiplayer.TurnEvent:
		ev := evt.Battle
		fmt.Fprintf(p.w, "T%02d %s\n", ev.Turn, tui.NarrateTurn(ev, p.name(ev.AttackerID), p.name(ev.DefenderID)))

	case multiplayer.EliminationStartedEvent:
		for id, n := range evt.Names {
			p.names[string(id)] = n
		}

	case multiplayer.RoundEvent:
		ev := evt.Round
		fmt.Fprintln(p.w, tui.NarrateRound(ev, p.name(ev.PlayerID), p.name(ev.OpponentID)))

	case multiplayer.SessionEndedEvent:
		o := evt.Outcome
		if o == nil {
			return
		}
		fmt.Fprintln(p.w)
		if o.Kind == multiplayer.KindDuel {
			if o.ForcedStop {
				fmt.Fprintf(p.w, "The battle reached %d turns and was called.\n", o.Turns)
			}
			fmt.Fprintln(p.w, tui.NarrateDeath(o.LoserName, o.Turns))
			fmt.Fprintf(p.w, "%s wins with %d/%d HP left.\n", o.WinnerName, o.WinnerHP, o.WinnerMaxHP)
			return
		}
		fmt.Fprintf(p.w, "%s survives! %s fell on chamber %d.\n", o.WinnerName, o.LoserName, o.Chamber)
	}
}

var _ multiplayer.EventSink = (*printer)(nil)
