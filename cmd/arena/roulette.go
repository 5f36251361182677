package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/deathbattle/internal/multiplayer"
	"github.com/vovakirdan/deathbattle/internal/platform/tui"
	"github.com/vovakirdan/deathbattle/internal/random"
	"github.com/vovakirdan/deathbattle/internal/roulette"
)

var (
	flagStrategy     string
	flagSelfStrategy string
	flagPlay         bool
)

var rouletteCmd = &cobra.Command{
	Use:   "roulette <player> <opponent>",
	Short: "Play Russian Roulette",
	Long: `Load one bullet into a six-chamber revolver and pass it between two players.

On a turn a player may shoot the opponent, shoot themself to earn a bonus
turn (never twice in a row), or pass the gun. A player who runs out the
turn clock passes automatically.

With --play you hold the gun as <player> and the opponent is played by a
bot. Otherwise both sides are bots and the game is printed as it happens.

Controls (--play):
  S/Enter  - Shoot the opponent
  M        - Shoot yourself
  P        - Pass
  Y/N      - Accept or decline the game
  Q        - Quit

Examples:
  arena roulette alice bob --play
  arena roulette alice bob --strategy reckless
  arena roulette alice bob --strategy random --self-strategy gambler`,
	Args: cobra.ExactArgs(2),
	RunE: runRoulette,
}

func init() {
	names := strings.Join(roulette.StrategyNames(), ", ")
	rouletteCmd.Flags().StringVar(&flagStrategy, "strategy", "gambler", "Opponent bot strategy: "+names)
	rouletteCmd.Flags().StringVar(&flagSelfStrategy, "self-strategy", "gambler", "Player bot strategy when not playing: "+names)
	rouletteCmd.Flags().BoolVar(&flagPlay, "play", false, "Play as <player> instead of watching two bots")
}

func runRoulette(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	seed := flagSeed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return err
		}
	}
	// Bots draw from their own stream so they do not move the bullet.
	rng := random.New(seed + 1)

	opponent, err := roulette.ParseStrategy(flagStrategy, rng)
	if err != nil {
		return err
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	player, target := multiplayer.ParticipantID(args[0]), multiplayer.ParticipantID(args[1])
	moves := make(chan multiplayer.Move)
	req := multiplayer.EliminationRequest{
		Arena:   multiplayer.ArenaID(flagArena),
		Inviter: player,
		Target:  target,
		Moves:   moves,
	}
	bot := multiplayer.NewBot(ctx, target, opponent, moves)

	if flagPlay && isTerminal() {
		return playRoulette(ctx, cancel, a, req, bot, moves)
	}

	self, err := roulette.ParseStrategy(flagSelfStrategy, rng)
	if err != nil {
		return err
	}
	sink := multiplayer.Tee(bot, multiplayer.NewBot(ctx, player, self, moves), newPrinter(os.Stdout))
	res, err := a.coord.RunElimination(ctx, req, sink)
	if err != nil {
		return err
	}
	return sessionError(res)
}

func playRoulette(ctx context.Context, cancel context.CancelFunc, a *app, req multiplayer.EliminationRequest, bot *multiplayer.Bot, moves chan multiplayer.Move) error {
	session := multiplayer.NewChannelSession(multiplayer.NewSessionID(), 16)
	done := make(chan ended, 1)
	go func() {
		res, err := a.coord.RunElimination(ctx, req, multiplayer.Tee(bot, session))
		done <- ended{res, err}
	}()

	width, height := terminalSize()
	_, runErr := tui.Run(tui.NewRouletteModel(session, req.Inviter, moves, width, height), true)

	session.Close()
	cancel()
	err := (<-done).err()
	if runErr != nil {
		return fmt.Errorf("run roulette view: %w", runErr)
	}
	return err
}
