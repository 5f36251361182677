package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/deathbattle/internal/multiplayer"
	"github.com/vovakirdan/deathbattle/internal/platform/tui"
)

var (
	flagKind        string
	flagBoardRanked bool
	flagLimit       int
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the leaderboards",
	Long: `Display the ranked, casual and roulette leaderboards. Tab switches boards.

Duel scores weight each win by the hp the winner had left. Roulette scores
count wins.

When stdout is not a terminal the selected board is printed instead.

Examples:
  arena leaderboard
  arena leaderboard --kind roulette
  arena leaderboard --kind duel --ranked=false`,
	Args: cobra.NoArgs,
	RunE: runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().StringVar(&flagKind, "kind", "duel", "Board to open: duel or roulette")
	leaderboardCmd.Flags().BoolVar(&flagBoardRanked, "ranked", true, "Open the ranked duel board")
	leaderboardCmd.Flags().IntVar(&flagLimit, "limit", 10, "Rows to print when not on a terminal")
}

func parseKind(s string) (multiplayer.Kind, error) {
	switch s {
	case "duel", "battle", "deathbattle":
		return multiplayer.KindDuel, nil
	case "roulette", "russian", "elimination":
		return multiplayer.KindElimination, nil
	}
	return "", fmt.Errorf("unknown kind %q (want duel or roulette)", s)
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(flagKind)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if !isTerminal() {
		records, err := a.store.Leaderboard(ctx, kind, flagBoardRanked, flagLimit)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%-5s %-24s %5s %5s %8s\n", "Rank", "Fighter", "W", "L", "Score")
		for i, r := range records {
			fmt.Fprintf(os.Stdout, "%-5d %-24s %5d %5d %8.2f\n", i+1, r.Name, r.Wins, r.Losses, r.Score)
		}
		return nil
	}

	width, height := terminalSize()
	_, err = tui.Run(tui.NewLeaderboardModel(a.store, kind, flagBoardRanked, width, height), true)
	return err
}
