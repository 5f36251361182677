package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/deathbattle/internal/fighter"
	"github.com/vovakirdan/deathbattle/internal/multiplayer"
	"github.com/vovakirdan/deathbattle/internal/storage"
)

var profileCmd = &cobra.Command{
	Use:   "profile <name>",
	Short: "Show a fighter's stats and record",
	Long: `Show the fighter a name produces in casual and ranked duels, along with
its recorded wins and losses.

Examples:
  arena profile alice`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	name := args[0]
	casual := fighter.Generate(name, name)
	ranked := fighter.Generate(name, name, fighter.WithScale(a.cfg.Duel.RankedScale))

	fmt.Printf("%s\n", name)
	fmt.Printf("  Aura %d%% (level %d)\n", casual.Aura, fighter.AuraLevel(casual.Aura))
	fmt.Printf("  Abilities: %s, %s\n\n", casual.Abilities[0], casual.Abilities[1])
	printStats("Casual", casual)
	printStats("Ranked", ranked)
	fmt.Println()

	id := multiplayer.ParticipantID(name)
	for _, b := range []struct {
		title  string
		kind   multiplayer.Kind
		ranked bool
	}{
		{"Ranked Deathbattle", multiplayer.KindDuel, true},
		{"Casual Deathbattle", multiplayer.KindDuel, false},
		{"Russian Roulette", multiplayer.KindElimination, false},
	} {
		rec, err := a.store.FighterRecord(ctx, id, b.kind, b.ranked)
		if err != nil {
			return err
		}
		printRecord(b.title, rec)
	}
	return nil
}

func printStats(label string, f fighter.Fighter) {
	fmt.Printf("  %-7s HP %3d  ATK %2d  DEF %2d  SPD %2d  CRIT %2.0f%%\n",
		label, f.MaxHP, f.Attack, f.Defense, f.Speed, f.CritChance*100)
}

func printRecord(title string, r storage.Record) {
	if r.Games() == 0 {
		fmt.Printf("  %-20s no games yet\n", title)
		return
	}
	fmt.Printf("  %-20s %d W / %d L  (%.0f%%)  score %.2f\n",
		title, r.Wins, r.Losses, r.WinRate()*100, r.Score)
}
