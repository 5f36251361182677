package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/deathbattle/internal/combat"
	"github.com/vovakirdan/deathbattle/internal/fighter"
)

var abilitiesCmd = &cobra.Command{
	Use:   "abilities",
	Short: "List the special ability catalog",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Special abilities:")
		fmt.Println()
		for _, a := range fighter.Catalog() {
			note := ""
			if combat.Unblockable(a) {
				note = " (unblockable)"
			}
			fmt.Printf("  %-24s %s%s\n", a, combat.Summary(a), note)
		}
		fmt.Println()
		fmt.Println("Every fighter carries two abilities chosen by name.")
	},
}
