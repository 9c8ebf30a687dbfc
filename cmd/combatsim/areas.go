package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var areasCmd = &cobra.Command{
	Use:   "areas",
	Short: "List the areas in the content directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context(), "combatsim", false)
		if err != nil {
			return err
		}
		defer e.close()

		out := cmd.OutOrStdout()
		for _, id := range e.content.Areas.IDs() {
			area, _ := e.content.Areas.Area(id)
			sc, _ := e.content.Scenario(id)
			fmt.Fprintf(out, "%-12s %-24s %dx%d  %d combatant(s)\n", id, area.Name, area.Width, area.Height, len(sc.Combatants))
		}
		return nil
	},
}
