package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/hexcombat/internal/storage/postgres"
)

var (
	historyArea  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded combat outcomes for an area",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx, "combatsim", true)
		if err != nil {
			return err
		}
		defer e.close()
		if e.pool == nil {
			return errors.New("history needs database.enabled")
		}

		repo := postgres.NewOutcomeRepository(e.pool.DB())
		outcomes, err := repo.RecentOutcomes(ctx, historyArea, historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, o := range outcomes {
			fmt.Fprintf(out, "%s  %-14s rounds %d-%d  survivors: %s\n",
				o.EndedAt.Format("2006-01-02 15:04:05"), o.Result, o.StartedRound, o.EndedRound, strings.Join(o.Survivors, ", "))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyArea, "area", "ambush", "area to show")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "maximum outcomes to show")
}
