package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runArea string
	runSeed uint64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fight one area to the end",
	Long:  `Run checks what the party can see in an area and, if a hostile is in view, fights the combat to its end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()
		e, err := setup(ctx, "combatsim", true)
		if err != nil {
			return err
		}
		defer e.close()

		sim, err := e.newSimulation(ctx, runArea, runSeed)
		if err != nil {
			return err
		}
		defer sim.Close()

		res, err := sim.Run(ctx)
		if err != nil {
			return fmt.Errorf("running area %q: %w", runArea, err)
		}
		out := cmd.OutOrStdout()
		if !res.Started {
			fmt.Fprintf(out, "%s: no hostiles in sight\n", runArea)
			return nil
		}
		o := res.Outcome
		fmt.Fprintf(out, "%s: %s after %d round(s)\n", runArea, o.Result, o.EndedRound-o.StartedRound+1)
		fmt.Fprintf(out, "survivors: %s\n", strings.Join(o.Survivors, ", "))
		for _, id := range o.Participants {
			if v, ok := sim.World.View(id); ok {
				fmt.Fprintf(out, "  %-12s %3d/%-3d hp\n", v.ID, v.HP, v.MaxHP)
			}
		}
		e.logger.Info("simulation finished", zap.Duration("elapsed", time.Since(start)))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runArea, "area", "ambush", "area to fight in")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "dice seed (0 = crypto source)")
}
