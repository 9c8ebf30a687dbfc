package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/hexcombat/internal/server"
	"github.com/cory-johannsen/hexcombat/internal/simulation"
)

var (
	watchArea string
	watchSeed uint64
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep an area live and fight every combat that starts",
	Long: `Watch keeps an area running until interrupted. Activation is re-checked on
the configured tick interval and every combat that starts is fought out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx, "combatsim-watch", true)
		if err != nil {
			return err
		}
		defer e.close()

		sim, err := e.newSimulation(ctx, watchArea, watchSeed)
		if err != nil {
			return err
		}
		defer sim.Close()

		interval := e.cfg.Combat.TickInterval
		lc := server.NewLifecycle(e.logger)
		lc.Add("activation", simulation.NewTicker(sim.Runner, interval, e.logger))
		lc.Add("combat", server.ServiceFunc(func(ctx context.Context) error {
			return sim.Watch(ctx, interval)
		}))
		return lc.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchArea, "area", "ambush", "area to watch")
	watchCmd.Flags().Uint64Var(&watchSeed, "seed", 0, "dice seed (0 = crypto source)")
}
