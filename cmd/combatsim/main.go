// Package main runs hex-grid combats from content files with every
// combatant on autopilot.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "combatsim",
	Short: "Hex-grid tactical combat simulator",
	Long:  `combatsim loads an area with its creatures and plays out the fight turn by turn.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/dev.yaml", "path to configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(areasCmd)
	rootCmd.AddCommand(historyCmd)
}
