// Package cli implements the questkeep command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "questkeep",
	Short: "Gamified personal task tracker",
	Long: `questkeep is a self-hosted gamified task tracker.
Complete quests to earn Body/Mind/Soul points, then spend them in your
personal item shop. All state lives in a local sqlite database.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
