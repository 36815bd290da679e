package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the operator CLI
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "momentum-configure",
		Short:         "Operator tool for the Social Momentum agent",
		Long:          "Run the agent, inspect nudges and scores, and manage the schema against the live database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "Output format: text or json")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newOutcomesCmd(opts),
		newSummaryCmd(opts),
		newNudgesCmd(opts),
		newScoreCmd(opts),
		newMigrateCmd(opts),
	)
	return rootCmd
}
