package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd собирает корневую команду eggo.
func NewRootCmd(app *App, version string) *cobra.Command {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "eggo",
		Short:         "eggo — genomic dataset ETL into ADAM",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	appFn := func() *App { return app }
	outputFn := func(cmd *cobra.Command) *Output {
		return NewOutputTo(jsonOutput, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	rootCmd.AddCommand(
		NewRunCmd(appFn, outputFn),
		NewStatusCmd(appFn, outputFn),
		NewDeleteCmd(appFn, outputFn),
		NewScheduleCmd(appFn, outputFn),
		NewHistoryCmd(appFn, outputFn),
		NewPipelinesCmd(outputFn),
		NewMapCmd(appFn),
	)

	return rootCmd
}
