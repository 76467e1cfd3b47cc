package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/telemetry"
	"github.com/shaiso/eggo/internal/worker"
)

// NewMapCmd создаёт mapper Hadoop streaming.
//
// Вызывается Hadoop'ом на узлах кластера: строки partition-файла
// приходят в stdin, результат пишется в stdout. Логи и вывод внешних
// команд идут в stderr.
func NewMapCmd(appFn func() *App) *cobra.Command {
	var destination string

	cmd := &cobra.Command{
		Use:    "map",
		Short:  "Hadoop streaming mapper: download partition lines from stdin",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			ctx := telemetry.WithLogger(cmd.Context(), app.Logger)

			s, err := app.Open(ctx, SessionOptions{
				Stdout:     cmd.ErrOrStderr(),
				Dispatcher: config.DispatcherLocal,
			})
			if err != nil {
				return err
			}
			defer s.Close()

			return worker.RunMapper(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), s.Pipeline.Processor(), destination)
		},
	}

	cmd.Flags().StringVar(&destination, "destination", "", "Destination prefix for downloaded objects")
	cmd.MarkFlagRequired("destination")
	return cmd
}
