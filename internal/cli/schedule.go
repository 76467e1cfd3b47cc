package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/scheduler"
	"github.com/shaiso/eggo/internal/telemetry"
)

// NewScheduleCmd создаёт команду повторения прохода по расписанию.
func NewScheduleCmd(appFn func() *App, outputFn func(cmd *cobra.Command) *Output) *cobra.Command {
	var flags pipelineFlags
	var cronExpr, timezone string
	var maxPasses int
	var wait bool

	cmd := &cobra.Command{
		Use:   "schedule CONFIG",
		Short: "Re-run the pipeline on a cron schedule until it succeeds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			out := outputFn(cmd)
			ctx := cmd.Context()

			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}

			s, err := app.Open(ctx, SessionOptions{Dispatcher: flags.dispatcher})
			if err != nil {
				return err
			}
			defer s.Close()

			sched, err := scheduler.New(scheduler.Config{
				CronExpr:  cronExpr,
				Timezone:  timezone,
				Logger:    telemetry.WithDataset(app.Logger, cfg.Name),
				Immediate: !wait,
				MaxPasses: maxPasses,
				Pass: func(ctx context.Context) error {
					_, err := s.Pipeline.Run(ctx, cfg, flags.options())
					if perr := telemetry.Push(ctx, app.Env.PushgatewayURL, "eggo"); perr != nil {
						app.Logger.Warn("failed to push metrics", "error", perr)
					}
					return err
				},
			})
			if err != nil {
				return err
			}

			if err := sched.Run(ctx); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Dataset %s is complete", cfg.Name))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&cronExpr, "cron", "@every 15m", "Cron expression for retry passes")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone of the cron expression")
	cmd.Flags().IntVar(&maxPasses, "max-passes", 0, "Give up after this many passes (0 = never)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the first tick instead of running immediately")
	return cmd
}
