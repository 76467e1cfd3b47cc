package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/engine"
	"github.com/shaiso/eggo/internal/etl"
	"github.com/shaiso/eggo/internal/pipeline"
	"github.com/shaiso/eggo/internal/telemetry"
)

// pipelineFlags — флаги сборки графа, общие для run, status и schedule.
type pipelineFlags struct {
	serial     bool
	pipeline   string
	dispatcher string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.serial, "serial", false, "Download sources one by one instead of the fan-out")
	cmd.Flags().StringVar(&f.pipeline, "pipeline", "", "Pipeline name (default: chosen by source format)")
	cmd.Flags().StringVar(&f.dispatcher, "dispatcher", "", "Fan-out mode: hadoop, amqp or local (default: $EGGO_DISPATCHER)")
}

func (f *pipelineFlags) options() pipeline.Options {
	return pipeline.Options{Serial: f.serial, Pipeline: f.pipeline}
}

// NewRunCmd создаёт команду прохода конвейера.
func NewRunCmd(appFn func() *App, outputFn func(cmd *cobra.Command) *Output) *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "run CONFIG",
		Short: "Run the pipeline for a dataset",
		Long: "Resolves the task graph of the dataset and runs every task whose outputs are missing.\n" +
			"Re-running the same command resumes from the first failed task.",
		Args: cobra.ExactArgs(1),
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

			res, runErr := s.Pipeline.Run(ctx, cfg, flags.options())
			if res != nil {
				printResult(out, res)
			}

			if err := telemetry.Push(ctx, app.Env.PushgatewayURL, "eggo"); err != nil {
				app.Logger.Warn("failed to push metrics", "error", err)
			}

			if runErr != nil {
				return runErr
			}
			out.Success(fmt.Sprintf("Dataset %s is complete (run %s)", cfg.Name, res.RunID))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// resultRow — статус задачи в итогах прохода.
type resultRow struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

func printResult(out *Output, res *engine.Result) {
	ids := make([]string, 0, len(res.Statuses))
	for id := range res.Statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data := make([]resultRow, len(ids))
	rows := make([][]string, len(ids))
	for i, id := range ids {
		status := string(res.Status(id))
		data[i] = resultRow{TaskID: id, Status: status}
		rows[i] = []string{id, status}
	}
	out.Print([]string{"TASK", "STATUS"}, rows, data)
}

// NewStatusCmd создаёт команду просмотра готовности задач.
func NewStatusCmd(appFn func() *App, outputFn func(cmd *cobra.Command) *Output) *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "status CONFIG",
		Short: "Show which tasks of the dataset are complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			out := outputFn(cmd)
			ctx := cmd.Context()

			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}

			// status ничего не выполняет: брокер не нужен
			dispatcher := flags.dispatcher
			if dispatcher == "" && app.Env.Dispatcher == config.DispatcherAMQP {
				dispatcher = config.DispatcherLocal
			}

			s, err := app.Open(ctx, SessionOptions{Dispatcher: dispatcher})
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.Pipeline.Status(ctx, cfg, flags.options())
			if err != nil {
				return err
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{e.ID, strconv.FormatBool(e.Complete), strings.Join(e.Outputs, " ")}
			}
			out.Print([]string{"TASK", "COMPLETE", "OUTPUTS"}, rows, entries)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// NewDeleteCmd создаёт команду удаления датасета.
func NewDeleteCmd(appFn func() *App, outputFn func(cmd *cobra.Command) *Output) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete CONFIG",
		Short: "Delete raw data and all editions of the dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			out := outputFn(cmd)
			ctx := cmd.Context()

			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", cfg.Name)
			}

			s, err := app.Open(ctx, SessionOptions{Dispatcher: config.DispatcherLocal})
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Pipeline.Delete(ctx, cfg.Name); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Dataset deleted: %s", cfg.Name))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

// NewPipelinesCmd создаёт команду списка конвейеров.
func NewPipelinesCmd(outputFn func(cmd *cobra.Command) *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pipelines",
		Short: "List registered pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn(cmd)

			names := etl.Names()
			data := make([]etl.Pipeline, len(names))
			rows := make([][]string, len(names))
			for i, name := range names {
				p, _ := etl.Lookup(name)
				data[i] = p
				rows[i] = []string{p.Name, p.AdamCommand, strings.Join(p.Formats, ",")}
			}
			out.Print([]string{"NAME", "ADAM_COMMAND", "FORMATS"}, rows, data)
			return nil
		},
	}
}
