package cli

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/repo"
)

// NewHistoryCmd создаёт группу команд журнала проходов.
func NewHistoryCmd(appFn func() *App, outputFn func(cmd *cobra.Command) *Output) *cobra.Command {
	var dataset, status string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List pipeline runs from the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			out := outputFn(cmd)

			s, err := app.OpenLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.Runs.List(cmd.Context(), repo.RunFilter{
				Dataset: dataset,
				Status:  domain.RunStatus(status),
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "DATASET", "PIPELINE", "STATUS", "EXECUTED", "SKIPPED", "DURATION", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID.String(),
					r.Dataset,
					r.Pipeline,
					string(r.Status),
					strconv.Itoa(r.Executed),
					strconv.Itoa(r.Skipped),
					formatDuration(r.Duration()),
					r.CreatedAt.Format(time.RFC3339),
				}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "Filter by dataset")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")

	cmd.AddCommand(newHistoryShowCmd(appFn, outputFn))
	return cmd
}

func newHistoryShowCmd(appFn func() *App, outputFn func(cmd *cobra.Command) *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show tasks of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			out := outputFn(cmd)

			runID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			s, err := app.OpenLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.Runs.GetByID(cmd.Context(), runID)
			if err != nil {
				return err
			}
			tasks, err := s.TaskRuns.ListByRunID(cmd.Context(), runID)
			if err != nil {
				return err
			}

			if run.Error != "" {
				out.Error(run.Error)
			}

			headers := []string{"TASK", "STATUS", "DURATION", "ERROR"}
			rows := make([][]string, len(tasks))
			for i, t := range tasks {
				rows[i] = []string{t.TaskID, string(t.Status), formatDuration(t.Duration()), t.Error}
			}
			out.Print(headers, rows, tasks)
			return nil
		},
	}
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
