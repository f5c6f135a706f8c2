package cli

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"juparc/internal/core/app"
	"juparc/internal/data/store"
	"juparc/internal/engine/aggregate"
	"juparc/internal/shared/util"
	"juparc/internal/ui/report"

	"github.com/spf13/cobra"
)

func newScanCommand(rt *runtime) *cobra.Command {
	var (
		flags  sectionFlags
		corpus bool
	)
	cmd := &cobra.Command{
		Use:   "scan [roots...]",
		Short: "Summarize every notebook below the roots",
		RunE: func(cmd *cobra.Command, roots []string) error {
			result, err := rt.app.Scan(cmd.Context(), roots, flags.sections())
			if err != nil {
				return err
			}
			slog.Info("scan finished", "run", result.RunID, "notebooks", len(result.Results), "failed", result.Failed)
			return rt.writeBatch(cmd.OutOrStdout(), result, corpus)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&corpus, "corpus", false, "Append the corpus summary")
	return cmd
}

func (rt *runtime) writeBatch(w io.Writer, result *app.BatchResult, corpus bool) error {
	summaries := result.Summaries()
	if corpus && result.Corpus != nil {
		summaries = append(summaries, result.Corpus)
	}
	return report.WriteRecords(w, rt.format, report.SummaryRecords(summaries))
}

func newWatchCommand(rt *runtime) *cobra.Command {
	var flags sectionFlags
	cmd := &cobra.Command{
		Use:   "watch [roots...]",
		Short: "Re-summarize notebooks whenever they change",
		RunE: func(cmd *cobra.Command, roots []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			return rt.app.Watch(ctx, roots, flags.sections(), func(result *app.BatchResult) {
				mu.Lock()
				defer mu.Unlock()
				if err := rt.writeBatch(out, result, false); err != nil {
					slog.Error("failed to write batch", "error", err)
				}
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newRunsCommand(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored scan runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := rt.app.Runs(limit)
			if err != nil {
				return err
			}
			records := make([]util.Record, 0, len(runs))
			for _, run := range runs {
				records = append(records, runRecord(run))
			}
			return report.WriteRecords(cmd.OutOrStdout(), rt.format, records)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs (0 for all)")
	cmd.AddCommand(newRunsShowCommand(rt))
	return cmd
}

func newRunsShowCommand(rt *runtime) *cobra.Command {
	var corpus bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the notebook summaries of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := rt.app.LoadRun(args[0])
			if err != nil {
				return err
			}
			summaries := stored.Summaries
			if corpus && len(stored.Run.Corpus) > 0 {
				s := &aggregate.Summary{}
				if err := s.UnmarshalJSON(stored.Run.Corpus); err != nil {
					return err
				}
				summaries = append(summaries, s)
			}
			return report.WriteRecords(cmd.OutOrStdout(), rt.format, report.SummaryRecords(summaries))
		},
	}
	cmd.Flags().BoolVar(&corpus, "corpus", false, "Append the stored corpus summary")
	return cmd
}

func runRecord(run store.Run) util.Record {
	r := util.Record{
		{Key: "id", Value: run.ID},
		{Key: "started_at", Value: run.StartedAt.Format(time.RFC3339)},
		{Key: "finished_at", Value: nil},
		{Key: "roots", Value: run.Roots},
		{Key: "notebooks", Value: run.NotebookCount},
		{Key: "failed", Value: run.FailedCount},
	}
	if run.Finished() {
		r.Set("finished_at", run.FinishedAt.Format(time.RFC3339))
	}
	return r
}
