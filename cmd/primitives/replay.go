package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vango-dev/primitives/internal/report"
	"github.com/vango-dev/primitives/internal/scenario"
	"github.com/vango-dev/primitives/internal/tracing"
	"github.com/vango-dev/primitives/pkg/list"
)

func replayCmd(a *app) *cobra.Command {
	var (
		watch    bool
		asJSON   bool
		save     bool
		sink     string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a scenario and print how items were reused",
		Long: `Replay a scenario file through the list reconciler.

Every step prints the resulting rows as id:value pairs. Row ids are
assigned on creation, so an id that survives a step is a reused item.

Examples:
  primitives replay testdata/shuffle.yaml
  primitives replay --json shuffle.yaml
  primitives replay --watch shuffle.yaml
  primitives replay --save --sink s3 shuffle.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if sink != "" {
				a.cfg.Report.Sink = sink
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}

			var store report.Sink = report.Nop{}
			if save {
				s, err := report.New(ctx, a.cfg.Report)
				if err != nil {
					return err
				}
				store = s
			}

			var obs list.Observer
			if a.cfg.Tracing.Enabled {
				obs = tracing.New(tracing.WithTracerName(a.cfg.Tracing.TracerName)).Bind(ctx)
			}
			runner := scenario.NewRunner(obs, a.logger)
			out := cmd.OutOrStdout()

			run := func(sc *scenario.Scenario) error {
				rep, err := runner.Run(ctx, sc)
				if err != nil {
					return err
				}
				if err := printReport(out, rep, asJSON); err != nil {
					return err
				}
				if save {
					name := report.Name(rep)
					if err := store.Put(ctx, name, rep); err != nil {
						return err
					}
					a.logger.Info("report saved", zap.String("name", name), zap.String("sink", a.cfg.Report.Sink))
				}
				return nil
			}

			if !watch {
				sc, err := scenario.Load(args[0])
				if err != nil {
					return err
				}
				return run(sc)
			}

			info("watching %s (ctrl-c to stop)", args[0])
			return scenario.Watch(ctx, args[0], debounce, func(sc *scenario.Scenario, err error) {
				if err == nil {
					err = run(sc)
				}
				if err != nil {
					warn("%v", err)
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-run whenever the file changes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "Store the report in the configured sink")
	cmd.Flags().StringVar(&sink, "sink", "", "Override report.sink (none, file, s3)")
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "Delay before re-running in watch mode")

	return cmd
}

func printReport(w io.Writer, rep *scenario.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Fprintf(w, "%s\n", rep.Name)
	for _, st := range rep.Steps {
		cells := make([]string, len(st.Rows))
		for i, r := range st.Rows {
			cells[i] = fmt.Sprintf("%d:%s", r.ID, r.Value)
			if r.Fallback {
				cells[i] += "*"
			}
		}
		s := st.Stats
		fmt.Fprintf(w, "  %-12s [%s]\n", st.Name, strings.Join(cells, " "))
		fmt.Fprintf(w, "  %-12s kept=%d moved=%d rewritten=%d recycled=%d created=%d disposed=%d\n",
			"", s.Kept, s.Moved, s.Rewritten, s.Recycled, s.Created, s.Disposed)
	}
	t := rep.Totals
	fmt.Fprintf(w, "  %-12s kept=%d moved=%d rewritten=%d recycled=%d created=%d disposed=%d (%s)\n",
		"total", t.Kept, t.Moved, t.Rewritten, t.Recycled, t.Created, t.Disposed, rep.Duration.Round(time.Microsecond))
	return nil
}
