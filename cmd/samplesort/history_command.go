package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent organize runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(context.Background(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs")
				return nil
			}

			headers := []string{"RUN", "STARTED", "MODE", "DRY", "PLACED", "SKIPPED", "DUPES", "ERRORS"}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format(time.DateTime),
					run.Mode,
					yesNo(run.DryRun),
					strconv.Itoa(run.Moved),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Duplicates),
					strconv.Itoa(run.Errors),
				})
			}
			aligns := []columnAlignment{
				alignLeft, alignLeft, alignLeft, alignLeft,
				alignRight, alignRight, alignRight, alignRight,
			}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}
