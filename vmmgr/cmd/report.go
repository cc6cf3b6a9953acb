package cmd

import (
	"fmt"
	"io"

	"github.com/sarchlab/vmmgr/datarecording"
	"github.com/sarchlab/vmmgr/mem/vm/addresstranslator"
	"github.com/sarchlab/vmmgr/tracing"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <recording.sqlite3>",
		Short: "Print the statistics stored in a recording.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			return report(cmd, cmd.OutOrStdout(), args[0])
		},
	}
}

var outcomes = []addresstranslator.Outcome{
	addresstranslator.TLBHit,
	addresstranslator.PageTableHit,
	addresstranslator.PageFault,
}

func report(cmd *cobra.Command, w io.Writer, path string) error {
	reader, err := datarecording.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(tracing.SummaryTable, tracing.SummaryRecord{})
	reader.MapTable(tracing.TranslationTable, tracing.TranslationRecord{})

	rows, _, err := reader.Query(cmd.Context(), tracing.SummaryTable,
		datarecording.QueryParams{})
	if err != nil {
		return fmt.Errorf("read summary of %s: %w", path, err)
	}

	for _, row := range rows {
		record := row.(*tracing.SummaryRecord)

		fmt.Fprintf(w, "Run %s\n", record.RunID)
		printSummary(w, record.Summary())

		err = reportOutcomes(cmd, w, reader, record.RunID)
		if err != nil {
			return err
		}
	}

	return nil
}

func reportOutcomes(
	cmd *cobra.Command,
	w io.Writer,
	reader datarecording.DataReader,
	runID string,
) error {
	for _, o := range outcomes {
		_, count, err := reader.Query(cmd.Context(), tracing.TranslationTable,
			datarecording.QueryParams{
				Where: "RunID = ? AND Outcome = ?",
				Args:  []any{runID, o.String()},
				Limit: 1,
			})
		if err != nil {
			return fmt.Errorf("count %s translations: %w", o, err)
		}

		fmt.Fprintf(w, "%s = %d\n", o, count)
	}

	_, evictions, err := reader.Query(cmd.Context(), tracing.TranslationTable,
		datarecording.QueryParams{
			Where: "RunID = ? AND EvictedPage >= 0",
			Args:  []any{runID},
			Limit: 1,
		})
	if err != nil {
		return fmt.Errorf("count evictions: %w", err)
	}

	fmt.Fprintf(w, "evictions = %d\n\n", evictions)

	return nil
}
