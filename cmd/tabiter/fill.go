package main

import (
	"fmt"

	"github.com/hupe1980/tabiter"
	"github.com/spf13/cobra"
)

func newFillCmd() *cobra.Command {
	var (
		rows    int64
		columns int
		start   float64
	)
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Append rows of float64 test data",
		Long: `Append rows to a table. Each row writes the columns x000, x001, ...
with consecutive values, starting at --start and incrementing by one per write.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			t, err := openTable(ctx, s, false)
			if err != nil {
				return err
			}
			defer t.Close()

			v := start
			for r := range t.Fill(ctx, rows) {
				for c := range columns {
					tabiter.Set(r, fmt.Sprintf("x%03d", c), v)
					v++
				}
			}
			if err := t.Err(); err != nil {
				return err
			}
			stats := t.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "filled %d rows (%d total), %d bytes, flushed %d bytes\n",
				rows, t.RowCount(), stats.BytesFilled, stats.BytesFlushed)
			return nil
		},
	}
	cmd.Flags().Int64Var(&rows, "rows", 5, "Number of rows to append")
	cmd.Flags().IntVar(&columns, "columns", 1, "Number of columns written per row")
	cmd.Flags().Float64Var(&start, "start", 42.3, "First value")
	return cmd
}
