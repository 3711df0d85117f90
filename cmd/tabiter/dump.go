package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var (
		first, limit int64
		names        []string
	)
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print table rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			t, err := openTable(ctx, s, true)
			if err != nil {
				return err
			}
			defer t.Close()
			st, err := columnStore(t)
			if err != nil {
				return err
			}

			if len(names) == 0 {
				names = t.AttributeNames(false, true)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "row\t%s\n", strings.Join(names, "\t"))

			last := int64(-1)
			if limit >= 0 {
				last = first + limit
			}
			for r := range t.Range(first, last) {
				fields := make([]string, 0, len(names)+1)
				fields = append(fields, fmt.Sprint(r.Index()))
				for _, name := range names {
					col, ok := st.Column(name)
					if !ok {
						return fmt.Errorf("no column %q in table %s", name, t.Name())
					}
					v, err := st.Value(col, r.Index())
					if err != nil {
						return err
					}
					fields = append(fields, fmt.Sprint(v))
				}
				fmt.Fprintln(w, strings.Join(fields, "\t"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&first, "first", 0, "First row")
	cmd.Flags().Int64Var(&limit, "limit", -1, "Maximum number of rows, negative for all")
	cmd.Flags().StringSliceVar(&names, "columns", nil, "Columns to print (default all)")
	return cmd
}
