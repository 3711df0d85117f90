package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a table as an Arrow IPC file",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			t, err := openTable(cmd.Context(), s, true)
			if err != nil {
				return err
			}
			defer t.Close()
			st, err := columnStore(t)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			}()
			if err := st.WriteArrowIPC(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows to %s\n", t.RowCount(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
