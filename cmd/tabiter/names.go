package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNamesCmd() *cobra.Command {
	var children, inactive bool
	cmd := &cobra.Command{
		Use:   "names",
		Short: "List the attribute names of a table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			t, err := openTable(cmd.Context(), s, true)
			if err != nil {
				return err
			}
			defer t.Close()

			fmt.Fprintln(cmd.OutOrStdout(), t.AttributeNamesString(children, inactive))
			return nil
		},
	}
	cmd.Flags().BoolVar(&children, "children", false, "Include parent.child names of split records")
	cmd.Flags().BoolVar(&inactive, "inactive", true, "Include disabled columns")
	return cmd
}
