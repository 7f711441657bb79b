package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTypesCmd(opts *options) *cobra.Command {
	var members bool
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the types of the loaded metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadTable(cmd.Context(), opts, opts.logger())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range table.Types() {
				fmt.Fprintf(out, "%s %s\n", t.Kind, t.FullName())
				if !members {
					continue
				}
				for _, m := range t.Methods {
					fmt.Fprintf(out, "\t%s %s\n", m.Visibility, m.Signature())
				}
				for _, p := range t.Properties {
					fmt.Fprintf(out, "\tproperty %s %s\n", p.Name, p.Type)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&members, "members", false, "also list methods and properties")
	return cmd
}
