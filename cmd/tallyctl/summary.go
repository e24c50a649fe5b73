package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/export"
)

func newSummaryCmd(a *app) *cobra.Command {
	var (
		source sourceFlags
		filter filterFlags
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a summary report of expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filterOpts, err := filter.options()
			if err != nil {
				return err
			}
			svc, user, err := a.openService(source)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Export(cmd.Context(), user, filterOpts, export.Options{Format: export.FormatSummary})
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.out, res.Body)
			return err
		},
	}

	source.register(cmd)
	filter.register(cmd)
	return cmd
}
