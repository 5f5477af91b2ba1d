package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ohan/internal/relay"
)

func newFetchCmd(root *rootOptions) *cobra.Command {
	var (
		raw    bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch every clinic from the upstream source",
		Long: `Walks every upstream page and prints the result.

By default rows are normalized into clinic records. With --raw the rows are
printed exactly as the /api/clinics relay would return them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatJSON, formatYAML); err != nil {
				return err
			}
			a, err := newApp(cmd, root)
			if err != nil {
				return err
			}

			if raw {
				records, err := a.relay.Records(cmd.Context())
				if err != nil {
					return a.userFacing(err)
				}
				return writeStructured(cmd.OutOrStdout(), format, relay.Response{Records: records})
			}

			dir, err := a.service.LoadDirectory(cmd.Context())
			if err != nil {
				return a.userFacing(err)
			}
			return writeStructured(cmd.OutOrStdout(), format, dir)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print upstream rows without normalizing")
	cmd.Flags().StringVarP(&format, "format", "o", formatJSON, "output format: json or yaml")
	return cmd
}
