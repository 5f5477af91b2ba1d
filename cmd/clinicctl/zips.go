package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ohan/internal/geo"
)

type zipEntry struct {
	Zip string  `json:"zip"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func newZipsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "zips",
		Short: "List the zip codes distance search knows about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}

			table := geo.Default()
			entries := make([]zipEntry, 0, table.Len())
			for _, zip := range table.Known() {
				c, _ := table.Lookup(zip)
				entries = append(entries, zipEntry{Zip: zip, Lat: c.Lat, Lon: c.Lon})
			}

			if format != formatTable {
				return writeStructured(cmd.OutOrStdout(), format, entries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ZIP\tLAT\tLON")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", e.Zip, e.Lat, e.Lon)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")
	return cmd
}
