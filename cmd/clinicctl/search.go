package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ohan/internal/core"
	"github.com/JonMunkholm/ohan/internal/finder"
)

func newSearchCmd(root *rootOptions) *cobra.Command {
	var (
		zip       string
		specialty string
		radius    string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search clinics by zip code and specialty",
		Long: `Runs the same search as the finder page.
Examples:
  clinicctl search --zip 78701
  clinicctl search --zip 78704 --radius 5 --specialty pediatrics
  clinicctl search --specialty orthodontics -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			criteria, err := core.ParseCriteria(zip, specialty, radius)
			if err != nil {
				return userError{err: err}
			}

			a, err := newApp(cmd, root)
			if err != nil {
				return err
			}

			res, err := a.service.Search(cmd.Context(), criteria)
			if err != nil {
				return a.userFacing(err)
			}

			if format != formatTable {
				return writeStructured(cmd.OutOrStdout(), format, res)
			}
			return writeResultTable(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&zip, "zip", "", "center the search on this zip code")
	cmd.Flags().StringVar(&specialty, "specialty", "", "only clinics offering this specialty")
	cmd.Flags().StringVar(&radius, "radius", "", "search radius in miles (default from FINDER_DEFAULT_RADIUS_MILES)")
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")
	return cmd
}

func writeResultTable(w io.Writer, res finder.Result) error {
	if res.Notice != "" {
		fmt.Fprintf(w, "Note: %s\n\n", res.Notice)
	}
	if len(res.Clinics) == 0 {
		_, err := fmt.Fprintln(w, "No clinics match your search.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tZIP\tDISTANCE\tSPECIALTY\tPHONE")
	for _, c := range res.Clinics {
		distance := c.DistanceLabel
		if distance == "" {
			distance = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.ZipCode, distance, c.DisplaySpecialty(), c.Phone)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d clinic(s)\n", len(res.Clinics))
	return err
}
