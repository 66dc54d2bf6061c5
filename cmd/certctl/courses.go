package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the approved courses in match priority order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		return printCourses(cmd.OutOrStdout(), engine.Registry())
	},
}

func init() {
	rootCmd.AddCommand(coursesCmd)
}

func printCourses(w io.Writer, registry *verifier.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tCATEGORY\tMODE\tMATCH")
	for _, e := range registry.Entries() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Code, e.Category, e.Mode, e.Match)
	}
	return tw.Flush()
}
