package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/certificate-verifier/internal/report"
	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

var (
	reportOut         string
	reportTitle       string
	reportRowsPerPage int
)

var reportCmd = &cobra.Command{
	Use:   "report FILE...",
	Short: "Verify certificates and write the verified ones to an XLSX report",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "certificates.xlsx", "output workbook path")
	reportCmd.Flags().StringVar(&reportTitle, "title", report.DefaultConfig().Title, "title printed at the top of every page")
	reportCmd.Flags().IntVar(&reportRowsPerPage, "rows-per-page", report.DefaultRowsPerPage, "rows before a page break")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	outcomes := verifyFiles(engine, args, pageSeparator, concurrency, newLogger())
	certs := verifiedCertificates(outcomes)

	renderer := report.NewRenderer(report.Config{Title: reportTitle, RowsPerPage: reportRowsPerPage})
	data, err := renderer.Render(certs)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if err := os.WriteFile(reportOut, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s: %d verified, %d rejected\n", reportOut, len(certs), len(outcomes)-len(certs))
	for _, o := range outcomes {
		if !o.Verified() {
			fmt.Fprintf(out, "  %s: %s\n", o.Filename, o.Rejection.Error())
		}
	}
	return nil
}

func verifiedCertificates(outcomes []verifier.Outcome) []verifier.VerifiedCertificate {
	var certs []verifier.VerifiedCertificate
	for _, o := range outcomes {
		if o.Verified() {
			certs = append(certs, *o.Certificate)
		}
	}
	return certs
}
