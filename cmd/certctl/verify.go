package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/certificate-verifier/internal/extractor"
	"github.com/BerylCAtieno/certificate-verifier/internal/utils"
	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

var (
	showRaw     bool
	strict      bool
	concurrency int
)

var verifyCmd = &cobra.Command{
	Use:   "verify FILE...",
	Short: "Verify certificates and print one JSON outcome per file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&showRaw, "raw", false, "include the extracted raw text in the output")
	verifyCmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any file is rejected")
	verifyCmd.Flags().IntVarP(&concurrency, "jobs", "j", 4, "files verified in parallel")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	outcomes := verifyFiles(engine, args, pageSeparator, concurrency, newLogger())
	if !showRaw {
		for i := range outcomes {
			outcomes[i].RawText = ""
		}
	}

	if err := writeOutcomes(cmd.OutOrStdout(), outcomes); err != nil {
		return err
	}

	if strict {
		if n := rejectedCount(outcomes); n > 0 {
			return fmt.Errorf("%d of %d certificates rejected", n, len(outcomes))
		}
	}
	return nil
}

// verifyFiles returns one outcome per path, in argument order. Unreadable or
// unsupported files become rejections like any other.
func verifyFiles(engine *verifier.Engine, paths []string, sep string, jobs int, logger *utils.Logger) []verifier.Outcome {
	if jobs <= 0 {
		jobs = 1
	}

	reader := extractor.NewPDFReader()
	outcomes := make([]verifier.Outcome, len(paths))

	var eg errgroup.Group
	eg.SetLimit(jobs)
	for i, path := range paths {
		eg.Go(func() error {
			outcomes[i] = verifyFile(engine, reader, path, sep)
			o := outcomes[i]
			if o.Verified() {
				logger.Info("Certificate verified", "file", path, "course_code", o.Certificate.CourseCode)
			} else {
				logger.Info("Certificate rejected", "file", path, "kind", o.Rejection.Kind)
			}
			return nil
		})
	}
	_ = eg.Wait()

	return outcomes
}

func verifyFile(engine *verifier.Engine, reader *extractor.PDFReader, path, sep string) verifier.Outcome {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return verifier.Rejected(name, "", verifier.NewProcessingError("failed to read file", err))
	}

	var pages []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		if err := reader.Validate(data); err != nil {
			return verifier.Rejected(name, "", verifier.NewNotPDF(err))
		}
		pages, err = reader.ExtractPages(data)
	case ".txt":
		pages, err = extractor.ExtractTXT(data)
	default:
		return verifier.Rejected(name, "", verifier.NewNotPDF(fmt.Errorf("unsupported file type %q", filepath.Ext(path))))
	}
	if err != nil {
		return verifier.Rejected(name, "", verifier.NewProcessingError("text extraction failed", err))
	}

	return engine.Evaluate(verifier.JoinPages(pages, sep), name)
}

func writeOutcomes(w io.Writer, outcomes []verifier.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcomes)
}

func rejectedCount(outcomes []verifier.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Verified() {
			n++
		}
	}
	return n
}
