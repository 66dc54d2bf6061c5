package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/certificate-verifier/internal/config"
	"github.com/BerylCAtieno/certificate-verifier/internal/utils"
	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

var (
	registryPath  string
	pageSeparator string
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "certctl",
	Short: "Verify BT Group training certificates from the command line",
	Long: `certctl runs the certificate verification engine over local files.
PDFs are read page by page, .txt files are treated as already extracted text,
and anything else is rejected as not a PDF document.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load()
		if env := os.Getenv("COURSE_REGISTRY_PATH"); env != "" && !cmd.Flags().Changed("registry") {
			registryPath = env
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&registryPath, "registry", "r", "", "approved-course registry YAML (default: built-in registry)")
	rootCmd.PersistentFlags().StringVar(&pageSeparator, "separator", verifier.DefaultPageSeparator, "string joining extracted pages")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for diagnostics on stderr")
}

func newEngine() (*verifier.Engine, error) {
	registry, err := config.LoadCourseRegistry(registryPath)
	if err != nil {
		return nil, err
	}
	return verifier.DefaultEngine().WithRegistry(registry), nil
}

func newLogger() *utils.Logger {
	return utils.NewLoggerTo(rootCmd.ErrOrStderr(), logLevel)
}
