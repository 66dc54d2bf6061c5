package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Port         string `validate:"required,numeric"`
	LogLevel     string `validate:"oneof=debug info warn error"`
	DatabasePath string `validate:"required"`

	// S3 archive of uploaded certificates
	S3Enabled         bool
	S3Endpoint        string `validate:"required_if=S3Enabled true"`
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string `validate:"required_if=S3Enabled true"`
	S3UseSSL          bool

	// Verification
	CourseRegistryPath string
	PageSeparator      string
	BatchConcurrency   int `validate:"min=1,max=64"`

	// Upload limits
	MaxFileSize   int64 `validate:"min=1"`
	MaxBatchFiles int   `validate:"min=1"`

	// Report
	ReportRowsPerPage int `validate:"min=8"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabasePath:       getEnv("DATABASE_PATH", "data/certificates.db"),
		S3Enabled:          getEnvBool("S3_ENABLED", false),
		S3Endpoint:         getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "certificates"),
		S3UseSSL:           getEnvBool("S3_USE_SSL", false),
		CourseRegistryPath: getEnv("COURSE_REGISTRY_PATH", ""),
		PageSeparator:      unescape(getEnv("PAGE_SEPARATOR", `\n`)),
		BatchConcurrency:   getEnvInt("BATCH_CONCURRENCY", 4),
		MaxFileSize:        int64(getEnvInt("MAX_FILE_SIZE", 5<<20)),
		MaxBatchFiles:      getEnvInt("MAX_BATCH_FILES", 3),
		ReportRowsPerPage:  getEnvInt("REPORT_ROWS_PER_PAGE", 40),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and reports every violation at once.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// unescape lets PAGE_SEPARATOR be written as \n, \f or \t in env files.
func unescape(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\f`, "\f", `\t`, "\t").Replace(s)
}
