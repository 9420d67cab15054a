// Package main provides the hyperast CLI entry point: ingest, diff, and
// references over the content-addressed AST store (SPEC_FULL.md §6).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperast/hyperast-go/internal/config"
	"github.com/hyperast/hyperast-go/pkg/observability"
	"github.com/hyperast/hyperast-go/pkg/version"
)

var (
	cfgFile string //nolint:gochecknoglobals // CLI flag variable
	verbose bool   //nolint:gochecknoglobals // CLI flag variable
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hyperast",
		Short: "hyperast is a content-addressed AST store, structural differ, and reference resolver",
		Long: `hyperast stores parsed syntax trees in a shared, deduplicated arena,
computes structural diffs between two trees (GumTree-style top-down/bottom-up
matching), and resolves identifier references against a Java-like scope
model.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .hyperast.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose tracing spans and debug logs")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(referencesCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "hyperast %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

// loadConfig reads the diff/cache config, honoring the --config flag.
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(cfgFile)
}

// initObservability sets up tracing/metrics/logging for one command
// invocation (SPEC_FULL.md §A.1/§A.2's ambient stack), mirroring the teacher's
// cmd/codefang run command's observability.Init call.
func initObservability(mode observability.AppMode) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.Mode = mode

	if verbose {
		cfg.TraceVerbose = true
		cfg.LogLevel = slog.LevelDebug
	}

	cfg.OTLPEndpoint = os.Getenv("HYPERAST_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("HYPERAST_OTLP_HEADERS"))
	cfg.ServiceVersion = version.Version

	return observability.Init(cfg)
}
