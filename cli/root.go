// Package cli holds the voicerag command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/itish2003/voicerag/config"
	"github.com/itish2003/voicerag/logger"
)

var (
	cfgFile string
	envFile string
	verbose bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "voicerag",
	Short: "Voice RAG - crawl a site, index it and answer questions out loud",
	Long: `voicerag crawls a documentation site, embeds every page into a vector
store and answers questions about it with a text reply and a spoken rendition.

Example usage:
  voicerag ingest https://docs.example.com --limit 20   # Crawl and index a site
  voicerag ask "How do I configure auth?" --voice nova   # Ask a question
  voicerag serve                                         # Run the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger.Init(level, os.Stderr)

		return cfg.Validate()
	},
}

// Execute runs the root command and exits non-zero on failure. SIGINT and
// SIGTERM cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "voicerag.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with API keys")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
