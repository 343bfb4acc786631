package cli

import (
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/itish2003/voicerag/config"
	"github.com/itish2003/voicerag/models"
)

var ingestLimit int

var ingestCmd = &cobra.Command{
	Use:   "ingest <url>",
	Short: "Crawl a site and index its pages",
	Long: `Crawl a site through Firecrawl and index every page into the configured
vector store. Requires FIRECRAWL_API_KEY.

Examples:
  voicerag ingest https://docs.example.com
  voicerag ingest https://docs.example.com --limit 50`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVarP(&ingestLimit, "limit", "l", 0, "maximum pages to crawl (default crawl.page_limit)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context(), cfg, config.CredentialsFromEnv())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Crawling %s...\n", args[0])

	// Created once the total is known.
	var (
		bar   *progressbar.ProgressBar
		barMu sync.Mutex
	)
	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}
		bar.Set(done)
	}

	indexed, err := a.rag.IngestSite(cmd.Context(), models.IngestSiteRequest{
		SourceURL: args[0],
		PageLimit: ingestLimit,
	}, progress)
	if err != nil {
		return fmt.Errorf("ingest failed after %d documents: %w", indexed, err)
	}

	total, err := a.rag.TotalPoints(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "Indexed %d documents\n", indexed)
		return nil
	}
	fmt.Fprintf(out, "Indexed %d documents (%d points in %q)\n", indexed, total, cfg.VectorStore.Collection)
	return nil
}
