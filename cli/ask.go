package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itish2003/voicerag/config"
	"github.com/itish2003/voicerag/models"
)

var (
	askVoice string
	askK     int
	askOut   string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the index, with audio",
	Long: `Retrieve the most relevant indexed pages, answer the question from them and
render the answer as speech.

Examples:
  voicerag ask "How do I rotate API keys?"
  voicerag ask "What is a collection?" --voice onyx --out answer.mp3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askVoice, "voice", "", "voice preset: alloy, echo, fable, onyx, nova")
	askCmd.Flags().IntVarP(&askK, "k", "k", 0, "number of documents to retrieve (default retrieve.top_k)")
	askCmd.Flags().StringVarP(&askOut, "out", "o", "", "copy the audio here and delete the temporary artifact")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askVoice != "" {
		if _, err := models.ParseVoice(askVoice); err != nil {
			return err
		}
	}

	a, err := buildApp(cmd.Context(), cfg, config.CredentialsFromEnv())
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.rag.Query(cmd.Context(), models.QueryTextRequest{
		Query: strings.Join(args, " "),
		Voice: askVoice,
		K:     askK,
	})
	return printResult(cmd.OutOrStdout(), result, askOut)
}

// printResult renders a query result for the terminal. Only ok and
// no_results count as success.
func printResult(w io.Writer, result *models.QueryResult, out string) error {
	switch result.Status {
	case models.StatusOK:
	case models.StatusNoResults:
		fmt.Fprintln(w, result.Message)
		return nil
	default:
		return fmt.Errorf("%s: %s", result.Status, result.Message)
	}

	resp := result.Response
	fmt.Fprintln(w, resp.TextResponse)
	fmt.Fprintln(w)
	if resp.DeliveryInstructions != "" {
		fmt.Fprintf(w, "Delivery: %s\n", resp.DeliveryInstructions)
	}
	if len(resp.Sources) > 0 {
		fmt.Fprintln(w, "Sources:")
		for _, s := range resp.Sources {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	if result.Message != "" {
		fmt.Fprintf(w, "Note: %s\n", result.Message)
	}
	if resp.Audio == nil {
		return nil
	}

	if out == "" {
		fmt.Fprintf(w, "Audio: %s\n", resp.Audio.Path)
		return nil
	}
	if err := copyFile(resp.Audio.Path, out); err != nil {
		return fmt.Errorf("failed to save audio: %w", err)
	}
	if err := resp.Audio.Remove(); err != nil {
		return fmt.Errorf("failed to remove audio artifact: %w", err)
	}
	fmt.Fprintf(w, "Audio: %s\n", out)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
