package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/answerhub/internal/upload"
)

var (
	flagAskFile    string
	flagAskJSON    bool
	flagAskVerbose bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question from the command line",
	Long: `Run a question through the same pipeline as 'POST /'.

Example:
  answerhub ask "How many Wednesdays are there from 1990-01-01 to 1990-12-31?"
  answerhub ask --file q1.zip "Convert the CSV files in this zip to JSON"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&flagAskFile, "file", "f", "", "Attach a file (zip archives are expanded)")
	askCmd.Flags().BoolVar(&flagAskJSON, "json", false, "Print {\"answer\": ...} as the API would")
	askCmd.Flags().BoolVarP(&flagAskVerbose, "verbose", "v", false, "Show the matched entry and outcome tags")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	question := strings.Join(args, " ")

	var filePath string
	if flagAskFile != "" {
		tmp, err := os.MkdirTemp("", "answerhub-ask-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)

		src, err := os.Open(flagAskFile)
		if err != nil {
			return fmt.Errorf("cannot open %s: %w", flagAskFile, err)
		}
		f, err := upload.NewStore(tmp).Save(filepath.Base(flagAskFile), src)
		_ = src.Close()
		if err != nil {
			return err
		}
		filePath = f.Path
	}

	out, err := a.service.Answer(cmd.Context(), question, filePath)
	if flagAskVerbose && out.Match.Key != "" {
		printInfo(out.Match.Key, fmt.Sprintf("score %.3f → handler %s", out.Match.Score, out.Handler))
		printInfo("", fmt.Sprintf("extraction: %s, dispatch: %s", out.Extraction, out.Dispatch))
		if out.ExtractionErr != nil {
			printWarn("", out.ExtractionErr.Error())
		}
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if flagAskJSON {
		enc := json.NewEncoder(w)
		return enc.Encode(map[string]any{"answer": out.Answer})
	}
	_, err = fmt.Fprintln(w, out.Answer)
	return err
}
