package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagLogLevel   string
	flagLogFormat  string
)

var rootCmd = &cobra.Command{
	Use:          "answerhub",
	Short:        "Match questions to task handlers and answer them",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `answerhub matches a free-text question against a catalog of known
questions, extracts the call parameters with an LLM and runs the handler
registered for the best match.

Run 'answerhub serve' for the HTTP API or 'answerhub ask' for a one-off answer.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "Config file (default ~/.answerhub/answerhub.yaml)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: json or text (overrides config)")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
