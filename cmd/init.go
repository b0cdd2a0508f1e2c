package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/answerhub/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and a .env template",
	Long: `Create ~/.answerhub/ with a default answerhub.yaml and a .env template
holding the extractor API key and the redeploy secret.

Existing files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	// ── 1. Resolve ~/.answerhub directory ─────────────────────────────────────
	homeDir, err := config.HomeDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", homeDir, err)
	}
	printOK("", fmt.Sprintf("answerhub directory ready: %s", homeDir))

	// ── 2. Write answerhub.yaml if missing ────────────────────────────────────
	cfgPath := flagConfigPath
	if cfgPath == "" {
		if cfgPath, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(cfgPath, config.DefaultConfig()); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 3. Write .env template if missing ─────────────────────────────────────
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		if err := config.EnsureDotEnvTemplate(); err != nil {
			return err
		}
		printOK("", fmt.Sprintf(".env template written: %s", envPath))
	} else {
		printSkip("", fmt.Sprintf(".env already exists: %s", envPath))
	}

	fmt.Println("\n✓  answerhub init complete. Fill in the .env secrets, then run 'answerhub doctor'.")
	return nil
}
