package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamusis/answerhub/internal/catalog"
	"github.com/kamusis/answerhub/internal/config"
	"github.com/kamusis/answerhub/internal/dispatch"
	"github.com/kamusis/answerhub/internal/extract"
	"github.com/kamusis/answerhub/internal/match"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that answerhub's config, catalog, handlers and secrets are set up.
Run this command when something seems wrong, or before filing a bug report.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("answerhub doctor")
	fmt.Println()

	// ── Check 1: config ───────────────────────────────────────────────────────
	fmt.Println("[ answerhub.yaml ]")
	cfgPath := flagConfigPath
	if cfgPath == "" {
		cfgPath, _ = config.ConfigPath()
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		printSkip("", fmt.Sprintf("%s not found, using defaults (run 'answerhub init' to write one)", cfgPath))
	}
	cfg, loadErr := loadConfig()
	if loadErr != nil {
		failD("%v", loadErr)
	} else {
		printOK("", fmt.Sprintf("config loaded, listen %s", cfg.Listen))
	}
	fmt.Println()

	// ── Check 2: catalog ──────────────────────────────────────────────────────
	fmt.Println("[ Catalog ]")
	var cat *catalog.Catalog
	if loadErr == nil {
		c, err := catalog.Load(cfg.CatalogPath)
		switch {
		case err != nil:
			failD("%v", err)
		default:
			if _, err := match.New(c); err != nil {
				failD("cannot build matcher: %v", err)
			} else {
				cat = c
				printOK("", fmt.Sprintf("%d entries in %s (fingerprint %.12s)", c.Len(), cfg.CatalogPath, c.Fingerprint()))
			}
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Check 3: every entry has a handler ────────────────────────────────────
	fmt.Println("[ Handlers ]")
	if cat != nil {
		reg, err := newRegistry()
		if err != nil {
			failD("cannot register handlers: %v", err)
		} else {
			missing := 0
			for _, e := range cat.Entries() {
				if _, err := reg.Resolve(e.Handler); errors.Is(err, dispatch.ErrUnknownHandler) {
					printWarn(e.Key, fmt.Sprintf("handler %s not registered, answers will be %q", e.Handler, dispatch.NoMatchAnswer))
					missing++
				}
			}
			if missing == 0 {
				printOK("", fmt.Sprintf("all %d entries have a registered handler", cat.Len()))
			}
			for _, key := range unreferencedHandlers(cat, reg) {
				printInfo(key, "registered but no catalog entry dispatches to it")
			}
		}
	} else {
		printWarn("", "skipped (catalog not loaded)")
	}
	fmt.Println()

	// ── Check 4: parameter extractor ──────────────────────────────────────────
	fmt.Println("[ Parameter extractor ]")
	if loadErr == nil {
		ec, err := extract.LoadConfig(cfg.Extractor)
		if err != nil {
			failD("%v", err)
		} else if _, err := extract.NewFromConfig(ec); err != nil {
			if errors.Is(err, extract.ErrNotConfigured) {
				printWarn("", fmt.Sprintf("%v; handlers will get no arguments", err))
			} else {
				failD("%v", err)
			}
		} else {
			printOK("", fmt.Sprintf("%s / %s at %s", ec.Provider, ec.Model, ec.BaseURL))
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Check 5: redeploy ─────────────────────────────────────────────────────
	fmt.Println("[ Redeploy ]")
	if loadErr == nil {
		if secret, _ := config.GetConfigValue(config.KeyRedeploySecret); secret == "" {
			printMiss("", fmt.Sprintf("%s not set, /redeploy refuses every request", config.KeyRedeploySecret))
		} else {
			printOK("", "secret configured")
		}
		if len(cfg.Redeploy.Command) == 0 {
			printMiss("", "no redeploy command configured")
		} else if _, err := exec.LookPath(cfg.Redeploy.Command[0]); err != nil {
			printWarn("", fmt.Sprintf("redeploy command %s not found: %v", cfg.Redeploy.Command[0], err))
		} else {
			printOK("", fmt.Sprintf("command %s", cfg.Redeploy.Command[0]))
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Check 6: upload directory is writable ─────────────────────────────────
	fmt.Println("[ Upload directory ]")
	if loadErr == nil {
		if err := checkWritable(cfg.UploadDir); err != nil {
			failD("%s is not writable: %v", cfg.UploadDir, err)
		} else {
			printOK("", fmt.Sprintf("%s writable", cfg.UploadDir))
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Summary ───────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. answerhub is ready to serve.")
	} else {
		fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}

// checkWritable creates dir if needed and probes it with a throwaway file.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(filepath.Clean(name))
}
