package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/answerhub/internal/catalog"
	"github.com/kamusis/answerhub/internal/dispatch"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the question catalog and its handlers",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries in match order",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show one catalog entry and the signature of its handler",
	Long: `Display a catalog entry, the handler it dispatches to and the
parameters the extractor is asked to fill in.

Example:
  answerhub catalog show count_weekdays`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogShow,
}

func init() {
	catalogCmd.AddCommand(catalogListCmd, catalogShowCmd)
	rootCmd.AddCommand(catalogCmd)
}

func loadCatalog() (*catalog.Catalog, *dispatch.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	reg, err := newRegistry()
	if err != nil {
		return nil, nil, err
	}
	return cat, reg, nil
}

// unreferencedHandlers returns registered handler keys no catalog entry dispatches to.
func unreferencedHandlers(cat *catalog.Catalog, reg *dispatch.Registry) []string {
	used := make(map[string]bool, cat.Len())
	for _, e := range cat.Entries() {
		used[e.Handler] = true
	}
	var out []string
	for _, d := range reg.Descriptors() {
		if !used[d.Key] {
			out = append(out, d.Key)
		}
	}
	return out
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	cat, reg, err := loadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Catalog: %d entries (fingerprint %.12s)\n\n", cat.Len(), cat.Fingerprint())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tKEY\tHANDLER\tSTATUS")
	for i, e := range cat.Entries() {
		status := "ok"
		if _, err := reg.Resolve(e.Handler); errors.Is(err, dispatch.ErrUnknownHandler) {
			status = "fallback"
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", i+1, e.Key, e.Handler, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if extra := unreferencedHandlers(cat, reg); len(extra) > 0 {
		fmt.Fprintf(out, "\nRegistered but unreferenced handlers: %s\n", strings.Join(extra, ", "))
	}
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cat, reg, err := loadCatalog()
	if err != nil {
		return err
	}
	e, err := cat.Lookup(args[0])
	if err != nil {
		return err
	}

	printSection(e.Key)
	fmt.Printf("\n  Description: %s\n", e.Description)
	fmt.Printf("  Handler:     %s\n", e.Handler)

	h, err := reg.Resolve(e.Handler)
	if err != nil {
		printWarn("", "no handler registered; questions matching this entry get the fallback answer")
		return nil
	}
	if h.Summary != "" {
		fmt.Printf("  Summary:     %s\n", h.Summary)
	}

	printBullet("Parameters:")
	if h.Arity() == 0 {
		printSkip("", "none (called without arguments)")
		return nil
	}
	for i, p := range h.Params {
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		line := fmt.Sprintf("%s (%s)", p.Name, typ)
		if p.Required {
			line += " required"
		}
		if i == 0 && h.AcceptsFile {
			line += " ← uploaded file path"
		} else if p.Description != "" {
			line += ": " + p.Description
		}
		printInfo("", line)
	}
	return nil
}
