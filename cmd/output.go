package cmd

import (
	"fmt"
	"io"
	"os"
)

// Status icons used by doctor, init and catalog show:
//
//	✓  check passed, handler registered, file written
//	✗  check failed (stderr)
//	⚠  entry answered by the fallback, extractor unconfigured
//	○  nothing to do: file already present, handler takes no parameters
//	-  optional setting absent, e.g. no redeploy secret
//	~  detail line: handler parameter, unreferenced handler
const (
	iconOK   = "✓"
	iconErr  = "✗"
	iconWarn = "⚠"
	iconSkip = "○"
	iconMiss = "-"
	iconInfo = "~"
)

// statusLine writes "  <icon>  msg", or "  <icon>  [name] msg" when name is set.
func statusLine(w io.Writer, icon, name, msg string) {
	if name != "" {
		msg = "[" + name + "] " + msg
	}
	fmt.Fprintf(w, "  %s  %s\n", icon, msg)
}

// printSection prints an entry header, e.g. "=== count_weekdays ===".
func printSection(title string) {
	fmt.Printf("\n=== %s ===\n", title)
}

// printBullet prints a sub-heading, e.g. "● Parameters:".
func printBullet(title string) {
	fmt.Printf("\n● %s\n", title)
}

func printOK(name, msg string)   { statusLine(os.Stdout, iconOK, name, msg) }
func printErr(name, msg string)  { statusLine(os.Stderr, iconErr, name, msg) }
func printWarn(name, msg string) { statusLine(os.Stdout, iconWarn, name, msg) }
func printSkip(name, msg string) { statusLine(os.Stdout, iconSkip, name, msg) }
func printMiss(name, msg string) { statusLine(os.Stdout, iconMiss, name, msg) }
func printInfo(name, msg string) { statusLine(os.Stdout, iconInfo, name, msg) }
