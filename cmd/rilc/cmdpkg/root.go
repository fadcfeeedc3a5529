// Package cmd implements rilc's Cobra command tree: run, watch, repl.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// buildVersion, buildCommit, and buildDate are overridden by linker
// flags at release build time; left at their dev defaults otherwise.
var (
	buildVersion = "0.1.0-dev"
	buildCommit = "unknown"
	buildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use: "rilc",
	Short: "Ril compiler and runtime",
	Long: `rilc compiles and runs Ril programs: a small statically-typed,
expression-oriented language with constraint-based type inference, a
bytecode compiler and stack VM, and an incremental unit/dependency
manager.`,
	Version: buildVersion,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("rilc version %s\ncommit %s, built %s\n", buildVersion, buildCommit, buildDate))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log each load phase (parse/typecheck/instantiate/compile/run) to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLoadLogger returns the phase logger every subcommand threads into
// unit.NewManager: stderr text at Info level when --verbose is set, nil
// (disabled) otherwise.
func newLoadLogger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
