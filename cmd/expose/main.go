package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"expose/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "expose",
	Short: "Exposure checker for the selector-based foreign runtime",
	Long:  `expose decides whether declarations can be exported to the foreign object runtime and explains the ones that cannot`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
