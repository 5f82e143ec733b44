package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"expose/internal/diag"
	"expose/internal/diagfmt"
	"expose/internal/driver"
	"expose/internal/expose"
)

const fixtureSuffix = ".xg.toml"

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.xg.toml|directory>...",
	Short: "Check which declarations can be exposed to the foreign runtime",
	Long:  `Check loads declaration fixtures, runs exposure inference and signature checks, and reports every declaration that cannot be exported along with the reason`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	checkCmd.Flags().String("ui", "auto", "interactive progress view (auto|on|off)")
	checkCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	checkCmd.Flags().Bool("cache", true, "reuse results for unchanged fixtures")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("short-paths", false, "print file basenames instead of full paths")
	checkCmd.Flags().Bool("stats", false, "print per-fixture exposure counts")
	checkCmd.Flags().Bool("legacy-inference", false, "enable whole-hierarchy implicit exposure inference")
	checkCmd.Flags().String("legacy-warnings", "", "legacy inference warnings (none|minimal|complete)")
	checkCmd.Flags().Bool("require-foreign-root", false, "reject the exposure attribute on natively rooted classes")
	checkCmd.Flags().Bool("no-interop", false, "check as if foreign interop were disabled")
}

// langOverridesFromFlags merges manifest defaults with explicit CLI flags;
// a flag the user set always wins over the manifest.
func langOverridesFromFlags(cmd *cobra.Command) (*expose.LangOverrides, string, error) {
	overrides := &expose.LangOverrides{}
	title := ""
	if path, ok := findManifest("."); ok {
		m, err := loadManifest(path)
		if err != nil {
			return nil, "", err
		}
		overrides, err = m.langOverrides()
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		title = m.Package.Name
	}

	if cmd.Flags().Changed("legacy-inference") {
		v, err := cmd.Flags().GetBool("legacy-inference")
		if err != nil {
			return nil, "", err
		}
		overrides.LegacyInference = &v
	}
	if cmd.Flags().Changed("legacy-warnings") {
		raw, err := cmd.Flags().GetString("legacy-warnings")
		if err != nil {
			return nil, "", err
		}
		mode, err := parseWarningMode(raw)
		if err != nil {
			return nil, "", err
		}
		overrides.LegacyWarnings = &mode
	}
	if cmd.Flags().Changed("require-foreign-root") {
		v, err := cmd.Flags().GetBool("require-foreign-root")
		if err != nil {
			return nil, "", err
		}
		overrides.AttrRequiresForeignRoot = &v
	}
	if cmd.Flags().Changed("no-interop") {
		v, err := cmd.Flags().GetBool("no-interop")
		if err != nil {
			return nil, "", err
		}
		enabled := !v
		overrides.InteropEnabled = &enabled
	}
	return overrides, title, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	shortPaths, err := cmd.Flags().GetBool("short-paths")
	if err != nil {
		return fmt.Errorf("failed to get short-paths flag: %w", err)
	}
	showStats, err := cmd.Flags().GetBool("stats")
	if err != nil {
		return fmt.Errorf("failed to get stats flag: %w", err)
	}

	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	files, err := collectFixtures(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s fixtures found", fixtureSuffix)
	}

	lang, project, err := langOverridesFromFlags(cmd)
	if err != nil {
		return err
	}

	opts := driver.Options{Jobs: jobs, Lang: lang}
	if useCache {
		cache, err := driver.OpenDiskCache("expose")
		if err != nil {
			return fmt.Errorf("failed to open disk cache: %w", err)
		}
		opts.Cache = cache
	}

	title := "checking exposure"
	if project != "" {
		title = fmt.Sprintf("checking %s", project)
	}

	useTUI := format == "pretty" && shouldUseTUI(mode)
	var results []*driver.Result
	if useTUI {
		results, err = runCheckWithUI(cmd.Context(), title, files, opts)
	} else {
		results, err = driver.CheckFiles(cmd.Context(), files, opts)
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if noWarnings {
		for _, r := range results {
			dropWarnings(r.Bag)
		}
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))

	pathMode := diagfmt.PathModeFull
	if shortPaths {
		pathMode = diagfmt.PathModeBasename
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	exit := 0
	for _, r := range results {
		if r.HasErrors() {
			exit = 1
		}
	}

	switch format {
	case "pretty":
		prettyOpts := diagfmt.PrettyOpts{
			Color:     useColor,
			PathMode:  pathMode,
			ShowNotes: withNotes,
			ShowFixes: suggest,
		}
		for idx, r := range results {
			if idx > 0 {
				fmt.Fprintln(os.Stdout)
			}
			fmt.Fprintf(os.Stdout, "== %s ==\n", displayPath(r.Path, shortPaths))
			diagfmt.Pretty(os.Stdout, r.Bag, r.Files, prettyOpts)
			if showStats || r.Bag.Len() == 0 {
				fmt.Fprintf(os.Stdout, "%d of %d declarations exposed\n",
					r.Stats.Exposed, r.Stats.Declarations)
			}
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			Max:              maxDiagnostics,
			IncludeNotes:     withNotes,
			IncludeFixes:     suggest,
		}
		output := make(map[string]diagfmt.DiagnosticsOutput, len(results))
		for _, r := range results {
			output[displayPath(r.Path, shortPaths)] = diagfmt.BuildDiagnosticsOutput(r.Bag, r.Files, jsonOpts)
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
	}

	if exit != 0 {
		// Diagnostics are already printed, keep cobra quiet.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

// collectFixtures expands the argument list: files are taken as-is,
// directories contribute every fixture beneath them.
func collectFixtures(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path: %w", err)
		}
		if !st.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, fixtureSuffix) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func dropWarnings(bag *diag.Bag) {
	kept := diag.NewBag(int(bag.Cap()))
	for _, d := range bag.Items() {
		if d.Severity == diag.SevWarning {
			continue
		}
		kept.Add(d)
	}
	*bag = *kept
}

func displayPath(path string, short bool) string {
	if short {
		return filepath.Base(path)
	}
	return path
}
