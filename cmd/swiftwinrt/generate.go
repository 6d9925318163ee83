package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swiftwinrt/internal/buildpipeline"
	"swiftwinrt/internal/diag"
	"swiftwinrt/internal/observ"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags]",
	Short: "Generate the Swift projection of WinRT metadata",
	Long: `Generate Swift packages, C ABI headers and build files for the namespaces
of the input metadata. Settings come from swiftwinrt.toml when present;
flags override the file.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	registerSettingsFlags(generateCmd)
	generateCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	root := cmd.Root().PersistentFlags()
	colorValue, err := root.GetString("color")
	if err != nil {
		return err
	}
	if err := applyColorMode(colorValue); err != nil {
		return err
	}
	showTimings, err := root.GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := root.GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	log, err := observ.NewLogger(s.Verbose, s.Log)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = log.Sync() }()

	req := &buildpipeline.Request{Settings: s, Log: log}
	if showTimings {
		req.Timer = observ.NewTimer()
	}
	if s.Verbose {
		req.Progress = buildpipeline.LogSink{Log: log}
	}

	var res buildpipeline.Result
	// подробный лог и TUI делят терминал, поэтому при --verbose без UI
	if shouldUseTUI(mode) && !s.Verbose {
		res, err = runGenerateWithUI(cmd.Context(), "swiftwinrt generate", req)
	} else {
		res, err = buildpipeline.Generate(cmd.Context(), req)
	}
	if res.Diagnostics != nil {
		printDiagnostics(os.Stderr, res.Diagnostics.Items(), maxDiagnostics)
	}
	if showTimings {
		if terr := printStageTimings(os.Stdout, res.Timings, req.Timer); terr != nil && err == nil {
			err = terr
		}
	}
	if err != nil {
		return err
	}
	printSummary(os.Stdout, s.Output, res)
	return nil
}

func printSummary(out io.Writer, output string, res buildpipeline.Result) {
	cached, written, files := 0, 0, 0
	for _, m := range res.Modules {
		if m.Cached {
			cached++
			continue
		}
		files += len(m.Files)
		written += m.Written()
	}
	green := color.New(color.FgGreen, color.Bold)
	fmt.Fprintf(out, "%s %d module(s) in %s: %d file(s), %d changed",
		green.Sprint("generated"), len(res.Modules), output, files, written)
	if cached > 0 {
		fmt.Fprintf(out, ", %d up to date", cached)
	}
	fmt.Fprintln(out)
	if len(res.Component) > 0 {
		kept := 0
		for _, f := range res.Component {
			if f.Kept {
				kept++
			}
		}
		fmt.Fprintf(out, "%s %d file(s), %d existing stub(s) kept\n", green.Sprint("component"), len(res.Component), kept)
	}
}

// printDiagnostics writes diagnostics one per line, coloured by severity.
// limit 0 prints all.
func printDiagnostics(out io.Writer, items []diag.Diagnostic, limit int) {
	shown := items
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, d := range shown {
		line := diag.FormatShort([]diag.Diagnostic{d}, true)
		switch d.Severity {
		case diag.SevError:
			color.New(color.FgRed).Fprint(out, line)
		case diag.SevWarning:
			color.New(color.FgYellow).Fprint(out, line)
		default:
			fmt.Fprint(out, line)
		}
	}
	if rest := len(items) - len(shown); rest > 0 {
		fmt.Fprintf(out, "... %d more diagnostic(s)\n", rest)
	}
}
