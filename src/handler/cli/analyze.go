package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dirmetrics/src/controller"
	"dirmetrics/src/util"
)

func (h *Handler) analyzeCmd() *cobra.Command {
	var (
		flags     scanFlags
		outputDir string
		format    string
		timeout   time.Duration
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [directory]",
		Short: "Analyze a directory once",
		Long:  "Runs one incremental pass over a directory, seeded with its stored snapshot, and prints or writes the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			filters, mode, err := flags.resolve(h.cfg)
			if err != nil {
				return err
			}

			util.Info("Analyzing directory: %s (timeout: %v)", dir, timeout)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			req := controller.AnalyzeRequest{
				Directory:   dir,
				ScanMode:    mode,
				IsProject:   flags.project,
				Filters:     filters,
				UseSnapshot: !flags.noSnap,
			}
			if !quiet {
				progress := newConsoleNotifier(os.Stderr)
				req.Progress = func(current, total int, fileName string) {
					progress.Progress(dir, current, total, fileName)
				}
			}

			analysisCtrl := controller.NewAnalysisController(h.cfg)
			result, err := analysisCtrl.Analyze(ctx, req)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			reportCtrl := controller.NewReportController(h.cfg)
			if outputDir != "" {
				h.cfg.Output.OutputDir = outputDir
				if format != "" {
					h.cfg.Output.Formats = []string{format}
				}

				paths, err := reportCtrl.GenerateReports(result)
				if err != nil {
					return fmt.Errorf("generating reports: %w", err)
				}
				for _, path := range paths {
					fmt.Printf("Report written to %s\n", path)
				}
			} else {
				outputFormat := format
				if outputFormat == "" {
					outputFormat = "json"
				}
				output, err := reportCtrl.GenerateToString(result, outputFormat)
				if err != nil {
					return fmt.Errorf("generating report: %w", err)
				}
				fmt.Println(output)
			}

			// Print summary to stderr
			s := result.Summary
			fmt.Fprintf(os.Stderr, "\nAnalysis complete:\n")
			fmt.Fprintf(os.Stderr, "  Files: %d (%d not analyzed)\n", s.TotalFiles, s.TotalFilesNotAnalyzed)
			fmt.Fprintf(os.Stderr, "  Functions: %d, average complexity %.2f, max %d\n", s.TotalFunctions, s.AverageComplexity, s.MaxComplexity)
			if result.Metadata.IsIncremental {
				fmt.Fprintf(os.Stderr, "  Incremental: %d analyzed, %d reused, %d deleted\n",
					result.Metadata.FilesAnalyzedThisSession, result.Metadata.FilesReused, result.Metadata.FilesDeleted)
			}

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory path")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (json, markdown, sarif)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Minute, "Analysis timeout")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress")

	return cmd
}
