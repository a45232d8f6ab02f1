package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dirmetrics/src/config"
	"dirmetrics/src/controller"
	"dirmetrics/src/model"
	"dirmetrics/src/util"
)

// Handler handles CLI commands
type Handler struct {
	cfg        *config.Config
	configPath string
	rootCmd    *cobra.Command
}

// New creates a new CLI handler
func New() *Handler {
	h := &Handler{}
	h.setupCommands()
	return h
}

func (h *Handler) setupCommands() {
	h.rootCmd = &cobra.Command{
		Use:   "dirmetrics",
		Short: "Incremental directory metrics engine",
		Long:  "Computes code metrics for a directory tree and keeps them current, re-analyzing only files that changed",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return h.loadConfig()
		},
		SilenceUsage: true,
	}

	// Global flags
	h.rootCmd.PersistentFlags().StringVarP(&h.configPath, "config", "c", "",
		"Path to configuration file")

	// Add subcommands
	h.rootCmd.AddCommand(h.analyzeCmd())
	h.rootCmd.AddCommand(h.watchCmd())
	h.rootCmd.AddCommand(h.snapshotCmd())
	h.rootCmd.AddCommand(h.versionCmd())
	h.rootCmd.AddCommand(h.languagesCmd())
}

func (h *Handler) loadConfig() error {
	loader := config.NewLoader()
	cfg, err := loader.Load(h.configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	h.cfg = cfg

	// Initialize logger from config
	util.SetDefaultLogger(cfg.Logging)
	util.Debug("Configuration loaded successfully")
	util.Debug("Log level set to: %s", cfg.Logging.Level)

	if !cfg.Output.Color {
		color.NoColor = true
	}

	return nil
}

// scanFlags are shared by the commands that scan directories
type scanFlags struct {
	shallow  bool
	maxDepth int
	exclude  []string
	maxSize  int64
	project  bool
	noSnap   bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.shallow, "shallow", false, "Only scan the directory's immediate files")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", -1, "Maximum directory depth (default from config)")
	cmd.Flags().StringSliceVarP(&f.exclude, "exclude", "e", nil, "Additional exclusion glob (repeatable)")
	cmd.Flags().Int64Var(&f.maxSize, "max-file-size", -1, "Skip files larger than this many bytes, 0 for no limit (default from config)")
	cmd.Flags().BoolVar(&f.project, "project", false, "Record the result as a project analysis")
	cmd.Flags().BoolVar(&f.noSnap, "no-snapshot", false, "Do not read or write stored snapshots")
}

// resolve merges the flags over the configured defaults
func (f *scanFlags) resolve(cfg *config.Config) (model.AnalysisFilters, model.ScanMode, error) {
	filters := controller.FiltersFromConfig(cfg.Filters)
	if f.maxDepth != -1 {
		filters.MaxDepth = f.maxDepth
	}
	if f.maxSize != -1 {
		filters.MaxFileSize = f.maxSize
	}
	filters.ExcludePatterns = append(filters.ExcludePatterns, f.exclude...)
	if err := filters.Validate(); err != nil {
		return filters, model.ScanShallow, err
	}

	mode, err := model.ParseScanMode(cfg.Filters.ScanMode)
	if err != nil {
		return filters, mode, err
	}
	if f.shallow {
		mode = model.ScanShallow
	}
	return filters, mode, nil
}

// Execute runs the CLI
func (h *Handler) Execute() error {
	return h.rootCmd.Execute()
}

// Run is the main entry point
func Run() {
	handler := New()
	if err := handler.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
