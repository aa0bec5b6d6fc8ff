package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"immunoscope/app"
	"immunoscope/internal"
	"immunoscope/internal/config"
	"immunoscope/internal/container"
	"immunoscope/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "immunoscope",
		Short: "Cytotoxic T-cell signature vs vital status for RNA-seq cohorts",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if code := errors.GetCode(err); code != "UNKNOWN" {
			fmt.Fprintf(os.Stderr, "error code: %s\n", code)
		}
		os.Exit(1)
	}
}

type runFlags struct {
	project    string
	source     string
	limit      int
	panel      string
	counts     string
	genes      string
	clinical   string
	exportFile string
	reportHTML string
	cacheDir   string
	workers    int
	seed       int64
	logLevel   string
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Retrieve a cohort, score the marker panel and test it against vital status",
		Long: `Run the full pipeline: retrieval, symbol assembly, log2(x+1), signature
scoring, clinical join and the two-sided Wilcoxon rank-sum test.

Flags override the environment (COHORT_PROJECT, DATA_SOURCE, MARKER_PANEL, ...).

Example: immunoscope run --project TCGA-LUAD --limit 20 --export luad.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			applyRunFlags(cmd, cfg, f)
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "configuration validation failed")
			}
			return runPipeline(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&f.project, "project", "", "Project id, default TCGA-LUAD")
	cmd.Flags().StringVar(&f.source, "source", "", "Data source: gdc, file or synthetic")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Keep only the first N samples (0 = no limit)")
	cmd.Flags().StringVar(&f.panel, "panel", "", "Comma-separated marker symbols")
	cmd.Flags().StringVar(&f.counts, "counts", "", "Counts table for the file source")
	cmd.Flags().StringVar(&f.genes, "genes", "", "Gene annotation table for the file source")
	cmd.Flags().StringVar(&f.clinical, "clinical", "", "Clinical table for the file source")
	cmd.Flags().StringVar(&f.exportFile, "export", "", "Write signature, outcome and test sheets to this xlsx file")
	cmd.Flags().StringVar(&f.reportHTML, "report", "", "Write an HTML report to this path")
	cmd.Flags().StringVar(&f.cacheDir, "cache-dir", "", "Download cache for the gdc source")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent downloads for the gdc source")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Seed for the synthetic source")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE")

	return cmd
}

// applyRunFlags overrides config values for flags the user actually set
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, f runFlags) {
	changed := cmd.Flags().Changed
	if changed("project") {
		cfg.Cohort.ProjectID = f.project
	}
	if changed("source") {
		cfg.Source.Kind = strings.ToLower(f.source)
	}
	if changed("limit") {
		cfg.Cohort.RowLimit = f.limit
	}
	if changed("panel") {
		cfg.Signature.MarkerPanel = splitList(f.panel)
	}
	if changed("counts") {
		cfg.Source.CountsFile = f.counts
	}
	if changed("genes") {
		cfg.Source.GenesFile = f.genes
	}
	if changed("clinical") {
		cfg.Source.ClinicalFile = f.clinical
	}
	if changed("export") {
		cfg.Output.ExportFile = f.exportFile
	}
	if changed("report") {
		cfg.Output.ReportHTML = f.reportHTML
	}
	if changed("cache-dir") {
		cfg.Source.CacheDir = f.cacheDir
	}
	if changed("workers") {
		cfg.Source.DownloadWorkers = f.workers
	}
	if changed("seed") {
		cfg.Source.SyntheticSeed = f.seed
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
}

func runPipeline(ctx context.Context, cfg *config.Config) error {
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level))
	c, err := container.New(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.InitWithDatabase(ctx); err != nil {
		return err
	}

	run, err := c.Pipeline.Run(ctx, cfg.Cohort, app.PipelineOptions{
		Panel:      cfg.Signature.MarkerPanel,
		ExportFile: cfg.Output.ExportFile,
	})
	if run != nil {
		fmt.Print(app.RenderText(run))
	}
	if err != nil {
		return err
	}

	if cfg.Output.ReportHTML != "" {
		if err := app.WriteHTMLReport(cfg.Output.ReportHTML, run); err != nil {
			return errors.ExportError("failed to write HTML report", err)
		}
		logger.Info("[report] wrote %s", cfg.Output.ReportHTML)
	}
	return nil
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs stored in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			runs, err := c.Pipeline.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  %-10s %-12s n=%d+%d  W=%g  p=%.4g  %s\n",
					r.ID, r.CreatedAt, r.Source, r.Query.ProjectID, r.Test.NX, r.Test.NY,
					r.Test.Statistic, r.Test.PValue, r.Verdict)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	cmd.AddCommand(newRunsShowCmd())
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the report of one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			run, err := c.Pipeline.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(app.RenderText(run))
			return nil
		},
	}
}

// openRunStore builds a container connected to the run database
func openRunStore(cmd *cobra.Command) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required to read stored runs")
	}

	c, err := container.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	if err := c.InitWithDatabase(cmd.Context()); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
