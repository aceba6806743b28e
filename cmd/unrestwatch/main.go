package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/unrestwatch/internal/anticipation"
	"github.com/TobiSchelling/unrestwatch/internal/config"
	"github.com/TobiSchelling/unrestwatch/internal/database"
	"github.com/TobiSchelling/unrestwatch/internal/dates"
	"github.com/TobiSchelling/unrestwatch/internal/logging"
	"github.com/TobiSchelling/unrestwatch/internal/pipeline"
	"github.com/TobiSchelling/unrestwatch/internal/record"
	"github.com/TobiSchelling/unrestwatch/internal/report"
	"github.com/TobiSchelling/unrestwatch/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *log.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "unrestwatch",
	Short:   "Protest and suppression time series from security advisories",
	Long:    "unrestwatch enriches security advisories with country, event date, protest, suppression and anticipation signals, and aggregates them into dense daily and monthly series per country.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			var err error
			logger, err = logging.Setup(os.Stderr, "", verbose)
			return err
		}

		path, err := config.ResolveConfigPath(configPath)
		switch {
		case errors.Is(err, config.ErrNoConfig):
			cfg = config.Default()
		case err != nil:
			return err
		default:
			if cfg, err = config.Load(path); err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		}

		logger, err = logging.Setup(os.Stderr, cfg.Logging.Level, verbose)
		if err != nil {
			return err
		}
		if path == "" {
			logger.Debug("no config file found, using defaults")
		} else {
			logger.Debug("loaded config", "path", path)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(classifyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("unrestwatch", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/unrestwatch/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point input.raw_csv at the scraper output.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and series status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Advisories:")
		fmt.Printf("  Total: %d\n", stats.Records)
		fmt.Printf("  Missing fields: %d\n", stats.Incomplete)
		fmt.Printf("  Country unresolved: %d\n", stats.Unresolved)
		fmt.Printf("  Undated: %d\n", stats.Undated)
		fmt.Printf("  Protests: %d\n", stats.Protests)
		fmt.Printf("  Suppressed: %d\n", stats.Suppressions)
		fmt.Printf("  Anticipated: %d\n", stats.Anticipated)
		fmt.Println("\nSeries:")
		fmt.Printf("  Countries: %d\n", stats.Countries)
		fmt.Printf("  Daily points: %d\n", stats.DailyPoints)
		fmt.Printf("  Monthly points: %d\n", stats.MonthlyPoints)
		if stats.FirstDay != "" {
			fmt.Printf("  Range: %s to %s\n", stats.FirstDay, stats.LastDay)
		}

		run, err := db.GetLastRun()
		if err != nil {
			return err
		}
		if run != nil {
			fmt.Println("\nLast run:")
			fmt.Printf("  ID: %s\n", run.ID)
			fmt.Printf("  Finished: %s (%s)\n", run.FinishedAt.Local().Format("2006-01-02 15:04"), run.Status)
			fmt.Printf("  Libraries: %s\n", run.Libraries)
		}
		return nil
	},
}

// --- import command ---

var importRaw bool

var importCmd = &cobra.Command{
	Use:   "import [csv]",
	Short: "Import advisories from a raw or enriched CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Input.RawCSV
		if len(args) == 1 {
			path = args[0]
		}
		rawOnly := cfg.Input.RawOnly
		if cmd.Flags().Changed("raw") {
			rawOnly = importRaw
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		read, n, err := pipeline.ImportFile(db, path, rawOnly)
		if err != nil {
			return err
		}
		fmt.Printf("Read %d rows from %s, %d new.\n", read, path, n)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importRaw, "raw", false, "Ignore derived columns in the CSV and re-derive every field")
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: import -> enrich -> aggregate -> export",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		engine, err := pipeline.NewEngine(cfg, logger)
		if err != nil {
			return err
		}
		pipe := pipeline.New(cfg, db, engine, logger)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Run(cmd.Context())
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.Failed() {
			return fmt.Errorf("pipeline run %s failed", result.RunID)
		}
		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'unrestwatch serve' to view the series.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the enriched dataset and series CSVs from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := pipeline.Export(cfg, db)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d files to %s\n", n, cfg.GetDataDir())
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cmd.Context(), db, port, logger)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- report command ---

var reportMonths int

var reportCmd = &cobra.Command{
	Use:   "report [country]",
	Short: "Print a country's monthly report as markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		monthly, err := db.GetMonthlySeries(args[0])
		if err != nil {
			return err
		}
		fmt.Print(report.Country(args[0], monthly, reportMonths))
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVarP(&reportMonths, "months", "m", 12, "Number of trailing months (0 for all)")
}

// --- debug commands ---

var resolveCmd = &cobra.Command{
	Use:   "resolve [text]",
	Short: "Resolve the country named in a piece of text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := pipeline.NewEngine(cfg, logger)
		if err != nil {
			return err
		}
		c := engine.Countries.Resolve(strings.Join(args, " "))
		if c == "" {
			fmt.Println("(unresolved)")
			return nil
		}
		fmt.Println(c)
		return nil
	},
}

var publishDate string

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Show every signal extracted from a piece of advisory text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := pipeline.NewEngine(cfg, logger)
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		anchor := dates.AnchorFrom(publishDate)
		if publishDate != "" && !anchor.Valid {
			logger.Warn("unparseable publish date, relative dates skipped", "publish_date", publishDate)
		}

		found := dates.Extract(text, anchor)
		anticipated := record.No
		if len(found) > 0 && anchor.Valid {
			anticipated = anticipation.Compute(found[0], anchor.Date)
		}

		fmt.Printf("Country:     %s\n", orNone(engine.Countries.Resolve(text)))
		fmt.Printf("Dates:       %s\n", orNone(dates.Format(found)))
		fmt.Printf("Protest:     %s\n", record.FlagOf(engine.Protest.Classify(text)))
		fmt.Printf("Suppression: %s\n", record.FlagOf(engine.Suppression.Classify(text)))
		if ev := engine.Suppression.Evidence(text); ev != "" {
			fmt.Printf("  evidence:  %q\n", ev)
		}
		fmt.Printf("Anticipated: %s\n", anticipated)
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&publishDate, "publish-date", "", "Publish date used to anchor relative and year-less dates")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.DataPath(cfg.Output.Database))
}
