// BondTrack is a Brazilian debenture market data pipeline and dashboard API.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/claudiormpaes/BondTrack/api"
	"github.com/claudiormpaes/BondTrack/internal/config"
	"github.com/claudiormpaes/BondTrack/internal/infra"
	"github.com/claudiormpaes/BondTrack/internal/ingest"
	"github.com/claudiormpaes/BondTrack/internal/merge"
	"github.com/claudiormpaes/BondTrack/internal/providers/anbima"
	"github.com/claudiormpaes/BondTrack/internal/providers/news"
	"github.com/claudiormpaes/BondTrack/internal/providers/snd"
	"github.com/claudiormpaes/BondTrack/internal/quality"
	"github.com/claudiormpaes/BondTrack/internal/store"
	"github.com/claudiormpaes/BondTrack/pkg/dates"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bondtrack",
	Short: "Brazilian debenture market data pipeline",
	Long: `BondTrack pulls ANBIMA benchmark curves, indicative debenture rates
and SND trade prices, reconciles them into one asset view with credit
spreads over the curve, and serves the result to the dashboard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load() //nolint:errcheck

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger, err = newLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync() //nolint:errcheck
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(qualityCmd)
	rootCmd.AddCommand(curveCmd)
	rootCmd.AddCommand(serveCmd)
}

// newLogger builds a zap logger from the logging config.
func newLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	if lc.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// openStore selects Postgres when a database URL is configured and the
// in-memory store otherwise.
func openStore(ctx context.Context) (store.Store, error) {
	if cfg.Database.URL == "" {
		logger.Warn("no database configured, using in-memory store")
		return store.NewMemory(), nil
	}
	return store.NewPostgres(ctx, cfg.Database.URL, logger)
}

func newEngine(st store.Store) *merge.Engine {
	ttl := time.Duration(cfg.Engine.CacheTTL) * time.Second
	return merge.NewEngine(st, infra.NewCache(ttl), logger)
}

// resolveDate picks the explicit --date flag or the newest stored date.
func resolveDate(ctx context.Context, st store.Store, raw string) (civil.Date, error) {
	if raw != "" {
		return dates.Normalize(raw)
	}
	all, err := st.Dates(ctx)
	if err != nil {
		return civil.Date{}, err
	}
	if len(all) == 0 {
		return civil.Date{}, fmt.Errorf("no data loaded yet, run: bondtrack ingest")
	}
	return all[0], nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("BondTrack %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Ingest Command ---

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download and store curve, rate, trade and registry data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}

		lookback := cfg.Sources.LookbackDays
		if flagDays, _ := cmd.Flags().GetInt("days"); flagDays > 0 {
			lookback = flagDays
		}
		runner := ingest.New(st,
			anbima.NewClient(cfg.Sources, logger),
			snd.NewClient(cfg.Sources, logger),
			newEngine(st), lookback, logger)

		sum, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Ingest complete: %d curve points, %d quote days, %d trade days, %d registry rows\n",
			sum.CurvePoints, sum.QuoteDays, sum.TradeDays, sum.RegistryRows)
		return nil
	},
}

func init() {
	ingestCmd.Flags().Int("days", 0, "business days to look back (default from config)")
}

// --- Assets Command ---

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Print the merged asset view for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		rawDate, _ := cmd.Flags().GetString("date")
		day, err := resolveDate(ctx, st, rawDate)
		if err != nil {
			return err
		}
		assets, err := newEngine(st).LoadData(ctx, day)
		if err != nil {
			return err
		}

		fmt.Printf("%d assets for %s\n\n", len(assets), dates.FormatBR(day))
		fmt.Printf("%-10s %-24s %-8s %9s %8s %10s %14s %s\n",
			"CODE", "ISSUER", "INDEX", "RATE", "DUR(y)", "SPREAD", "VOLUME", "PROVENANCE")
		for _, a := range assets {
			spread := "-"
			if a.SpreadBps != nil {
				spread = fmt.Sprintf("%+.0f bps", *a.SpreadBps)
			}
			issuer := a.Issuer
			if len(issuer) > 24 {
				issuer = issuer[:24]
			}
			fmt.Printf("%-10s %-24s %-8s %9.2f %8.2f %10s %14.2f %s\n",
				a.Code, issuer, a.IndexType, a.Rate, a.DurationYears, spread, a.Volume, a.Provenance)
		}
		return nil
	},
}

// --- Quality Command ---

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Print the data quality report for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		rawDate, _ := cmd.Flags().GetString("date")
		day, err := resolveDate(ctx, st, rawDate)
		if err != nil {
			return err
		}
		assets, err := newEngine(st).LoadData(ctx, day)
		if err != nil {
			return err
		}
		report := quality.Evaluate(assets)

		fmt.Printf("Quality report for %s\n", dates.FormatBR(day))
		fmt.Printf("  Records:    %d\n", report.TotalRecords)
		fmt.Printf("  Duplicates: %d (%.1f%%)\n", report.DuplicateCount, report.DuplicatePct)
		fmt.Printf("  Score:      %.1f / 100\n\n", report.Score)
		for _, f := range report.Fields {
			fmt.Printf("  %-12s %5.1f%% complete (%d/%d)\n",
				f.Field, f.Completeness, f.Valid, f.Valid+f.Invalid)
		}
		for _, msg := range report.Inconsistencies {
			fmt.Printf("  ! %s\n", msg)
		}
		return nil
	},
}

// --- Curve Command ---

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Print benchmark curve vertices for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		rawDate, _ := cmd.Flags().GetString("date")
		var day civil.Date
		if rawDate != "" {
			if day, err = dates.Normalize(rawDate); err != nil {
				return err
			}
		} else {
			var ok bool
			if day, ok, err = st.LatestCurveDate(ctx); err != nil {
				return err
			} else if !ok {
				return fmt.Errorf("no curve loaded yet, run: bondtrack ingest")
			}
		}
		points, err := st.CurvePoints(ctx, day)
		if err != nil {
			return err
		}

		fmt.Printf("ANBIMA curve for %s (%d vertices)\n\n", dates.FormatBR(day), len(points))
		fmt.Printf("%8s %10s %10s %10s\n", "DAYS", "IPCA", "PRE", "IMPLIED")
		step := 1
		if len(points) > 40 {
			// Dense daily grids print a readable sample.
			step = len(points) / 40
		}
		for i := 0; i < len(points); i += step {
			p := points[i]
			fmt.Printf("%8d %9.2f%% %9.2f%% %9.2f%%\n", p.DayCount, p.RateIPCA, p.RatePre, p.ImpliedInflation)
		}
		return nil
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		var nc *news.Client
		if cfg.Sources.NewsFeedURL != "" {
			nc = news.NewClient(cfg.Sources.NewsFeedURL, logger)
		}
		api.Version = version
		srv := api.NewServer(cfg, st, newEngine(st), nc, logger)
		return srv.ListenAndServe()
	},
}

func init() {
	assetsCmd.Flags().String("date", "", "reference date (dd/mm/yyyy or yyyy-mm-dd)")
	qualityCmd.Flags().String("date", "", "reference date (dd/mm/yyyy or yyyy-mm-dd)")
	curveCmd.Flags().String("date", "", "reference date (dd/mm/yyyy or yyyy-mm-dd)")
}
