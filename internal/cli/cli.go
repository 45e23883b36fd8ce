package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"design-localizer/internal/clone"
	"design-localizer/internal/config"
	"design-localizer/internal/document/memdoc"
	"design-localizer/internal/export"
	"design-localizer/internal/history"
	"design-localizer/internal/importer"
	"design-localizer/internal/lineage"
	"design-localizer/internal/locate"
	"design-localizer/internal/records"
	"design-localizer/internal/suggest"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:   "design-localizer",
		Short: "Import spreadsheet translations into design documents",
		Long: `Reads translation spreadsheets and produces one translated copy of every
referenced frame per language, placed beside the original. Also scans and
exports frames as raster assets.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogLevel(config.Load().LogLevel)
		},
	}
	rootCmd.PersistentFlags().String("doc", "design.json", "Design document snapshot")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(templateCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(lineageCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// initDependencies connects the optional stores. Either return value is nil
// when its connection string is not configured.
func initDependencies(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, neo4j.DriverWithContext, error) {
	var pgPool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect PostgreSQL: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping PostgreSQL: %w", err)
		}
		log.Info().Msg("Connected to PostgreSQL")
		pgPool = pool
	}

	var neo4jDriver neo4j.DriverWithContext
	if cfg.Neo4jURI != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
		if err != nil {
			closePool(pgPool)
			return nil, nil, fmt.Errorf("connect Neo4j: %w", err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			closePool(pgPool)
			driver.Close(ctx)
			return nil, nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
		}
		log.Info().Msg("Connected to Neo4j")
		neo4jDriver = driver
	}

	return pgPool, neo4jDriver, nil
}

func closePool(p *pgxpool.Pool) {
	if p != nil {
		p.Close()
	}
}

// loadHost opens a document snapshot.
func loadHost(path string) (*memdoc.Document, *memdoc.Host, error) {
	doc, err := memdoc.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if doc.Name == "" {
		doc.Name = path
	}
	return doc, memdoc.New(doc), nil
}

func importOptions(cfg *config.Config) importer.Options {
	opts := importer.DefaultOptions()
	opts.Mode = records.ParseMatchMode(cfg.MatchMode)
	opts.Locate = locate.Options{
		FuzzyFrames:     cfg.FuzzyFrameMatch,
		TextContainment: cfg.TextContainmentMatch,
	}
	if cfg.CloneMargin > 0 {
		opts.Margin = cfg.CloneMargin
	} else {
		opts.Margin = clone.DefaultMargin
	}
	opts.FallbackFamily = cfg.FallbackFontFamily
	opts.HostTimeout = cfg.HostCallTimeout
	return opts
}

func newCoordinator(cfg *config.Config, host *memdoc.Host) (*export.Coordinator, error) {
	var rules []export.Rule
	if cfg.ExportRulesFile != "" {
		loaded, err := config.LoadRules(cfg.ExportRulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	return export.NewCoordinator(host, rules, cfg.ExportTimeout)
}

// newSuggester indexes the document's frames, in PostgreSQL when a pool is
// available and in memory otherwise.
func newSuggester(ctx context.Context, pool *pgxpool.Pool, docName string, host *memdoc.Host) (*suggest.Suggester, error) {
	entries := suggest.Containers(host)
	if pool == nil {
		idx := suggest.NewMemoryIndex()
		idx.Add(entries...)
		return suggest.New(idx, 3), nil
	}

	idx := suggest.NewPgIndex(pool, docName)
	if err := idx.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure suggestion schema: %w", err)
	}
	if err := idx.Sync(ctx, entries); err != nil {
		return nil, fmt.Errorf("sync frame names: %w", err)
	}
	return suggest.New(idx, 3), nil
}

// reportWriter persists finished reports to whichever stores are connected.
type reportWriter struct {
	history *history.Store
	lineage *lineage.Recorder
}

func newReportWriter(ctx context.Context, pool *pgxpool.Pool, driver neo4j.DriverWithContext, docName string) (*reportWriter, error) {
	w := &reportWriter{}
	if pool != nil {
		w.history = history.NewStore(pool)
		if err := w.history.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure history schema: %w", err)
		}
	}
	if driver != nil {
		w.lineage = lineage.NewRecorder(driver, docName)
		if err := w.lineage.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure lineage schema: %w", err)
		}
	}
	return w, nil
}

// write stores r. Failures are logged; the document edits already happened.
func (w *reportWriter) write(ctx context.Context, r *importer.Report) {
	if w.history != nil {
		if err := w.history.Record(ctx, r); err != nil {
			log.Error().Err(err).Str("run", r.RunID).Msg("Failed to record run history")
		}
	}
	if w.lineage != nil {
		if err := w.lineage.RecordReport(ctx, r); err != nil {
			log.Error().Err(err).Str("run", r.RunID).Msg("Failed to record clone lineage")
		}
	}
}
