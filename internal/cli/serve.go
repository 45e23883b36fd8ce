package cli

import (
	"context"
	"fmt"

	"design-localizer/internal/bridge"
	"design-localizer/internal/config"
	"design-localizer/internal/importer"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document to a UI over a websocket bridge",
		Long: `Accepts import-translations, scan-assets, export-assets and close commands
from a UI session. The document is saved when the server stops, either on a
signal or when the UI sends close.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath, _ := cmd.Flags().GetString("doc")
			addr, _ := cmd.Flags().GetString("addr")
			outDir, _ := cmd.Flags().GetString("out")
			return runServe(docPath, addr, outDir)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from BRIDGE_ADDR)")
	cmd.Flags().String("out", "exports", "Directory for exported assets")

	return cmd
}

// runServe handles the `serve` command.
func runServe(docPath, addr, outDir string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if addr == "" {
		addr = cfg.BridgeAddr
	}

	doc, host, err := loadHost(docPath)
	if err != nil {
		return err
	}

	pgPool, neo4jDriver, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePool(pgPool)
	if neo4jDriver != nil {
		defer neo4jDriver.Close(context.Background())
	}

	writer, err := newReportWriter(ctx, pgPool, neo4jDriver, doc.Name)
	if err != nil {
		return err
	}
	suggester, err := newSuggester(ctx, pgPool, doc.Name, host)
	if err != nil {
		return err
	}
	coord, err := newCoordinator(cfg, host)
	if err != nil {
		return err
	}

	im := importer.New(host, importOptions(cfg))
	im.SetSuggester(suggester)

	srv := bridge.NewServer(im, coord, outDir)
	srv.OnClose(cancel)

	reports := make(chan *importer.Report, 16)
	srv.ReportHook = func(_ context.Context, r *importer.Report) {
		select {
		case reports <- r:
		default:
			log.Warn().Str("run", r.RunID).Msg("Report queue full, run not persisted")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, addr)
	})
	// Persisting off the command lane keeps the UI responsive.
	g.Go(func() error {
		for {
			select {
			case r := <-reports:
				writer.write(context.WithoutCancel(gctx), r)
			case <-gctx.Done():
				return nil
			}
		}
	})

	serveErr := g.Wait()
	srv.Wait()
drain:
	for {
		select {
		case r := <-reports:
			writer.write(context.Background(), r)
		default:
			break drain
		}
	}

	if err := doc.Save(docPath); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	log.Info().Str("path", docPath).Msg("Document saved")
	return serveErr
}
