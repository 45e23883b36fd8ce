package cli

import (
	"context"
	"fmt"
	"os"

	"design-localizer/internal/config"
	"design-localizer/internal/filewalker"
	"design-localizer/internal/importer"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <csv|directory>...",
		Short: "Create translated copies of frames from translation spreadsheets",
		Long: `Each spreadsheet needs frame_name, source_text, language and
translated_text columns (node_id too in node match mode). One copy per frame
and language is placed to the right of the original. Directories are searched
for .csv files; files are applied in order against the same document.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath, _ := cmd.Flags().GetString("doc")
			outPath, _ := cmd.Flags().GetString("out")
			mode, _ := cmd.Flags().GetString("mode")
			quiet, _ := cmd.Flags().GetBool("quiet")
			return runImport(docPath, outPath, mode, quiet, args)
		},
	}

	cmd.Flags().StringP("out", "o", "", "Write the updated document here instead of over --doc")
	cmd.Flags().String("mode", "", "Row match mode: node or text (default from MATCH_MODE)")
	cmd.Flags().BoolP("quiet", "q", false, "Hide the progress bar")

	return cmd
}

// runImport handles the `import` command.
func runImport(docPath, outPath, mode string, quiet bool, inputs []string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if mode != "" {
		cfg.MatchMode = mode
	}
	if outPath == "" {
		outPath = docPath
	}

	files, err := filewalker.Walk(inputs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn().Strs("inputs", inputs).Msg("No spreadsheets found")
		return nil
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
		defer neo4jDriver.Close(ctx)
	}

	writer, err := newReportWriter(ctx, pgPool, neo4jDriver, doc.Name)
	if err != nil {
		return err
	}
	suggester, err := newSuggester(ctx, pgPool, doc.Name, host)
	if err != nil {
		return err
	}

	im := importer.New(host, importOptions(cfg))
	im.SetSuggester(suggester)

	failed := 0
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}

		raw, err := os.ReadFile(f.Path)
		if err != nil {
			log.Error().Err(err).Str("file", f.Path).Msg("Failed to read spreadsheet")
			failed++
			continue
		}

		var bar *progressSink
		if !quiet {
			bar = newProgressSink(f.Rel)
			im.SetSink(bar)
		}
		report, err := im.Run(ctx, string(raw))
		if bar != nil {
			bar.finish()
			im.SetSink(nil)
		}
		if err != nil {
			log.Error().Err(err).Str("file", f.Rel).Msg("Spreadsheet rejected")
			failed++
			continue
		}

		report.Source = f.Rel
		printReport(os.Stdout, report)
		writer.write(context.WithoutCancel(ctx), report)
	}

	if err := doc.Save(outPath); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	log.Info().Str("path", outPath).Msg("Document saved")

	if failed > 0 {
		return fmt.Errorf("%d of %d spreadsheets could not be imported", failed, len(files))
	}
	return ctx.Err()
}
