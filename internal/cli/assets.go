package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"design-localizer/internal/config"
	"design-localizer/internal/export"
	"design-localizer/internal/template"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func templateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a translation spreadsheet listing every visible text of the document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath, _ := cmd.Flags().GetString("doc")
			langs, _ := cmd.Flags().GetStringSlice("lang")
			byID, _ := cmd.Flags().GetBool("by-id")
			out, _ := cmd.Flags().GetString("output")
			return runTemplate(docPath, langs, byID, out)
		},
	}

	cmd.Flags().StringSlice("lang", nil, "Language codes to pre-fill, one row per language")
	cmd.Flags().Bool("by-id", false, "Reference frames by id instead of name")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	return cmd
}

// runTemplate handles the `template` command.
func runTemplate(docPath string, langs []string, byID bool, out string) error {
	_, host, err := loadHost(docPath)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create template: %w", err)
		}
		defer f.Close()
		w = f
	}

	n, err := template.Write(w, host, template.Options{Languages: langs, ByID: byID})
	if err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	log.Info().Int("rows", n).Str("output", out).Msg("Template written")
	return nil
}

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List frames that match an export rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath, _ := cmd.Flags().GetString("doc")
			asJSON, _ := cmd.Flags().GetBool("json")
			return runScan(docPath, asJSON)
		},
	}

	cmd.Flags().Bool("json", false, "Print candidates as JSON")

	return cmd
}

// runScan handles the `scan` command.
func runScan(docPath string, asJSON bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	_, host, err := loadHost(docPath)
	if err != nil {
		return err
	}
	coord, err := newCoordinator(cfg, host)
	if err != nil {
		return err
	}

	cands := coord.Scan(ctx)
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cands)
	}
	printCandidates(os.Stdout, cands)
	return nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [frame-id]...",
		Short: "Render frames to PNG/JPEG files",
		Long: `Exports the given frames, or every frame found by scan when no ids are
given. Frames that match no export rule are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath, _ := cmd.Flags().GetString("doc")
			outDir, _ := cmd.Flags().GetString("out")
			return runExport(docPath, outDir, args)
		},
	}

	cmd.Flags().String("out", "exports", "Output directory")

	return cmd
}

// runExport handles the `export` command.
func runExport(docPath, outDir string, ids []string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	_, host, err := loadHost(docPath)
	if err != nil {
		return err
	}
	coord, err := newCoordinator(cfg, host)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		for _, c := range coord.Scan(ctx) {
			ids = append(ids, c.ID)
		}
	}

	res, err := coord.Export(ctx, ids)
	if err != nil {
		return err
	}
	if err := export.Save(outDir, res.Assets); err != nil {
		return err
	}

	for _, a := range res.Assets {
		fmt.Fprintf(os.Stdout, "%s %s\n", green("+"), a.Filename)
	}
	for _, f := range res.Skipped {
		fmt.Fprintf(os.Stdout, "%s %s %s: %s\n", yellow("!"), f.ID, f.Name, f.Reason)
	}
	log.Info().
		Int("exported", len(res.Assets)).
		Int("skipped", len(res.Skipped)).
		Str("dir", outDir).
		Msg("Export complete")
	return nil
}
