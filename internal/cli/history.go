package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"design-localizer/internal/config"
	"design-localizer/internal/history"
	"design-localizer/internal/lineage"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent import runs, or the skipped entries of one run",
		Long:  "Reads run reports stored in PostgreSQL. Requires DATABASE_URL.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runHistory(runID, limit)
		},
	}

	cmd.Flags().Int("limit", 20, "Number of runs to list")

	return cmd
}

// runHistory handles the `history` command.
func runHistory(runID string, limit int) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return errors.New("history needs DATABASE_URL")
	}
	// Neo4j is not needed here.
	cfg.Neo4jURI = ""
	pgPool, _, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	store := history.NewStore(pgPool)

	if runID != "" {
		id, err := uuid.Parse(runID)
		if err != nil {
			return fmt.Errorf("parse run id: %w", err)
		}
		skips, err := store.Skips(ctx, id)
		if err != nil {
			return err
		}
		if len(skips) == 0 {
			fmt.Fprintln(os.Stdout, green("No skipped entries"))
		}
		for _, s := range skips {
			fmt.Fprintf(os.Stdout, "%s [%s] %s %s line %d: %s\n",
				yellow("!"), s.Language, s.FrameKey, s.NodeKey, s.Line, s.Reason)
		}
		return nil
	}

	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := green("ok")
		switch {
		case r.Canceled:
			status = red("cancelled")
		case r.GroupsFailed > 0 || r.LeavesFailed > 0:
			status = red("failed")
		case r.GroupsNotFound > 0 || r.LeavesSkipped > 0:
			status = yellow("partial")
		}
		fmt.Fprintf(os.Stdout, "%s  %s  %-9s %-24s %s  %d/%d frames, %d texts\n",
			faint(r.StartedAt.Local().Format("2006-01-02 15:04")), r.RunID, status,
			r.Source, strings.Join(r.Languages, ","),
			r.GroupsProcessed, r.GroupsAttempted, r.LeavesTranslated)
	}
	return nil
}

func lineageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lineage <frame-id>",
		Short: "Show the translated copies recorded for a frame",
		Long:  "Reads clone lineage stored in Neo4j. Requires NEO4J_URI.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath, _ := cmd.Flags().GetString("doc")
			return runLineage(docPath, args[0])
		},
	}
}

// runLineage handles the `lineage` command.
func runLineage(docPath, frameID string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if cfg.Neo4jURI == "" {
		return errors.New("lineage needs NEO4J_URI")
	}
	cfg.DatabaseURL = ""
	_, neo4jDriver, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer neo4jDriver.Close(ctx)

	doc, err := documentName(docPath)
	if err != nil {
		return err
	}

	copies, err := lineage.NewRecorder(neo4jDriver, doc).Translations(ctx, frameID)
	if err != nil {
		return err
	}
	if len(copies) == 0 {
		fmt.Fprintln(os.Stdout, yellow("No translated copies recorded"))
		return nil
	}
	for _, t := range copies {
		fmt.Fprintf(os.Stdout, "%s %-6s %-32s %s %s\n", cyan(t.CloneID), t.Language, t.CloneName,
			faint(t.At.Local().Format("2006-01-02 15:04")), faint(t.RunID))
	}
	return nil
}

// documentName resolves the name lineage is keyed by, as loadHost would.
func documentName(docPath string) (string, error) {
	doc, _, err := loadHost(docPath)
	if err != nil {
		return "", err
	}
	return doc.Name, nil
}
