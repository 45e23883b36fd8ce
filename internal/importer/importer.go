// Package importer runs a spreadsheet of translations against a document:
// parse, group, then per group locate the frame, clone it and rewrite its
// text leaves.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"design-localizer/internal/cache"
	"design-localizer/internal/clone"
	"design-localizer/internal/document"
	"design-localizer/internal/interpolation"
	"design-localizer/internal/locate"
	"design-localizer/internal/mutate"
	"design-localizer/internal/parser"
	"design-localizer/internal/records"
	"design-localizer/internal/textutil"
	"design-localizer/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Sink receives best-effort progress updates.
type Sink interface {
	Progress(message string, percent int)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(message string, percent int)

func (f SinkFunc) Progress(message string, percent int) { f(message, percent) }

// Suggester proposes frame names similar to an unresolved frame key.
type Suggester interface {
	Suggest(ctx context.Context, key string) []string
}

// Options configures an import run.
type Options struct {
	Mode   records.MatchMode
	Locate locate.Options
	// Margin is the gap between a frame and its translated copies.
	Margin float64
	// FallbackFamily supplies bold runs when the leaf font has no bold style.
	FallbackFamily string
	// HostTimeout bounds font loading and duplication; zero waits indefinitely.
	HostTimeout time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Mode:           records.MatchByNode,
		Locate:         locate.Options{FuzzyFrames: true},
		Margin:         clone.DefaultMargin,
		FallbackFamily: mutate.DefaultFallbackFamily,
	}
}

// Importer applies translation spreadsheets to one document host.
// Runs must not overlap; the host tree is not safe for concurrent mutation.
type Importer struct {
	host      document.Host
	opts      Options
	suggester Suggester
	sink      Sink
}

// New creates an importer for host.
func New(host document.Host, opts Options) *Importer {
	return &Importer{
		host: host,
		opts: opts,
	}
}

// SetSuggester attaches a suggester consulted for frames that are not found.
func (im *Importer) SetSuggester(s Suggester) {
	im.suggester = s
}

// SetSink attaches a progress sink.
func (im *Importer) SetSink(s Sink) {
	im.sink = s
}

// run holds the per-run collaborators; fonts are cached for one run only.
type run struct {
	*Importer
	report  *Report
	locator *locate.Locator
	cloner  *clone.Cloner
	engine  *mutate.Engine
}

// Run imports raw CSV text. Malformed input is returned as an error before
// the document is touched. Everything else is counted in the report;
// cancellation stops between items and returns the partial report.
func (im *Importer) Run(ctx context.Context, raw string) (*Report, error) {
	started := time.Now()

	header, rows, err := parser.ParseTable(raw)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	cols, err := parser.ResolveColumns(header, im.opts.Mode == records.MatchByNode)
	if err != nil {
		return nil, err
	}

	res := records.Build(rows, cols, records.Options{Mode: im.opts.Mode})
	log.Info().
		Int("rows", res.Rows).
		Int("valid", res.Retained).
		Int("skipped", res.Skipped).
		Int("groups", len(res.Groups)).
		Strs("languages", res.Languages).
		Interface("columns", cols).
		Msg("Parsed translations")

	r := &run{
		Importer: im,
		report: &Report{
			RunID:     uuid.NewString(),
			InputHash: textutil.Hash(raw),
			StartedAt: started,
			Languages: res.Languages,
			Rows:      res.Rows,
			Retained:  res.Retained,
			Merged:    res.Merged,
			Conflicts: res.Conflicts,
		},
		locator: locate.NewLocator(im.host, im.opts.Locate),
		cloner:  clone.NewCloner(im.host, im.opts.Margin, im.opts.HostTimeout),
		engine: mutate.NewEngine(im.host,
			cache.NewFontCache(im.host, im.opts.HostTimeout), im.opts.FallbackFamily),
	}
	r.locator.IgnoreSuffixes(res.Languages)

	total := len(res.Groups)
	idx := 0
	seq := worker.NewSequence(0, func(ctx context.Context, g *records.Group) (struct{}, error) {
		idx++
		im.progress(fmt.Sprintf("Translating %s (%s)", g.FrameKey, g.Language), percent(idx-1, total))
		return struct{}{}, r.group(ctx, g)
	})
	for _, task := range seq.Execute(ctx, res.Groups) {
		if task.Err != nil {
			if errors.Is(task.Err, context.Canceled) {
				continue
			}
			r.report.GroupsFailed++
			r.report.skip(Skip{
				Language: task.Input.Language,
				FrameKey: task.Input.FrameKey,
				Reason:   ReasonCloneFailed,
			})
		}
	}

	r.report.Canceled = ctx.Err() != nil
	r.report.FinishedAt = time.Now()
	im.progress("Import complete", 100)

	log.Info().
		Str("run", r.report.RunID).
		Int("processed", r.report.GroupsProcessed).
		Int("not_found", r.report.GroupsNotFound).
		Int("translated", r.report.LeavesTranslated).
		Int("skipped", r.report.LeavesSkipped).
		Int("failed", r.report.LeavesFailed).
		Dur("took", r.report.Duration()).
		Msg("Import finished")
	return r.report, nil
}

// group handles one (language, frame) group. The error return is reserved
// for host failures that prevent the group from being processed at all.
func (r *run) group(ctx context.Context, g *records.Group) error {
	if ctx.Err() != nil {
		return nil
	}
	r.report.GroupsAttempted++

	original, tier, ok := r.locator.FindContainer(g.FrameKey)
	if !ok {
		r.report.GroupsNotFound++
		r.report.skip(Skip{Language: g.Language, FrameKey: g.FrameKey, Reason: ReasonFrameNotFound})
		ev := log.Warn().Str("frame", g.FrameKey).Str("language", g.Language)
		if r.suggester != nil {
			if names := r.suggester.Suggest(ctx, g.FrameKey); len(names) > 0 {
				if r.report.Suggestions == nil {
					r.report.Suggestions = make(map[string][]string)
				}
				r.report.Suggestions[g.FrameKey] = names
				ev = ev.Strs("similar", names)
			}
		}
		ev.Msg("Frame not found")
		return nil
	}
	log.Debug().Str("frame", g.FrameKey).Str("id", original.ID).Str("tier", string(tier)).Msg("Frame located")

	dup, err := r.cloner.CloneContainer(ctx, original, g.Language)
	if err != nil {
		return err
	}
	r.locator.Exclude(dup.ID)
	ids := locate.Correspond(original, dup)

	rec := CloneRecord{
		OriginalID:   original.ID,
		OriginalName: original.Name,
		CloneID:      dup.ID,
		CloneName:    dup.Name,
		Language:     g.Language,
	}

	written := make(map[string]bool)
	for _, row := range g.Rows {
		if ctx.Err() != nil {
			break
		}
		if !row.HasTranslation() {
			r.report.EntriesKept++
			continue
		}

		key := row.NodeKey
		if mapped, ok := ids[key]; ok {
			key = mapped
		}
		leaf, ok := r.locator.FindTextLeaf(dup, locate.Identity{
			NodeKey: key,
			Text:    row.Normalized,
			Written: written,
		})
		if !ok {
			r.report.LeavesSkipped++
			r.report.skip(r.entrySkip(g, row, ReasonTextNotFound))
			log.Warn().
				Str("frame", g.FrameKey).
				Str("node", row.NodeKey).
				Str("text", textutil.Truncate(row.Normalized, 40)).
				Int("line", row.Line).
				Msg("Text not found")
			continue
		}

		if missing := interpolation.Missing(row.SourceText, row.Translated); len(missing) > 0 {
			r.report.PlaceholderWarnings++
			log.Warn().
				Str("frame", g.FrameKey).
				Str("language", g.Language).
				Int("line", row.Line).
				Strs("missing", missing).
				Msg("Translation drops placeholders")
		}

		if r.engine.ApplyText(ctx, leaf, row.Translated) {
			written[leaf.ID] = true
			r.report.LeavesTranslated++
			rec.Translated++
		} else {
			r.report.LeavesFailed++
			r.report.skip(r.entrySkip(g, row, ReasonWriteFailed))
		}
	}

	r.report.Clones = append(r.report.Clones, rec)
	r.report.GroupsProcessed++
	return nil
}

func (r *run) entrySkip(g *records.Group, row records.Row, reason string) Skip {
	return Skip{
		Language: g.Language,
		FrameKey: g.FrameKey,
		NodeKey:  row.NodeKey,
		Line:     row.Line,
		Reason:   reason,
	}
}

func (im *Importer) progress(message string, pct int) {
	if im.sink != nil {
		im.sink.Progress(message, pct)
	}
}

func percent(done, total int) int {
	if total == 0 {
		return 100
	}
	return done * 100 / total
}
