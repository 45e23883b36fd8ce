package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"design-localizer/internal/export"
	"design-localizer/internal/importer"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

var (
	cyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// progressSink draws import progress as a terminal bar on stderr.
type progressSink struct {
	bar *progressbar.ProgressBar
}

func newProgressSink(label string) *progressSink {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", label)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &progressSink{bar: bar}
}

func (p *progressSink) Progress(message string, percent int) {
	p.bar.Describe(message)
	_ = p.bar.Set(percent)
}

func (p *progressSink) finish() {
	_ = p.bar.Finish()
	fmt.Fprintln(os.Stderr)
}

// printReport writes a coloured run summary.
func printReport(w io.Writer, r *importer.Report) {
	title := r.Source
	if title == "" {
		title = r.RunID
	}
	fmt.Fprintf(w, "%s %s\n", cyan("Import"), title)

	status := green
	switch {
	case r.Canceled || r.GroupsFailed > 0 || r.LeavesFailed > 0:
		status = red
	case r.GroupsNotFound > 0 || r.LeavesSkipped > 0:
		status = yellow
	}
	fmt.Fprintf(w, "  %s\n", status(r.Summary()))
	fmt.Fprintf(w, "  %s\n", faint(fmt.Sprintf("run %s, %d rows, %d languages, %s",
		r.RunID, r.Rows, len(r.Languages), r.Duration().Round(time.Millisecond))))

	for _, c := range r.Clones {
		fmt.Fprintf(w, "  %s %s (%d texts)\n", green("+"), c.CloneName, c.Translated)
	}
	for _, s := range r.Skips {
		line := fmt.Sprintf("  %s [%s] %s", yellow("!"), s.Language, s.FrameKey)
		if s.NodeKey != "" {
			line += " / " + s.NodeKey
		}
		if s.Line > 0 {
			line += fmt.Sprintf(" (line %d)", s.Line)
		}
		fmt.Fprintf(w, "%s: %s\n", line, s.Reason)
	}

	keys := make([]string, 0, len(r.Suggestions))
	for k := range r.Suggestions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s %q: did you mean %q?\n", faint("?"), k, r.Suggestions[k])
	}
	if r.PlaceholderWarnings > 0 {
		fmt.Fprintf(w, "  %s %d translations drop placeholders of their source\n",
			yellow("!"), r.PlaceholderWarnings)
	}
}

func printCandidates(w io.Writer, cands []export.Candidate) {
	if len(cands) == 0 {
		fmt.Fprintln(w, yellow("No exportable frames found"))
		return
	}
	for _, c := range cands {
		fmt.Fprintf(w, "%s  %-32s %4.0fx%-4.0f %s@%gx  %s\n",
			faint(c.ID), c.Name, c.Width, c.Height, c.Format, c.Scale, cyan(c.Filename))
	}
}
