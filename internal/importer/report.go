package importer

import (
	"fmt"
	"strings"
	"time"
)

// Skip explains why a group or an entry was not translated.
type Skip struct {
	Language string `json:"language"`
	FrameKey string `json:"frameKey"`
	NodeKey  string `json:"nodeKey,omitempty"`
	Line     int    `json:"line,omitempty"`
	Reason   string `json:"reason"`
}

// Skip reasons.
const (
	ReasonFrameNotFound = "frame not found"
	ReasonCloneFailed   = "clone failed"
	ReasonTextNotFound  = "text not found"
	ReasonWriteFailed   = "text could not be written"
)

// CloneRecord links a translated copy to the container it was made from.
type CloneRecord struct {
	OriginalID   string `json:"originalId"`
	OriginalName string `json:"originalName"`
	CloneID      string `json:"cloneId"`
	CloneName    string `json:"cloneName"`
	Language     string `json:"language"`
	Translated   int    `json:"translated"`
}

// Report summarizes one import run. Counts are complete even when the run
// was cancelled part way.
type Report struct {
	RunID      string    `json:"runId"`
	Source     string    `json:"source,omitempty"`
	InputHash  string    `json:"inputHash"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Languages  []string  `json:"languages"`

	Rows      int `json:"rows"`
	Retained  int `json:"retained"`
	Merged    int `json:"merged"`
	Conflicts int `json:"conflicts"`

	GroupsAttempted int `json:"groupsAttempted"`
	GroupsProcessed int `json:"groupsProcessed"`
	GroupsNotFound  int `json:"groupsNotFound"`
	GroupsFailed    int `json:"groupsFailed"`

	LeavesTranslated int `json:"leavesTranslated"`
	LeavesSkipped    int `json:"leavesSkipped"`
	LeavesFailed     int `json:"leavesFailed"`
	// EntriesKept counts entries without a translation; their text is left as is.
	EntriesKept int `json:"entriesKept"`
	// PlaceholderWarnings counts applied translations missing a placeholder
	// of their source text.
	PlaceholderWarnings int `json:"placeholderWarnings,omitempty"`

	Skips  []Skip        `json:"skips,omitempty"`
	Clones []CloneRecord `json:"clones,omitempty"`
	// Suggestions maps unresolved frame keys to similar frame names.
	Suggestions map[string][]string `json:"suggestions,omitempty"`
	Canceled    bool                `json:"canceled,omitempty"`
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary renders the counts as a single human-readable line.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d frames processed, %d translated, %d skipped, %d failed, %d kept",
		r.GroupsProcessed, r.GroupsAttempted, r.LeavesTranslated, r.LeavesSkipped, r.LeavesFailed, r.EntriesKept)
	if r.GroupsNotFound > 0 {
		fmt.Fprintf(&b, ", %d frames not found", r.GroupsNotFound)
	}
	if r.GroupsFailed > 0 {
		fmt.Fprintf(&b, ", %d frames failed", r.GroupsFailed)
	}
	if r.Canceled {
		b.WriteString(" (cancelled)")
	}
	return b.String()
}

func (r *Report) skip(s Skip) {
	r.Skips = append(r.Skips, s)
}
