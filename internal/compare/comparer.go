package compare

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"hasher/internal/manifest"
)

type Status string

const (
	OK       Status = "OK"
	Modified Status = "MODIFIED"
	New      Status = "NEW"
	Deleted  Status = "DELETED"
)

// Change classifies one path. Old is empty for NEW entries and New is empty
// for DELETED ones.
type Change struct {
	Status Status
	Path   string
	Old    string
	New    string
}

type Result struct {
	Changes []Change
}

type Summary struct {
	OK       int
	Modified int
	New      int
	Deleted  int
}

func (s Summary) Total() int {
	return s.OK + s.Modified + s.New + s.Deleted
}

func (r *Result) Summary() Summary {
	var s Summary
	for _, c := range r.Changes {
		switch c.Status {
		case OK:
			s.OK++
		case Modified:
			s.Modified++
		case New:
			s.New++
		case Deleted:
			s.Deleted++
		}
	}
	return s
}

func (r *Result) HasChanges() bool {
	for _, c := range r.Changes {
		if c.Status != OK {
			return true
		}
	}
	return false
}

// Compare classifies every path of before and after exactly once in a single
// merge pass. Both inputs are sorted on a copy and a path repeated within one
// input counts once, with its first checksum.
func Compare(before, after manifest.Data) *Result {
	before = before.Compact()
	after = after.Compact()

	result := &Result{Changes: make([]Change, 0, max(len(before), len(after)))}
	i, j := 0, 0
	for i < len(before) && j < len(after) {
		o, n := before[i], after[j]
		switch {
		case o.Path < n.Path:
			result.Changes = append(result.Changes, Change{Status: Deleted, Path: o.Path, Old: o.Checksum})
			i++
		case n.Path < o.Path:
			result.Changes = append(result.Changes, Change{Status: New, Path: n.Path, New: n.Checksum})
			j++
		default:
			status := OK
			if o.Checksum != n.Checksum {
				status = Modified
			}
			result.Changes = append(result.Changes, Change{Status: status, Path: o.Path, Old: o.Checksum, New: n.Checksum})
			i++
			j++
		}
	}
	for ; i < len(before); i++ {
		result.Changes = append(result.Changes, Change{Status: Deleted, Path: before[i].Path, Old: before[i].Checksum})
	}
	for ; j < len(after); j++ {
		result.Changes = append(result.Changes, Change{Status: New, Path: after[j].Path, New: after[j].Checksum})
	}

	return result
}

var statusColors = map[Status]color.Attribute{
	OK:       color.FgGreen,
	Modified: color.FgYellow,
	New:      color.FgCyan,
	Deleted:  color.FgRed,
}

// WriteReport prints one "STATUS   path" line per change followed by a
// summary line. Status words are colored when colorize is set.
func WriteReport(w io.Writer, r *Result, colorize bool) error {
	for _, c := range r.Changes {
		label := fmt.Sprintf("%-9s", c.Status)
		if colorize {
			col := color.New(statusColors[c.Status])
			col.EnableColor()
			label = col.Sprint(label)
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", label, c.Path); err != nil {
			return fmt.Errorf("failed to write comparison: %w", err)
		}
	}

	s := r.Summary()
	if _, err := fmt.Fprintf(w, "\nSummary: %d ok, %d modified, %d new, %d deleted\n",
		s.OK, s.Modified, s.New, s.Deleted); err != nil {
		return fmt.Errorf("failed to write comparison: %w", err)
	}
	return nil
}
