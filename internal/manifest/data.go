// Package manifest holds checksum report data: the (path, checksum) pairs
// produced by a hashing run or read back from a saved manifest file.
package manifest

import "sort"

// Entry is one file of a checksum report.
type Entry struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

// Data is an ordered sequence of report entries.
type Data []Entry

// Sort orders the entries by path.
func (d Data) Sort() {
	sort.SliceStable(d, func(i, j int) bool {
		return d[i].Path < d[j].Path
	})
}

// Sorted reports whether the entries are ordered by path.
func (d Data) Sorted() bool {
	return sort.SliceIsSorted(d, func(i, j int) bool {
		return d[i].Path < d[j].Path
	})
}

// SortedCopy returns d ordered by path without modifying d.
func (d Data) SortedCopy() Data {
	out := make(Data, len(d))
	copy(out, d)
	if !out.Sorted() {
		out.Sort()
	}
	return out
}

// Compact returns the entries ordered by path with repeated paths dropped;
// the first entry of each path wins. d is not modified.
func (d Data) Compact() Data {
	sorted := d.SortedCopy()
	out := make(Data, 0, len(sorted))
	for i, e := range sorted {
		if i > 0 && e.Path == sorted[i-1].Path {
			continue
		}
		out = append(out, e)
	}
	return out
}
