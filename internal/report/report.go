// Package report renders a scanned tree: checksum reports in GNU, JSON and
// XML form, an in-memory capture for verification, directory listings and a
// tree diagram. Every writer is a tree.Visitor.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"hasher/internal/hash"
	"hasher/internal/manifest"
	"hasher/internal/tree"
)

var ErrUnknownFormat = errors.New("report: unknown format")

// Writer is a visitor that produces a report. Flush completes the report
// after the traversal and must be called exactly once.
type Writer interface {
	tree.Visitor
	Flush() error
}

// Observer is notified while a hashing writer reads files. BytesProcessed
// carries the running byte count of the current file only.
type Observer interface {
	FileStarted(path string)
	BytesProcessed(n int64)
}

// Observable is implemented by writers that hash file content.
type Observable interface {
	AddObserver(o Observer)
}

// Recorder is implemented by writers that hash file content. Every
// (path, checksum) pair they produce is also appended to each recorded Data.
type Recorder interface {
	Record(data *manifest.Data)
}

// Factory creates a writer for out. Writers that do not hash ignore calc.
type Factory func(out io.Writer, calc hash.Calculator) Writer

// Formats maps format names to writer factories.
type Formats struct {
	factories map[string]Factory
}

// DefaultFormats returns the gnu, json, xml, list and tree formats.
func DefaultFormats() *Formats {
	return &Formats{factories: map[string]Factory{
		"gnu":  NewGNU,
		"json": NewJSON,
		"xml":  NewXML,
		"list": func(out io.Writer, _ hash.Calculator) Writer { return NewLister(out) },
		"tree": func(out io.Writer, _ hash.Calculator) Writer { return NewTreePrinter(out) },
	}}
}

// New creates the writer registered under name.
func (f *Formats) New(name string, out io.Writer, calc hash.Calculator) (Writer, error) {
	factory, ok := f.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return factory(out, calc), nil
}

// Has reports whether name is a known format.
func (f *Formats) Has(name string) bool {
	_, ok := f.factories[name]
	return ok
}

// Names returns the format names in alphabetical order.
func (f *Formats) Names() []string {
	names := make([]string, 0, len(f.factories))
	for name := range f.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeString(out io.Writer, s string) error {
	if _, err := io.WriteString(out, s); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
