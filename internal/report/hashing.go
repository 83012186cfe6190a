package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"hasher/internal/hash"
	"hasher/internal/manifest"
	"hasher/internal/tree"
)

type emitFunc func(rel string, f *tree.File, checksum string) error

// hashWriter hashes every file of the tree and hands the result to emit.
type hashWriter struct {
	calc      hash.Calculator
	prefix    tree.Prefix
	observers []Observer
	records   []*manifest.Data
	emit      emitFunc
	flush     func() error
}

func newHashWriter(calc hash.Calculator, emit emitFunc, flush func() error) *hashWriter {
	return &hashWriter{calc: calc, emit: emit, flush: flush}
}

func (w *hashWriter) AddObserver(o Observer) {
	w.observers = append(w.observers, o)
}

func (w *hashWriter) Record(data *manifest.Data) {
	w.records = append(w.records, data)
}

func (w *hashWriter) VisitDirectory(d *tree.Directory) error {
	defer w.prefix.Enter(d.Name())()
	return tree.Descend(d, w)
}

func (w *hashWriter) VisitFile(f *tree.File) error {
	rel := w.prefix.Rel(f.Name())
	for _, o := range w.observers {
		o.FileStarted(rel)
	}

	r, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Path(), err)
	}
	defer r.Close()

	checksum, err := w.calc.Calculate(&countingReader{r: r, observers: w.observers})
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", f.Path(), err)
	}

	if err := w.emit(rel, f, checksum); err != nil {
		return err
	}
	for _, data := range w.records {
		*data = append(*data, manifest.Entry{Path: rel, Checksum: checksum})
	}
	return nil
}

func (w *hashWriter) Flush() error {
	if w.flush == nil {
		return nil
	}
	return w.flush()
}

// countingReader reports the bytes read so far from one file.
type countingReader struct {
	r         io.Reader
	n         int64
	observers []Observer
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.n += int64(n)
		for _, o := range c.observers {
			o.BytesProcessed(c.n)
		}
	}
	return n, err
}

// NewGNU writes one "<digest> *<path>" line per file, the format read by
// md5sum -c and its siblings. Paths with a backslash or a line break are
// escaped and the line gets a leading backslash, as md5sum does.
func NewGNU(out io.Writer, calc hash.Calculator) Writer {
	return newHashWriter(calc, func(rel string, _ *tree.File, checksum string) error {
		path, escaped := manifest.EscapeGNUPath(rel)
		line := checksum + " *" + path + "\n"
		if escaped {
			line = "\\" + line
		}
		return writeString(out, line)
	}, nil)
}

func fileMode(f *tree.File) string {
	if f.IsSymlink() {
		return "symlink"
	}
	return "binary"
}

type jsonRecord struct {
	Mode     string `json:"mode"`
	Checksum string `json:"checksum"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

// NewJSON collects one record per file and writes them as a single JSON
// array on Flush.
func NewJSON(out io.Writer, calc hash.Calculator) Writer {
	records := make([]jsonRecord, 0)

	emit := func(rel string, f *tree.File, checksum string) error {
		records = append(records, jsonRecord{
			Mode:     fileMode(f),
			Checksum: checksum,
			Path:     rel,
			Size:     f.Size(),
		})
		return nil
	}

	flush := func() error {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		return writeString(out, string(data)+"\n")
	}

	return newHashWriter(calc, emit, flush)
}

type xmlRecord struct {
	Mode     string `xml:"mode,attr"`
	Checksum string `xml:"checksum,attr"`
	Size     int64  `xml:"size,attr"`
	Path     string `xml:",chardata"`
}

type xmlReport struct {
	XMLName xml.Name    `xml:"checksums"`
	Files   []xmlRecord `xml:"file"`
}

// NewXML collects one <file> element per file and writes the whole document
// on Flush.
func NewXML(out io.Writer, calc hash.Calculator) Writer {
	doc := xmlReport{}

	emit := func(rel string, f *tree.File, checksum string) error {
		doc.Files = append(doc.Files, xmlRecord{
			Mode:     fileMode(f),
			Checksum: checksum,
			Size:     f.Size(),
			Path:     rel,
		})
		return nil
	}

	flush := func() error {
		data, err := xml.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		return writeString(out, xml.Header+string(data)+"\n")
	}

	return newHashWriter(calc, emit, flush)
}

// NewCapture appends every (path, checksum) pair to data and sorts it by
// path on Flush.
func NewCapture(calc hash.Calculator, data *manifest.Data) Writer {
	w := newHashWriter(calc, func(string, *tree.File, string) error { return nil }, func() error {
		data.Sort()
		return nil
	})
	w.Record(data)
	return w
}
