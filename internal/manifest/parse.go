package manifest

import (
	"bufio"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var (
	ErrFormat        = errors.New("manifest: malformed input")
	ErrUnknownFormat = errors.New("manifest: unknown format")
)

// ParseError describes where a manifest stopped making sense. Line is the
// 1-based line for GNU input and the 1-based item for JSON and XML input.
type ParseError struct {
	Format string
	Line   int
	Text   string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("manifest: malformed %s input: %v", e.Format, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("manifest: malformed %s input at %d: %s", e.Format, e.Line, e.Text)
	default:
		return fmt.Sprintf("manifest: malformed %s input: %s", e.Format, e.Text)
	}
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

// ParseFunc reads a complete manifest. It either returns every entry or fails.
type ParseFunc func(r io.Reader) (Data, error)

// ParseGNU reads "<hex digest> <mode><path>" lines as written by md5sum and
// friends, where mode is "*" for binary or " " for text. A leading backslash
// marks a path with escaped "\\", "\n" and "\r". Blank lines are ignored and
// a path may appear only once.
func ParseGNU(r io.Reader) (Data, error) {
	data := make(Data, 0)
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, ok := parseGNULine(line)
		if !ok {
			return nil, &ParseError{Format: "gnu", Line: lineNo, Text: fmt.Sprintf("%q", line)}
		}
		if seen[entry.Path] {
			return nil, &ParseError{Format: "gnu", Line: lineNo, Text: fmt.Sprintf("duplicate path %q", entry.Path)}
		}
		seen[entry.Path] = true
		data = append(data, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return data, nil
}

func parseGNULine(line string) (Entry, bool) {
	escaped := strings.HasPrefix(line, "\\")
	if escaped {
		line = line[1:]
	}

	end := strings.IndexByte(line, ' ')
	if end <= 0 || !isHex(line[:end]) {
		return Entry{}, false
	}
	checksum := line[:end]

	// one separator, one mode character, then the path verbatim
	rest := line[end+1:]
	if len(rest) < 2 || (rest[0] != '*' && rest[0] != ' ') {
		return Entry{}, false
	}
	path := rest[1:]

	if escaped {
		var ok bool
		if path, ok = unescapeGNUPath(path); !ok {
			return Entry{}, false
		}
	}

	return Entry{Path: path, Checksum: strings.ToLower(checksum)}, true
}

// EscapeGNUPath escapes a path for a GNU checksum line. The second result
// reports whether the line needs the leading backslash marker.
func EscapeGNUPath(path string) (string, bool) {
	if !strings.ContainsAny(path, "\\\n\r") {
		return path, false
	}
	return gnuEscaper.Replace(path), true
}

var gnuEscaper = strings.NewReplacer("\\", "\\\\", "\n", "\\n", "\r", "\\r")

func unescapeGNUPath(s string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i == len(s) {
			return "", false
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", false
		}
	}
	return b.String(), true
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return s != ""
}

type jsonEntry struct {
	Path     *string `json:"path"`
	Checksum *string `json:"checksum"`
}

// ParseJSON reads an array of objects with string "path" and "checksum"
// fields. Other fields are ignored.
func ParseJSON(r io.Reader) (Data, error) {
	var items []jsonEntry
	dec := json.NewDecoder(r)
	if err := dec.Decode(&items); err != nil {
		return nil, &ParseError{Format: "json", Err: err}
	}
	if dec.More() {
		return nil, &ParseError{Format: "json", Text: "trailing data after array"}
	}
	if items == nil {
		return nil, &ParseError{Format: "json", Text: "expected an array"}
	}

	data := make(Data, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		if item.Path == nil || item.Checksum == nil {
			return nil, &ParseError{Format: "json", Line: i + 1, Text: "missing path or checksum"}
		}
		if seen[*item.Path] {
			return nil, &ParseError{Format: "json", Line: i + 1, Text: fmt.Sprintf("duplicate path %q", *item.Path)}
		}
		seen[*item.Path] = true
		data = append(data, Entry{Path: *item.Path, Checksum: strings.ToLower(*item.Checksum)})
	}

	return data, nil
}

type xmlEntry struct {
	Checksum string `xml:"checksum,attr"`
	Path     string `xml:",chardata"`
}

type xmlDocument struct {
	XMLName xml.Name   `xml:"checksums"`
	Files   []xmlEntry `xml:"file"`
}

// ParseXML reads a <checksums> document of <file checksum="..."> elements
// whose text is the path. Other attributes are ignored.
func ParseXML(r io.Reader) (Data, error) {
	var doc xmlDocument
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Format: "xml", Err: err}
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: "xml", Err: err}
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) > 0 {
				return nil, &ParseError{Format: "xml", Text: "trailing data after document"}
			}
		default:
			return nil, &ParseError{Format: "xml", Text: "trailing data after document"}
		}
	}

	data := make(Data, 0, len(doc.Files))
	seen := make(map[string]bool, len(doc.Files))
	for i, item := range doc.Files {
		if item.Path == "" || item.Checksum == "" {
			return nil, &ParseError{Format: "xml", Line: i + 1, Text: "missing path or checksum"}
		}
		if seen[item.Path] {
			return nil, &ParseError{Format: "xml", Line: i + 1, Text: fmt.Sprintf("duplicate path %q", item.Path)}
		}
		seen[item.Path] = true
		data = append(data, Entry{Path: item.Path, Checksum: strings.ToLower(item.Checksum)})
	}

	return data, nil
}

// ParseAuto picks ParseJSON when the first non-blank byte opens an array,
// ParseXML when it opens a tag and ParseGNU otherwise.
func ParseAuto(r io.Reader) (Data, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return Data{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest: %w", err)
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}

		if err := br.UnreadByte(); err != nil {
			return nil, err
		}
		switch b {
		case '[':
			return ParseJSON(br)
		case '<':
			return ParseXML(br)
		}
		return ParseGNU(br)
	}
}

// Parsers maps manifest format names to parse functions.
type Parsers struct {
	m map[string]ParseFunc
}

// DefaultParsers returns the gnu, json, xml and auto parsers.
func DefaultParsers() *Parsers {
	return &Parsers{m: map[string]ParseFunc{
		"gnu":  ParseGNU,
		"json": ParseJSON,
		"xml":  ParseXML,
		"auto": ParseAuto,
	}}
}

// Lookup returns the parser registered under name.
func (p *Parsers) Lookup(name string) (ParseFunc, error) {
	parse, ok := p.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return parse, nil
}

// Names returns the registered format names in alphabetical order.
func (p *Parsers) Names() []string {
	names := make([]string, 0, len(p.m))
	for name := range p.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
