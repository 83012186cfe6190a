package compare

import (
	"bytes"
	"strings"
	"testing"

	"hasher/internal/manifest"
)

func TestCompare_MixedChanges(t *testing.T) {
	before := manifest.Data{
		{Path: "x.txt", Checksum: "h1"},
		{Path: "y.txt", Checksum: "h2"},
	}
	after := manifest.Data{
		{Path: "x.txt", Checksum: "h1"},
		{Path: "z.txt", Checksum: "h3"},
	}

	result := Compare(before, after)

	expected := []Change{
		{Status: OK, Path: "x.txt", Old: "h1", New: "h1"},
		{Status: Deleted, Path: "y.txt", Old: "h2"},
		{Status: New, Path: "z.txt", New: "h3"},
	}
	if len(result.Changes) != len(expected) {
		t.Fatalf("Expected %d changes, got %d: %+v", len(expected), len(result.Changes), result.Changes)
	}
	for i := range expected {
		if result.Changes[i] != expected[i] {
			t.Errorf("Change %d: expected %+v, got %+v", i, expected[i], result.Changes[i])
		}
	}
	if !result.HasChanges() {
		t.Error("Expected HasChanges to be true")
	}
}

func TestCompare_Modified(t *testing.T) {
	result := Compare(
		manifest.Data{{Path: "a", Checksum: "01"}},
		manifest.Data{{Path: "a", Checksum: "02"}},
	)

	if len(result.Changes) != 1 || result.Changes[0].Status != Modified {
		t.Fatalf("Expected a single MODIFIED change, got %+v", result.Changes)
	}
	if result.Changes[0].Old != "01" || result.Changes[0].New != "02" {
		t.Errorf("Unexpected checksums: %+v", result.Changes[0])
	}
}

func TestCompare_Idempotent(t *testing.T) {
	data := manifest.Data{
		{Path: "b", Checksum: "02"},
		{Path: "a", Checksum: "01"},
		{Path: "c/d", Checksum: "03"},
	}

	result := Compare(data, data)

	if result.HasChanges() {
		t.Errorf("Comparing data with itself should report no changes: %+v", result.Changes)
	}
	if s := result.Summary(); s.OK != 3 || s.Total() != 3 {
		t.Errorf("Expected 3 OK entries, got %+v", s)
	}
	if data[0].Path != "b" {
		t.Error("Compare should not reorder its inputs")
	}
}

func TestCompare_Totality(t *testing.T) {
	cases := []struct {
		name   string
		before manifest.Data
		after  manifest.Data
		union  int
	}{
		{"both empty", nil, nil, 0},
		{"before empty", nil, manifest.Data{{Path: "a"}, {Path: "b"}}, 2},
		{"after empty", manifest.Data{{Path: "a"}}, nil, 1},
		{
			"interleaved",
			manifest.Data{{Path: "a", Checksum: "1"}, {Path: "c", Checksum: "3"}, {Path: "e", Checksum: "5"}},
			manifest.Data{{Path: "b", Checksum: "2"}, {Path: "c", Checksum: "x"}, {Path: "f", Checksum: "6"}},
			5,
		},
		{
			"unsorted",
			manifest.Data{{Path: "z"}, {Path: "a"}},
			manifest.Data{{Path: "m"}, {Path: "a"}},
			3,
		},
		{
			"duplicate before",
			manifest.Data{{Path: "a", Checksum: "1"}, {Path: "a", Checksum: "2"}},
			manifest.Data{{Path: "a", Checksum: "1"}},
			1,
		},
		{
			"duplicates both sides",
			manifest.Data{{Path: "b"}, {Path: "a"}, {Path: "b"}},
			manifest.Data{{Path: "c"}, {Path: "c"}, {Path: "a"}, {Path: "a"}},
			3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Compare(tc.before, tc.after)

			if got := result.Summary().Total(); got != tc.union {
				t.Errorf("Expected %d classified paths, got %d", tc.union, got)
			}

			seen := make(map[string]bool)
			for i, c := range result.Changes {
				if seen[c.Path] {
					t.Errorf("Path %s classified twice", c.Path)
				}
				seen[c.Path] = true
				if i > 0 && result.Changes[i-1].Path >= c.Path {
					t.Errorf("Changes not in path order: %s before %s", result.Changes[i-1].Path, c.Path)
				}
			}
		})
	}
}

func TestCompare_DuplicateKeepsFirst(t *testing.T) {
	result := Compare(
		manifest.Data{{Path: "a", Checksum: "1"}, {Path: "a", Checksum: "2"}},
		manifest.Data{{Path: "a", Checksum: "1"}},
	)

	if len(result.Changes) != 1 {
		t.Fatalf("Expected a single change, got %+v", result.Changes)
	}
	if c := result.Changes[0]; c.Status != OK || c.Old != "1" {
		t.Errorf("The first entry for a path should win, got %+v", c)
	}
}

func TestWriteReport(t *testing.T) {
	result := Compare(
		manifest.Data{{Path: "x.txt", Checksum: "h1"}, {Path: "y.txt", Checksum: "h2"}},
		manifest.Data{{Path: "x.txt", Checksum: "h1"}, {Path: "z.txt", Checksum: "h3"}},
	)

	var out bytes.Buffer
	if err := WriteReport(&out, result, false); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	expected := "OK       x.txt\n" +
		"DELETED  y.txt\n" +
		"NEW      z.txt\n" +
		"\nSummary: 1 ok, 0 modified, 1 new, 1 deleted\n"
	if out.String() != expected {
		t.Errorf("Unexpected report:\n%s\nexpected:\n%s", out.String(), expected)
	}
}

func TestWriteReport_Colorized(t *testing.T) {
	result := Compare(nil, manifest.Data{{Path: "a", Checksum: "01"}})

	var out bytes.Buffer
	if err := WriteReport(&out, result, true); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	if !strings.Contains(out.String(), "\x1b[") {
		t.Errorf("Expected ANSI color codes, got %q", out.String())
	}
	if !strings.Contains(out.String(), "a\n") {
		t.Errorf("Path missing from colored report: %q", out.String())
	}
}
