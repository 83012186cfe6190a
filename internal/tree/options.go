package tree

import (
	"path"
	"strings"
)

// DefaultMaxPathLength bounds path growth while following directory links.
const DefaultMaxPathLength = 4096

// Option configures a Builder.
type Option func(*options)

type options struct {
	followLinks   bool
	exclude       []string
	maxPathLength int
}

func defaultOptions() *options {
	return &options{
		maxPathLength: DefaultMaxPathLength,
	}
}

// WithFollowLinks descends into symbolic links to directories and hashes
// symbolic links to files by their referent's content.
func WithFollowLinks() Option {
	return func(o *options) {
		o.followLinks = true
	}
}

// WithExclude adds glob patterns for entries to leave out of the tree.
// Patterns ending in "/" match directory names at any depth, other patterns
// match the base name, or the relative path when they contain a "/".
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, patterns...)
	}
}

// WithMaxPathLength overrides DefaultMaxPathLength.
func WithMaxPathLength(n int) Option {
	return func(o *options) {
		o.maxPathLength = n
	}
}

func (o *options) shouldExclude(relPath string, isDir bool) bool {
	for _, pattern := range o.exclude {
		if strings.HasSuffix(pattern, "/") {
			if !isDir {
				continue
			}
			dirPattern := strings.TrimSuffix(pattern, "/")
			if matched, _ := path.Match(dirPattern, path.Base(relPath)); matched {
				return true
			}
			continue
		}

		if matched, err := path.Match(pattern, path.Base(relPath)); err == nil && matched {
			return true
		}
		if strings.Contains(pattern, "/") {
			if matched, err := path.Match(pattern, relPath); err == nil && matched {
				return true
			}
		}
	}
	return false
}
