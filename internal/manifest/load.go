package manifest

import (
	"fmt"

	"github.com/spf13/afero"
)

// Load reads and parses the manifest at path. Nothing is returned unless
// the whole file parses.
func Load(fs afero.Fs, path string, parse ParseFunc) (Data, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	data, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return data, nil
}
