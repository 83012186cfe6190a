package manifest

import (
	"bytes"
	"encoding/hex"
	"fmt"

	mt "github.com/txaty/go-merkletree"

	"hasher/internal/hash"
)

// leaf is a report entry as a Merkle tree data block.
type leaf Entry

func (l leaf) Serialize() ([]byte, error) {
	return []byte(l.Path + "\x00" + l.Checksum), nil
}

// RootDigest folds the report into a single Merkle root, hashing leaves and
// inner nodes with calc. Entries are taken in path order, so the result only
// depends on the set of (path, checksum) pairs.
func (d Data) RootDigest(calc hash.Calculator) (string, error) {
	hashFunc := func(data []byte) ([]byte, error) {
		sum, err := calc.Calculate(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return hex.DecodeString(sum)
	}

	sorted := d.SortedCopy()
	switch len(sorted) {
	case 0:
		return calc.Calculate(bytes.NewReader(nil))
	case 1:
		// the tree library needs at least two blocks
		block, _ := leaf(sorted[0]).Serialize()
		return calc.Calculate(bytes.NewReader(block))
	}

	blocks := make([]mt.DataBlock, 0, len(sorted))
	for _, e := range sorted {
		blocks = append(blocks, leaf(e))
	}

	tree, err := mt.New(&mt.Config{
		HashFunc: hashFunc,
		Mode:     mt.ModeTreeBuild,
	}, blocks)
	if err != nil {
		return "", fmt.Errorf("failed to build merkle tree: %w", err)
	}

	return hex.EncodeToString(tree.Root), nil
}
