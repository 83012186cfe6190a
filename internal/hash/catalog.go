package hash

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	gohash "hash"
	"io"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/md4"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

var ErrUnknownAlgorithm = errors.New("hash: unknown algorithm")

// Catalog maps algorithm names to hash constructors. It is built once at
// startup and never modified afterwards.
type Catalog struct {
	factories map[string]func() gohash.Hash
}

// DefaultCatalog returns a catalog of every supported algorithm.
func DefaultCatalog() *Catalog {
	return &Catalog{factories: map[string]func() gohash.Hash{
		"md4":        md4.New,
		"md5":        md5.New,
		"md5_sha1":   newMD5SHA1,
		"sha1":       sha1.New,
		"sha224":     sha256.New224,
		"sha256":     sha256.New,
		"sha384":     sha512.New384,
		"sha512":     sha512.New,
		"sha512_224": sha512.New512_224,
		"sha512_256": sha512.New512_256,
		"sha3_224":   sha3.New224,
		"sha3_256":   sha3.New256,
		"sha3_384":   sha3.New384,
		"sha3_512":   sha3.New512,
		"shake128":   func() gohash.Hash { return &shakeHash{ShakeHash: sha3.NewShake128(), size: 16, rate: 168} },
		"shake256":   func() gohash.Hash { return &shakeHash{ShakeHash: sha3.NewShake256(), size: 32, rate: 136} },
		"blake2b512": func() gohash.Hash { h, _ := blake2b.New512(nil); return h },
		"blake2s256": func() gohash.Hash { h, _ := blake2s.New256(nil); return h },
		"ripemd160":  ripemd160.New,
		"blake3":     func() gohash.Hash { return blake3.New() },
		"xxh64":      func() gohash.Hash { return xxhash.New() },
	}}
}

// New returns a calculator for the named algorithm.
func (c *Catalog) New(name string) (Calculator, error) {
	factory, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return NewCalculator(factory), nil
}

// Has reports whether name is a known algorithm.
func (c *Catalog) Has(name string) bool {
	_, ok := c.factories[name]
	return ok
}

// Names returns the algorithm names in alphabetical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// shakeHash gives an extendable-output function the fixed digest length
// used for checksums.
type shakeHash struct {
	sha3.ShakeHash
	size int
	rate int
}

func (s *shakeHash) Sum(b []byte) []byte {
	out := make([]byte, s.size)
	s.ShakeHash.Clone().Read(out)
	return append(b, out...)
}

func (s *shakeHash) Size() int      { return s.size }
func (s *shakeHash) BlockSize() int { return s.rate }

// md5sha1 is the concatenation of an MD5 and a SHA-1 digest over the same input.
type md5sha1 struct {
	md5, sha1 gohash.Hash
	w         io.Writer
}

func newMD5SHA1() gohash.Hash {
	h := &md5sha1{md5: md5.New(), sha1: sha1.New()}
	h.w = io.MultiWriter(h.md5, h.sha1)
	return h
}

func (h *md5sha1) Write(p []byte) (int, error) { return h.w.Write(p) }
func (h *md5sha1) Sum(b []byte) []byte         { return h.sha1.Sum(h.md5.Sum(b)) }
func (h *md5sha1) Size() int                   { return md5.Size + sha1.Size }
func (h *md5sha1) BlockSize() int              { return md5.BlockSize }

func (h *md5sha1) Reset() {
	h.md5.Reset()
	h.sha1.Reset()
}
