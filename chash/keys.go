package chash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// KeyBuilder generate keys from a sequence of integers. To generate a key,
// first write to the KeyBuilder, then call Key. The KeyBuilder can be re-used
// afterwards by calling Reset. KeyBuilder can not be used concurrently.
//
// A KeyBuilder is seeded: the seed is the first value written to the digest
// after every Reset, so builders with different seeds produce unrelated keys
// for the same input.
//
// KeyBuilder implements io.Writer.
type KeyBuilder struct {
	seed uint64
	dig  *xxhash.Digest
	buf  [8]byte
}

// NewKeyBuilder returns a new KeyBuilder that can generate keys.
func NewKeyBuilder(seed uint64) *KeyBuilder {
	kb := &KeyBuilder{seed: seed, dig: xxhash.New()}
	kb.Reset()
	return kb
}

// Write appends b to kb's state. Write always returns len(b), nil.
func (kb *KeyBuilder) Write(b []byte) (n int, err error) { return kb.dig.Write(b) }

// WriteInt appends v to kb's state as 8 little-endian bytes.
func (kb *KeyBuilder) WriteInt(v int) {
	binary.LittleEndian.PutUint64(kb.buf[:], uint64(v))
	_, _ = kb.dig.Write(kb.buf[:])
}

// Reset resets kb's state to only contain its seed.
func (kb *KeyBuilder) Reset() {
	kb.dig.Reset()
	binary.LittleEndian.PutUint64(kb.buf[:], kb.seed)
	_, _ = kb.dig.Write(kb.buf[:])
}

// Key computes the key from kb's current state.
func (kb *KeyBuilder) Key() uint64 { return kb.dig.Sum64() }

// Key is a convenience method to generate a key for a sequence of integers
// as an alternative to creating a KeyBuilder.
func Key(seed uint64, vs ...int) uint64 {
	kb := NewKeyBuilder(seed)
	for _, v := range vs {
		kb.WriteInt(v)
	}
	return kb.Key()
}

// Unit maps a 64-bit key onto [0, 1) using its 53 most significant bits, the
// precision of a float64 mantissa.
func Unit(key uint64) float64 {
	return float64(key>>11) / (1 << 53)
}

// Seeded is a Prober which hashes the triple with xxhash64 over the seed
// followed by key, replica and node, each encoded as 8 little-endian bytes.
// The resulting key is mapped onto [0, 1) with Unit.
//
// Seeded is not goroutine safe.
type Seeded struct {
	kb *KeyBuilder
}

var _ Prober = (*Seeded)(nil)

// NewSeeded returns a Seeded prober.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{kb: NewKeyBuilder(seed)}
}

// Probability implements Prober.
func (s *Seeded) Probability(key, replica, node int) float64 {
	s.kb.Reset()
	s.kb.WriteInt(key)
	s.kb.WriteInt(replica)
	s.kb.WriteInt(node)
	return Unit(s.kb.Key())
}
