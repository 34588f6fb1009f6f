// Package bitpack implements the compact bit-packed array used to store
// palette indices inside a chunk section: N-bit cells packed into 64-bit
// words with no cell straddling a word boundary, matching the on-disk
// Anvil layout used since Minecraft 1.16.
package bitpack

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Array is a fixed-geometry, mutable compact array: cellCount cells of
// bitsPerCell bits each, packed so that no cell crosses a 64-bit word
// boundary (the high bits of each word may go unused).
type Array struct {
	bitsPerCell int
	cellCount   int
	perWord     int
	mask        uint64
	words       []uint64
}

// New allocates an Array of the given geometry, zero-initialized.
// bitsPerCell must be in [1, 16]; New panics outside that range since it
// is always a programmer-supplied constant, never untrusted input.
func New(bitsPerCell, cellCount int) *Array {
	if bitsPerCell < 1 || bitsPerCell > 16 {
		panic(fmt.Sprintf("bitpack: bitsPerCell %d out of range [1,16]", bitsPerCell))
	}
	perWord := 64 / bitsPerCell
	wordCount := ceilDiv(cellCount, perWord)
	return &Array{
		bitsPerCell: bitsPerCell,
		cellCount:   cellCount,
		perWord:     perWord,
		mask:        (uint64(1) << uint(bitsPerCell)) - 1,
		words:       make([]uint64, wordCount),
	}
}

// FromWords builds an Array from pre-existing packed words (e.g. decoded
// from an Anvil chunk or a network paletted container) by copying them
// into freshly allocated storage; words beyond the array's size are
// ignored.
func FromWords(bitsPerCell, cellCount int, words []uint64) *Array {
	a := New(bitsPerCell, cellCount)
	n := len(words)
	if n > len(a.words) {
		n = len(a.words)
	}
	copy(a.words, words[:n])
	return a
}

// BitsPerCell returns the configured cell width.
func (a *Array) BitsPerCell() int { return a.bitsPerCell }

// Len returns the number of addressable cells.
func (a *Array) Len() int { return a.cellCount }

// Words exposes the backing storage, e.g. for serialization.
func (a *Array) Words() []uint64 { return a.words }

// Get returns the cell value at index, and false if index is out of
// range.
func (a *Array) Get(index int) (uint32, bool) {
	if index < 0 || index >= a.cellCount {
		return 0, false
	}
	wordIdx := index / a.perWord
	bitOff := uint(index%a.perWord) * uint(a.bitsPerCell)
	return uint32((a.words[wordIdx] >> bitOff) & a.mask), true
}

// Set writes value into the cell at index. Out-of-range index is a
// programmer error and panics, per §4.1.
func (a *Array) Set(index int, value uint32) {
	if index < 0 || index >= a.cellCount {
		panic(fmt.Sprintf("bitpack: index %d out of range [0,%d)", index, a.cellCount))
	}
	wordIdx := index / a.perWord
	bitOff := uint(index%a.perWord) * uint(a.bitsPerCell)
	a.words[wordIdx] &^= a.mask << bitOff
	a.words[wordIdx] |= (uint64(value) & a.mask) << bitOff
}

// Iter calls fn for every cell in order. Iteration stops early if fn
// returns false.
func (a *Array) Iter(fn func(index int, value uint32) bool) {
	for i := 0; i < a.cellCount; i++ {
		v, _ := a.Get(i)
		if !fn(i, v) {
			return
		}
	}
}

// Resize returns a new Array with newBitsPerCell, carrying over every
// cell's current value. Used when a section's palette outgrows its
// current width.
func (a *Array) Resize(newBitsPerCell int) *Array {
	out := New(newBitsPerCell, a.cellCount)
	a.Iter(func(i int, v uint32) bool {
		out.Set(i, v)
		return true
	})
	return out
}

// Clone returns an independent copy sharing no backing storage with a.
func (a *Array) Clone() *Array {
	out := &Array{
		bitsPerCell: a.bitsPerCell,
		cellCount:   a.cellCount,
		perWord:     a.perWord,
		mask:        a.mask,
		words:       append([]uint64(nil), a.words...),
	}
	return out
}

func ceilDiv(n, d int) int {
	if d <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// BitsFor returns the minimum bit width needed to address n distinct
// values (n >= 1), i.e. ceil(log2(n)), clamped to at least 1.
func BitsFor[T constraints.Integer](n T) int {
	if n <= 1 {
		return 1
	}
	bits := 0
	v := uint64(n) - 1
	for v > 0 {
		bits++
		v >>= 1
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}
