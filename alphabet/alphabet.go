// Package alphabet implements the symbolic alphabet agreement between
// the two parties: the union of activity labels observed by either
// side, indexed into a small-integer table with three reserved
// positions for BOTTOM, START and END appended last.
package alphabet

import (
	"fmt"
	"sort"

	"github.com/tuneinsight/fedpm/ferrors"
)

// Reserved labels for the sentinel/source/sink symbols. These never
// collide with a real activity label: real labels come from an event
// log and are validated not to equal these at agreement time.
const (
	Bottom = "\x00BOTTOM"
	Start  = "\x00START"
	End    = "\x00END"
)

// Table is the bijection between activity labels and indices, over
// S_A ∪ S_B ∪ {BOTTOM, START, END}. It is created once by Agree and
// frozen thereafter.
type Table struct {
	labelToIndex map[string]uint32
	indexToLabel []string
}

// N is the number of real (non-reserved) activities.
func (t *Table) N() uint32 {
	return uint32(len(t.indexToLabel)) - 3
}

// Size is N+3, the total number of indices including reserved symbols.
func (t *Table) Size() uint32 {
	return uint32(len(t.indexToLabel))
}

// Index returns the index assigned to label, and whether it exists.
func (t *Table) Index(label string) (uint32, bool) {
	idx, ok := t.labelToIndex[label]
	return idx, ok
}

// Label returns the label assigned to idx, and whether idx is valid.
func (t *Table) Label(idx uint32) (string, bool) {
	if idx >= uint32(len(t.indexToLabel)) {
		return "", false
	}
	return t.indexToLabel[idx], true
}

// BottomIndex, StartIndex, EndIndex return the reserved positions N,
// N+1, N+2 respectively.
func (t *Table) BottomIndex() uint32 { return t.N() }
func (t *Table) StartIndex() uint32  { return t.N() + 1 }
func (t *Table) EndIndex() uint32    { return t.N() + 2 }

// MaxWidthCapacity is the largest index+1 representable by width bits.
func MaxWidthCapacity(widthBits int) uint32 {
	if widthBits >= 32 {
		return 1<<32 - 1
	}
	return uint32(1) << uint(widthBits)
}

// Agree computes the shared table over ownLabels ∪ foreignLabels, in
// the deterministic order: sorted real activity labels first, then
// BOTTOM, START, END. widthBits is the chosen ciphertext index width
// (8, 16 or 32); Agree fails with ferrors.ErrAlphabetOverflow if
// |S_A ∪ S_B| + 3 exceeds the capacity of that width.
//
// This is run at the KeyHolder (A): A receives B's label set over the
// wire, unions with its own, and returns the resulting Table to B.
func Agree(ownLabels, foreignLabels map[string]struct{}, widthBits int) (*Table, error) {
	union := make(map[string]struct{}, len(ownLabels)+len(foreignLabels))
	for l := range ownLabels {
		union[l] = struct{}{}
	}
	for l := range foreignLabels {
		union[l] = struct{}{}
	}
	for _, reserved := range []string{Bottom, Start, End} {
		if _, ok := union[reserved]; ok {
			return nil, fmt.Errorf("alphabet: activity label %q collides with a reserved symbol", reserved)
		}
	}

	labels := make([]string, 0, len(union))
	for l := range union {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	n := uint32(len(labels))
	if n+3 > MaxWidthCapacity(widthBits) {
		return nil, ferrors.Wrap(ferrors.ErrAlphabetOverflow, "combined alphabet exceeds index width", errOverflow(n+3, widthBits))
	}

	t := &Table{
		labelToIndex: make(map[string]uint32, n+3),
		indexToLabel: make([]string, 0, n+3),
	}
	for i, l := range labels {
		t.labelToIndex[l] = uint32(i)
		t.indexToLabel = append(t.indexToLabel, l)
	}
	t.labelToIndex[Bottom] = n
	t.labelToIndex[Start] = n + 1
	t.labelToIndex[End] = n + 2
	t.indexToLabel = append(t.indexToLabel, Bottom, Start, End)

	return t, nil
}

func errOverflow(needed uint32, widthBit int) error {
	return fmt.Errorf("need capacity for %d indices, width %d bits insufficient", needed, widthBit)
}

// RecommendWidth picks the smallest of the standard ciphertext index
// widths (8, 16, 32 bits) that can hold n+3 indices, since FHE
// operation cost grows with bit-width.
func RecommendWidth(n uint32) int {
	for _, w := range []int{8, 16, 32} {
		if n+3 <= MaxWidthCapacity(w) {
			return w
		}
	}
	return 32
}
