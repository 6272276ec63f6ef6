// Package plan enumerates, per case, the deterministic list of
// candidate directly-follows edge instructions from spec.md §4.3, and
// optionally shuffles that list to destroy any positional signal in
// the ciphertext stream B later produces.
package plan

import (
	"encoding/binary"
	"sort"

	"github.com/zeebo/blake3"
)

// Kind tags which of the six instruction variants an Instruction is.
type Kind int

const (
	FindStart Kind = iota
	FindEnd
	InnerForeign
	InnerOwn
	CrossForeignToOwn
	CrossOwnToForeign
)

func (k Kind) String() string {
	switch k {
	case FindStart:
		return "FIND_START"
	case FindEnd:
		return "FIND_END"
	case InnerForeign:
		return "INNER_FOREIGN"
	case InnerOwn:
		return "INNER_OWN"
	case CrossForeignToOwn:
		return "CROSS_FTO_O"
	case CrossOwnToForeign:
		return "CROSS_OTO_F"
	default:
		return "UNKNOWN"
	}
}

// Instruction names one candidate edge: a case identifier, the
// variant, and up to two positions into that case's foreign/own
// traces. I and J are meaningless (left at 0) for FindStart/FindEnd.
type Instruction struct {
	Case Kind
	CaseID string
	I, J int
}

// ForCase enumerates every candidate instruction for one case with
// foreign length F and own length O, in the deterministic order of
// spec.md §4.3's table: FIND_START, FIND_END, INNER_FOREIGN×(F-1),
// INNER_OWN×(O-1), CROSS_FTO_O×(F·O), CROSS_OTO_F×(F·O).
//
// Degenerate cases (F==0 or O==0) still enumerate the inner
// instructions of the non-empty side and skip both cross families,
// which reduce to an empty product — exactly the "straight chain"
// short-circuit spec.md §4.3 allows.
func ForCase(caseID string, f, o int) []Instruction {
	var out []Instruction

	if f == 0 && o == 0 {
		return out
	}

	out = append(out, Instruction{Case: FindStart, CaseID: caseID})
	out = append(out, Instruction{Case: FindEnd, CaseID: caseID})

	for i := 0; i < f-1; i++ {
		out = append(out, Instruction{Case: InnerForeign, CaseID: caseID, I: i})
	}
	for j := 0; j < o-1; j++ {
		out = append(out, Instruction{Case: InnerOwn, CaseID: caseID, J: j})
	}
	for i := 0; i < f; i++ {
		for j := 0; j < o; j++ {
			out = append(out, Instruction{Case: CrossForeignToOwn, CaseID: caseID, I: i, J: j})
		}
	}
	for i := 0; i < f; i++ {
		for j := 0; j < o; j++ {
			out = append(out, Instruction{Case: CrossOwnToForeign, CaseID: caseID, I: i, J: j})
		}
	}

	return out
}

// Shuffle reorders instructions deterministically from caseID and a
// fixed protocol salt, using blake3 as a keyed hash the same way
// lattigo seeds its common-reference-string generator from a keyed
// hash rather than a global PRNG. Determinism (rather than
// time-seeded randomness) keeps the shuffle reproducible for tests
// while still hiding positional signal from an observer of the wire
// stream, since the observer does not know the salt.
func Shuffle(instructions []Instruction, caseID string, salt []byte) {
	type keyed struct {
		key uint64
		ins Instruction
	}

	h := blake3.New()
	pairs := make([]keyed, len(instructions))
	for i, ins := range instructions {
		h.Reset()
		h.Write(salt)
		h.Write([]byte(caseID))
		var idx [8]byte
		binary.LittleEndian.PutUint64(idx[:], uint64(i))
		h.Write(idx[:])
		sum := h.Sum(nil)
		pairs[i] = keyed{key: binary.LittleEndian.Uint64(sum[:8]), ins: ins}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].key < pairs[j].key
	})

	for i, p := range pairs {
		instructions[i] = p.ins
	}
}
