// Package kernel implements the homomorphic edge-evaluation kernel of
// spec.md §4.4: it turns one plan.Instruction into a ciphertext pair
// (from_enc, to_enc), masking any non-valid candidate to BOTTOM via
// homomorphic select so that B never learns which candidates were
// discarded.
package kernel

import (
	"fmt"

	"github.com/tuneinsight/fedpm/alphabet"
	"github.com/tuneinsight/fedpm/ciphertrace"
	"github.com/tuneinsight/fedpm/plan"
	"github.com/tuneinsight/fedpm/smallint"
)

// Pair is the ciphertext edge a single instruction evaluates to.
type Pair struct {
	From *smallint.Ciphertext
	To   *smallint.Ciphertext
}

// Kernel evaluates instructions against one case's entry. One Kernel
// is constructed per worker goroutine, wrapping that worker's own
// smallint.Evaluator/Comparator (each installed with the broadcast
// server key, per spec.md §5).
type Kernel struct {
	eval  *smallint.Evaluator
	cmp   *smallint.Comparator
	table *alphabet.Table
}

// New builds a Kernel from an already-keyed Evaluator and Comparator.
func New(eval *smallint.Evaluator, cmp *smallint.Comparator, table *alphabet.Table) *Kernel {
	return &Kernel{eval: eval, cmp: cmp, table: table}
}

// Eval dispatches on the instruction's kind and returns the
// ciphertext pair it evaluates to, or an error from the underlying
// FHE operations.
func (k *Kernel) Eval(ins plan.Instruction, entry ciphertrace.CaseEntry) (Pair, error) {
	switch ins.Case {
	case plan.FindStart:
		return k.findStart(entry)
	case plan.FindEnd:
		return k.findEnd(entry)
	case plan.InnerForeign:
		return k.innerForeign(ins, entry)
	case plan.InnerOwn:
		return k.innerOwn(ins, entry)
	case plan.CrossForeignToOwn:
		return k.crossForeignToOwn(ins, entry)
	case plan.CrossOwnToForeign:
		return k.crossOwnToForeign(ins, entry)
	default:
		return Pair{}, fmt.Errorf("kernel: unknown instruction kind %v", ins.Case)
	}
}

// bottom returns a fresh ciphertext encrypting BOTTOM, derived from an
// existing ciphertext under the same key (ct - ct + BottomIndex)
// rather than freshly encrypted, so the kernel needs no encryptor.
func (k *Kernel) bottom(like *smallint.Ciphertext) (*smallint.Ciphertext, error) {
	return k.eval.Const(like, uint64(k.table.BottomIndex()))
}

func (k *Kernel) constant(like *smallint.Ciphertext, idx uint32) (*smallint.Ciphertext, error) {
	return k.eval.Const(like, uint64(idx))
}

// maskedPair applies select(valid, a, BOTTOM) to both halves of a
// candidate edge.
func (k *Kernel) maskedPair(valid *smallint.Ciphertext, a, b *smallint.Ciphertext) (Pair, error) {
	bot, err := k.bottom(a)
	if err != nil {
		return Pair{}, err
	}
	fromCT, err := k.eval.Select(valid, a, bot)
	if err != nil {
		return Pair{}, err
	}
	bot2, err := k.bottom(b)
	if err != nil {
		return Pair{}, err
	}
	toCT, err := k.eval.Select(valid, b, bot2)
	if err != nil {
		return Pair{}, err
	}
	return Pair{From: fromCT, To: toCT}, nil
}

func (k *Kernel) findStart(entry ciphertrace.CaseEntry) (Pair, error) {
	f := entry.Foreign.Len()
	o := entry.Own.Len()

	start, err := k.pickAnyConst(entry, alphabetStart)
	if err != nil {
		return Pair{}, err
	}

	switch {
	case f > 0 && o > 0:
		cond, err := k.cmp.LE(entry.Foreign.TsCT[0], uint64(entry.Own.TsPlain[0]))
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: find_start comparison: %w", err)
		}
		first, err := k.eval.Select(cond, entry.Foreign.ActCT[0], entry.Own.ActCT[0])
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: find_start select: %w", err)
		}
		return Pair{From: start, To: first}, nil
	case f > 0:
		return Pair{From: start, To: entry.Foreign.ActCT[0]}, nil
	default:
		return Pair{From: start, To: entry.Own.ActCT[0]}, nil
	}
}

func (k *Kernel) findEnd(entry ciphertrace.CaseEntry) (Pair, error) {
	f := entry.Foreign.Len()
	o := entry.Own.Len()

	end, err := k.pickAnyConst(entry, alphabetEnd)
	if err != nil {
		return Pair{}, err
	}

	switch {
	case f > 0 && o > 0:
		// foreign[F-1] qualifies as the last event iff its timestamp is
		// strictly after own[O-1]'s; ties favour own (A-before-B).
		cond, err := k.cmp.GT(uint64(entry.Own.TsPlain[o-1]), entry.Foreign.TsCT[f-1])
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: find_end comparison: %w", err)
		}
		last, err := k.eval.Select(cond, entry.Foreign.ActCT[f-1], entry.Own.ActCT[o-1])
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: find_end select: %w", err)
		}
		return Pair{From: last, To: end}, nil
	case f > 0:
		return Pair{From: entry.Foreign.ActCT[f-1], To: end}, nil
	default:
		return Pair{From: entry.Own.ActCT[o-1], To: end}, nil
	}
}

type startEndSym int

const (
	alphabetStart startEndSym = iota
	alphabetEnd
)

// pickAnyConst builds a START/END constant ciphertext from whichever
// side has at least one event, since Const needs a template
// ciphertext under the live key.
func (k *Kernel) pickAnyConst(entry ciphertrace.CaseEntry, sym startEndSym) (*smallint.Ciphertext, error) {
	idx := k.table.StartIndex()
	if sym == alphabetEnd {
		idx = k.table.EndIndex()
	}

	if entry.Foreign.Len() > 0 {
		return k.constant(entry.Foreign.ActCT[0], idx)
	}
	return k.constant(entry.Own.ActCT[0], idx)
}

// innerForeign evaluates INNER_FOREIGN's validity formula. When the
// own side is empty, every consecutive foreign pair is unconditionally
// part of the straight chain (spec.md §4.3/§4.4's edge-case policy:
// "when one is empty, emit the straight chain"), matching
// add_full_trace's unconditional chaining in the ground-truth
// implementation rather than evaluating the general interleave
// formula against an empty own timestamp vector.
func (k *Kernel) innerForeign(ins plan.Instruction, entry ciphertrace.CaseEntry) (Pair, error) {
	i := ins.I
	ownTS := entry.Own.TsPlain
	o := len(ownTS)

	if o == 0 {
		valid, err := k.eval.Const(entry.Foreign.ActCT[i], 1)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: inner_foreign trivial valid: %w", err)
		}
		return k.maskedPair(valid, entry.Foreign.ActCT[i], entry.Foreign.ActCT[i+1])
	}

	ts1 := entry.Foreign.TsCT[i]
	ts2 := entry.Foreign.TsCT[i+1]

	valid, err := k.cmp.LE(ts2, uint64(ownTS[0]))
	if err != nil {
		return Pair{}, fmt.Errorf("kernel: inner_foreign boundary term: %w", err)
	}
	tail, err := k.cmp.GT(uint64(ownTS[o-1]), ts1)
	if err != nil {
		return Pair{}, fmt.Errorf("kernel: inner_foreign tail term: %w", err)
	}
	valid, err = k.eval.Or(valid, tail)
	if err != nil {
		return Pair{}, fmt.Errorf("kernel: inner_foreign combine: %w", err)
	}

	for kk := 0; kk < o-1; kk++ {
		left, err := k.cmp.GT(uint64(ownTS[kk]), ts1)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: inner_foreign gap term left: %w", err)
		}
		right, err := k.cmp.LE(ts2, uint64(ownTS[kk+1]))
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: inner_foreign gap term right: %w", err)
		}
		term, err := k.eval.And(left, right)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: inner_foreign gap term and: %w", err)
		}
		valid, err = k.eval.Or(valid, term)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: inner_foreign gap term or: %w", err)
		}
	}

	return k.maskedPair(valid, entry.Foreign.ActCT[i], entry.Foreign.ActCT[i+1])
}

// innerOwn is innerForeign's mirror image: when the foreign side is
// empty, every consecutive own pair is unconditionally part of the
// straight chain, for the same reason (see innerForeign's doc).
func (k *Kernel) innerOwn(ins plan.Instruction, entry ciphertrace.CaseEntry) (Pair, error) {
	j := ins.J
	foreignTS := entry.Foreign.TsCT
	f := len(foreignTS)

	if f == 0 {
		valid, err := k.eval.Const(entry.Own.ActCT[j], 1)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: inner_own trivial valid: %w", err)
		}
		return k.maskedPair(valid, entry.Own.ActCT[j], entry.Own.ActCT[j+1])
	}

	ownTS1 := uint64(entry.Own.TsPlain[j])
	ownTS2 := uint64(entry.Own.TsPlain[j+1])

	valid, err := k.cmp.GT(ownTS2, foreignTS[0])
	if err != nil {
		return Pair{}, fmt.Errorf("kernel: inner_own boundary term: %w", err)
	}
	tail, err := k.cmp.LE(foreignTS[f-1], ownTS1)
	if err != nil {
		return Pair{}, fmt.Errorf("kernel: inner_own tail term: %w", err)
	}
	valid, err = k.eval.Or(valid, tail)
	if err != nil {
		return Pair{}, fmt.Errorf("kernel: inner_own combine: %w", err)
	}

	for kk := 0; kk < f-1; kk++ {
		left, err := k.cmp.LE(foreignTS[kk], ownTS1)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: inner_own gap term left: %w", err)
		}
		right, err := k.cmp.GT(ownTS2, foreignTS[kk+1])
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: inner_own gap term right: %w", err)
		}
		term, err := k.eval.And(left, right)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: inner_own gap term and: %w", err)
		}
		valid, err = k.eval.Or(valid, term)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: inner_own gap term or: %w", err)
		}
	}

	return k.maskedPair(valid, entry.Own.ActCT[j], entry.Own.ActCT[j+1])
}

func (k *Kernel) crossForeignToOwn(ins plan.Instruction, entry ciphertrace.CaseEntry) (Pair, error) {
	i, j := ins.I, ins.J
	tsF := entry.Foreign.TsCT[i]
	tsO := uint64(entry.Own.TsPlain[j])
	f := entry.Foreign.Len()

	valid, err := k.cmp.LE(tsF, tsO)
	if err != nil {
		return Pair{}, fmt.Errorf("kernel: cross_fto_o le term: %w", err)
	}

	if j > 0 {
		prevOwn := uint64(entry.Own.TsPlain[j-1])
		term, err := k.cmp.GT(prevOwn, tsF)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: cross_fto_o prev term: %w", err)
		}
		valid, err = k.eval.And(valid, term)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: cross_fto_o and prev: %w", err)
		}
	}

	if i < f-1 {
		nextForeign := entry.Foreign.TsCT[i+1]
		term, err := k.cmp.GT(tsO, nextForeign)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: cross_fto_o next term: %w", err)
		}
		valid, err = k.eval.And(valid, term)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: cross_fto_o and next: %w", err)
		}
	}

	return k.maskedPair(valid, entry.Foreign.ActCT[i], entry.Own.ActCT[j])
}

func (k *Kernel) crossOwnToForeign(ins plan.Instruction, entry ciphertrace.CaseEntry) (Pair, error) {
	i, j := ins.I, ins.J
	tsF := entry.Foreign.TsCT[i]
	tsO := uint64(entry.Own.TsPlain[j])
	o := entry.Own.Len()

	valid, err := k.cmp.GT(tsO, tsF)
	if err != nil {
		return Pair{}, fmt.Errorf("kernel: cross_oto_f gt term: %w", err)
	}

	if i > 0 {
		prevForeign := entry.Foreign.TsCT[i-1]
		term, err := k.cmp.LE(prevForeign, tsO)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: cross_oto_f prev term: %w", err)
		}
		valid, err = k.eval.And(valid, term)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: cross_oto_f and prev: %w", err)
		}
	}

	if j < o-1 {
		nextOwn := uint64(entry.Own.TsPlain[j+1])
		term, err := k.cmp.LE(tsF, nextOwn)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: cross_oto_f next term: %w", err)
		}
		valid, err = k.eval.And(valid, term)
		if err != nil {
			return Pair{}, fmt.Errorf("kernel: cross_oto_f and next: %w", err)
		}
	}

	return k.maskedPair(valid, entry.Own.ActCT[j], entry.Foreign.ActCT[i])
}
