// Package ciphertrace builds the per-case encrypted traces described in
// spec.md §3/§4.2: A's (activity, timestamp) pairs both under
// ciphertext, B's activity indices under ciphertext with plaintext
// timestamps, and the case table that pairs the two per case
// identifier at B.
package ciphertrace

import (
	"fmt"
	"sort"

	"github.com/tuneinsight/fedpm/alphabet"
	"github.com/tuneinsight/fedpm/eventlog"
	"github.com/tuneinsight/fedpm/ferrors"
	"github.com/tuneinsight/fedpm/smallint"
)

// ForeignTrace is A's per-case trace as received by B: both the
// activity index and the timestamp travel as ciphertext, sorted by
// plaintext timestamp at A before encryption.
type ForeignTrace struct {
	ActCT []*smallint.Ciphertext
	TsCT  []*smallint.Ciphertext
}

func (t ForeignTrace) Len() int { return len(t.ActCT) }

// OwnTrace is B's own per-case trace: the activity index is encrypted
// (under B's public key, so a decrypted edge never reveals which side
// it came from) but the timestamp stays plaintext, since B is the
// only party that ever reads it.
type OwnTrace struct {
	ActCT  []*smallint.Ciphertext
	TsPlain []int64
}

func (t OwnTrace) Len() int { return len(t.TsPlain) }

// CaseEntry pairs one case's foreign and own traces. Either side may
// be the zero value (empty sequence) per spec.md §3.
type CaseEntry struct {
	Foreign ForeignTrace
	Own     OwnTrace
}

// CaseTable is B's mapping from case identifier to the pair of traces
// for that case, built once after alphabet agreement and never
// mutated during plan execution.
type CaseTable map[string]CaseEntry

// BuildForeign encrypts A's log under the secret-keyed encryptor,
// sorting each case's events by timestamp first. Returns
// ferrors.ErrTimestampMissing wrapped if an event has no timestamp
// (the zero time.Time), and ferrors.ErrAlphabetOverflow wrapped if an
// activity label is absent from the table.
func BuildForeign(log eventlog.Log, table *alphabet.Table, enc *smallint.Encryptor) (map[string]ForeignTrace, error) {
	cases, err := log.Cases()
	if err != nil {
		return nil, fmt.Errorf("ciphertrace: reading cases: %w", err)
	}

	out := make(map[string]ForeignTrace, len(cases))
	for _, c := range cases {
		sorted := append([]eventlog.Event(nil), c.Events...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})

		trace := ForeignTrace{
			ActCT: make([]*smallint.Ciphertext, len(sorted)),
			TsCT:  make([]*smallint.Ciphertext, len(sorted)),
		}
		for i, ev := range sorted {
			if ev.Timestamp.IsZero() {
				return nil, ferrors.Wrap(ferrors.ErrTimestampMissing, fmt.Sprintf("case %s event %d", c.ID, i), fmt.Errorf("zero timestamp"))
			}
			idx, ok := table.Index(ev.Activity)
			if !ok {
				return nil, ferrors.Wrap(ferrors.ErrAlphabetOverflow, fmt.Sprintf("activity %q not in agreed table", ev.Activity), fmt.Errorf("unknown activity"))
			}

			actCT, err := enc.EncryptUint(uint64(idx))
			if err != nil {
				return nil, fmt.Errorf("ciphertrace: encrypting activity index: %w", err)
			}
			tsCT, err := enc.EncryptUint(uint64(ev.Timestamp.Unix()))
			if err != nil {
				return nil, fmt.Errorf("ciphertrace: encrypting timestamp: %w", err)
			}
			trace.ActCT[i] = actCT
			trace.TsCT[i] = tsCT
		}
		out[c.ID] = trace
	}
	return out, nil
}

// BuildOwn encrypts B's own log activity indices under the
// public-keyed encryptor, leaving timestamps in the clear.
func BuildOwn(log eventlog.Log, table *alphabet.Table, enc *smallint.Encryptor) (map[string]OwnTrace, error) {
	cases, err := log.Cases()
	if err != nil {
		return nil, fmt.Errorf("ciphertrace: reading cases: %w", err)
	}

	out := make(map[string]OwnTrace, len(cases))
	for _, c := range cases {
		sorted := append([]eventlog.Event(nil), c.Events...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})

		trace := OwnTrace{
			ActCT:   make([]*smallint.Ciphertext, len(sorted)),
			TsPlain: make([]int64, len(sorted)),
		}
		for i, ev := range sorted {
			if ev.Timestamp.IsZero() {
				return nil, ferrors.Wrap(ferrors.ErrTimestampMissing, fmt.Sprintf("case %s event %d", c.ID, i), fmt.Errorf("zero timestamp"))
			}
			idx, ok := table.Index(ev.Activity)
			if !ok {
				return nil, ferrors.Wrap(ferrors.ErrAlphabetOverflow, fmt.Sprintf("activity %q not in agreed table", ev.Activity), fmt.Errorf("unknown activity"))
			}

			actCT, err := enc.EncryptUint(uint64(idx))
			if err != nil {
				return nil, fmt.Errorf("ciphertrace: encrypting activity index: %w", err)
			}
			trace.ActCT[i] = actCT
			trace.TsPlain[i] = ev.Timestamp.Unix()
		}
		out[c.ID] = trace
	}
	return out, nil
}

// BuildCaseTable merges the two per-case trace maps into B's case
// table, unioning case identifiers present on either side; per
// spec.md §3 either side may be absent (the zero value: empty
// sequences).
func BuildCaseTable(foreign map[string]ForeignTrace, own map[string]OwnTrace) CaseTable {
	ids := make(map[string]struct{}, len(foreign)+len(own))
	for id := range foreign {
		ids[id] = struct{}{}
	}
	for id := range own {
		ids[id] = struct{}{}
	}

	table := make(CaseTable, len(ids))
	for id := range ids {
		table[id] = CaseEntry{
			Foreign: foreign[id],
			Own:     own[id],
		}
	}
	return table
}

// Sanitize rewrites each foreign activity ciphertext in place via
// select(a ≥ N, START, a), per spec.md §4.4's activity sanitisation
// rule: this guarantees a malformed or adversarial foreign encoding
// can never decrypt to BOTTOM and silently drop a legitimate edge.
// "a ≥ N" is tested as "a > N-1" (rcmp, since N-1 is plaintext and a
// is ciphertext); the START constant is derived from a rather than
// freshly encrypted, so sanitisation needs no secret or public key.
func Sanitize(entries CaseTable, table *alphabet.Table, eval *smallint.Evaluator, cmp *smallint.Comparator) error {
	startIdx := uint64(table.StartIndex())

	for id, entry := range entries {
		for i, act := range entry.Foreign.ActCT {
			ge, err := cmp.GreaterThan(uint64(table.N())-1, act)
			if err != nil {
				return fmt.Errorf("ciphertrace: sanitizing case %s index %d: %w", id, i, err)
			}

			startCT, err := eval.Const(act, startIdx)
			if err != nil {
				return fmt.Errorf("ciphertrace: sanitizing case %s index %d: %w", id, i, err)
			}

			replaced, err := eval.Select(ge, startCT, act)
			if err != nil {
				return fmt.Errorf("ciphertrace: sanitizing case %s index %d: %w", id, i, err)
			}
			entry.Foreign.ActCT[i] = replaced
		}
		entries[id] = entry
	}
	return nil
}
