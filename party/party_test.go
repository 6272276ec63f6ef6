package party_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/fedpm/eventlog"
	"github.com/tuneinsight/fedpm/internal/baseline"
	"github.com/tuneinsight/fedpm/party"
	"github.com/tuneinsight/fedpm/smallint"
)

func ev(activity string, unixSeconds int64) eventlog.Event {
	return eventlog.Event{Activity: activity, Timestamp: time.Unix(unixSeconds, 0)}
}

// TestRunMatchesBaselineS1 exercises spec.md §8's Testable Property #1
// end-to-end, in Trivial mode (no secret-key confidentiality for A's
// traces, but the full arithmetic circuit runs over the same FHE
// parameter set as Secure mode).
func TestRunMatchesBaselineS1(t *testing.T) {
	a := eventlog.MemoryLog{CaseList: []eventlog.Case{
		{ID: "c1", Events: []eventlog.Event{ev("X", 1), ev("Y", 3)}},
	}}
	b := eventlog.MemoryLog{CaseList: []eventlog.Case{
		{ID: "c1", Events: []eventlog.Event{ev("Z", 2)}},
	}}

	want, err := baseline.Compute(a, b)
	require.NoError(t, err)

	got, err := party.Run(a, b, smallint.Trivial, 10)
	require.NoError(t, err)

	require.ElementsMatch(t, want.Edges(), got.Edges())
}

func TestRunEmptyBothSidesProducesNoEdges(t *testing.T) {
	a := eventlog.MemoryLog{}
	b := eventlog.MemoryLog{}

	got, err := party.Run(a, b, smallint.Trivial, 10)
	require.NoError(t, err)
	require.Empty(t, got.Edges())
}

// runMatchesBaseline drives party.Run in Trivial mode (full BGV
// arithmetic, no secret-key confidentiality) and checks its output DFG
// against the plaintext baseline computed directly from the merged,
// sorted event sequence, per spec.md §8's Testable Property #1.
func runMatchesBaseline(t *testing.T, a, b eventlog.MemoryLog) {
	t.Helper()
	want, err := baseline.Compute(a, b)
	require.NoError(t, err)

	got, err := party.Run(a, b, smallint.Trivial, 10)
	require.NoError(t, err)

	require.ElementsMatch(t, want.Edges(), got.Edges())
}

// TestRunS2EmptyB exercises the empty-opposite-side degenerate case
// (spec.md §8 scenario S2) through the actual federated protocol: A
// has events, B has none for the case, so every INNER_FOREIGN
// instruction must short-circuit to the straight chain instead of
// indexing into B's empty own-timestamp slice.
func TestRunS2EmptyB(t *testing.T) {
	a := eventlog.MemoryLog{CaseList: []eventlog.Case{
		{ID: "c1", Events: []eventlog.Event{ev("X", 1), ev("Y", 2)}},
	}}
	b := eventlog.MemoryLog{}

	runMatchesBaseline(t, a, b)
}

// TestRunS2EmptyA is S2's mirror image: B has events, A has none,
// exercising INNER_OWN's empty-foreign-side short circuit.
func TestRunS2EmptyA(t *testing.T) {
	a := eventlog.MemoryLog{}
	b := eventlog.MemoryLog{CaseList: []eventlog.Case{
		{ID: "c1", Events: []eventlog.Event{ev("X", 1), ev("Y", 2)}},
	}}

	runMatchesBaseline(t, a, b)
}

// TestRunS3TieBreak exercises the A-before-B tie-break on equal
// timestamps (spec.md §8 scenario S3).
func TestRunS3TieBreak(t *testing.T) {
	a := eventlog.MemoryLog{CaseList: []eventlog.Case{{ID: "c1", Events: []eventlog.Event{ev("X", 5)}}}}
	b := eventlog.MemoryLog{CaseList: []eventlog.Case{{ID: "c1", Events: []eventlog.Event{ev("Y", 5)}}}}

	runMatchesBaseline(t, a, b)
}

// TestRunS4Interleave exercises CROSS_FTO_O/CROSS_OTO_F over a fully
// interleaved two-sided case (spec.md §8 scenario S4).
func TestRunS4Interleave(t *testing.T) {
	a := eventlog.MemoryLog{CaseList: []eventlog.Case{{ID: "c1", Events: []eventlog.Event{ev("P", 1), ev("R", 4)}}}}
	b := eventlog.MemoryLog{CaseList: []eventlog.Case{{ID: "c1", Events: []eventlog.Event{ev("Q", 2), ev("S", 3)}}}}

	runMatchesBaseline(t, a, b)
}

// TestRunS5MultiCase exercises multiple independent cases in the same
// run (spec.md §8 scenario S5).
func TestRunS5MultiCase(t *testing.T) {
	a := eventlog.MemoryLog{CaseList: []eventlog.Case{
		{ID: "c1", Events: []eventlog.Event{ev("X", 1), ev("Y", 3)}},
		{ID: "c2", Events: []eventlog.Event{ev("P", 1), ev("R", 4)}},
	}}
	b := eventlog.MemoryLog{CaseList: []eventlog.Case{
		{ID: "c1", Events: []eventlog.Event{ev("Z", 2)}},
		{ID: "c2", Events: []eventlog.Event{ev("Q", 2), ev("S", 3)}},
	}}

	runMatchesBaseline(t, a, b)
}

// TestRunS6DupActivity exercises a repeated activity label within one
// case, checking edge frequency accumulation rather than just
// presence (spec.md §8 scenario S6).
func TestRunS6DupActivity(t *testing.T) {
	a := eventlog.MemoryLog{CaseList: []eventlog.Case{{ID: "c1", Events: []eventlog.Event{ev("A", 1), ev("A", 3)}}}}
	b := eventlog.MemoryLog{CaseList: []eventlog.Case{{ID: "c1", Events: []eventlog.Event{ev("A", 2)}}}}

	runMatchesBaseline(t, a, b)
}
