package plan_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/fedpm/plan"
)

func TestForCaseCounts(t *testing.T) {
	f, o := 3, 2
	instrs := plan.ForCase("c1", f, o)

	var nStart, nEnd, nInnerF, nInnerO, nCrossFO, nCrossOF int
	for _, ins := range instrs {
		switch ins.Case {
		case plan.FindStart:
			nStart++
		case plan.FindEnd:
			nEnd++
		case plan.InnerForeign:
			nInnerF++
		case plan.InnerOwn:
			nInnerO++
		case plan.CrossForeignToOwn:
			nCrossFO++
		case plan.CrossOwnToForeign:
			nCrossOF++
		}
	}

	require.Equal(t, 1, nStart)
	require.Equal(t, 1, nEnd)
	require.Equal(t, f-1, nInnerF)
	require.Equal(t, o-1, nInnerO)
	require.Equal(t, f*o, nCrossFO)
	require.Equal(t, f*o, nCrossOF)
}

func TestForCaseBothEmptyProducesNothing(t *testing.T) {
	require.Empty(t, plan.ForCase("c1", 0, 0))
}

func TestForCaseOneSideEmptySkipsCross(t *testing.T) {
	instrs := plan.ForCase("c1", 2, 0)
	for _, ins := range instrs {
		require.NotEqual(t, plan.CrossForeignToOwn, ins.Case)
		require.NotEqual(t, plan.CrossOwnToForeign, ins.Case)
	}
}

func TestShuffleIsDeterministicAndPermutation(t *testing.T) {
	original := plan.ForCase("c1", 4, 3)

	a := append([]plan.Instruction(nil), original...)
	b := append([]plan.Instruction(nil), original...)

	salt := []byte("protocol-salt")
	plan.Shuffle(a, "c1", salt)
	plan.Shuffle(b, "c1", salt)

	require.Equal(t, a, b, "shuffle must be deterministic for the same case id and salt")

	sortKey := func(instrs []plan.Instruction) []plan.Instruction {
		out := append([]plan.Instruction(nil), instrs...)
		sort.Slice(out, func(i, j int) bool {
			if out[i].Case != out[j].Case {
				return out[i].Case < out[j].Case
			}
			if out[i].I != out[j].I {
				return out[i].I < out[j].I
			}
			return out[i].J < out[j].J
		})
		return out
	}
	require.ElementsMatch(t, sortKey(original), sortKey(a))
}
