package alphabet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/fedpm/ferrors"
)

func set(labels ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		m[l] = struct{}{}
	}
	return m
}

func TestAgreeUnionAndReservedPositions(t *testing.T) {
	a := set("X", "Y")
	b := set("Y", "Z")

	tbl, err := Agree(a, b, 16)
	require.NoError(t, err)
	require.EqualValues(t, 3, tbl.N())
	require.EqualValues(t, 6, tbl.Size())

	bottomIdx, ok := tbl.Index(Bottom)
	require.True(t, ok)
	require.Equal(t, tbl.BottomIndex(), bottomIdx)

	startIdx, ok := tbl.Index(Start)
	require.True(t, ok)
	require.Equal(t, tbl.N()+1, startIdx)

	endIdx, ok := tbl.Index(End)
	require.True(t, ok)
	require.Equal(t, tbl.N()+2, endIdx)

	for _, label := range []string{"X", "Y", "Z"} {
		idx, ok := tbl.Index(label)
		require.True(t, ok)
		require.Less(t, idx, tbl.N())
	}
}

func TestAgreeIsPermutationIndependentOfInputOrder(t *testing.T) {
	tbl1, err := Agree(set("X", "Y"), set("Z"), 16)
	require.NoError(t, err)
	tbl2, err := Agree(set("Z"), set("X", "Y"), 16)
	require.NoError(t, err)

	require.Equal(t, tbl1.labelToIndex, tbl2.labelToIndex)
}

func TestAgreeOverflow(t *testing.T) {
	labels := make(map[string]struct{})
	for i := 0; i < 256; i++ {
		labels[string(rune('a'+i%26))+string(rune(i))] = struct{}{}
	}
	_, err := Agree(labels, nil, 8)
	require.ErrorIs(t, err, ferrors.ErrAlphabetOverflow)
}

func TestRecommendWidth(t *testing.T) {
	require.Equal(t, 8, RecommendWidth(10))
	require.Equal(t, 16, RecommendWidth(1000))
	require.Equal(t, 32, RecommendWidth(1<<20))
}
