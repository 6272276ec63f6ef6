package baseline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/fedpm/eventlog"
	"github.com/tuneinsight/fedpm/internal/baseline"
)

func ev(activity string, unixSeconds int64) eventlog.Event {
	return eventlog.Event{Activity: activity, Timestamp: time.Unix(unixSeconds, 0)}
}

func oneCaseLog(caseID string, events ...eventlog.Event) eventlog.MemoryLog {
	if len(events) == 0 {
		return eventlog.MemoryLog{}
	}
	return eventlog.MemoryLog{CaseList: []eventlog.Case{{ID: caseID, Events: events}}}
}

func TestS1Minimal(t *testing.T) {
	a := oneCaseLog("c1", ev("X", 1), ev("Y", 3))
	b := oneCaseLog("c1", ev("Z", 2))

	g, err := baseline.Compute(a, b)
	require.NoError(t, err)

	edges := g.Edges()
	require.Len(t, edges, 4)
	want := map[[2]string]uint64{
		{"START", "X"}: 1,
		{"X", "Z"}:      1,
		{"Z", "Y"}:      1,
		{"Y", "END"}:    1,
	}
	for _, e := range edges {
		require.Equal(t, want[[2]string{e.From, e.To}], e.Freq, "edge %s->%s", e.From, e.To)
	}
}

func TestS2EmptyB(t *testing.T) {
	a := oneCaseLog("c1", ev("X", 1), ev("Y", 2))
	b := eventlog.MemoryLog{}

	g, err := baseline.Compute(a, b)
	require.NoError(t, err)

	edges := g.Edges()
	require.Len(t, edges, 3)
	want := map[[2]string]uint64{
		{"START", "X"}: 1,
		{"X", "Y"}:      1,
		{"Y", "END"}:    1,
	}
	for _, e := range edges {
		require.Equal(t, want[[2]string{e.From, e.To}], e.Freq)
	}
}

func TestS3TieBreak(t *testing.T) {
	a := oneCaseLog("c1", ev("X", 5))
	b := oneCaseLog("c1", ev("Y", 5))

	g, err := baseline.Compute(a, b)
	require.NoError(t, err)

	edges := g.Edges()
	require.Len(t, edges, 3)
	want := map[[2]string]uint64{
		{"START", "X"}: 1,
		{"X", "Y"}:      1,
		{"Y", "END"}:    1,
	}
	for _, e := range edges {
		require.Equal(t, want[[2]string{e.From, e.To}], e.Freq)
	}
}

func TestS4Interleave(t *testing.T) {
	a := oneCaseLog("c1", ev("P", 1), ev("R", 4))
	b := oneCaseLog("c1", ev("Q", 2), ev("S", 3))

	g, err := baseline.Compute(a, b)
	require.NoError(t, err)

	edges := g.Edges()
	require.Len(t, edges, 5)
	want := map[[2]string]uint64{
		{"START", "P"}: 1,
		{"P", "Q"}:      1,
		{"Q", "S"}:      1,
		{"S", "R"}:      1,
		{"R", "END"}:    1,
	}
	for _, e := range edges {
		require.Equal(t, want[[2]string{e.From, e.To}], e.Freq)
	}
}

func TestS5MultiCase(t *testing.T) {
	a := eventlog.MemoryLog{CaseList: []eventlog.Case{
		{ID: "c1", Events: []eventlog.Event{ev("X", 1), ev("Y", 3)}},
		{ID: "c2", Events: []eventlog.Event{ev("P", 1), ev("R", 4)}},
	}}
	b := eventlog.MemoryLog{CaseList: []eventlog.Case{
		{ID: "c1", Events: []eventlog.Event{ev("Z", 2)}},
		{ID: "c2", Events: []eventlog.Event{ev("Q", 2), ev("S", 3)}},
	}}

	g, err := baseline.Compute(a, b)
	require.NoError(t, err)

	edges := g.Edges()
	var startX, startP uint64
	for _, e := range edges {
		if e.From == "START" && e.To == "X" {
			startX = e.Freq
		}
		if e.From == "START" && e.To == "P" {
			startP = e.Freq
		}
	}
	require.Equal(t, uint64(1), startX)
	require.Equal(t, uint64(1), startP)
}

func TestS6DupActivity(t *testing.T) {
	a := oneCaseLog("c1", ev("A", 1), ev("A", 3))
	b := oneCaseLog("c1", ev("A", 2))

	g, err := baseline.Compute(a, b)
	require.NoError(t, err)

	edges := g.Edges()
	var startA, aa, aEnd uint64
	for _, e := range edges {
		switch {
		case e.From == "START" && e.To == "A":
			startA = e.Freq
		case e.From == "A" && e.To == "A":
			aa = e.Freq
		case e.From == "A" && e.To == "END":
			aEnd = e.Freq
		}
	}
	require.Equal(t, uint64(1), startA)
	require.Equal(t, uint64(2), aa)
	require.Equal(t, uint64(1), aEnd)
}
