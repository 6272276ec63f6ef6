// Package baseline computes a Directly-Follows Graph directly from
// plaintext event logs, with no cryptography involved. It exists
// purely to check the federated protocol's output against spec.md
// §8's Testable Property #1 ("Correctness vs plaintext baseline").
package baseline

import (
	"sort"

	"github.com/tuneinsight/fedpm/dfg"
	"github.com/tuneinsight/fedpm/eventlog"
)

const (
	Start = "START"
	End   = "END"
)

// labeledEvent tags an event with which log it came from, needed only
// to implement the A-before-B tie-break on equal timestamps.
type labeledEvent struct {
	eventlog.Event
	fromA bool
}

// Compute merges logA and logB case-wise, sorts each case's combined
// events by timestamp (ties broken A-before-B, per spec.md §8.1), and
// counts directly-follows pairs with virtual START/END sentinels.
func Compute(logA, logB eventlog.Log) (*dfg.Graph, error) {
	casesA, err := logA.Cases()
	if err != nil {
		return nil, err
	}
	casesB, err := logB.Cases()
	if err != nil {
		return nil, err
	}

	merged := make(map[string][]labeledEvent)
	for _, c := range casesA {
		for _, e := range c.Events {
			merged[c.ID] = append(merged[c.ID], labeledEvent{Event: e, fromA: true})
		}
	}
	for _, c := range casesB {
		for _, e := range c.Events {
			merged[c.ID] = append(merged[c.ID], labeledEvent{Event: e, fromA: false})
		}
	}

	graph := dfg.New()
	caseCount := uint64(0)

	caseIDs := make([]string, 0, len(merged))
	for id := range merged {
		caseIDs = append(caseIDs, id)
	}
	sort.Strings(caseIDs)

	for _, id := range caseIDs {
		events := merged[id]
		if len(events) == 0 {
			continue
		}
		sort.SliceStable(events, func(i, j int) bool {
			if !events[i].Timestamp.Equal(events[j].Timestamp) {
				return events[i].Timestamp.Before(events[j].Timestamp)
			}
			return events[i].fromA && !events[j].fromA
		})

		caseCount++
		prev := Start
		for _, e := range events {
			graph.AddEdge(prev, e.Activity)
			prev = e.Activity
		}
		graph.AddEdge(prev, End)
	}

	graph.RecalculateCounts(Start, End, caseCount)
	return graph, nil
}
