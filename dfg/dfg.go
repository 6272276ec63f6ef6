// Package dfg implements the Directly-Follows Graph data structure of
// spec.md §3: a set of activity nodes with integer counts and a
// multiset of directed edges with integer frequencies, grown
// monotonically by the KeyHolder's aggregator.
package dfg

import "sort"

// Edge is one directed directly-follows relation with its frequency.
type Edge struct {
	From, To string
	Freq     uint64
}

// Node is an activity label with its recomputed count.
type Node struct {
	Label string
	Count uint64
}

// Graph accumulates edge frequencies as (from, to) pairs are added,
// and recomputes node counts from those edges. Edges are held as
// pairs of labels rather than pointers into the activity table, per
// spec.md §9 ("Back-references"), to avoid lifetime coupling.
type Graph struct {
	edges map[[2]string]uint64
	nodes map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		edges: make(map[[2]string]uint64),
		nodes: make(map[string]struct{}),
	}
}

// AddEdge increments the frequency of from→to by one. Safe to call
// repeatedly across cases; aggregation is commutative, so callers may
// add edges in any order (spec.md §4.6's window-reordering tolerance).
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.edges[[2]string{from, to}]++
}

// AddNode registers a label as present in the graph even if it never
// gains an edge (mirrors the original implementation's
// add_activity/recalculate_activity_counts pairing, see DESIGN.md).
func (g *Graph) AddNode(label string) {
	g.nodes[label] = struct{}{}
}

// RecalculateCounts recomputes every node's count per spec.md §4.5:
// max(Σ freq(u→v), Σ freq(v→w)), with START/END treated as structural
// nodes whose counts equal the number of cases emitting them
// (caseCount, supplied by the caller since the graph itself holds no
// notion of cases).
func (g *Graph) RecalculateCounts(startLabel, endLabel string, caseCount uint64) map[string]uint64 {
	inSum := make(map[string]uint64, len(g.nodes))
	outSum := make(map[string]uint64, len(g.nodes))

	for pair, freq := range g.edges {
		from, to := pair[0], pair[1]
		outSum[from] += freq
		inSum[to] += freq
	}

	counts := make(map[string]uint64, len(g.nodes))
	for label := range g.nodes {
		counts[label] = max64(inSum[label], outSum[label])
	}
	if _, ok := g.nodes[startLabel]; ok {
		counts[startLabel] = caseCount
	}
	if _, ok := g.nodes[endLabel]; ok {
		counts[endLabel] = caseCount
	}
	return counts
}

// Nodes returns every registered label, with its recomputed count per
// RecalculateCounts (startLabel/endLabel/caseCount forwarded
// unchanged), sorted by label for deterministic external consumption.
func (g *Graph) Nodes(startLabel, endLabel string, caseCount uint64) []Node {
	counts := g.RecalculateCounts(startLabel, endLabel, caseCount)
	out := make([]Node, 0, len(counts))
	for label, count := range counts {
		out = append(out, Node{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Edges returns every directed edge with its accumulated frequency,
// sorted by (from, to) for deterministic external consumption, per
// spec.md §6's "nodes: [(label,count)], edges: [(from,to,frequency)]"
// external interface.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for pair, freq := range g.edges {
		out = append(out, Edge{From: pair[0], To: pair[1], Freq: freq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
