// Package aggregate implements the decryption-and-aggregation stage
// of spec.md §4.5: A decrypts ciphertext pairs, drops any pair
// containing BOTTOM, maps surviving pairs back to labels, and
// accumulates edge frequencies into the DFG.
package aggregate

import (
	"fmt"
	"sync"

	"github.com/tuneinsight/fedpm/alphabet"
	"github.com/tuneinsight/fedpm/dfg"
	"github.com/tuneinsight/fedpm/kernel"
	"github.com/tuneinsight/fedpm/smallint"
)

// Aggregator decrypts ciphertext pairs and feeds surviving edges into
// a Graph. It is owned entirely by A; the underlying Graph is
// mutated only through Add, which guards it with a mutex (spec.md §5:
// "the growing DFG ... mutated only by A's aggregator, which is
// single-threaded or guarded by a mutex").
type Aggregator struct {
	dec   *smallint.Decryptor
	table *alphabet.Table
	graph *dfg.Graph
	mu    sync.Mutex
}

// New builds an Aggregator writing into graph.
func New(dec *smallint.Decryptor, table *alphabet.Table, graph *dfg.Graph) *Aggregator {
	return &Aggregator{dec: dec, table: table, graph: graph}
}

// Add decrypts one ciphertext pair and, if neither half decrypts to
// BOTTOM, adds the corresponding edge to the graph. The two halves are
// decrypted concurrently, per spec.md §4.5 ("decrypts both components
// in parallel").
func (a *Aggregator) Add(pair kernel.Pair) error {
	var fromIdx, toIdx uint64
	var fromErr, toErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		fromIdx, fromErr = a.dec.DecryptUint(pair.From)
	}()
	go func() {
		defer wg.Done()
		toIdx, toErr = a.dec.DecryptUint(pair.To)
	}()
	wg.Wait()

	if fromErr != nil {
		return fmt.Errorf("aggregate: decrypting from: %w", fromErr)
	}
	if toErr != nil {
		return fmt.Errorf("aggregate: decrypting to: %w", toErr)
	}

	bottom := uint64(a.table.BottomIndex())
	if fromIdx == bottom || toIdx == bottom {
		return nil
	}

	fromLabel, ok := a.table.Label(uint32(fromIdx))
	if !ok {
		return fmt.Errorf("aggregate: decrypted from-index %d has no label", fromIdx)
	}
	toLabel, ok := a.table.Label(uint32(toIdx))
	if !ok {
		return fmt.Errorf("aggregate: decrypted to-index %d has no label", toIdx)
	}

	a.mu.Lock()
	a.graph.AddEdge(fromLabel, toLabel)
	a.mu.Unlock()
	return nil
}

// AddWindow adds every pair in a window sequentially; instruction
// ordering within the window is immaterial since Graph.AddEdge is
// commutative (spec.md §4.6).
func (a *Aggregator) AddWindow(pairs []kernel.Pair) error {
	for i, p := range pairs {
		if err := a.Add(p); err != nil {
			return fmt.Errorf("aggregate: window index %d: %w", i, err)
		}
	}
	return nil
}
