package party

import (
	"fmt"

	"github.com/tuneinsight/fedpm/ciphertrace"
	"github.com/tuneinsight/fedpm/dfg"
	"github.com/tuneinsight/fedpm/driver"
	"github.com/tuneinsight/fedpm/eventlog"
	"github.com/tuneinsight/fedpm/smallint"
)

// protocolSalt is the fixed public salt used to derive each case's
// deterministic instruction shuffle (plan.Shuffle). It is not secret:
// it only needs to be unpredictable to an observer who has not agreed
// it with the other party, and both parties already share every other
// piece of setup state over the same channel.
var protocolSalt = []byte("fedpm/v1/plan-shuffle")

// Run executes the full two-party pipeline of spec.md §2 in a single
// process: alphabet agreement, key generation, ciphertext
// preparation, case union, sanitisation, windowed homomorphic
// evaluation, and decryption/aggregation. It returns the resulting
// DFG as seen by A.
//
// This simulates both roles in one process because the wire
// transport itself (sockets, framing) is out of scope per spec.md §1;
// KeyMaterial and the case table stand in for the messages that would
// otherwise cross a network boundary.
func Run(logA, logB eventlog.Log, mode smallint.Mode, windowSize int) (*dfg.Graph, error) {
	a := NewKeyHolder(logA, mode)
	b := NewEvaluator(logB)

	bLabels, err := b.OwnLabels()
	if err != nil {
		return nil, fmt.Errorf("party: B's label set: %w", err)
	}

	table, err := a.AgreeAlphabet(bLabels)
	if err != nil {
		return nil, err
	}

	material := a.KeyMaterialFor(table)

	foreign, err := a.BuildForeignTraces(table)
	if err != nil {
		return nil, fmt.Errorf("party: building A's encrypted traces: %w", err)
	}

	own, err := b.BuildOwnTraces(a.Params(), material)
	if err != nil {
		return nil, fmt.Errorf("party: building B's encrypted traces: %w", err)
	}

	cases := ciphertrace.BuildCaseTable(foreign, own)

	graph := dfg.New()
	agg := a.NewAggregator(table, graph)

	cfg := driver.NewConfig(a.width)
	if windowSize > 0 {
		cfg.WindowSize = windowSize
	}
	cfg.Mode = mode

	d, err := b.NewDriver(cfg, a.Params(), material, cases, agg)
	if err != nil {
		return nil, err
	}

	if err := d.Sanitize(); err != nil {
		return nil, fmt.Errorf("party: sanitising foreign activities: %w", err)
	}

	if err := d.Run(protocolSalt); err != nil {
		return nil, fmt.Errorf("party: running plan: %w", err)
	}

	return graph, nil
}
