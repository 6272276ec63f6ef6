package driver

import (
	"fmt"
	"sync"
	"time"

	"github.com/tuneinsight/lattigo/v6/core/rgsw/blindrot"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"github.com/tuneinsight/fedpm/aggregate"
	"github.com/tuneinsight/fedpm/alphabet"
	"github.com/tuneinsight/fedpm/ciphertrace"
	"github.com/tuneinsight/fedpm/ferrors"
	"github.com/tuneinsight/fedpm/kernel"
	"github.com/tuneinsight/fedpm/plan"
	"github.com/tuneinsight/fedpm/smallint"
)

// task is one instruction routed to a worker, tagged with enough
// context to evaluate it against the right case entry.
type task struct {
	ins   plan.Instruction
	entry ciphertrace.CaseEntry
	out   *kernel.Pair
	err   *error
}

// Driver runs the windowed, parallel plan-execution/decryption
// pipeline described in spec.md §4.6. It is constructed at B (the
// Evaluator side owns the worker pool and the plan) but also holds
// the Aggregator, since in a single-process simulation of the
// two-party protocol both roles share one Go process; a real
// deployment would split Driver across a network boundary at the
// point Run hands each window's pairs to Aggregator.AddWindow.
type Driver struct {
	cfg      Config
	params   *smallint.Params
	table    *alphabet.Table
	cases    ciphertrace.CaseTable
	evk      rlwe.EvaluationKeySet
	brk      blindrot.BlindRotationEvaluationKeySet
	agg      *aggregate.Aggregator
	progress *Progress
	report   *Reporter
}

// New builds a Driver. evk and brk are the server-side key material
// A generated and handed to B (spec.md §3's "Ownership": B never sees
// the secret key). agg is owned by A; in the single-process
// simulation it is passed in directly.
func New(cfg Config, params *smallint.Params, table *alphabet.Table, cases ciphertrace.CaseTable, evk rlwe.EvaluationKeySet, brk blindrot.BlindRotationEvaluationKeySet, agg *aggregate.Aggregator) *Driver {
	return &Driver{
		cfg:      cfg,
		params:   params,
		table:    table,
		cases:    cases,
		evk:      evk,
		brk:      brk,
		agg:      agg,
		progress: NewProgress(0),
		report:   NewReporter(),
	}
}

// Progress exposes the live counters for external monitoring.
func (d *Driver) Progress() *Progress { return d.progress }

// Sanitize runs spec.md §4.4's activity-sanitisation pass over every
// foreign trace before plan execution begins.
func (d *Driver) Sanitize() error {
	eval, err := smallint.NewEvaluator(d.params, d.evk)
	if err != nil {
		return fmt.Errorf("driver: sanitize evaluator: %w", err)
	}
	cmp, err := smallint.NewComparator(d.params, eval, d.brk)
	if err != nil {
		return fmt.Errorf("driver: sanitize comparator: %w", err)
	}
	return ciphertrace.Sanitize(d.cases, d.table, eval, cmp)
}

// Run generates the plan for every case, evaluates it in windows
// across the worker pool, and feeds each window's surviving edges to
// the aggregator. Per spec.md §4.6 the driver avoids a partial tail
// window unless it is the final one; in practice this simply means
// the last window is allowed to be short.
func (d *Driver) Run(salt []byte) error {
	d.report.Phase("Planning")

	var all []task
	for caseID, entry := range d.cases {
		instrs := plan.ForCase(caseID, entry.Foreign.Len(), entry.Own.Len())
		plan.Shuffle(instrs, caseID, salt)
		for _, ins := range instrs {
			all = append(all, task{ins: ins, entry: entry})
		}
	}
	d.progress = NewProgress(uint64(len(all)))

	d.report.Phase("Evaluating windows")
	windows := chunk(all, d.cfg.WindowSize)
	for _, w := range windows {
		start := time.Now()
		if err := d.runWindow(w); err != nil {
			// retry once, per spec.md §7's in-window error policy
			if retryErr := d.runWindow(w); retryErr != nil {
				d.report.Phase(fmt.Sprintf("dropping window after retry: %v", retryErr))
				continue
			}
		}
		d.report.RecordWindow(time.Since(start))

		d.report.Phase("Decrypting")
		pairs := make([]kernel.Pair, 0, len(w))
		for i := range w {
			if w[i].out != nil {
				pairs = append(pairs, *w[i].out)
			}
		}
		if err := d.agg.AddWindow(pairs); err != nil {
			return ferrors.Wrap(ferrors.ErrCiphertextDecode, "decrypting window", err)
		}
		d.progress.AddDecrypted(uint64(len(pairs)))
	}

	return d.report.Summary()
}

// runWindow evaluates one window across the worker pool, grounded in
// examples/dbfv/pir/pir.go's channel-of-tasks/sync.WaitGroup pattern:
// each worker builds its own Evaluator/Comparator from the broadcast
// server key, satisfying spec.md §5's per-worker key install
// requirement.
func (d *Driver) runWindow(w []task) error {
	ch := make(chan *task)
	var wg sync.WaitGroup
	errs := make(chan error, d.cfg.PoolSize)

	poolSize := d.cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}

	wg.Add(poolSize)
	for i := 0; i < poolSize; i++ {
		go func() {
			defer wg.Done()

			eval, err := smallint.NewEvaluator(d.params, d.evk)
			if err != nil {
				errs <- ferrors.Wrap(ferrors.ErrKeyInstallFailure, "worker evaluator install", err)
				return
			}
			cmp, err := smallint.NewComparator(d.params, eval, d.brk)
			if err != nil {
				errs <- ferrors.Wrap(ferrors.ErrKeyInstallFailure, "worker comparator install", err)
				return
			}
			k := kernel.New(eval, cmp, d.table)

			for t := range ch {
				pair, err := k.Eval(t.ins, t.entry)
				if err != nil {
					*t.err = err
					continue
				}
				*t.out = pair
			}
		}()
	}

	for i := range w {
		var out kernel.Pair
		var e error
		w[i].out = &out
		w[i].err = &e
		ch <- &w[i]
	}
	close(ch)
	wg.Wait()
	close(errs)

	d.progress.AddPlanned(uint64(len(w)))

	for i := range w {
		if w[i].err != nil && *w[i].err != nil {
			return *w[i].err
		}
	}
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func chunk(all []task, size int) [][]task {
	if size < 1 {
		size = 1
	}
	var out [][]task
	for i := 0; i < len(all); i += size {
		end := i + size
		if end > len(all) {
			end = len(all)
		}
		out = append(out, all[i:end])
	}
	return out
}
