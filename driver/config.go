// Package driver implements the windowed, parallel batching engine of
// spec.md §4.6/§5: instructions are grouped into windows of
// configurable size, evaluated by a worker pool each holding its own
// keyed Evaluator/Comparator, and decrypted by A once B has evaluated
// the whole window, before the next window starts.
package driver

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"

	"github.com/tuneinsight/fedpm/smallint"
)

// DefaultWindowSize matches spec.md §4.6's suggested default.
const DefaultWindowSize = 100

// Config collects the driver's tunables. There is no zero-value
// default that makes sense for Width, so callers must set it
// explicitly; NewConfig fills in the rest.
type Config struct {
	Width      smallint.Width
	WindowSize int
	PoolSize   int
	Mode       smallint.Mode
}

// NewConfig returns a Config with defaults appropriate for the
// machine it runs on: the window size from spec.md §4.6, and a pool
// size derived from the physical core count cpuid reports rather than
// a bare runtime.NumCPU() call, since homomorphic evaluation is
// compute- and cache-bound and hyperthreads buy little for it.
func NewConfig(width smallint.Width) Config {
	pool := cpuid.CPU.PhysicalCores
	if pool <= 0 {
		pool = runtime.GOMAXPROCS(0)
	}
	return Config{
		Width:      width,
		WindowSize: DefaultWindowSize,
		PoolSize:   pool,
		Mode:       smallint.Secure,
	}
}
