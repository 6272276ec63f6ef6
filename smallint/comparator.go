package smallint

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rgsw/blindrot"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/ring"

	"github.com/tuneinsight/fedpm/ferrors"
)

// Comparator evaluates the one primitive BGV's exact modular
// arithmetic cannot express directly: "is this encrypted value less
// than or equal to this plaintext bound". It does so by first
// homomorphically shifting the bound into the ciphertext (so the
// question becomes "is this shifted value >= 0"), then evaluating
// that fixed test with programmable bootstrapping — a blind rotation
// evaluating a step test polynomial, the same machinery the teacher
// library uses to evaluate arbitrary functions of a bounded
// small-integer domain (see core/rgsw/blindrot and rgsw/lut's
// InitLUT). The result is an encrypted 0/1 value compatible with
// Evaluator.Select/And/Or/Not.
type Comparator struct {
	params  *Params
	arith   *Evaluator
	eval    *blindrot.Evaluator
	brk     blindrot.BlindRotationEvaluationKeySet
	stepLUT *ring.Poly
}

// comparatorGaloisElements returns the Galois elements the
// comparator's blind rotation needs automorphism keys for: those of
// an inner sum over all slots (batch 1, n = MaxSlots).
func comparatorGaloisElements(params *Params) []uint64 {
	return rlwe.GaloisElementsForInnerSum(params.BGV, 1, params.BGV.MaxSlots())
}

// NewComparator installs the blind rotation evaluation key generated
// alongside the rest of the server keys. arith is the worker's own
// smallint.Evaluator, reused here to homomorphically shift a
// ciphertext by the plaintext bound before the blind rotation reads
// it; one Comparator is built per worker, the same way a
// smallint.Evaluator is: the key material is public (server-side) and
// cheap to re-wrap, so per-worker construction is preferred over
// sharing one instance across goroutines.
func NewComparator(params *Params, arith *Evaluator, brk blindrot.BlindRotationEvaluationKeySet) (*Comparator, error) {
	if brk == nil {
		return nil, ferrors.Wrap(ferrors.ErrKeyInstallFailure, "nil blind rotation key set", fmt.Errorf("comparator server key not installed"))
	}
	if arith == nil {
		return nil, ferrors.Wrap(ferrors.ErrKeyInstallFailure, "nil arithmetic evaluator", fmt.Errorf("comparator needs an installed Evaluator to shift bounds"))
	}

	eval := blindrot.NewEvaluator(params.BGV, params.BGV)

	step := stepTestPolynomial(params)

	return &Comparator{params: params, arith: arith, eval: eval, brk: brk, stepLUT: step}, nil
}

// stepTestPolynomial builds the LUT polynomial for f(x) = 1 if x>=0
// else 0, the building block for every ≤/> comparison: callers
// normalise "is a ≤ b" to "is (b - a) >= 0" before rotation.
func stepTestPolynomial(params *Params) *ring.Poly {
	ringQ := params.BGV.RingQ()
	step := func(x float64) float64 {
		if x >= 0 {
			return 1
		}
		return 0
	}
	return initStepLUT(step, ringQ)
}

// initStepLUT discretises g over the normalised interval [-1, 1], the
// same construction rgsw/lut.InitLUT performs for gate evaluation in
// the teacher's binary-FHE package (lwe/bin_fhe.go).
func initStepLUT(g func(x float64) float64, ringQ *ring.Ring) *ring.Poly {
	poly := ringQ.NewPoly()
	n := ringQ.N()
	interval := 2.0 / float64(n)

	for level, qi := range ringQ.ModuliChain()[:ringQ.Level()+1] {
		for i := 0; i < n/2+1; i++ {
			poly.Coeffs[level][i] = scaleToModulus(g(-interval*float64(i)), qi)
		}
		for i := n/2 + 1; i < n; i++ {
			poly.Coeffs[level][i] = scaleToModulus(-g(interval*float64(n-i)), qi)
		}
	}
	ringQ.NTT(poly, poly)
	return poly
}

func scaleToModulus(v float64, qi uint64) uint64 {
	if v < 0 {
		return qi - uint64(-v*float64(qi/4))%qi
	}
	return uint64(v*float64(qi/4)) % qi
}

// LessOrEqual returns an encrypted 0/1 value: 1 iff decrypt(ct) ≤
// bound. This is cmp(ct_x, plain_y) from spec.md §4.4.
func (c *Comparator) LessOrEqual(ct *Ciphertext, bound uint64) (*Ciphertext, error) {
	return c.evaluateStep(ct, bound, false)
}

// GreaterThan returns an encrypted 0/1 value: 1 iff bound < decrypt(ct).
// This is rcmp(plain_y, ct_x) from spec.md §4.4.
func (c *Comparator) GreaterThan(bound uint64, ct *Ciphertext) (*Ciphertext, error) {
	return c.evaluateStep(ct, bound, true)
}

// LE is an alias for LessOrEqual matching spec.md §4.4's cmp(ct_x,
// plain_y) = ct_x ≤ y notation.
func (c *Comparator) LE(ct *Ciphertext, y uint64) (*Ciphertext, error) {
	return c.LessOrEqual(ct, y)
}

// GT is an alias for GreaterThan matching spec.md §4.4's rcmp(plain_y,
// ct_x) = ct_x > y notation.
func (c *Comparator) GT(y uint64, ct *Ciphertext) (*Ciphertext, error) {
	return c.GreaterThan(y, ct)
}

// GE tests ct ≥ y, expressed as ct > y-1 since the domain is discrete
// small integers; both primitives the kernel needs (cmp, rcmp) take
// one plaintext and one ciphertext operand, so every derived
// comparison below preserves that shape.
func (c *Comparator) GE(ct *Ciphertext, y uint64) (*Ciphertext, error) {
	return c.GreaterThan(y-1, ct)
}

// LT tests ct < y, expressed as ct ≤ y-1.
func (c *Comparator) LT(ct *Ciphertext, y uint64) (*Ciphertext, error) {
	return c.LessOrEqual(ct, y-1)
}

// evaluateStep normalises the comparison against bound into "is this
// shifted ciphertext >= 0", the one fixed function stepLUT evaluates:
//   - LessOrEqual(x, bound):  x <= bound  <=>  bound - x >= 0
//   - GreaterThan(bound, x):  x >  bound  <=>  x - (bound+1) >= 0
//
// Both shifts are homomorphic operations against the caller's
// arithmetic Evaluator; only the shifted ciphertext is ever fed to the
// blind rotation, so bound actually participates in the result.
func (c *Comparator) evaluateStep(ct *Ciphertext, bound uint64, strictGreater bool) (*Ciphertext, error) {
	var shifted *Ciphertext
	var err error
	if strictGreater {
		shifted, err = c.arith.SubConst(ct, bound+1)
	} else {
		shifted, err = c.arith.Negate(ct)
		if err == nil {
			shifted, err = c.arith.AddConst(shifted, bound)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("smallint: shifting bound onto ciphertext: %w", err)
	}

	testPoly := map[int]*ring.Poly{0: c.stepLUT}

	res, err := c.eval.Evaluate(shifted, testPoly, c.brk)
	if err != nil {
		return nil, fmt.Errorf("smallint: blind rotation comparator: %w", err)
	}

	out, ok := res[0]
	if !ok {
		return nil, fmt.Errorf("smallint: blind rotation produced no result for slot 0")
	}
	return out, nil
}
