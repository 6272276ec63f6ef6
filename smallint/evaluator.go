package smallint

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/bgv"

	"github.com/tuneinsight/fedpm/ferrors"
)

// Evaluator performs the arithmetic half of the capability set: add a
// plaintext, and select between two ciphertexts on an encrypted
// condition. It holds no secret material — only the server
// (evaluation) key installed at construction, per spec.md §4/§9 — so
// it is safe to build one per worker goroutine.
type Evaluator struct {
	params *Params
	eval   *bgv.Evaluator
}

// NewEvaluator installs evk (the relinearization and Galois keys A
// generated) and returns a ready-to-use Evaluator. The driver calls
// this once per worker goroutine to satisfy spec.md §5's "broadcast
// the server key across the pool at setup" requirement.
func NewEvaluator(params *Params, evk rlwe.EvaluationKeySet) (*Evaluator, error) {
	if evk == nil {
		return nil, ferrors.Wrap(ferrors.ErrKeyInstallFailure, "nil evaluation key set", fmt.Errorf("server key not installed"))
	}
	return &Evaluator{params: params, eval: bgv.NewEvaluator(params.BGV, evk)}, nil
}

// Select returns a if cond decrypts to 1, b if cond decrypts to 0,
// without revealing which, via the arithmetic identity
// b + cond*(a-b). cond must be an encrypted 0/1 value, as produced by
// Comparator.LessOrEqual/GreaterThan or by And/Or/Not on those.
func (e *Evaluator) Select(cond, a, b *Ciphertext) (*Ciphertext, error) {
	diff, err := e.eval.SubNew(a, b)
	if err != nil {
		return nil, fmt.Errorf("smallint: select sub: %w", err)
	}

	masked, err := e.eval.MulRelinNew(diff, cond)
	if err != nil {
		return nil, fmt.Errorf("smallint: select mul: %w", err)
	}

	result, err := e.eval.AddNew(masked, b)
	if err != nil {
		return nil, fmt.Errorf("smallint: select add: %w", err)
	}
	return result, nil
}

// AddConst returns ct+v as a fresh ciphertext.
func (e *Evaluator) AddConst(ct *Ciphertext, v uint64) (*Ciphertext, error) {
	out, err := e.eval.AddNew(ct, v)
	if err != nil {
		return nil, fmt.Errorf("smallint: add constant: %w", err)
	}
	return out, nil
}

// SubConst returns ct-v as a fresh ciphertext, computed as ct +
// (T-v mod T) since bgv.Evaluator only exposes AddNew for constants.
func (e *Evaluator) SubConst(ct *Ciphertext, v uint64) (*Ciphertext, error) {
	t := e.params.BGV.PlaintextModulus()
	out, err := e.eval.AddNew(ct, (t-v%t)%t)
	if err != nil {
		return nil, fmt.Errorf("smallint: sub constant: %w", err)
	}
	return out, nil
}

// Negate returns -ct as a fresh ciphertext.
func (e *Evaluator) Negate(ct *Ciphertext) (*Ciphertext, error) {
	out, err := e.eval.NegNew(ct)
	if err != nil {
		return nil, fmt.Errorf("smallint: negate: %w", err)
	}
	return out, nil
}

// Const returns a fresh ciphertext encrypting the plaintext constant
// v, derived from an existing ciphertext under the same key rather
// than freshly encrypted: ct-ct+v. Useful wherever a constant needs to
// be combined with Select but no encryptor is in scope.
func (e *Evaluator) Const(ct *Ciphertext, v uint64) (*Ciphertext, error) {
	zero, err := e.eval.SubNew(ct, ct)
	if err != nil {
		return nil, fmt.Errorf("smallint: const sub: %w", err)
	}
	out, err := e.eval.AddNew(zero, v)
	if err != nil {
		return nil, fmt.Errorf("smallint: const add: %w", err)
	}
	return out, nil
}

// And returns the encrypted AND of two encrypted 0/1 values: a*b.
func (e *Evaluator) And(a, b *Ciphertext) (*Ciphertext, error) {
	out, err := e.eval.MulRelinNew(a, b)
	if err != nil {
		return nil, fmt.Errorf("smallint: and: %w", err)
	}
	return out, nil
}

// Or returns the encrypted OR of two encrypted 0/1 values: a+b-a*b.
func (e *Evaluator) Or(a, b *Ciphertext) (*Ciphertext, error) {
	prod, err := e.eval.MulRelinNew(a, b)
	if err != nil {
		return nil, fmt.Errorf("smallint: or mul: %w", err)
	}
	sum, err := e.eval.AddNew(a, b)
	if err != nil {
		return nil, fmt.Errorf("smallint: or add: %w", err)
	}
	out, err := e.eval.SubNew(sum, prod)
	if err != nil {
		return nil, fmt.Errorf("smallint: or sub: %w", err)
	}
	return out, nil
}

// Not returns the encrypted negation of an encrypted 0/1 value: 1-a.
func (e *Evaluator) Not(a *Ciphertext) (*Ciphertext, error) {
	neg, err := e.eval.NegNew(a)
	if err != nil {
		return nil, fmt.Errorf("smallint: not neg: %w", err)
	}
	out, err := e.eval.AddNew(neg, uint64(1))
	if err != nil {
		return nil, fmt.Errorf("smallint: not add: %w", err)
	}
	return out, nil
}
