package smallint

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rgsw/blindrot"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"github.com/tuneinsight/fedpm/ferrors"
)

// KeyHolderKeys is the key material generated by the KeyHolder (A).
// The SecretKey never leaves this struct's owner; only ServerKeys and
// PublicKey are ever handed to the Evaluator (B).
type KeyHolderKeys struct {
	SecretKey *rlwe.SecretKey
	PublicKey *rlwe.PublicKey
	ServerKeys
}

// ServerKeys is the subset of key material that is safe to transmit
// to B: the relinearization key (needed by Select's ciphertext-
// ciphertext multiplication) and the Galois keys the comparator's
// blind rotation needs for its automorphisms.
type ServerKeys struct {
	Relinearization *rlwe.RelinearizationKey
	Galois          []*rlwe.GaloisKey
}

// GenerateKeys runs the KeyHolder's one-time key generation.
func GenerateKeys(params *Params) (*KeyHolderKeys, error) {
	kgen := rlwe.NewKeyGenerator(params.BGV)
	sk, pk := kgen.GenKeyPairNew()

	rlk := kgen.GenRelinearizationKeyNew(sk)

	galEls := comparatorGaloisElements(params)
	gks := kgen.GenGaloisKeysNew(galEls, sk)

	return &KeyHolderKeys{
		SecretKey: sk,
		PublicKey: pk,
		ServerKeys: ServerKeys{
			Relinearization: rlk,
			Galois:          gks,
		},
	}, nil
}

// EvaluationKeySet builds the rlwe.EvaluationKeySet an Evaluator (or
// Comparator) installs before touching any ciphertext. The set is only
// read once built: party.Evaluator.NewDriver builds one, and the
// driver shares it across all its workers, each wrapping it in its own
// Evaluator.
func (k ServerKeys) EvaluationKeySet() (rlwe.EvaluationKeySet, error) {
	if k.Relinearization == nil {
		return nil, ferrors.Wrap(ferrors.ErrKeyInstallFailure, "no relinearization key in server keys", fmt.Errorf("nil RelinearizationKey"))
	}
	return rlwe.NewMemEvaluationKeySet(k.Relinearization, k.Galois...), nil
}

// GenerateBlindRotationKey runs the one-time key generation the
// comparator's blind rotation needs, grounded on
// core/rgsw/blindrot.GenEvaluationKeyNew. A true two-parameter-set
// blind rotation bootstraps between a large RLWE ring and a much
// smaller LWE one; this protocol's activity/timestamp ciphertexts
// already live in a single small-integer ring, so both roles are
// filled by the same params/secret key (see DESIGN.md).
func GenerateBlindRotationKey(params *Params, sk *rlwe.SecretKey) blindrot.BlindRotationEvaluationKeySet {
	return blindrot.GenEvaluationKeyNew(params.BGV, sk, params.BGV, sk)
}
