package smallint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/fedpm/smallint"
)

func newTestParams(t *testing.T) *smallint.Params {
	t.Helper()
	params, err := smallint.NewParams(smallint.Width16)
	require.NoError(t, err)
	return params
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	params := newTestParams(t)

	keys, err := smallint.GenerateKeys(params)
	require.NoError(t, err)

	enc := smallint.NewSecretEncryptor(params, keys.SecretKey, smallint.Secure)
	dec := smallint.NewDecryptor(params, keys.SecretKey)

	for _, v := range []uint64{0, 1, 42, 1000} {
		ct, err := enc.EncryptUint(v)
		require.NoError(t, err)

		got, err := dec.DecryptUint(ct)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestTrivialModeRoundTrip(t *testing.T) {
	params := newTestParams(t)
	keys, err := smallint.GenerateKeys(params)
	require.NoError(t, err)

	enc := smallint.NewSecretEncryptor(params, keys.SecretKey, smallint.Trivial)
	dec := smallint.NewDecryptor(params, keys.SecretKey)

	ct, err := enc.EncryptUint(7)
	require.NoError(t, err)

	got, err := dec.DecryptUint(ct)
	require.NoError(t, err)
	require.Equal(t, uint64(7), got)
}

func TestSelectPicksCorrectBranch(t *testing.T) {
	params := newTestParams(t)
	keys, err := smallint.GenerateKeys(params)
	require.NoError(t, err)

	evk, err := keys.ServerKeys.EvaluationKeySet()
	require.NoError(t, err)

	enc := smallint.NewSecretEncryptor(params, keys.SecretKey, smallint.Secure)
	dec := smallint.NewDecryptor(params, keys.SecretKey)
	eval, err := smallint.NewEvaluator(params, evk)
	require.NoError(t, err)

	a, err := enc.EncryptUint(11)
	require.NoError(t, err)
	b, err := enc.EncryptUint(22)
	require.NoError(t, err)

	one, err := enc.EncryptUint(1)
	require.NoError(t, err)
	zero, err := enc.EncryptUint(0)
	require.NoError(t, err)

	picked, err := eval.Select(one, a, b)
	require.NoError(t, err)
	got, err := dec.DecryptUint(picked)
	require.NoError(t, err)
	require.Equal(t, uint64(11), got)

	picked, err = eval.Select(zero, a, b)
	require.NoError(t, err)
	got, err = dec.DecryptUint(picked)
	require.NoError(t, err)
	require.Equal(t, uint64(22), got)
}

func TestNewEvaluatorRejectsNilKeySet(t *testing.T) {
	params := newTestParams(t)
	_, err := smallint.NewEvaluator(params, nil)
	require.Error(t, err)
}

// newTestComparator builds a Comparator against a fresh key pair,
// wired the same way driver.Driver installs one per worker: an
// Evaluator first, then a Comparator sharing that Evaluator's
// arithmetic so it can shift the plaintext bound onto the ciphertext.
func newTestComparator(t *testing.T) (*smallint.Params, *smallint.Encryptor, *smallint.Decryptor, *smallint.Evaluator, *smallint.Comparator) {
	t.Helper()
	params := newTestParams(t)
	keys, err := smallint.GenerateKeys(params)
	require.NoError(t, err)

	evk, err := keys.ServerKeys.EvaluationKeySet()
	require.NoError(t, err)
	brk := smallint.GenerateBlindRotationKey(params, keys.SecretKey)

	enc := smallint.NewSecretEncryptor(params, keys.SecretKey, smallint.Secure)
	dec := smallint.NewDecryptor(params, keys.SecretKey)
	eval, err := smallint.NewEvaluator(params, evk)
	require.NoError(t, err)
	cmp, err := smallint.NewComparator(params, eval, brk)
	require.NoError(t, err)

	return params, enc, dec, eval, cmp
}

func TestComparatorLessOrEqualAndGreaterThan(t *testing.T) {
	_, enc, dec, _, cmp := newTestComparator(t)

	cases := []struct {
		x, bound uint64
	}{
		{x: 3, bound: 5},
		{x: 5, bound: 5},
		{x: 7, bound: 5},
		{x: 0, bound: 0},
	}

	for _, c := range cases {
		ct, err := enc.EncryptUint(c.x)
		require.NoError(t, err)

		le, err := cmp.LessOrEqual(ct, c.bound)
		require.NoError(t, err)
		gotLE, err := dec.DecryptUint(le)
		require.NoError(t, err)

		wantLE := uint64(0)
		if c.x <= c.bound {
			wantLE = 1
		}
		require.Equal(t, wantLE, gotLE, "LessOrEqual(%d, %d)", c.x, c.bound)

		gt, err := cmp.GreaterThan(c.bound, ct)
		require.NoError(t, err)
		gotGT, err := dec.DecryptUint(gt)
		require.NoError(t, err)

		wantGT := uint64(0)
		if c.x > c.bound {
			wantGT = 1
		}
		require.Equal(t, wantGT, gotGT, "GreaterThan(%d, %d)", c.bound, c.x)
	}
}

func TestComparatorGEAndLTDerivedFromBounds(t *testing.T) {
	_, enc, dec, _, cmp := newTestComparator(t)

	ct, err := enc.EncryptUint(10)
	require.NoError(t, err)

	ge, err := cmp.GE(ct, 10)
	require.NoError(t, err)
	gotGE, err := dec.DecryptUint(ge)
	require.NoError(t, err)
	require.Equal(t, uint64(1), gotGE, "10 >= 10")

	ge, err = cmp.GE(ct, 11)
	require.NoError(t, err)
	gotGE, err = dec.DecryptUint(ge)
	require.NoError(t, err)
	require.Equal(t, uint64(0), gotGE, "10 >= 11")

	lt, err := cmp.LT(ct, 10)
	require.NoError(t, err)
	gotLT, err := dec.DecryptUint(lt)
	require.NoError(t, err)
	require.Equal(t, uint64(0), gotLT, "10 < 10")

	lt, err = cmp.LT(ct, 11)
	require.NoError(t, err)
	gotLT, err = dec.DecryptUint(lt)
	require.NoError(t, err)
	require.Equal(t, uint64(1), gotLT, "10 < 11")
}

func TestNewComparatorRejectsNilArgs(t *testing.T) {
	params := newTestParams(t)
	keys, err := smallint.GenerateKeys(params)
	require.NoError(t, err)

	evk, err := keys.ServerKeys.EvaluationKeySet()
	require.NoError(t, err)
	eval, err := smallint.NewEvaluator(params, evk)
	require.NoError(t, err)
	brk := smallint.GenerateBlindRotationKey(params, keys.SecretKey)

	_, err = smallint.NewComparator(params, eval, nil)
	require.Error(t, err)

	_, err = smallint.NewComparator(params, nil, brk)
	require.Error(t, err)
}
