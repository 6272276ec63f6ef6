package smallint

import (
	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"github.com/tuneinsight/fedpm/ferrors"
)

// Ciphertext is an encrypted small integer: one BGV ciphertext
// encoding a single value in slot 0. Every instruction in the plan
// operates on one or two of these.
type Ciphertext = rlwe.Ciphertext

// MarshalBinary serialises ct using lattigo's own ciphertext wire
// format, as spec.md §6 calls for ("the FHE library's own ciphertext
// serialisation").
func MarshalBinary(ct *Ciphertext) ([]byte, error) {
	return ct.MarshalBinary()
}

// UnmarshalBinary parses data produced by MarshalBinary. It returns a
// ciphertext-decode-failure error (see package ferrors) on malformed
// input, which callers should treat as a reason to drop the
// containing window rather than abort the whole protocol.
func UnmarshalBinary(data []byte) (*Ciphertext, error) {
	ct := new(Ciphertext)
	if err := ct.UnmarshalBinary(data); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCiphertextDecode, "parsing ciphertext from wire", err)
	}
	return ct, nil
}
