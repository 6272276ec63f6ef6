package smallint

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/bgv"
)

// Encryptor encrypts plaintext small integers into Ciphertexts, under
// either the secret key (KeyHolder/A, per spec.md §4.2) or the public
// key (Evaluator/B, which never holds a secret key).
type Encryptor struct {
	params *Params
	enc    *rlwe.Encryptor
	ecd    *bgv.Encoder
	mode   Mode
}

// NewSecretEncryptor builds the KeyHolder-side encryptor.
func NewSecretEncryptor(params *Params, sk *rlwe.SecretKey, mode Mode) *Encryptor {
	return &Encryptor{
		params: params,
		enc:    rlwe.NewEncryptor(params.BGV, sk),
		ecd:    bgv.NewEncoder(params.BGV),
		mode:   mode,
	}
}

// NewPublicEncryptor builds the Evaluator-side encryptor. B only ever
// has the public key, never the secret key.
func NewPublicEncryptor(params *Params, pk *rlwe.PublicKey, mode Mode) *Encryptor {
	return &Encryptor{
		params: params,
		enc:    rlwe.NewEncryptor(params.BGV, pk),
		ecd:    bgv.NewEncoder(params.BGV),
		mode:   mode,
	}
}

// EncryptUint encrypts a single small integer value into slot 0 of a
// fresh Ciphertext. In Trivial mode, it skips the encryption step
// entirely and returns a ciphertext that decrypts correctly but
// carries no confidentiality, per spec.md §4.2's debug flag.
func (e *Encryptor) EncryptUint(v uint64) (*Ciphertext, error) {
	values := make([]uint64, e.params.BGV.MaxSlots())
	values[0] = v

	pt := bgv.NewPlaintext(e.params.BGV, e.params.BGV.MaxLevel())
	if err := e.ecd.Encode(values, pt); err != nil {
		return nil, fmt.Errorf("smallint: encoding plaintext: %w", err)
	}

	if e.mode == Trivial {
		return trivialCiphertext(e.params, pt), nil
	}

	ct, err := e.enc.EncryptNew(pt)
	if err != nil {
		return nil, fmt.Errorf("smallint: encrypting plaintext: %w", err)
	}
	return ct, nil
}

// trivialCiphertext builds a ciphertext of the form (pt, 0), which
// decrypts to pt under any key. Used only under Mode == Trivial.
func trivialCiphertext(params *Params, pt *rlwe.Plaintext) *Ciphertext {
	ct := rlwe.NewCiphertext(params.BGV, 1, pt.Level())
	ct.Value[0].CopyLvl(pt.Level(), pt.Value)
	ct.MetaData = pt.MetaData
	return ct
}

// Decryptor decrypts Ciphertexts back to plaintext small integers.
// Only the KeyHolder (A) ever constructs one, since it is the only
// party holding the secret key.
type Decryptor struct {
	params *Params
	dec    *rlwe.Decryptor
	ecd    *bgv.Encoder
}

// NewDecryptor builds the KeyHolder-side decryptor.
func NewDecryptor(params *Params, sk *rlwe.SecretKey) *Decryptor {
	return &Decryptor{
		params: params,
		dec:    rlwe.NewDecryptor(params.BGV, sk),
		ecd:    bgv.NewEncoder(params.BGV),
	}
}

// DecryptUint decrypts ct and returns the value in slot 0.
func (d *Decryptor) DecryptUint(ct *Ciphertext) (uint64, error) {
	pt := d.dec.DecryptNew(ct)
	values := make([]uint64, d.params.BGV.MaxSlots())
	if err := d.ecd.Decode(pt, values); err != nil {
		return 0, fmt.Errorf("smallint: decoding plaintext: %w", err)
	}
	return values[0], nil
}
