package smallint

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/schemes/bgv"
)

// Params bundles the BGV cryptographic parameters for one choice of
// Width. It is created once by the KeyHolder and the literal (not the
// secret key) is part of what is shipped to the Evaluator.
type Params struct {
	Width Width
	BGV   bgv.Parameters
	Litrl bgv.ParametersLiteral
}

// plaintextModulusFor picks a BGV plaintext modulus comfortably larger
// than 2^width so that activity indices, and the small integer
// arithmetic performed on them (add, multiply by 0/1, subtract),
// never wrap around. Concrete ring parameters (LogN/LogQ/LogP) follow
// the 128-bit-security literal used in
// examples/singleparty/bgv_ride_hailing/main.go and are the same for
// every width; only the plaintext modulus depends on the width.
func plaintextModulusFor(w Width) uint64 {
	switch w {
	case Width8:
		return 0x10001 // > 2^8, NTT-friendly prime
	case Width16:
		return 0x3ee0001 // > 2^16, matches the ride-hailing example's T
	default:
		return 0x7fffffffe0001 // > 2^32
	}
}

// NewParams builds the BGV parameter set for the given Width.
func NewParams(w Width) (*Params, error) {
	lit := bgv.ParametersLiteral{
		LogN:             14,
		LogQ:             []int{56, 55, 55, 54, 54, 54},
		LogP:             []int{55, 55},
		PlaintextModulus: plaintextModulusFor(w),
	}

	params, err := bgv.NewParametersFromLiteral(lit)
	if err != nil {
		return nil, fmt.Errorf("smallint: cannot build BGV parameters for width %d: %w", w, err)
	}

	return &Params{Width: w, BGV: params, Litrl: lit}, nil
}
