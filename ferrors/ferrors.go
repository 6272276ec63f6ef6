// Package ferrors enumerates the named, protocol-level error kinds the
// federated discovery pipeline can raise. Every kind maps directly to
// one of the failure modes the protocol design calls out: some are
// fatal at setup, others are recoverable per-window conditions.
package ferrors

import "errors"

// Sentinel errors identifying a kind. Use errors.Is against these,
// and errors.As / Unwrap to recover the wrapped detail.
var (
	// ErrAlphabetOverflow: the combined activity alphabet plus the
	// three reserved symbols exceeds the chosen index width.
	ErrAlphabetOverflow = errors.New("alphabet-overflow")

	// ErrTimestampMissing: an event has no parseable timestamp.
	ErrTimestampMissing = errors.New("timestamp-missing")

	// ErrKeyInstallFailure: a worker failed to install the server
	// (evaluation) key before touching a ciphertext.
	ErrKeyInstallFailure = errors.New("key-install-failure")

	// ErrCiphertextDecode: a received ciphertext did not parse, or a
	// window's pairs could not be decrypted and mapped back to labels.
	// driver.Driver.Run returns the latter and stops the run; the
	// window is neither retried nor dropped.
	ErrCiphertextDecode = errors.New("ciphertext-decode-failure")
)

// CaseEmptyBothSides is not an error: it is the signal that a case had
// no events on either side, and the plan generator should emit nothing
// for it. It is a named predicate, not a wrapped error kind, so that
// callers do not accidentally propagate it as a failure.
func CaseEmptyBothSides(foreignLen, ownLen int) bool {
	return foreignLen == 0 && ownLen == 0
}

// Wrap annotates err with a kind sentinel and free-form context,
// preserving errors.Is/As against kind.
func Wrap(kind error, context string, err error) error {
	if err == nil {
		return nil
	}
	return &wrapped{kind: kind, context: context, err: err}
}

type wrapped struct {
	kind    error
	context string
	err     error
}

func (w *wrapped) Error() string {
	if w.context == "" {
		return w.kind.Error() + ": " + w.err.Error()
	}
	return w.kind.Error() + ": " + w.context + ": " + w.err.Error()
}

func (w *wrapped) Unwrap() error { return w.err }

func (w *wrapped) Is(target error) bool { return target == w.kind }
