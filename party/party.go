// Package party wires the alphabet, ciphertrace, plan, kernel,
// aggregate, and driver packages into the two roles spec.md §2
// describes: KeyHolder (A, holds the secret key and exposes
// decryption) and Evaluator (B, receives public/server keys and
// performs all homomorphic work). The wire messages of spec.md §6 are
// modelled as plain structs rather than an actual network
// transport — the transport itself is out of scope (it would live in
// the foreign-language bridge / CLI, both explicit Non-goals).
package party

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rgsw/blindrot"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"github.com/tuneinsight/fedpm/aggregate"
	"github.com/tuneinsight/fedpm/alphabet"
	"github.com/tuneinsight/fedpm/ciphertrace"
	"github.com/tuneinsight/fedpm/dfg"
	"github.com/tuneinsight/fedpm/driver"
	"github.com/tuneinsight/fedpm/eventlog"
	"github.com/tuneinsight/fedpm/smallint"
)

// KeyMaterial is message 2 of spec.md §6's wire protocol: the
// activity-to-index table (plaintext), the server key, and the
// public key. The secret key is deliberately absent from this type —
// it must never cross the A→B boundary.
type KeyMaterial struct {
	Table      *alphabet.Table
	PublicKey  *rlwe.PublicKey
	ServerKeys smallint.ServerKeys
	BlindRot   blindrot.BlindRotationEvaluationKeySet
}

// KeyHolder is role A: owns the FHE secret key, holds sub-log L_A,
// and is the only party that ever decrypts.
type KeyHolder struct {
	log    eventlog.Log
	mode   smallint.Mode
	width  smallint.Width
	params *smallint.Params
	keys   *smallint.KeyHolderKeys
}

// NewKeyHolder constructs A from its own event log. mode should be
// smallint.Secure outside of tests; smallint.Trivial disables
// confidentiality but preserves arithmetic, per spec.md §4.2's debug
// flag.
func NewKeyHolder(log eventlog.Log, mode smallint.Mode) *KeyHolder {
	return &KeyHolder{log: log, mode: mode}
}

// AgreeAlphabet runs spec.md §4.1: A receives B's label set, unions it
// with its own, and returns the shared table. It also picks the
// smallest index width that fits the combined alphabet and runs key
// generation for that width, since the width determines the
// plaintext modulus the BGV parameters need.
func (k *KeyHolder) AgreeAlphabet(foreignLabels map[string]struct{}) (*alphabet.Table, error) {
	ownLabels, err := k.log.Activities()
	if err != nil {
		return nil, fmt.Errorf("party: reading A's activities: %w", err)
	}

	widthBits := alphabet.RecommendWidth(uint32(len(ownLabels) + len(foreignLabels)))
	table, err := alphabet.Agree(ownLabels, foreignLabels, widthBits)
	if err != nil {
		return nil, err
	}

	k.width = smallint.FromBits(widthBits)
	params, err := smallint.NewParams(k.width)
	if err != nil {
		return nil, fmt.Errorf("party: building FHE parameters: %w", err)
	}
	k.params = params

	keys, err := smallint.GenerateKeys(params)
	if err != nil {
		return nil, fmt.Errorf("party: generating keys: %w", err)
	}
	k.keys = keys

	return table, nil
}

// KeyMaterialFor builds message 2 of spec.md §6 for the given table:
// everything B needs except the secret key.
func (k *KeyHolder) KeyMaterialFor(table *alphabet.Table) KeyMaterial {
	brk := smallint.GenerateBlindRotationKey(k.params, k.keys.SecretKey)
	return KeyMaterial{
		Table:      table,
		PublicKey:  k.keys.PublicKey,
		ServerKeys: k.keys.ServerKeys,
		BlindRot:   brk,
	}
}

// BuildForeignTraces runs spec.md §4.2's A-side construction: every
// event in A's log, encrypted under the secret key.
func (k *KeyHolder) BuildForeignTraces(table *alphabet.Table) (map[string]ciphertrace.ForeignTrace, error) {
	enc := smallint.NewSecretEncryptor(k.params, k.keys.SecretKey, k.mode)
	return ciphertrace.BuildForeign(k.log, table, enc)
}

// NewAggregator builds the decryption-and-aggregation stage (spec.md
// §4.5), writing into graph.
func (k *KeyHolder) NewAggregator(table *alphabet.Table, graph *dfg.Graph) *aggregate.Aggregator {
	dec := smallint.NewDecryptor(k.params, k.keys.SecretKey)
	return aggregate.New(dec, table, graph)
}

// Params exposes the agreed FHE parameters, needed by B to build its
// own encryptor/evaluator/comparator.
func (k *KeyHolder) Params() *smallint.Params { return k.params }

// Evaluator is role B: never holds a secret key, receives public and
// server keys, and performs all homomorphic work.
type Evaluator struct {
	log eventlog.Log
}

// NewEvaluator constructs B from its own event log.
func NewEvaluator(log eventlog.Log) *Evaluator {
	return &Evaluator{log: log}
}

// OwnLabels returns B's activity set, the first message of spec.md §6
// ("B → A: activity label set").
func (e *Evaluator) OwnLabels() (map[string]struct{}, error) {
	return e.log.Activities()
}

// BuildOwnTraces runs spec.md §4.2's B-side construction: B's own
// activity indices encrypted under the public key, timestamps
// plaintext.
func (e *Evaluator) BuildOwnTraces(params *smallint.Params, material KeyMaterial) (map[string]ciphertrace.OwnTrace, error) {
	enc := smallint.NewPublicEncryptor(params, material.PublicKey, smallint.Secure)
	return ciphertrace.BuildOwn(e.log, material.Table, enc)
}

// NewDriver builds B's evaluation driver over the merged case table,
// installing the server key material A handed over.
func (e *Evaluator) NewDriver(cfg driver.Config, params *smallint.Params, material KeyMaterial, cases ciphertrace.CaseTable, agg *aggregate.Aggregator) (*driver.Driver, error) {
	evk, err := material.ServerKeys.EvaluationKeySet()
	if err != nil {
		return nil, fmt.Errorf("party: installing server key: %w", err)
	}
	return driver.New(cfg, params, material.Table, cases, evk, material.BlindRot, agg), nil
}
