// Package attestation produces Proof artifacts for confirmed transfers.
//
// Two implementations satisfy the same contract: RemoteAttestor asks the Flare
// Data Connector verifier to attest the transaction, LocalAttestor formats a
// best-effort document from the metadata it already has. Which one runs is a
// startup configuration choice, never a runtime fallback.
package attestation

import (
	"context"

	"github.com/google/uuid"

	"github.com/flarepay/paylink/types"
)

const (
	// ProofStandard and message type tags stamped on every generated Proof.
	ProofStandard    = "ISO 20022"
	ProofMessageType = "pacs.008.001.08" // FIToFICustomerCreditTransfer
)

// Attestor turns confirmed-transfer metadata into a Proof document. On failure
// it returns an ATTESTATION_UNAVAILABLE error and the caller leaves the
// payment record untouched.
type Attestor interface {
	CreateProof(ctx context.Context, meta types.TransferMetadata) (*types.Proof, error)
}

// newProofID mints an identifier in the proof namespace, distinct from
// payment-request ids.
func newProofID() string {
	return "prf_" + uuid.NewString()
}
