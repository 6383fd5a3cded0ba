package attestation

import (
	"context"
	"time"

	"github.com/flarepay/paylink/types"
)

var _ Attestor = (*LocalAttestor)(nil)

// LocalAttestor formats the proof document locally, without calling any
// attestation backend. The transfer's own on-chain presence is the anchor, so
// the resulting verification status is "anchored" — verifiable by anyone
// against the transaction hash, but not countersigned by data providers.
type LocalAttestor struct {
	network types.Network
}

func NewLocalAttestor(network types.Network) *LocalAttestor {
	return &LocalAttestor{network: network}
}

func (a *LocalAttestor) CreateProof(_ context.Context, meta types.TransferMetadata) (*types.Proof, error) {
	if meta.TxRef == "" {
		return nil, types.NewError(types.ErrAttestationUnavailable, "transfer metadata has no transaction reference")
	}

	payload := buildPacs008(meta, anchoring{
		Protocol:    "local",
		Network:     a.network.String(),
		ExplorerURL: explorerLink(a.network, meta.TxRef),
		Status:      types.VerificationAnchored,
	})

	return &types.Proof{
		ID:                 newProofID(),
		Standard:           ProofStandard,
		MessageType:        ProofMessageType,
		Payload:            payload,
		VerificationStatus: types.VerificationAnchored,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

func explorerLink(network types.Network, txRef string) string {
	base := network.ExplorerURL()
	if base == "" {
		return ""
	}
	return base + "/tx/" + txRef
}
