package attestation

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/flarepay/paylink/logger"
	"github.com/flarepay/paylink/types"
)

// FDC voting epoch timing, used to locate the round a request lands in.
const (
	firstVotingRoundStartTs    = 1658429955
	votingEpochDurationSeconds = 90
)

var _ Attestor = (*RemoteAttestor)(nil)

// RemoteAttestor asks the Flare Data Connector to attest the transfer:
// prepare an EVMTransaction attestation request with the verifier, then try to
// fetch the finalized merkle proof from the data-availability layer. The
// resulting verification status reflects how far that got — verified when the
// merkle proof arrived, anchored when the request was accepted but the round is
// not finalized yet, pending otherwise.
type RemoteAttestor struct {
	verifierURL string
	daLayerURL  string
	apiKey      string
	network     types.Network
	httpClient  *http.Client
	log         logger.Logger
	maxRetries  uint64
	now         func() time.Time
}

type RemoteConfig struct {
	VerifierURL string
	DALayerURL  string
	APIKey      string
	Network     types.Network
	Timeout     time.Duration
	Logger      logger.Logger
}

func NewRemoteAttestor(cfg RemoteConfig) *RemoteAttestor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &RemoteAttestor{
		verifierURL: cfg.VerifierURL,
		daLayerURL:  cfg.DALayerURL,
		apiKey:      cfg.APIKey,
		network:     cfg.Network,
		httpClient:  &http.Client{Timeout: timeout},
		log:         log,
		maxRetries:  3,
		now:         time.Now,
	}
}

type prepareRequestBody struct {
	AttestationType string            `json:"attestationType"`
	SourceID        string            `json:"sourceId"`
	RequestBody     prepareTxnRequest `json:"requestBody"`
}

type prepareTxnRequest struct {
	TransactionHash       string   `json:"transactionHash"`
	RequiredConfirmations string   `json:"requiredConfirmations"`
	ProvideInput          bool     `json:"provideInput"`
	ListEvents            bool     `json:"listEvents"`
	LogIndices            []int    `json:"logIndices"`
}

type prepareResponse struct {
	Status            string `json:"status"`
	ABIEncodedRequest string `json:"abiEncodedRequest"`
}

type daProofRequest struct {
	VotingRoundID int64  `json:"votingRoundId"`
	RequestBytes  string `json:"requestBytes"`
}

type daProofResponse struct {
	Proof    interface{} `json:"proof"`
	Response struct {
		VotingRound interface{} `json:"votingRound"`
	} `json:"response"`
}

func (a *RemoteAttestor) CreateProof(ctx context.Context, meta types.TransferMetadata) (*types.Proof, error) {
	if meta.TxRef == "" {
		return nil, types.NewError(types.ErrAttestationUnavailable, "transfer metadata has no transaction reference")
	}

	prepared, err := a.prepareAttestation(ctx, meta.TxRef)
	if err != nil {
		return nil, types.WrapError(types.ErrAttestationUnavailable, "FDC verifier unreachable", err)
	}

	status := types.VerificationPending
	anchor := anchoring{
		Protocol:    "Flare Data Connector (FDC)",
		Network:     a.network.String(),
		ExplorerURL: explorerLink(a.network, meta.TxRef),
	}

	if prepared.Status == "VALID" {
		status = types.VerificationAnchored
		roundID := a.calculateRoundID(a.now().Unix())
		anchor.RoundID = roundID

		// The round may not be finalized yet; a missing DA proof is not an
		// error, the proof can be regenerated later to pick it up.
		daProof, daErr := a.fetchDAProof(ctx, roundID, prepared.ABIEncodedRequest)
		if daErr != nil {
			a.log.Debug("FDC round proof not yet available", map[string]any{
				"txRef": meta.TxRef,
				"round": roundID,
				"error": daErr.Error(),
			})
		} else if daProof.Proof != nil {
			status = types.VerificationVerified
			anchor.MerkleProof = daProof.Proof
			if daProof.Response.VotingRound != nil {
				anchor.RoundID = daProof.Response.VotingRound
			}
		}
	}

	anchor.Status = status
	return &types.Proof{
		ID:                 newProofID(),
		Standard:           ProofStandard,
		MessageType:        ProofMessageType,
		Payload:            buildPacs008(meta, anchor),
		VerificationStatus: status,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

func (a *RemoteAttestor) prepareAttestation(ctx context.Context, txRef string) (*prepareResponse, error) {
	body := prepareRequestBody{
		AttestationType: "0x" + padHex("EVMTransaction"),
		SourceID:        "0x" + padHex(sourceIDFor(a.network)),
		RequestBody: prepareTxnRequest{
			TransactionHash:       txRef,
			RequiredConfirmations: "1",
			ProvideInput:          true,
			ListEvents:            true,
			LogIndices:            []int{},
		},
	}

	var out prepareResponse
	url := a.verifierURL + "/verifier/flr/EVMTransaction/prepareRequest"
	if err := a.postJSON(ctx, url, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RemoteAttestor) fetchDAProof(ctx context.Context, roundID int64, requestBytes string) (*daProofResponse, error) {
	var out daProofResponse
	url := a.daLayerURL + "/api/v0/fdc/get-proof-round-id-bytes"
	err := a.postJSON(ctx, url, daProofRequest{
		VotingRoundID: roundID,
		RequestBytes:  requestBytes,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RemoteAttestor) postJSON(ctx context.Context, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if a.apiKey != "" {
			req.Header.Set("X-API-KEY", a.apiKey)
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("attestation endpoint returned %s", resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("attestation endpoint returned %s", resp.Status))
		}
		return json.Unmarshal(data, out)
	}

	return backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), a.maxRetries), ctx))
}

func (a *RemoteAttestor) calculateRoundID(unixTs int64) int64 {
	return (unixTs - firstVotingRoundStartTs) / votingEpochDurationSeconds
}

// sourceIDFor maps a network to the FDC source identifier.
func sourceIDFor(network types.Network) string {
	switch network {
	case types.NetworkFlare:
		return "FLR"
	default:
		return "testC2FLR"
	}
}

// padHex encodes ascii as hex, right-padded with zeros to 32 bytes.
func padHex(s string) string {
	h := hex.EncodeToString([]byte(s))
	for len(h) < 64 {
		h += "0"
	}
	return h
}
