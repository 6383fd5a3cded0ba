package attestation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarepay/paylink/types"
)

func newTestAttestor(verifierURL, daURL string) *RemoteAttestor {
	att := NewRemoteAttestor(RemoteConfig{
		VerifierURL: verifierURL,
		DALayerURL:  daURL,
		APIKey:      "test-key",
		Network:     types.NetworkCoston2,
		Timeout:     2 * time.Second,
	})
	att.maxRetries = 1
	att.now = func() time.Time { return time.Unix(firstVotingRoundStartTs+900, 0) }
	return att
}

func TestRemoteAttestorVerifiedWithDAProof(t *testing.T) {
	var gotAPIKey atomic.Value
	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/verifier/flr/EVMTransaction/prepareRequest", r.URL.Path)
		gotAPIKey.Store(r.Header.Get("X-API-KEY"))

		var body prepareRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0x"+padHex("EVMTransaction"), body.AttestationType)
		assert.Equal(t, "0x"+padHex("testC2FLR"), body.SourceID)

		json.NewEncoder(w).Encode(prepareResponse{
			Status:            "VALID",
			ABIEncodedRequest: "0xencoded",
		})
	}))
	defer verifier.Close()

	daLayer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v0/fdc/get-proof-round-id-bytes", r.URL.Path)

		var body daProofRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(10), body.VotingRoundID)
		assert.Equal(t, "0xencoded", body.RequestBytes)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"proof":    []string{"0xaaaa", "0xbbbb"},
			"response": map[string]interface{}{"votingRound": float64(10)},
		})
	}))
	defer daLayer.Close()

	att := newTestAttestor(verifier.URL, daLayer.URL)
	proof, err := att.CreateProof(context.Background(), sampleMetadata())
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAPIKey.Load())
	assert.Equal(t, types.VerificationVerified, proof.VerificationStatus)

	anchor := proof.Payload["fdcAnchoring"].(map[string]interface{})
	assert.NotNil(t, anchor["merkleProof"])
	assert.Equal(t, float64(10), anchor["roundId"])
}

func TestRemoteAttestorAnchoredWhenRoundNotFinalized(t *testing.T) {
	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(prepareResponse{Status: "VALID", ABIEncodedRequest: "0xencoded"})
	}))
	defer verifier.Close()

	daLayer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "round not finalized", http.StatusBadRequest)
	}))
	defer daLayer.Close()

	att := newTestAttestor(verifier.URL, daLayer.URL)
	proof, err := att.CreateProof(context.Background(), sampleMetadata())
	require.NoError(t, err)

	assert.Equal(t, types.VerificationAnchored, proof.VerificationStatus)
	anchor := proof.Payload["fdcAnchoring"].(map[string]interface{})
	assert.Nil(t, anchor["merkleProof"])
	assert.Equal(t, int64(10), anchor["roundId"])
}

func TestRemoteAttestorPendingWhenRequestNotValid(t *testing.T) {
	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(prepareResponse{Status: "INVALID"})
	}))
	defer verifier.Close()

	daCalled := false
	daLayer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		daCalled = true
	}))
	defer daLayer.Close()

	att := newTestAttestor(verifier.URL, daLayer.URL)
	proof, err := att.CreateProof(context.Background(), sampleMetadata())
	require.NoError(t, err)

	assert.Equal(t, types.VerificationPending, proof.VerificationStatus)
	assert.False(t, daCalled)
}

func TestRemoteAttestorVerifierUnreachable(t *testing.T) {
	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer verifier.Close()

	att := newTestAttestor(verifier.URL, "")
	_, err := att.CreateProof(context.Background(), sampleMetadata())
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrAttestationUnavailable))
}

func TestRemoteAttestorRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(prepareResponse{Status: "INVALID"})
	}))
	defer verifier.Close()

	att := newTestAttestor(verifier.URL, "")
	proof, err := att.CreateProof(context.Background(), sampleMetadata())
	require.NoError(t, err)
	assert.Equal(t, types.VerificationPending, proof.VerificationStatus)
	assert.Equal(t, int64(2), calls.Load())
}

func TestRemoteAttestorRequiresTxRef(t *testing.T) {
	att := newTestAttestor("http://unused", "http://unused")
	meta := sampleMetadata()
	meta.TxRef = ""
	_, err := att.CreateProof(context.Background(), meta)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrAttestationUnavailable))
}

func TestCalculateRoundID(t *testing.T) {
	att := newTestAttestor("http://unused", "http://unused")
	assert.Equal(t, int64(0), att.calculateRoundID(firstVotingRoundStartTs))
	assert.Equal(t, int64(0), att.calculateRoundID(firstVotingRoundStartTs+89))
	assert.Equal(t, int64(1), att.calculateRoundID(firstVotingRoundStartTs+90))
	assert.Equal(t, int64(10), att.calculateRoundID(firstVotingRoundStartTs+900))
}

func TestPadHex(t *testing.T) {
	padded := padHex("EVMTransaction")
	assert.Len(t, padded, 64)
	assert.Equal(t, "45564d5472616e73616374696f6e", padded[:28])
	for _, c := range padded[28:] {
		assert.Equal(t, '0', c)
	}
}
