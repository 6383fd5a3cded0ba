package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusCreated, StatusConfirming, true},
		{StatusCreated, StatusFailed, true},
		{StatusCreated, StatusConfirmed, false},
		{StatusConfirming, StatusConfirmed, true},
		{StatusConfirming, StatusFailed, true},
		{StatusConfirming, StatusCreated, false},
		{StatusConfirmed, StatusFailed, false},
		{StatusConfirmed, StatusCreated, false},
		{StatusFailed, StatusConfirming, false},
		{StatusFailed, StatusCreated, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_to_%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusConfirming.Terminal())
	assert.True(t, StatusConfirmed.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestPaymentRequestClone(t *testing.T) {
	now := time.Now().UTC()
	expiry := now.Add(time.Hour)
	orig := &PaymentRequest{
		ID:          "pay_1",
		Amount:      "10.50",
		Recipient:   "0xabc",
		Status:      StatusConfirmed,
		CreatedAt:   now,
		ConfirmedAt: &now,
		Expiry:      &expiry,
		Proof: &Proof{
			ID:      "prf_1",
			Payload: ExtraData{"k": "v"},
		},
	}

	cp := orig.Clone()
	require.Equal(t, orig, cp)

	// Mutating the copy must never reach the original.
	*cp.ConfirmedAt = cp.ConfirmedAt.Add(time.Minute)
	cp.Proof.Payload["k"] = "changed"
	assert.Equal(t, now, *orig.ConfirmedAt)
	assert.Equal(t, "v", orig.Proof.Payload["k"])

	var nilReq *PaymentRequest
	assert.Nil(t, nilReq.Clone())
}

func TestPaymentPatchApply(t *testing.T) {
	rec := &PaymentRequest{
		ID:     "pay_1",
		Amount: "10",
		Status: StatusConfirming,
		TxRef:  "0xold",
	}

	status := StatusConfirmed
	block := int64(42)
	confirmedAt := time.Now().UTC()
	PaymentPatch{
		Status:      &status,
		BlockRef:    &block,
		ConfirmedAt: &confirmedAt,
	}.Apply(rec)

	assert.Equal(t, StatusConfirmed, rec.Status)
	assert.Equal(t, int64(42), rec.BlockRef)
	require.NotNil(t, rec.ConfirmedAt)
	assert.Equal(t, confirmedAt, *rec.ConfirmedAt)
	// Nil patch fields leave existing values alone.
	assert.Equal(t, "0xold", rec.TxRef)
	assert.Equal(t, "10", rec.Amount)
}

func TestListFilterMatches(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &PaymentRequest{Status: StatusConfirmed, CreatedAt: base}

	assert.True(t, ListFilter{}.Matches(rec))
	assert.True(t, ListFilter{Status: StatusConfirmed}.Matches(rec))
	assert.False(t, ListFilter{Status: StatusFailed}.Matches(rec))

	before := base.Add(-time.Hour)
	after := base.Add(time.Hour)
	assert.True(t, ListFilter{From: &before, To: &after}.Matches(rec))
	assert.False(t, ListFilter{From: &after}.Matches(rec))
	assert.False(t, ListFilter{To: &before}.Matches(rec))
}

func TestErrorCodeExtraction(t *testing.T) {
	base := NewError(ErrLedgerFailure, "broadcast failed")
	assert.Equal(t, ErrLedgerFailure, CodeOf(base))
	assert.True(t, IsCode(base, ErrLedgerFailure))
	assert.False(t, IsCode(base, ErrNotFound))

	wrapped := fmt.Errorf("executing transfer: %w", base)
	assert.Equal(t, ErrLedgerFailure, CodeOf(wrapped))

	assert.Empty(t, CodeOf(errors.New("plain")))
	assert.Empty(t, CodeOf(nil))
}

func TestErrorFormatting(t *testing.T) {
	plain := NewError(ErrInvalidInput, "amount cannot be empty")
	assert.Equal(t, "INVALID_INPUT: amount cannot be empty", plain.Error())

	cause := errors.New("dial tcp: refused")
	wrapped := WrapError(ErrStorageUnavailable, "put failed", cause)
	assert.Equal(t, "STORAGE_UNAVAILABLE: put failed: dial tcp: refused", wrapped.Error())
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestProofJSONRoundTrip(t *testing.T) {
	proof := &Proof{
		ID:                 "prf_1",
		Standard:           "ISO 20022",
		MessageType:        "pacs.008.001.08",
		Payload:            ExtraData{"txRef": "0xabc", "amount": "10.50"},
		VerificationStatus: VerificationAnchored,
		CreatedAt:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(proof)
	require.NoError(t, err)

	var back Proof
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, proof.ID, back.ID)
	assert.Equal(t, proof.MessageType, back.MessageType)
	assert.Equal(t, proof.VerificationStatus, back.VerificationStatus)
	assert.Equal(t, "0xabc", back.Payload["txRef"])
}
