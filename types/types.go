// Package types defines the entities, status machine, and error taxonomy shared
// by the paylink store, lifecycle controller, and collaborator clients.
package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a PaymentRequest's transfer sub-machine.
// There is no stored "submitting" state: a request is submitting when an
// ExecuteTransfer call is in flight for it but no TxRef has been persisted yet.
type Status string

const (
	StatusCreated    Status = "created"
	StatusConfirming Status = "confirming"
	StatusConfirmed  Status = "confirmed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the transfer sub-machine never leaves this state.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// CanTransitionTo reports whether the state graph allows moving to next.
// Forward-only: created -> confirming -> confirmed, with failed reachable from
// created and confirming.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusCreated:
		return next == StatusConfirming || next == StatusFailed
	case StatusConfirming:
		return next == StatusConfirmed || next == StatusFailed
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// VerificationStatus reflects how far the attestation backend got with
// anchoring a Proof. It is independent of the PaymentRequest status.
type VerificationStatus string

const (
	VerificationPending     VerificationStatus = "pending"
	VerificationAnchored    VerificationStatus = "anchored"
	VerificationVerified    VerificationStatus = "verified"
	VerificationUnavailable VerificationStatus = "unavailable"
)

// ExtraData is opaque structured content. It must round-trip through JSON.
type ExtraData map[string]interface{}

// Proof is an attestation artifact bound to exactly one confirmed transfer.
type Proof struct {
	ID                 string             `json:"id"`
	Standard           string             `json:"standard"`
	MessageType        string             `json:"messageType"`
	Payload            ExtraData          `json:"payload"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// PaymentRequest is the central entity: a user-declared intent to receive
// Amount at Recipient, moved through the transfer state machine by the
// lifecycle controller. Amount is a decimal string in the token's displayed
// unit; it is parsed with shopspring/decimal, never binary floats.
type PaymentRequest struct {
	ID            string     `json:"id" bun:"id,pk"`
	Amount        string     `json:"amount" bun:"amount,notnull"`
	Recipient     string     `json:"recipient" bun:"recipient,notnull"`
	Memo          string     `json:"memo,omitempty" bun:"memo,nullzero"`
	Expiry        *time.Time `json:"expiry,omitempty" bun:"expiry,nullzero"`
	Status        Status     `json:"status" bun:"status,notnull"`
	CreatedAt     time.Time  `json:"createdAt" bun:"created_at,notnull"`
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty" bun:"confirmed_at,nullzero"`
	CreatedBy     string     `json:"createdBy,omitempty" bun:"created_by,nullzero"`
	TxRef         string     `json:"transactionRef,omitempty" bun:"tx_ref,nullzero"`
	BlockRef      int64      `json:"blockRef,omitempty" bun:"block_ref,nullzero"`
	FailureReason string     `json:"failureReason,omitempty" bun:"failure_reason,nullzero"`
	Proof         *Proof     `json:"proof,omitempty" bun:"proof,type:jsonb,nullzero"`
}

// Clone returns a deep copy so store readers never alias controller-held state.
func (p *PaymentRequest) Clone() *PaymentRequest {
	if p == nil {
		return nil
	}
	out := *p
	if p.Expiry != nil {
		t := *p.Expiry
		out.Expiry = &t
	}
	if p.ConfirmedAt != nil {
		t := *p.ConfirmedAt
		out.ConfirmedAt = &t
	}
	if p.Proof != nil {
		pr := *p.Proof
		if p.Proof.Payload != nil {
			pr.Payload = make(ExtraData, len(p.Proof.Payload))
			for k, v := range p.Proof.Payload {
				pr.Payload[k] = v
			}
		}
		out.Proof = &pr
	}
	return &out
}

// AmountDecimal parses the stored amount string.
func (p *PaymentRequest) AmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(p.Amount)
}

// PaymentPatch is a partial update applied by Store.Merge. Nil fields are left
// untouched; the patch is applied as a whole or not at all.
type PaymentPatch struct {
	Status        *Status
	TxRef         *string
	BlockRef      *int64
	ConfirmedAt   *time.Time
	FailureReason *string
	Proof         *Proof
}

// Apply copies the non-nil patch fields onto the record.
func (pp PaymentPatch) Apply(rec *PaymentRequest) {
	if pp.Status != nil {
		rec.Status = *pp.Status
	}
	if pp.TxRef != nil {
		rec.TxRef = *pp.TxRef
	}
	if pp.BlockRef != nil {
		rec.BlockRef = *pp.BlockRef
	}
	if pp.ConfirmedAt != nil {
		t := *pp.ConfirmedAt
		rec.ConfirmedAt = &t
	}
	if pp.FailureReason != nil {
		rec.FailureReason = *pp.FailureReason
	}
	if pp.Proof != nil {
		pr := *pp.Proof
		rec.Proof = &pr
	}
}

// ListFilter narrows Store.List. Zero values match everything.
type ListFilter struct {
	Status Status     // match this status only, empty for any
	From   *time.Time // CreatedAt >= From
	To     *time.Time // CreatedAt <= To
}

// Matches applies the filter predicate to a record.
func (f ListFilter) Matches(rec *PaymentRequest) bool {
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.From != nil && rec.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && rec.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// Receipt is the ledger's confirmation result for a broadcast transfer.
type Receipt struct {
	TxRef    string `json:"txRef"`
	BlockRef int64  `json:"blockRef"`
	Success  bool   `json:"success"`
	Reason   string `json:"reason,omitempty"`
}

// TransferMetadata is the confirmed-transfer context handed to an attestor.
type TransferMetadata struct {
	TxRef       string    `json:"txRef"`
	Amount      string    `json:"amount"`
	TokenSymbol string    `json:"tokenSymbol,omitempty"`
	Sender      string    `json:"sender"`
	Recipient   string    `json:"recipient"`
	Memo        string    `json:"memo,omitempty"`
	ConfirmedAt time.Time `json:"confirmedAt"`
	BlockRef    int64     `json:"blockRef"`
	Network     string    `json:"network"`
}

// Error is the typed error surfaced by every paylink operation.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Err     error       `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common error codes.
const (
	ErrInvalidInput           = "INVALID_INPUT"
	ErrAlreadySubmitted       = "ALREADY_SUBMITTED"
	ErrLedgerFailure          = "LEDGER_FAILURE"
	ErrInvalidState           = "INVALID_STATE"
	ErrAttestationUnavailable = "ATTESTATION_UNAVAILABLE"
	ErrStorageUnavailable     = "STORAGE_UNAVAILABLE"
	ErrNotFound               = "NOT_FOUND"
	ErrConfigError            = "CONFIG_ERROR"
)

// NewError builds a typed error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf builds a typed error with a formatted message.
func Errorf(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a typed error around a cause.
func WrapError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the paylink error code, or empty for foreign errors.
func CodeOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// IsCode reports whether err carries the given paylink error code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
