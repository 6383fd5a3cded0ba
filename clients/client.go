// Package clients holds the external collaborator contracts the lifecycle
// controller talks to, and the EVM implementation backed by go-ethereum.
package clients

import (
	"context"

	"github.com/flarepay/paylink/types"
)

// LedgerClient broadcasts token transfers and reports confirmation receipts.
// It is the final authority on whether a transfer can happen; everything the
// controller checks beforehand is advisory.
type LedgerClient interface {
	// BroadcastTransfer signs and submits a token transfer and returns the
	// transaction reference. Failures carry a LEDGER_FAILURE error whose Data
	// field is one of the cause codes in errors.go.
	BroadcastTransfer(ctx context.Context, recipient, amount string) (string, error)

	// AwaitConfirmation blocks until the transfer is mined or ctx ends. A
	// mined-but-reverted transfer is a receipt with Success=false, not an error.
	AwaitConfirmation(ctx context.Context, txRef string) (*types.Receipt, error)

	Network() types.Network
	Close()
}

// AccountService exposes read-only account facts consulted for early feedback
// before submission.
type AccountService interface {
	GetBalance(ctx context.Context) (string, error)
	GetCurrentAddress(ctx context.Context) (string, error)
}
