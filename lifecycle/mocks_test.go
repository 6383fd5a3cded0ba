package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/flarepay/paylink/types"
)

// mockLedger is a scriptable LedgerClient.
type mockLedger struct {
	mu             sync.Mutex
	broadcastCalls int
	awaitCalls     int

	txRef        string
	broadcastErr error

	receipt    *types.Receipt
	awaitErr   error
	awaitDelay time.Duration
	awaitGate  chan struct{} // when non-nil, AwaitConfirmation blocks until closed
}

func (m *mockLedger) BroadcastTransfer(_ context.Context, _, _ string) (string, error) {
	m.mu.Lock()
	m.broadcastCalls++
	m.mu.Unlock()
	if m.broadcastErr != nil {
		return "", m.broadcastErr
	}
	return m.txRef, nil
}

func (m *mockLedger) AwaitConfirmation(ctx context.Context, txRef string) (*types.Receipt, error) {
	m.mu.Lock()
	m.awaitCalls++
	gate := m.awaitGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.awaitDelay > 0 {
		time.Sleep(m.awaitDelay)
	}
	if m.awaitErr != nil {
		return nil, m.awaitErr
	}
	if m.receipt != nil {
		r := *m.receipt
		r.TxRef = txRef
		return &r, nil
	}
	return &types.Receipt{TxRef: txRef, BlockRef: 1, Success: true}, nil
}

func (m *mockLedger) Network() types.Network { return types.NetworkFlareLocal }
func (m *mockLedger) Close()                 {}

func (m *mockLedger) broadcasts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.broadcastCalls
}

// mockAccounts is a canned AccountService.
type mockAccounts struct {
	balance string
	address string
}

func (m *mockAccounts) GetBalance(context.Context) (string, error) {
	return m.balance, nil
}

func (m *mockAccounts) GetCurrentAddress(context.Context) (string, error) {
	return m.address, nil
}

// mockAttestor returns a fixed proof or error and counts calls.
type mockAttestor struct {
	mu    sync.Mutex
	calls int
	meta  types.TransferMetadata
	proof *types.Proof
	err   error
}

func (m *mockAttestor) CreateProof(_ context.Context, meta types.TransferMetadata) (*types.Proof, error) {
	m.mu.Lock()
	m.calls++
	m.meta = meta
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.proof != nil {
		p := *m.proof
		return &p, nil
	}
	return &types.Proof{
		ID:                 "prf_test",
		Standard:           "ISO 20022",
		MessageType:        "pacs.008.001.08",
		Payload:            types.ExtraData{"txRef": meta.TxRef},
		VerificationStatus: types.VerificationAnchored,
		CreatedAt:          time.Now().UTC(),
	}, nil
}
