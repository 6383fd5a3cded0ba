// Package lifecycle sequences a payment request through its state machine:
// created -> confirming -> confirmed or failed, with optional proof attachment
// on top of confirmed. The controller is the only writer to the record store.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flarepay/paylink/attestation"
	"github.com/flarepay/paylink/clients"
	"github.com/flarepay/paylink/logger"
	"github.com/flarepay/paylink/metrics"
	"github.com/flarepay/paylink/store"
	"github.com/flarepay/paylink/types"
	"github.com/flarepay/paylink/utils"
)

// Config wires the controller's collaborators. Store and Ledger are required;
// Accounts and Attestor are optional (no balance pre-check, no proofs).
type Config struct {
	Store           store.Store
	Ledger          clients.LedgerClient
	Accounts        clients.AccountService
	Attestor        attestation.Attestor
	Network         types.Network
	Token           types.TokenInfo
	LinkBaseURL     string
	ExplorerBaseURL string
	Logger          logger.Logger
	Metrics         metrics.Recorder
}

// Controller owns all writes to the store and enforces the transfer state
// graph. At most one transfer mutation is in flight per request id.
type Controller struct {
	store           store.Store
	ledger          clients.LedgerClient
	accounts        clients.AccountService
	attestor        attestation.Attestor
	network         types.Network
	token           types.TokenInfo
	linkBaseURL     string
	explorerBaseURL string
	log             logger.Logger
	metrics         metrics.Recorder
	validate        *validator.Validate

	mu         sync.Mutex
	inflight   map[string]struct{}    // ids with an outstanding ExecuteTransfer
	proofLocks map[string]*sync.Mutex // per-id serialization for GenerateProof
}

func NewController(cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, types.NewError(types.ErrConfigError, "lifecycle controller requires a store")
	}
	if cfg.Ledger == nil {
		return nil, types.NewError(types.ErrConfigError, "lifecycle controller requires a ledger client")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NoopLogger{}
	}
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	explorer := cfg.ExplorerBaseURL
	if explorer == "" {
		explorer = cfg.Network.ExplorerURL()
	}
	token := cfg.Token
	if token.Symbol == "" {
		token = cfg.Network.DefaultToken()
	}

	return &Controller{
		store:           cfg.Store,
		ledger:          cfg.Ledger,
		accounts:        cfg.Accounts,
		attestor:        cfg.Attestor,
		network:         cfg.Network,
		token:           token,
		linkBaseURL:     cfg.LinkBaseURL,
		explorerBaseURL: explorer,
		log:             log,
		metrics:         rec,
		validate:        validator.New(),
		inflight:        make(map[string]struct{}),
		proofLocks:      make(map[string]*sync.Mutex),
	}, nil
}

// CreateParams is the user-declared payment intent.
type CreateParams struct {
	Amount    string     `validate:"required"`
	Recipient string     `validate:"required"`
	Memo      string     `validate:"max=500"`
	Expiry    *time.Time `validate:"omitempty"`
}

// CreatePaymentRequest validates the intent and persists a new record in
// status created. Nothing is persisted for invalid input.
func (c *Controller) CreatePaymentRequest(ctx context.Context, params CreateParams) (*types.PaymentRequest, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, types.WrapError(types.ErrInvalidInput, "invalid payment request", err)
	}
	if _, err := utils.ValidateAmount(params.Amount); err != nil {
		return nil, types.WrapError(types.ErrInvalidInput, err.Error(), err)
	}
	if err := utils.ValidateAddress(params.Recipient); err != nil {
		return nil, types.WrapError(types.ErrInvalidInput, err.Error(), err)
	}

	createdBy := ""
	if c.accounts != nil {
		if addr, err := c.accounts.GetCurrentAddress(ctx); err == nil {
			createdBy = addr
		}
	}

	rec := &types.PaymentRequest{
		ID:        "pay_" + uuid.NewString(),
		Amount:    params.Amount,
		Recipient: params.Recipient,
		Memo:      params.Memo,
		Expiry:    params.Expiry,
		Status:    types.StatusCreated,
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}

	if err := c.store.Put(ctx, rec); err != nil {
		return nil, err
	}

	c.metrics.IncCounter(metrics.EventRequestCreated, c.labels())
	c.log.Info("payment request created", map[string]any{
		"id": rec.ID, "amount": rec.Amount, "recipient": rec.Recipient,
	})
	return rec.Clone(), nil
}

// ExecuteTransfer broadcasts the transfer fulfilling the request and drives it
// to a terminal status. Exactly one call may be in flight per id; a second
// call while one is outstanding, or after a TxRef exists, fails with
// ALREADY_SUBMITTED and leaves the record untouched.
//
// Once the transfer is broadcast the remaining steps run on a context detached
// from the caller: a caller that stops waiting cannot strand the record in
// confirming, the terminal status is still written when the ledger responds.
func (c *Controller) ExecuteTransfer(ctx context.Context, id string) (*types.PaymentRequest, error) {
	if err := c.reserveTransfer(id); err != nil {
		return nil, err
	}
	defer c.releaseTransfer(id)

	rec, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.TxRef != "" {
		return nil, types.Errorf(types.ErrAlreadySubmitted, "payment request %s already has transaction %s", id, rec.TxRef)
	}
	if rec.Status != types.StatusCreated {
		return nil, types.Errorf(types.ErrInvalidState, "payment request %s is %s, expected created", id, rec.Status)
	}

	c.adviseBalance(ctx, rec)

	started := time.Now()
	txRef, err := c.ledger.BroadcastTransfer(ctx, rec.Recipient, rec.Amount)
	if err != nil {
		return nil, c.failTransfer(ctx, id, err)
	}

	// The transfer is on chain now; never abandon it mid-write.
	opCtx := context.WithoutCancel(ctx)

	status := types.StatusConfirming
	rec, err = c.store.Merge(opCtx, id, types.PaymentPatch{
		Status: &status,
		TxRef:  &txRef,
	})
	if err != nil {
		return nil, err
	}
	c.metrics.IncCounter(metrics.EventTransferSubmitted, c.labels())
	c.log.Info("transfer broadcast", map[string]any{"id": id, "txRef": txRef})

	receipt, err := c.ledger.AwaitConfirmation(opCtx, txRef)
	if err != nil {
		return nil, c.failTransfer(opCtx, id, err)
	}
	if !receipt.Success {
		reason := receipt.Reason
		if reason == "" {
			reason = "transfer reverted"
		}
		return nil, c.failTransfer(opCtx, id, types.NewError(types.ErrLedgerFailure, reason))
	}

	confirmed := types.StatusConfirmed
	now := time.Now().UTC()
	rec, err = c.store.Merge(opCtx, id, types.PaymentPatch{
		Status:      &confirmed,
		BlockRef:    &receipt.BlockRef,
		ConfirmedAt: &now,
	})
	if err != nil {
		return nil, err
	}

	c.metrics.IncCounter(metrics.EventTransferConfirmed, c.labels())
	c.metrics.ObserveLatency("execute_transfer", time.Since(started), c.labels())
	c.log.Info("transfer confirmed", map[string]any{
		"id": id, "txRef": txRef, "blockRef": receipt.BlockRef,
	})
	return rec, nil
}

// GenerateProof attaches an attestation artifact to a confirmed request.
// Re-callable: a fresh proof replaces the previous one. Concurrent calls on
// the same id are serialized so a stored proof is never an interleaving of two
// attestation responses. On attestation failure the record is left untouched
// and keeps status confirmed.
func (c *Controller) GenerateProof(ctx context.Context, id string) (*types.PaymentRequest, error) {
	if c.attestor == nil {
		return nil, types.NewError(types.ErrConfigError, "no attestation service configured")
	}

	lock := c.proofLock(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != types.StatusConfirmed {
		return nil, types.Errorf(types.ErrInvalidState, "proof requires a confirmed payment, %s is %s", id, rec.Status)
	}

	meta := types.TransferMetadata{
		TxRef:       rec.TxRef,
		Amount:      rec.Amount,
		TokenSymbol: c.token.Symbol,
		Sender:      rec.CreatedBy,
		Recipient:   rec.Recipient,
		Memo:        rec.Memo,
		BlockRef:    rec.BlockRef,
		Network:     c.network.String(),
	}
	if rec.ConfirmedAt != nil {
		meta.ConfirmedAt = *rec.ConfirmedAt
	}

	started := time.Now()
	proof, err := c.attestor.CreateProof(ctx, meta)
	if err != nil {
		c.metrics.IncCounter(metrics.EventProofFailed, c.labels())
		c.log.Warn("proof generation failed", map[string]any{"id": id, "error": err.Error()})
		if types.CodeOf(err) == "" {
			err = types.WrapError(types.ErrAttestationUnavailable, "attestation service failed", err)
		}
		return nil, err
	}

	rec, err = c.store.Merge(ctx, id, types.PaymentPatch{Proof: proof})
	if err != nil {
		return nil, err
	}

	c.metrics.IncCounter(metrics.EventProofGenerated, c.labels())
	c.metrics.ObserveLatency("generate_proof", time.Since(started), c.labels())
	c.log.Info("proof attached", map[string]any{
		"id": id, "proofId": proof.ID, "verificationStatus": proof.VerificationStatus,
	})
	return rec, nil
}

// GetPaymentRequest reads a single record.
func (c *Controller) GetPaymentRequest(ctx context.Context, id string) (*types.PaymentRequest, error) {
	return c.store.Get(ctx, id)
}

// ListPaymentRequests reads all records matching the filter.
func (c *Controller) ListPaymentRequests(ctx context.Context, filter types.ListFilter) ([]*types.PaymentRequest, error) {
	return c.store.List(ctx, filter)
}

// GenerateShareableLink deterministically encodes the request into a URL that
// ParseShareableLink inverts exactly.
func (c *Controller) GenerateShareableLink(rec *types.PaymentRequest) string {
	return utils.EncodeShareableLink(c.linkBaseURL, utils.LinkPayload{
		ID:        rec.ID,
		Amount:    rec.Amount,
		Recipient: rec.Recipient,
		Memo:      rec.Memo,
	})
}

// ParseShareableLink reconstructs the link payload from a shared URL.
func (c *Controller) ParseShareableLink(link string) (utils.LinkPayload, error) {
	p, err := utils.ParseShareableLink(link)
	if err != nil {
		return utils.LinkPayload{}, types.WrapError(types.ErrInvalidInput, "malformed shareable link", err)
	}
	return p, nil
}

// ResolveExplorerLink resolves a transaction reference against the configured
// explorer. Pure string concatenation.
func (c *Controller) ResolveExplorerLink(txRef string) string {
	return utils.ExplorerTxLink(c.explorerBaseURL, txRef)
}

// ShareableLinkQR renders the request's shareable link as a PNG QR code.
func (c *Controller) ShareableLinkQR(rec *types.PaymentRequest, size int) ([]byte, error) {
	return utils.QRCodeForLink(c.GenerateShareableLink(rec), size)
}

// failTransfer persists the terminal failed status with a reason and returns
// the error for the caller. The existing record is the fallback when even the
// merge fails.
func (c *Controller) failTransfer(ctx context.Context, id string, cause error) error {
	reason := cause.Error()
	if te, ok := cause.(*types.Error); ok {
		reason = te.Message
	}

	failed := types.StatusFailed
	if _, err := c.store.Merge(ctx, id, types.PaymentPatch{
		Status:        &failed,
		FailureReason: &reason,
	}); err != nil {
		c.log.Error("failed to persist transfer failure", map[string]any{"id": id, "error": err.Error()})
	}

	c.metrics.IncCounter(metrics.EventTransferFailed, c.labels())
	c.log.Warn("transfer failed", map[string]any{"id": id, "reason": reason})

	if types.CodeOf(cause) == "" {
		return types.WrapError(types.ErrLedgerFailure, reason, cause)
	}
	return cause
}

func (c *Controller) reserveTransfer(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return types.Errorf(types.ErrAlreadySubmitted, "a transfer for %s is already in flight", id)
	}
	c.inflight[id] = struct{}{}
	return nil
}

func (c *Controller) releaseTransfer(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, id)
}

func (c *Controller) proofLock(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.proofLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.proofLocks[id] = lock
	}
	return lock
}

// adviseBalance logs when the sender's balance looks short. Advisory only;
// the ledger is the final authority on sufficiency.
func (c *Controller) adviseBalance(ctx context.Context, rec *types.PaymentRequest) {
	if c.accounts == nil {
		return
	}
	balance, err := c.accounts.GetBalance(ctx)
	if err != nil {
		c.log.Debug("balance pre-check unavailable", map[string]any{"error": err.Error()})
		return
	}
	bal, err1 := decimal.NewFromString(balance)
	amt, err2 := rec.AmountDecimal()
	if err1 != nil || err2 != nil {
		return
	}
	if bal.LessThan(amt) {
		c.log.Warn("balance below requested amount", map[string]any{
			"id": rec.ID, "balance": balance, "amount": rec.Amount,
		})
	}
}

func (c *Controller) labels() map[string]string {
	return map[string]string{"network": c.network.String()}
}
