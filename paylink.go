// Package paylink lets an application create, share, and settle stablecoin
// payment requests on Flare-family networks, and attach ISO 20022-style proof
// documents to confirmed transfers.
//
// The facade wires a durable record store, an EVM ledger client, and an
// attestation backend into a lifecycle controller; every payment request moves
// created -> confirming -> confirmed/failed, with proofs layered on confirmed.
package paylink

import (
	"context"

	"github.com/flarepay/paylink/attestation"
	"github.com/flarepay/paylink/clients"
	"github.com/flarepay/paylink/lifecycle"
	"github.com/flarepay/paylink/logger"
	"github.com/flarepay/paylink/metrics"
	"github.com/flarepay/paylink/store"
	"github.com/flarepay/paylink/types"
	"github.com/flarepay/paylink/utils"
)

// PayLink is the main entry point.
type PayLink struct {
	controller *lifecycle.Controller
	store      store.Store
	ledger     clients.LedgerClient
	accounts   clients.AccountService
	attestor   attestation.Attestor
	config     *Config
	logger     logger.Logger
	metrics    metrics.Recorder
	ownsLedger bool
}

// New builds a PayLink instance from configuration plus optional overrides.
// Without WithStore the records live in memory; without WithLedger an
// EVMClient is dialed from the config (which then needs a signing key).
func New(config *Config, opts ...Option) (*PayLink, error) {
	if config == nil {
		return nil, types.NewError(types.ErrConfigError, "config is required")
	}

	p := &PayLink{config: config}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logger.NewZapLogger(config.LogLevel)
	}
	if p.metrics == nil {
		if config.EnableMetrics {
			p.metrics = metrics.NewPrometheusRecorder()
		} else {
			p.metrics = metrics.NoopRecorder{}
		}
	}
	if p.store == nil {
		p.store = store.NewMemoryStore()
	}

	if p.ledger == nil {
		if config.SigningKey == "" {
			return nil, types.NewError(types.ErrConfigError, "a signing key or a custom ledger client is required")
		}
		evm, err := clients.NewEVMClient(config.Network, config.RPCURL, config.Token(), config.SigningKey)
		if err != nil {
			return nil, types.WrapError(types.ErrConfigError, "failed to create EVM ledger client", err)
		}
		p.ledger = evm
		p.ownsLedger = true
		if p.accounts == nil {
			p.accounts = evm
		}
	}

	if p.attestor == nil {
		switch config.AttestationMode {
		case AttestationRemote:
			p.attestor = attestation.NewRemoteAttestor(attestation.RemoteConfig{
				VerifierURL: config.AttestationVerifierURL,
				DALayerURL:  config.AttestationDALayerURL,
				APIKey:      config.AttestationAPIKey,
				Network:     config.Network,
				Timeout:     config.DefaultTimeout,
				Logger:      p.logger,
			})
		case AttestationLocal, "":
			p.attestor = attestation.NewLocalAttestor(config.Network)
		default:
			return nil, types.Errorf(types.ErrConfigError, "unknown attestation mode %q", config.AttestationMode)
		}
	}

	controller, err := lifecycle.NewController(lifecycle.Config{
		Store:           p.store,
		Ledger:          p.ledger,
		Accounts:        p.accounts,
		Attestor:        p.attestor,
		Network:         config.Network,
		Token:           config.Token(),
		LinkBaseURL:     config.LinkBaseURL,
		ExplorerBaseURL: config.ExplorerBaseURL,
		Logger:          p.logger,
		Metrics:         p.metrics,
	})
	if err != nil {
		return nil, err
	}
	p.controller = controller
	return p, nil
}

// CreatePaymentRequest records a new payment intent.
func (p *PayLink) CreatePaymentRequest(ctx context.Context, params lifecycle.CreateParams) (*types.PaymentRequest, error) {
	return p.controller.CreatePaymentRequest(ctx, params)
}

// ExecuteTransfer broadcasts the fulfilling transfer and waits for its
// terminal status.
func (p *PayLink) ExecuteTransfer(ctx context.Context, id string) (*types.PaymentRequest, error) {
	return p.controller.ExecuteTransfer(ctx, id)
}

// GenerateProof attaches (or refreshes) the attestation proof on a confirmed
// payment.
func (p *PayLink) GenerateProof(ctx context.Context, id string) (*types.PaymentRequest, error) {
	return p.controller.GenerateProof(ctx, id)
}

// GetPaymentRequest returns a single payment request by id.
func (p *PayLink) GetPaymentRequest(ctx context.Context, id string) (*types.PaymentRequest, error) {
	return p.controller.GetPaymentRequest(ctx, id)
}

// ListPaymentRequests returns the payment history matching the filter.
func (p *PayLink) ListPaymentRequests(ctx context.Context, filter types.ListFilter) ([]*types.PaymentRequest, error) {
	return p.controller.ListPaymentRequests(ctx, filter)
}

// GenerateShareableLink encodes the request into a URL any paylink session can
// parse back.
func (p *PayLink) GenerateShareableLink(rec *types.PaymentRequest) string {
	return p.controller.GenerateShareableLink(rec)
}

// ParseShareableLink inverts GenerateShareableLink.
func (p *PayLink) ParseShareableLink(link string) (utils.LinkPayload, error) {
	return p.controller.ParseShareableLink(link)
}

// ShareableLinkQR renders the shareable link as a PNG QR code.
func (p *PayLink) ShareableLinkQR(rec *types.PaymentRequest, size int) ([]byte, error) {
	return p.controller.ShareableLinkQR(rec, size)
}

// ResolveExplorerLink builds the block-explorer URL for a transaction.
func (p *PayLink) ResolveExplorerLink(txRef string) string {
	return p.controller.ResolveExplorerLink(txRef)
}

// GetBalance returns the signing account's token balance, when an account
// service is wired.
func (p *PayLink) GetBalance(ctx context.Context) (string, error) {
	if p.accounts == nil {
		return "", types.NewError(types.ErrConfigError, "no account service configured")
	}
	return p.accounts.GetBalance(ctx)
}

// GetCurrentAddress returns the signing account's address.
func (p *PayLink) GetCurrentAddress(ctx context.Context) (string, error) {
	if p.accounts == nil {
		return "", types.NewError(types.ErrConfigError, "no account service configured")
	}
	return p.accounts.GetCurrentAddress(ctx)
}

// Close releases client connections owned by this instance.
func (p *PayLink) Close() {
	if p.ownsLedger && p.ledger != nil {
		p.ledger.Close()
	}
}

// Version information.
const Version = "1.0.0"
