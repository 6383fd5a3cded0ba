package paylink

import (
	"github.com/flarepay/paylink/attestation"
	"github.com/flarepay/paylink/clients"
	"github.com/flarepay/paylink/logger"
	"github.com/flarepay/paylink/metrics"
	"github.com/flarepay/paylink/store"
)

type Option func(*PayLink)

func WithLogger(l logger.Logger) Option {
	return func(p *PayLink) {
		p.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(p *PayLink) {
		p.metrics = r
	}
}

// WithStore replaces the default in-memory store, e.g. with a BunStore.
func WithStore(s store.Store) Option {
	return func(p *PayLink) {
		p.store = s
	}
}

// WithLedger replaces the EVM client built from config, e.g. for tests.
func WithLedger(l clients.LedgerClient) Option {
	return func(p *PayLink) {
		p.ledger = l
	}
}

func WithAccounts(a clients.AccountService) Option {
	return func(p *PayLink) {
		p.accounts = a
	}
}

func WithAttestor(a attestation.Attestor) Option {
	return func(p *PayLink) {
		p.attestor = a
	}
}
