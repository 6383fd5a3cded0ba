package paylink

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/flarepay/paylink/types"
)

// Attestation modes. Selected at startup; both satisfy the same contract.
const (
	AttestationLocal  = "local"
	AttestationRemote = "remote"
)

// Config is the global paylink configuration. Every field can come from the
// environment via ConfigFromEnv (PAYLINK_ prefix, e.g. PAYLINK_NETWORK).
type Config struct {
	Network    types.Network `envconfig:"NETWORK" default:"coston2"`
	RPCURL     string        `envconfig:"RPC_URL"`
	SigningKey string        `envconfig:"SIGNING_KEY"`

	TokenAddress  string `envconfig:"TOKEN_ADDRESS"`
	TokenSymbol   string `envconfig:"TOKEN_SYMBOL"`
	TokenDecimals int    `envconfig:"TOKEN_DECIMALS"`

	LinkBaseURL     string `envconfig:"LINK_BASE_URL" default:"https://pay.flarepay.io"`
	ExplorerBaseURL string `envconfig:"EXPLORER_BASE_URL"`

	AttestationMode        string `envconfig:"ATTESTATION_MODE" default:"local"`
	AttestationVerifierURL string `envconfig:"ATTESTATION_VERIFIER_URL"`
	AttestationDALayerURL  string `envconfig:"ATTESTATION_DA_LAYER_URL"`
	AttestationAPIKey      string `envconfig:"ATTESTATION_API_KEY"`

	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	EnableMetrics  bool          `envconfig:"ENABLE_METRICS"`
	DefaultTimeout time.Duration `envconfig:"DEFAULT_TIMEOUT" default:"30s"`
}

// ConfigFromEnv loads configuration from PAYLINK_-prefixed environment
// variables.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("paylink", cfg); err != nil {
		return nil, types.WrapError(types.ErrConfigError, "failed to load configuration from environment", err)
	}
	return cfg, nil
}

// Token resolves the payment token, overlaying explicit overrides on the
// network default.
func (c *Config) Token() types.TokenInfo {
	token := c.Network.DefaultToken()
	if c.TokenAddress != "" {
		token.Address = c.TokenAddress
	}
	if c.TokenSymbol != "" {
		token.Symbol = c.TokenSymbol
	}
	if c.TokenDecimals > 0 {
		token.Decimals = c.TokenDecimals
	}
	return token
}
