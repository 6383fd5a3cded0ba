package types

// Network identifies a supported Flare-family EVM network.
type Network string

const (
	NetworkFlare      Network = "flare"
	NetworkCoston2    Network = "coston2"     // testnet
	NetworkFlareLocal Network = "flare-local" // hardhat / local node
)

// EVMNetworkToChainID maps a network to its EIP-155 chain id.
var EVMNetworkToChainID = map[Network]int64{
	NetworkFlare:      14,
	NetworkCoston2:    114,
	NetworkFlareLocal: 31337,
}

var explorerURLs = map[Network]string{
	NetworkFlare:   "https://flare-explorer.flare.network",
	NetworkCoston2: "https://coston2-explorer.flare.network",
}

var rpcURLs = map[Network]string{
	NetworkFlare:      "https://flare-api.flare.network/ext/C/rpc",
	NetworkCoston2:    "https://coston2-api.flare.network/ext/C/rpc",
	NetworkFlareLocal: "http://127.0.0.1:8545",
}

// TokenInfo describes the payment token on a network.
type TokenInfo struct {
	Address  string `json:"address,omitempty"` // contract address, empty for native
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Name     string `json:"name,omitempty"`
}

// USDT0 is the bridged Tether deployment paylink pays with by default.
var defaultTokens = map[Network]TokenInfo{
	NetworkFlare: {
		Address:  "0x96B41289D90444B8adD57e6F265DB5aE8651DF29",
		Symbol:   "USDT0",
		Decimals: 6,
		Name:     "Tether USD (Bridged from Ethereum)",
	},
	NetworkCoston2: {
		Symbol:   "TUSDT",
		Decimals: 6,
		Name:     "Test Tether USD",
	},
}

// ChainID returns the EIP-155 chain id, or 0 for unknown networks.
func (n Network) ChainID() int64 {
	return EVMNetworkToChainID[n]
}

// ExplorerURL returns the block-explorer base URL, empty when none exists.
func (n Network) ExplorerURL() string {
	return explorerURLs[n]
}

// DefaultRPCURL returns the public RPC endpoint for the network.
func (n Network) DefaultRPCURL() string {
	return rpcURLs[n]
}

// DefaultToken returns the default payment token configuration.
func (n Network) DefaultToken() TokenInfo {
	if t, ok := defaultTokens[n]; ok {
		return t
	}
	return TokenInfo{Symbol: "USDT0", Decimals: 6}
}

func (n Network) IsTestnet() bool {
	return n == NetworkCoston2 || n == NetworkFlareLocal
}

func (n Network) String() string {
	return string(n)
}
