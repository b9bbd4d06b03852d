package types

import "strings"

// ChainFamily classifies a network into a blockchain family.
type ChainFamily string

const (
	ChainEVM    ChainFamily = "evm"
	ChainSolana ChainFamily = "solana"
)

func (c ChainFamily) String() string {
	return string(c)
}

// PaymentKind is the asset the user picked to pay with.
type PaymentKind string

const (
	PaymentKindUnset  PaymentKind = ""
	PaymentKindNative PaymentKind = "sol"  // native SOL on Solana
	PaymentKindToken  PaymentKind = "usdt" // ERC-20 token on the EVM chain
)

// ParsePaymentKind maps user input to a PaymentKind. Unknown values map to
// PaymentKindUnset so that a later connect fails with ErrNoTokenSelected.
func ParsePaymentKind(s string) PaymentKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sol", "solana", "native":
		return PaymentKindNative
	case "usdt", "erc20", "token":
		return PaymentKindToken
	default:
		return PaymentKindUnset
	}
}

// ChainFamily returns the chain the payment is made on.
func (k PaymentKind) ChainFamily() ChainFamily {
	switch k {
	case PaymentKindNative:
		return ChainSolana
	case PaymentKindToken:
		return ChainEVM
	default:
		return ""
	}
}

func (k PaymentKind) IsSet() bool {
	return k == PaymentKindNative || k == PaymentKindToken
}

func (k PaymentKind) String() string {
	if k == PaymentKindUnset {
		return "unset"
	}
	return string(k)
}

// Network represents supported blockchain networks
type Network string

const (
	// EVM Networks
	NetworkEthereum        Network = "ethereum"
	NetworkEthereumSepolia Network = "sepolia" // testnet

	// Solana Networks
	NetworkSolanaMainnet Network = "solana-mainnet"
	NetworkSolanaDevnet  Network = "solana-devnet" // testnet
)

// Helper functions for network classification
func (n Network) IsEVM() bool {
	return n == NetworkEthereum || n == NetworkEthereumSepolia
}

func (n Network) IsSolana() bool {
	return n == NetworkSolanaMainnet || n == NetworkSolanaDevnet
}

func (n Network) IsTestnet() bool {
	return n == NetworkEthereumSepolia || n == NetworkSolanaDevnet
}

// Cluster returns the Solana explorer cluster query value. Mainnet has none.
func (n Network) Cluster() string {
	if n == NetworkSolanaDevnet {
		return "devnet"
	}
	return ""
}

func (n Network) String() string {
	return string(n)
}
