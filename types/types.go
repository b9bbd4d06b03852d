package types

import (
	"fmt"
	"math/big"
	"time"
)

// PurchaseRequest is one user purchase as entered in the form.
type PurchaseRequest struct {
	// Amount is the human-readable decimal amount typed by the user.
	Amount string `json:"amount"`

	Kind PaymentKind `json:"kind"`

	// Destination is the Solana address that receives the purchased tokens.
	// Only required when paying with the EVM token.
	Destination string `json:"destination,omitempty"`
}

// TokenApproval is the allowance an owner granted the purchase contract.
// It is re-queried for every attempt and never cached across attempts.
type TokenApproval struct {
	Owner     string   `json:"owner"`
	Spender   string   `json:"spender"`
	Token     string   `json:"token"`
	Allowance *big.Int `json:"allowance"`
}

// Covers reports whether the allowance is at least amount.
func (a *TokenApproval) Covers(amount *big.Int) bool {
	if a == nil || a.Allowance == nil || amount == nil {
		return false
	}
	return a.Allowance.Cmp(amount) >= 0
}

// TxStatus is the lifecycle state of a submitted transaction.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
)

func (s TxStatus) IsTerminal() bool {
	return s == TxStatusConfirmed || s == TxStatusFailed
}

// TransactionRecord follows one submitted transaction to a terminal state.
type TransactionRecord struct {
	Hash        string      `json:"hash"`
	Chain       ChainFamily `json:"chain"`
	Status      TxStatus    `json:"status"`
	ExplorerURL string      `json:"explorerUrl"`
	SubmittedAt time.Time   `json:"submittedAt"`
	FinalizedAt *time.Time  `json:"finalizedAt,omitempty"`
	Reason      string      `json:"reason,omitempty"`
}

// NewTransactionRecord returns a pending record for a freshly broadcast hash.
func NewTransactionRecord(hash string, chain ChainFamily, explorerURL string) *TransactionRecord {
	return &TransactionRecord{
		Hash:        hash,
		Chain:       chain,
		Status:      TxStatusPending,
		ExplorerURL: explorerURL,
		SubmittedAt: time.Now(),
	}
}

// Transition moves the record to a terminal status. Only Pending records can
// move, and only forward.
func (r *TransactionRecord) Transition(to TxStatus, reason string) error {
	if r.Status != TxStatusPending {
		return fmt.Errorf("transaction %s is already %s", r.Hash, r.Status)
	}
	if !to.IsTerminal() {
		return fmt.Errorf("transaction %s: invalid transition %s -> %s", r.Hash, r.Status, to)
	}
	now := time.Now()
	r.Status = to
	r.FinalizedAt = &now
	r.Reason = reason
	return nil
}

// SolanaConfig holds the Chain A deployment settings.
type SolanaConfig struct {
	Network           Network `yaml:"network" json:"network" validate:"required,oneof=solana-mainnet solana-devnet"`
	RPCUrl            string  `yaml:"rpcUrl" json:"rpcUrl" validate:"required,url"`
	CollectionAddress string  `yaml:"collectionAddress" json:"collectionAddress" validate:"required,solana_addr"`
	ExplorerURL       string  `yaml:"explorerUrl" json:"explorerUrl" validate:"required,url"`
	Commitment        string  `yaml:"commitment" json:"commitment" validate:"required,oneof=processed confirmed finalized"`
}

// EVMConfig holds the Chain B deployment settings.
type EVMConfig struct {
	Network          Network `yaml:"network" json:"network" validate:"required,oneof=ethereum sepolia"`
	RPCUrl           string  `yaml:"rpcUrl" json:"rpcUrl" validate:"required,url"`
	ChainID          int64   `yaml:"chainId" json:"chainId,omitempty" validate:"gte=0"`
	TokenAddress     string  `yaml:"tokenAddress" json:"tokenAddress" validate:"required,eth_addr"`
	PurchaseContract string  `yaml:"purchaseContract" json:"purchaseContract" validate:"required,eth_addr"`
	ExplorerURL      string  `yaml:"explorerUrl" json:"explorerUrl" validate:"required,url"`
	GasLimit         uint64  `yaml:"gasLimit" json:"gasLimit,omitempty"`

	// FailClosedOnDecimals rejects a purchase when decimals() cannot be read
	// instead of assuming 18.
	FailClosedOnDecimals bool `yaml:"failClosedOnDecimals" json:"failClosedOnDecimals,omitempty"`
}

// TrackerConfig controls confirmation polling.
type TrackerConfig struct {
	PollInterval time.Duration `yaml:"pollInterval" json:"pollInterval" validate:"gt=0"`

	// ConfirmationTimeout bounds a single Track call. Zero waits forever.
	ConfirmationTimeout time.Duration `yaml:"confirmationTimeout" json:"confirmationTimeout" validate:"gte=0"`
}

// Config contains global configuration for crosspay
type Config struct {
	Solana        SolanaConfig  `yaml:"solana" json:"solana"`
	EVM           EVMConfig     `yaml:"evm" json:"evm"`
	Tracker       TrackerConfig `yaml:"tracker" json:"tracker"`
	LogLevel      string        `yaml:"logLevel" json:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`
	EnableMetrics bool          `yaml:"enableMetrics" json:"enableMetrics,omitempty"`
}

// DefaultConfig returns devnet/sepolia settings without deployment addresses.
func DefaultConfig() *Config {
	return &Config{
		Solana: SolanaConfig{
			Network:     NetworkSolanaDevnet,
			RPCUrl:      "https://api.devnet.solana.com",
			ExplorerURL: "https://explorer.solana.com",
			Commitment:  "finalized",
		},
		EVM: EVMConfig{
			Network:     NetworkEthereumSepolia,
			RPCUrl:      "https://rpc.sepolia.org",
			ChainID:     11155111,
			ExplorerURL: "https://sepolia.etherscan.io",
		},
		Tracker: TrackerConfig{
			PollInterval:        2 * time.Second,
			ConfirmationTimeout: 2 * time.Minute,
		},
		LogLevel: "info",
	}
}
