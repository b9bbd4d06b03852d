package purchase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/vitwit/crosspay/allowance"
	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/wallet"
)

// SolanaChain is the Chain A RPC surface a native purchase needs.
type SolanaChain interface {
	GetRecentAnchor(ctx context.Context) (solana.Hash, error)
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
}

// AllowanceService is the allowance.Manager surface a token purchase needs.
type AllowanceService interface {
	Spender() common.Address
	ToSmallestUnits(ctx context.Context, amount decimal.Decimal) (*big.Int, error)
	AllowanceOf(ctx context.Context, owner string) (*big.Int, error)
	EnsureAllowance(ctx context.Context, session *wallet.Session, amount decimal.Decimal) (*allowance.Outcome, error)
}

// Tracker waits for a submitted transaction to become final.
type Tracker interface {
	Track(ctx context.Context, hash string, chain types.ChainFamily) (*types.TransactionRecord, error)
}

var _ AllowanceService = (*allowance.Manager)(nil)

// Router holds the chain dependencies shared by the purchasers.
type Router struct {
	Solana     SolanaChain
	Collection solana.PublicKey
	Allowance  AllowanceService
	Tracker    Tracker
	Log        logger.Logger
}

func (r *Router) log() logger.Logger {
	return logger.OrNoop(r.Log)
}
