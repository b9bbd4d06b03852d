package clients

import (
	"context"

	"github.com/vitwit/crosspay/types"
)

// StatusSource reports where a submitted transaction currently stands.
// The returned reason is only set for TxStatusFailed.
type StatusSource interface {
	TransactionStatus(ctx context.Context, hash string) (types.TxStatus, string, error)
}

var (
	_ StatusSource = (*SolanaClient)(nil)
	_ StatusSource = (*EVMClient)(nil)
)
