package purchase

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/crosspay/clients"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/wallet"
)

func solanaSession(t *testing.T, provider wallet.SolanaProvider) *wallet.Session {
	t.Helper()
	addr, err := provider.Connect(context.Background())
	require.NoError(t, err)
	return &wallet.Session{Chain: types.ChainSolana, Kind: types.PaymentKindNative, Address: addr, Provider: provider}
}

func nativeRouter(chain *fakeSolana, tr *fakeTracker) *Router {
	return &Router{
		Solana:     chain,
		Collection: solana.MustPublicKeyFromBase58(collection),
		Tracker:    tr,
	}
}

// tamperingProvider signs a transfer of a different amount than requested.
type tamperingProvider struct {
	*wallet.KeypairProvider
	key solana.PrivateKey
}

func (p *tamperingProvider) SignTransaction(ctx context.Context, tx *solana.Transaction) ([]byte, error) {
	evil, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, p.key.PublicKey(), solana.MustPublicKeyFromBase58(collection)).Build()},
		tx.Message.RecentBlockhash,
		solana.TransactionPayer(p.key.PublicKey()),
	)
	if err != nil {
		return nil, err
	}
	return p.KeypairProvider.SignTransaction(ctx, evil)
}

func TestNativePurchase(t *testing.T) {
	t.Parallel()
	key := solana.NewWallet().PrivateKey
	chain := &fakeSolana{}
	tr := &fakeTracker{status: types.TxStatusConfirmed}
	session := solanaSession(t, wallet.NewKeypairProvider(key, nil))

	p, err := nativeRouter(chain, tr).RouteFor(session)
	require.NoError(t, err)
	assert.IsType(t, &NativePurchaser{}, p)

	record, attempt, err := NewExecutor(nil, nil).Run(context.Background(), p, types.PurchaseRequest{Amount: "1", Kind: types.PaymentKindNative})
	require.NoError(t, err)
	assert.Equal(t, types.TxStatusConfirmed, record.Status)
	assert.Equal(t, []State{
		StateIdle, StateValidating, StateSubmitting, StateAwaitingConfirmation, StateConfirmed, StateIdle,
	}, attempt.History())

	require.Len(t, chain.sent, 1)
	tx, err := clients.DecodeTransaction(chain.sent[0])
	require.NoError(t, err)
	transfer, err := clients.SingleTransfer(tx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), transfer.Lamports)
	assert.Equal(t, collection, transfer.To.String())
	assert.Equal(t, key.PublicKey(), transfer.From)
	assert.Equal(t, key.PublicKey(), tx.Message.AccountKeys[0], "fee payer is the session key")

	require.Len(t, tr.hashes, 1)
	assert.Equal(t, chainSig(1).String(), tr.hashes[0])
}

func chainSig(n byte) solana.Signature {
	var sig solana.Signature
	sig[0] = n
	return sig
}

func TestNativePurchaseFreshBlockhashEachAttempt(t *testing.T) {
	t.Parallel()
	chain := &fakeSolana{}
	session := solanaSession(t, wallet.NewKeypairProvider(solana.NewWallet().PrivateKey, nil))
	p, err := nativeRouter(chain, &fakeTracker{status: types.TxStatusConfirmed}).RouteFor(session)
	require.NoError(t, err)

	exec := NewExecutor(nil, nil)
	for range 2 {
		_, _, err := exec.Run(context.Background(), p, types.PurchaseRequest{Amount: "0.5"})
		require.NoError(t, err)
	}

	require.Len(t, chain.sent, 2)
	first, err := clients.DecodeTransaction(chain.sent[0])
	require.NoError(t, err)
	second, err := clients.DecodeTransaction(chain.sent[1])
	require.NoError(t, err)
	assert.NotEqual(t, first.Message.RecentBlockhash, second.Message.RecentBlockhash)
}

func TestNativePurchaseFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		amount    string
		confirm   wallet.ConfirmFunc
		sendErr   error
		status    types.TxStatus
		tamper    bool
		wantErr   error
		wantSent  int
		wantAnchr int
	}{
		{name: "zero amount", amount: "0", wantErr: types.ErrInvalidAmount},
		{name: "below one lamport", amount: "0.0000000001", wantErr: types.ErrInvalidAmount},
		{
			name:   "signing rejected",
			amount: "1",
			confirm: func(_ context.Context, p wallet.Prompt) bool {
				return p.Action == wallet.ActionConnect
			},
			wantErr:   types.ErrSigningRejected,
			wantAnchr: 1,
		},
		{name: "broadcast fails", amount: "1", sendErr: errNode, wantErr: types.ErrSubmissionFailed, wantAnchr: 1},
		{name: "transfer fails on chain", amount: "1", status: types.TxStatusFailed, wantErr: types.ErrSubmissionFailed, wantSent: 1, wantAnchr: 1},
		{name: "wallet signs something else", amount: "1", tamper: true, wantErr: types.ErrSubmissionFailed, wantAnchr: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			key := solana.NewWallet().PrivateKey
			var provider wallet.SolanaProvider = wallet.NewKeypairProvider(key, tt.confirm)
			if tt.tamper {
				provider = &tamperingProvider{KeypairProvider: wallet.NewKeypairProvider(key, nil), key: key}
			}
			status := tt.status
			if status == "" {
				status = types.TxStatusConfirmed
			}
			chain := &fakeSolana{sendErr: tt.sendErr}

			p, err := nativeRouter(chain, &fakeTracker{status: status}).RouteFor(solanaSession(t, provider))
			require.NoError(t, err)

			_, attempt, err := NewExecutor(nil, nil).Run(context.Background(), p, types.PurchaseRequest{Amount: tt.amount})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, chain.sent, tt.wantSent)
			assert.Equal(t, tt.wantAnchr, chain.anchors)

			history := attempt.History()
			assert.Equal(t, StateFailed, history[len(history)-2])
			assert.Equal(t, StateIdle, attempt.State())
		})
	}
}

func TestNativePurchaseTrackerTimeout(t *testing.T) {
	t.Parallel()
	chain := &fakeSolana{}
	session := solanaSession(t, wallet.NewKeypairProvider(solana.NewWallet().PrivateKey, nil))
	p, err := nativeRouter(chain, &fakeTracker{err: types.ErrRPCFailure}).RouteFor(session)
	require.NoError(t, err)

	record, _, err := NewExecutor(nil, nil).Run(context.Background(), p, types.PurchaseRequest{Amount: "1"})
	require.ErrorIs(t, err, types.ErrRPCFailure)
	require.NotNil(t, record)
	assert.Equal(t, types.TxStatusPending, record.Status)
}
