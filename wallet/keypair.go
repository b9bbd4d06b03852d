package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/vitwit/crosspay/types"
)

// KeypairProvider is a Solana wallet backed by an in-process private key.
type KeypairProvider struct {
	key     solana.PrivateKey
	confirm ConfirmFunc

	mu        sync.Mutex
	connected bool
}

var _ SolanaProvider = (*KeypairProvider)(nil)

func NewKeypairProvider(key solana.PrivateKey, confirm ConfirmFunc) *KeypairProvider {
	return &KeypairProvider{key: key, confirm: orAutoApprove(confirm)}
}

func (p *KeypairProvider) Kind() types.PaymentKind { return types.PaymentKindNative }

func (p *KeypairProvider) Connect(ctx context.Context) (string, error) {
	address := p.key.PublicKey().String()
	if !p.confirm(ctx, Prompt{Action: ActionConnect, Chain: types.ChainSolana, Address: address}) {
		return "", types.ErrUserRejected
	}

	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()

	return address, nil
}

func (p *KeypairProvider) Disconnect() {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
}

// SignTransaction signs tx with the wallet key after the user confirms.
func (p *KeypairProvider) SignTransaction(ctx context.Context, tx *solana.Transaction) ([]byte, error) {
	p.mu.Lock()
	connected := p.connected
	p.mu.Unlock()
	if !connected {
		return nil, types.ErrNotConnected
	}

	owner := p.key.PublicKey()
	prompt := Prompt{
		Action:  ActionSign,
		Chain:   types.ChainSolana,
		Address: owner.String(),
		Detail:  fmt.Sprintf("%d instruction(s)", len(tx.Message.Instructions)),
	}
	if !p.confirm(ctx, prompt) {
		return nil, types.ErrSigningRejected
	}

	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(owner) {
			return &p.key
		}
		return nil
	})
	if err != nil {
		return nil, types.Wrap(types.ErrSigningRejected, err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, types.Wrap(types.ErrSigningRejected, fmt.Errorf("serialize: %w", err))
	}
	return raw, nil
}
