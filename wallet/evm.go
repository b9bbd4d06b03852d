package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vitwit/crosspay/types"
)

// CallSender signs and broadcasts a zero-value contract call.
// clients.EVMClient implements it.
type CallSender interface {
	SendCall(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, data []byte) (common.Hash, error)
}

// KeyedEVMProvider is an EVM wallet backed by an in-process ECDSA key.
type KeyedEVMProvider struct {
	key     *ecdsa.PrivateKey
	sender  CallSender
	confirm ConfirmFunc

	mu        sync.Mutex
	connected bool
}

var _ EVMProvider = (*KeyedEVMProvider)(nil)

func NewKeyedEVMProvider(key *ecdsa.PrivateKey, sender CallSender, confirm ConfirmFunc) *KeyedEVMProvider {
	return &KeyedEVMProvider{key: key, sender: sender, confirm: orAutoApprove(confirm)}
}

func (p *KeyedEVMProvider) Kind() types.PaymentKind { return types.PaymentKindToken }

func (p *KeyedEVMProvider) Address() common.Address {
	return crypto.PubkeyToAddress(p.key.PublicKey)
}

func (p *KeyedEVMProvider) Connect(ctx context.Context) (string, error) {
	address := p.Address().Hex()
	if !p.confirm(ctx, Prompt{Action: ActionConnect, Chain: types.ChainEVM, Address: address}) {
		return "", types.ErrUserRejected
	}

	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()

	return address, nil
}

func (p *KeyedEVMProvider) Disconnect() {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
}

// SendTransaction asks the user to confirm, then signs and broadcasts a call
// to the contract at to. Broadcast failures are returned unwrapped so the
// caller can classify them.
func (p *KeyedEVMProvider) SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	p.mu.Lock()
	connected := p.connected
	p.mu.Unlock()
	if !connected {
		return common.Hash{}, types.ErrNotConnected
	}

	prompt := Prompt{
		Action:  ActionSign,
		Chain:   types.ChainEVM,
		Address: p.Address().Hex(),
		Detail:  fmt.Sprintf("call %s", to.Hex()),
	}
	if !p.confirm(ctx, prompt) {
		return common.Hash{}, types.ErrSigningRejected
	}

	return p.sender.SendCall(ctx, p.key, to, data)
}
