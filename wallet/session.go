package wallet

import (
	"time"

	"github.com/vitwit/crosspay/types"
)

// Session is the active wallet connection. Only the Connector writes it;
// everyone else receives a copy.
type Session struct {
	Chain       types.ChainFamily
	Kind        types.PaymentKind
	Address     string
	Provider    Provider
	Approved    bool
	ConnectedAt time.Time
}

// Solana returns the session provider as a SolanaProvider.
func (s *Session) Solana() (SolanaProvider, error) {
	if s == nil || s.Provider == nil {
		return nil, types.ErrNotConnected
	}
	p, ok := s.Provider.(SolanaProvider)
	if !ok {
		return nil, types.ErrNotConnected
	}
	return p, nil
}

// EVM returns the session provider as an EVMProvider.
func (s *Session) EVM() (EVMProvider, error) {
	if s == nil || s.Provider == nil {
		return nil, types.ErrNotConnected
	}
	p, ok := s.Provider.(EVMProvider)
	if !ok {
		return nil, types.ErrNotConnected
	}
	return p, nil
}
