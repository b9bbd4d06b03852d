package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/types"
)

// AllowanceProbe reports whether owner has already approved the purchase
// contract. It feeds Session.Approved.
type AllowanceProbe func(ctx context.Context, owner string) (bool, error)

// Connector owns the single wallet session.
type Connector struct {
	mu        sync.Mutex
	providers map[types.PaymentKind]Provider
	session   *Session
	probe     AllowanceProbe
	log       logger.Logger
}

func NewConnector(log logger.Logger, providers ...Provider) *Connector {
	c := &Connector{
		providers: make(map[types.PaymentKind]Provider, len(providers)),
		log:       logger.OrNoop(log),
	}
	for _, p := range providers {
		if p != nil {
			c.providers[p.Kind()] = p
		}
	}
	return c
}

// SetAllowanceProbe installs the probe run after EVM connects.
func (c *Connector) SetAllowanceProbe(probe AllowanceProbe) {
	c.mu.Lock()
	c.probe = probe
	c.mu.Unlock()
}

// Connect opens a session for kind, replacing any existing one.
func (c *Connector) Connect(ctx context.Context, kind types.PaymentKind) (*Session, error) {
	if !kind.IsSet() {
		return nil, types.ErrNoTokenSelected
	}

	c.mu.Lock()
	provider, ok := c.providers[kind]
	probe := c.probe
	c.mu.Unlock()
	if !ok {
		return nil, types.Wrap(types.ErrProviderNotFound, fmt.Errorf("no wallet for %s", kind))
	}

	c.Disconnect()

	address, err := provider.Connect(ctx)
	if err != nil {
		c.log.Warn("wallet connect failed", map[string]any{"kind": kind.String(), "error": err})
		var pe *types.PaymentError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, types.Wrap(types.ErrUserRejected, err)
	}

	session := &Session{
		Chain:       kind.ChainFamily(),
		Kind:        kind,
		Address:     address,
		Provider:    provider,
		ConnectedAt: time.Now(),
	}

	if session.Chain == types.ChainEVM && probe != nil {
		approved, err := probe(ctx, address)
		if err != nil {
			c.log.Warn("allowance probe failed", map[string]any{"address": address, "error": err})
		}
		session.Approved = err == nil && approved
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.log.Info("wallet connected", map[string]any{
		"kind":     kind.String(),
		"chain":    session.Chain.String(),
		"address":  address,
		"approved": session.Approved,
	})

	cp := *session
	return &cp, nil
}

// RefreshApproval re-runs the allowance probe for the current EVM session.
func (c *Connector) RefreshApproval(ctx context.Context) {
	c.mu.Lock()
	session, probe := c.session, c.probe
	c.mu.Unlock()
	if session == nil || session.Chain != types.ChainEVM || probe == nil {
		return
	}

	approved, err := probe(ctx, session.Address)
	if err != nil {
		c.log.Warn("allowance probe failed", map[string]any{"address": session.Address, "error": err})
		return
	}

	c.mu.Lock()
	if c.session == session {
		c.session.Approved = approved
	}
	c.mu.Unlock()
}

// Disconnect drops the session. Calling it without a session is a no-op.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session == nil {
		return
	}
	session.Provider.Disconnect()
	c.log.Info("wallet disconnected", map[string]any{"address": session.Address})
}

// Session returns a copy of the active session, or nil.
func (c *Connector) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	cp := *c.session
	return &cp
}
