package purchase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/metrics"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/wallet"
)

// Purchaser performs a purchase on one chain. It drives attempt from
// Validating to a terminal state.
type Purchaser interface {
	Chain() types.ChainFamily
	Purchase(ctx context.Context, attempt *Attempt, req types.PurchaseRequest) (*types.TransactionRecord, error)
}

// Executor runs at most one attempt at a time. There is no automatic
// retry.
type Executor struct {
	mu      sync.Mutex
	active  *Attempt
	log     logger.Logger
	metrics metrics.Recorder
}

func NewExecutor(log logger.Logger, rec metrics.Recorder) *Executor {
	return &Executor{log: logger.OrNoop(log), metrics: metrics.OrNoop(rec)}
}

// Active returns the running attempt, if any.
func (e *Executor) Active() *Attempt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Run executes req through p. A second Run while one is active fails with
// PurchaseInFlight without touching the network.
func (e *Executor) Run(ctx context.Context, p Purchaser, req types.PurchaseRequest) (*types.TransactionRecord, *Attempt, error) {
	labels := metrics.Labels(p.Chain().String())

	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		e.metrics.IncCounter(metrics.EventPurchaseRejected, labels)
		return nil, nil, types.ErrPurchaseInFlight
	}
	attempt := newAttempt(req.Kind)
	e.active = attempt
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.active = nil
		e.mu.Unlock()
	}()

	fields := map[string]any{"attempt": attempt.ID, "kind": req.Kind.String(), "chain": p.Chain().String()}
	e.log.Info("purchase started", fields)
	e.metrics.IncCounter(metrics.EventPurchaseStarted, labels)
	start := time.Now()

	if err := attempt.Advance(StateValidating); err != nil {
		return nil, attempt, err
	}

	record, err := p.Purchase(ctx, attempt, req)
	e.metrics.ObserveLatency("purchase", time.Since(start), labels)

	if err != nil && errors.Is(err, ErrInvalidTransition) {
		e.log.Error("purchase state machine violated", map[string]any{"attempt": attempt.ID, "error": err})
		return record, attempt, err
	}

	if err != nil {
		if !attempt.State().IsTerminal() {
			if advErr := attempt.Advance(StateFailed); advErr != nil {
				return record, attempt, advErr
			}
		}
		e.metrics.IncCounter(metrics.EventPurchaseFailed, labels)
		e.log.Warn("purchase failed", map[string]any{
			"attempt": attempt.ID,
			"state":   string(attempt.State()),
			"code":    types.Code(err),
			"error":   err,
		})
	} else {
		e.metrics.IncCounter(metrics.EventPurchaseSuccess, labels)
		e.log.Info("purchase confirmed", map[string]any{"attempt": attempt.ID, "hash": record.Hash})
	}

	if advErr := attempt.Advance(StateIdle); advErr != nil {
		return record, attempt, advErr
	}
	return record, attempt, err
}

// RouteFor picks the purchaser for the session's chain. The choice is made
// once per session.
func (r *Router) RouteFor(session *wallet.Session) (Purchaser, error) {
	if session == nil {
		return nil, types.ErrNotConnected
	}
	switch session.Chain {
	case types.ChainSolana:
		if r.Solana == nil {
			return nil, types.Wrap(types.ErrProviderNotFound, errors.New("solana chain is not configured"))
		}
		return &NativePurchaser{router: r, session: session}, nil
	case types.ChainEVM:
		if r.Allowance == nil {
			return nil, types.Wrap(types.ErrProviderNotFound, errors.New("evm chain is not configured"))
		}
		return &TokenPurchaser{router: r, session: session}, nil
	default:
		return nil, types.ErrNotConnected
	}
}
