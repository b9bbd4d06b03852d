// Package crosspay orchestrates token purchases paid either with native SOL
// on Solana or with an ERC-20 token on an EVM chain.
package crosspay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/vitwit/crosspay/allowance"
	"github.com/vitwit/crosspay/clients"
	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/metrics"
	"github.com/vitwit/crosspay/notifier"
	"github.com/vitwit/crosspay/purchase"
	"github.com/vitwit/crosspay/tracker"
	"github.com/vitwit/crosspay/types"
	"github.com/vitwit/crosspay/validation"
	"github.com/vitwit/crosspay/wallet"
)

// Version of the crosspay library and CLI.
const Version = "0.1.0"

// SolanaBackend is the Chain A RPC surface the engine needs.
type SolanaBackend interface {
	purchase.SolanaChain
	clients.StatusSource
}

// EVMBackend is the Chain B RPC surface the engine needs.
type EVMBackend interface {
	allowance.TokenReader
	clients.StatusSource
}

// Backends are the chain clients. Either may be nil when that payment kind
// is not offered.
type Backends struct {
	Solana SolanaBackend
	EVM    EVMBackend
}

var (
	_ SolanaBackend = (*clients.SolanaClient)(nil)
	_ EVMBackend    = (*clients.EVMClient)(nil)
)

// Engine is the single entry point used by the CLI and by library callers.
// It owns one OrchestrationSession and allows one purchase or approval at a
// time.
type Engine struct {
	cfg *types.Config

	connector *wallet.Connector
	router    *purchase.Router
	executor  *purchase.Executor
	allowance *allowance.Manager
	tracker   *tracker.Tracker

	providers []wallet.Provider
	logger    logger.Logger
	metrics   metrics.Recorder
	notifier  notifier.Notifier
	timeout   time.Duration

	inFlight atomic.Bool
	closers  []func()

	mu      sync.Mutex
	session OrchestrationSession
}

// New wires the engine components for cfg.
func New(cfg *types.Config, backends Backends, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = types.DefaultConfig()
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.OrNoop(e.logger)
	e.metrics = metrics.OrNoop(e.metrics)
	if e.notifier == nil {
		e.notifier = notifier.Noop{}
	}

	e.tracker = tracker.New(tracker.ConfigFrom(cfg), e.logger, e.metrics)
	e.router = &purchase.Router{Tracker: e.tracker, Log: e.logger}
	e.executor = purchase.NewExecutor(e.logger, e.metrics)
	e.connector = wallet.NewConnector(e.logger, e.providers...)

	if backends.Solana != nil {
		collection, err := solana.PublicKeyFromBase58(cfg.Solana.CollectionAddress)
		if err != nil {
			return nil, types.Wrap(types.ErrConfig, fmt.Errorf("collection address: %w", err))
		}
		e.tracker.Register(types.ChainSolana, backends.Solana)
		e.router.Solana = backends.Solana
		e.router.Collection = collection
	}

	if backends.EVM != nil {
		e.tracker.Register(types.ChainEVM, backends.EVM)
		e.allowance = allowance.New(backends.EVM, e.tracker, cfg.EVM.FailClosedOnDecimals, e.logger, e.metrics)
		e.router.Allowance = e.allowance
		e.connector.SetAllowanceProbe(e.allowance.Approved)
	}

	return e, nil
}

// Close releases the chain clients opened by Dial.
func (e *Engine) Close() {
	e.Disconnect()
	for _, c := range e.closers {
		c()
	}
	e.closers = nil
}

// Session returns a snapshot of the orchestration session.
func (e *Engine) Session() OrchestrationSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// SelectPaymentKind records the asset the user pays with and returns the
// warning to display, if any. Switching to the other chain drops the
// connected wallet.
func (e *Engine) SelectPaymentKind(kind types.PaymentKind) string {
	e.mu.Lock()
	stale := e.session.Wallet != nil && e.session.Wallet.Kind != kind
	e.session.Kind = kind
	e.mu.Unlock()

	if stale {
		e.Disconnect()
	}

	if kind == types.PaymentKindToken {
		return TokenWarning
	}
	return ""
}

// ActionLabel is the text of the main action for the current session.
func (e *Engine) ActionLabel() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.actionLabel()
}

// Connect opens a wallet for the selected payment kind.
func (e *Engine) Connect(ctx context.Context) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	e.mu.Lock()
	kind := e.session.Kind
	e.mu.Unlock()
	labels := metrics.Labels(kind.ChainFamily().String())

	// The connector drops any previous wallet before opening a new one, so
	// a failed attempt leaves the engine disconnected.
	ws, err := e.connector.Connect(ctx, kind)
	if err != nil {
		e.clearWallet()
		e.metrics.IncCounter(metrics.EventConnectFailed, labels)
		return e.fail("connect", err)
	}

	route, err := e.router.RouteFor(ws)
	if err != nil {
		e.connector.Disconnect()
		e.clearWallet()
		e.metrics.IncCounter(metrics.EventConnectFailed, labels)
		return e.fail("connect", err)
	}

	e.mu.Lock()
	e.session.Wallet = ws
	e.session.route = route
	e.mu.Unlock()

	e.metrics.IncCounter(metrics.EventConnect, labels)
	return nil
}

// Disconnect drops the wallet session. It is safe to call at any time.
func (e *Engine) Disconnect() {
	e.connector.Disconnect()
	e.clearWallet()
}

func (e *Engine) clearWallet() {
	e.mu.Lock()
	e.session.Wallet = nil
	e.session.route = nil
	e.mu.Unlock()
}

// Approve raises the token allowance to amount for the connected EVM wallet.
func (e *Engine) Approve(ctx context.Context, amount string) (*allowance.Outcome, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, e.rejectInFlight()
	}
	defer e.inFlight.Store(false)

	e.notifier.SetBusy(true)
	defer e.notifier.SetBusy(false)

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	e.mu.Lock()
	session := e.session
	e.mu.Unlock()

	if !session.Kind.IsSet() {
		return nil, e.fail("approve", types.ErrNoTokenSelected)
	}
	if session.Kind != types.PaymentKindToken || e.allowance == nil {
		return nil, e.fail("approve", types.Wrap(types.ErrApprovalRejected, fmt.Errorf("%s payments need no approval", session.Kind)))
	}
	if !session.Connected() {
		return nil, e.fail("approve", types.ErrNotConnected)
	}

	value, err := validation.Amount(amount)
	if err != nil {
		return nil, e.fail("approve", err)
	}

	outcome, err := e.allowance.EnsureAllowance(ctx, session.Wallet, value)
	if err != nil {
		if outcome != nil && outcome.Record != nil {
			return outcome, e.failWithLink("approve", err, outcome.Record.ExplorerURL)
		}
		return outcome, e.fail("approve", err)
	}

	e.refreshApproval(ctx)

	if outcome.Kind == allowance.AlreadySufficient {
		e.notifier.Notify(MessageAlreadyApproved, "")
		return outcome, nil
	}
	e.notifier.Notify(MessageConfirmed, outcome.Record.ExplorerURL)
	return outcome, nil
}

// Buy runs one purchase through the purchaser chosen at connect time.
func (e *Engine) Buy(ctx context.Context, req types.PurchaseRequest) (*types.TransactionRecord, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, e.rejectInFlight()
	}
	defer e.inFlight.Store(false)

	e.notifier.SetBusy(true)
	defer e.notifier.SetBusy(false)

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	e.mu.Lock()
	session := e.session
	e.mu.Unlock()

	if !session.Kind.IsSet() {
		return nil, e.fail("buy", types.ErrNoTokenSelected)
	}
	if !session.Connected() || session.route == nil {
		return nil, e.fail("buy", types.ErrNotConnected)
	}
	req.Kind = session.Kind

	record, attempt, err := e.executor.Run(ctx, session.route, req)
	if session.Kind == types.PaymentKindToken {
		e.refreshApproval(ctx)
	}
	if err != nil {
		if attempt != nil {
			e.logger.Debug("attempt history", map[string]any{"attempt": attempt.ID, "states": attempt.History()})
		}
		if record != nil {
			return record, e.failWithLink("buy", err, record.ExplorerURL)
		}
		return record, e.fail("buy", err)
	}

	e.notifier.Notify(MessageConfirmed, record.ExplorerURL)
	return record, nil
}

// Track follows an already submitted transaction until it is final. It never
// submits anything.
func (e *Engine) Track(ctx context.Context, hash string, chain types.ChainFamily) (*types.TransactionRecord, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.tracker.Track(ctx, hash, chain)
}

func (e *Engine) refreshApproval(ctx context.Context) {
	e.connector.RefreshApproval(ctx)
	ws := e.connector.Session()

	e.mu.Lock()
	if ws != nil && e.session.Wallet != nil && e.session.Wallet.Address == ws.Address {
		e.session.Wallet = ws
	}
	e.mu.Unlock()
}

func (e *Engine) rejectInFlight() error {
	e.mu.Lock()
	chain := e.session.Kind.ChainFamily().String()
	e.mu.Unlock()

	e.metrics.IncCounter(metrics.EventPurchaseRejected, metrics.Labels(chain))
	e.logger.Warn("action rejected, another transaction is in progress", nil)
	return types.ErrPurchaseInFlight
}

func (e *Engine) fail(op string, err error) error {
	return e.failWithLink(op, err, "")
}

// failWithLink logs err and turns it into the single user-facing message
// for this outcome.
func (e *Engine) failWithLink(op string, err error, link string) error {
	e.logger.Error(op+" failed", map[string]any{"code": types.Code(err), "error": err})
	e.notifier.Notify(types.UserMessage(err), link)
	return err
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}
