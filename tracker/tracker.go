// Package tracker follows submitted transactions until they reach a final
// state on their chain.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vitwit/crosspay/clients"
	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/metrics"
	"github.com/vitwit/crosspay/types"
)

const (
	defaultPollInterval = 2 * time.Second

	// maxStatusErrors consecutive failed status lookups end tracking.
	maxStatusErrors = 5
)

type Config struct {
	PollInterval        time.Duration
	ConfirmationTimeout time.Duration
	SolanaExplorer      string
	SolanaCluster       string
	EVMExplorer         string
}

// ConfigFrom extracts the tracker settings from the global config.
func ConfigFrom(cfg *types.Config) Config {
	return Config{
		PollInterval:        cfg.Tracker.PollInterval,
		ConfirmationTimeout: cfg.Tracker.ConfirmationTimeout,
		SolanaExplorer:      cfg.Solana.ExplorerURL,
		SolanaCluster:       cfg.Solana.Network.Cluster(),
		EVMExplorer:         cfg.EVM.ExplorerURL,
	}
}

// Tracker polls chain status sources. It never re-submits anything.
type Tracker struct {
	cfg     Config
	sources map[types.ChainFamily]clients.StatusSource
	log     logger.Logger
	metrics metrics.Recorder
}

func New(cfg Config, log logger.Logger, rec metrics.Recorder) *Tracker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Tracker{
		cfg:     cfg,
		sources: make(map[types.ChainFamily]clients.StatusSource),
		log:     logger.OrNoop(log),
		metrics: metrics.OrNoop(rec),
	}
}

// Register sets the status source used for chain.
func (t *Tracker) Register(chain types.ChainFamily, source clients.StatusSource) {
	t.sources[chain] = source
}

// ExplorerURL builds the block explorer link for hash.
func (t *Tracker) ExplorerURL(hash string, chain types.ChainFamily) string {
	switch chain {
	case types.ChainSolana:
		link := fmt.Sprintf("%s/tx/%s", strings.TrimRight(t.cfg.SolanaExplorer, "/"), hash)
		if t.cfg.SolanaCluster != "" {
			link += "?cluster=" + t.cfg.SolanaCluster
		}
		return link
	case types.ChainEVM:
		return fmt.Sprintf("%s/tx/%s", strings.TrimRight(t.cfg.EVMExplorer, "/"), hash)
	default:
		return ""
	}
}

// Track creates a pending record for hash and polls until it is confirmed
// or failed. A failed transaction is not an error; inspect the record. On
// timeout or repeated lookup errors the record is returned still pending
// together with an RPC failure.
func (t *Tracker) Track(ctx context.Context, hash string, chain types.ChainFamily) (*types.TransactionRecord, error) {
	source, ok := t.sources[chain]
	if !ok {
		return nil, types.Wrap(types.ErrRPCFailure, fmt.Errorf("no status source for %q", chain))
	}

	record := types.NewTransactionRecord(hash, chain, t.ExplorerURL(hash, chain))
	start := time.Now()
	defer func() {
		t.metrics.ObserveLatency("track", time.Since(start), metrics.Labels(chain.String()))
	}()

	if t.cfg.ConfirmationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.ConfirmationTimeout)
		defer cancel()
	}

	t.log.Info("tracking transaction", map[string]any{"hash": hash, "chain": chain.String()})

	limiter := rate.NewLimiter(rate.Every(t.cfg.PollInterval), 1)
	failures := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			t.log.Warn("confirmation wait ended", map[string]any{"hash": hash, "error": err})
			return record, types.Wrap(types.ErrRPCFailure, fmt.Errorf("transaction %s not final: %w", hash, waitError(ctx, err)))
		}

		status, reason, err := source.TransactionStatus(ctx, hash)
		if err != nil {
			if errors.Is(err, clients.ErrInvalidHash) {
				return record, types.Wrap(types.ErrRPCFailure, err)
			}
			failures++
			t.log.Warn("status lookup failed", map[string]any{"hash": hash, "attempt": failures, "error": err})
			if failures >= maxStatusErrors {
				return record, types.Wrap(types.ErrRPCFailure, err)
			}
			continue
		}
		failures = 0

		if !status.IsTerminal() {
			t.log.Debug("transaction pending", map[string]any{"hash": hash})
			continue
		}

		if err := record.Transition(status, reason); err != nil {
			return record, err
		}
		t.log.Info("transaction final", map[string]any{
			"hash":   hash,
			"status": string(status),
			"reason": reason,
		})
		return record, nil
	}
}

// waitError prefers the context error over the limiter's own message.
func waitError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
