package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/crosspay/clients"
	"github.com/vitwit/crosspay/types"
)

type step struct {
	status types.TxStatus
	reason string
	err    error
}

// scriptedSource replays steps and then repeats the last one.
type scriptedSource struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (s *scriptedSource) TransactionStatus(context.Context, string) (types.TxStatus, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	return s.steps[i].status, s.steps[i].reason, s.steps[i].err
}

func testConfig() Config {
	return Config{
		PollInterval:        time.Millisecond,
		ConfirmationTimeout: time.Second,
		SolanaExplorer:      "https://explorer.solana.com",
		SolanaCluster:       "devnet",
		EVMExplorer:         "https://sepolia.etherscan.io/",
	}
}

func TestExplorerURL(t *testing.T) {
	t.Parallel()
	tr := New(testConfig(), nil, nil)

	assert.Equal(t, "https://explorer.solana.com/tx/abc?cluster=devnet", tr.ExplorerURL("abc", types.ChainSolana))
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xdef", tr.ExplorerURL("0xdef", types.ChainEVM))

	cfg := testConfig()
	cfg.SolanaCluster = ""
	assert.Equal(t, "https://explorer.solana.com/tx/abc", New(cfg, nil, nil).ExplorerURL("abc", types.ChainSolana))
}

func TestConfigFrom(t *testing.T) {
	t.Parallel()
	cfg := ConfigFrom(types.DefaultConfig())
	assert.Equal(t, "devnet", cfg.SolanaCluster)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmationTimeout)
	assert.Equal(t, "https://sepolia.etherscan.io", cfg.EVMExplorer)
}

func TestTrack(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		steps      []step
		wantStatus types.TxStatus
		wantReason string
		wantCalls  int
	}{
		{
			name:       "confirms after pending polls",
			steps:      []step{{status: types.TxStatusPending}, {status: types.TxStatusPending}, {status: types.TxStatusConfirmed}},
			wantStatus: types.TxStatusConfirmed,
			wantCalls:  3,
		},
		{
			name:       "failed on chain",
			steps:      []step{{status: types.TxStatusFailed, reason: clients.ReasonReverted}},
			wantStatus: types.TxStatusFailed,
			wantReason: clients.ReasonReverted,
			wantCalls:  1,
		},
		{
			name:       "transient lookup error",
			steps:      []step{{err: errors.New("502")}, {status: types.TxStatusConfirmed}},
			wantStatus: types.TxStatusConfirmed,
			wantCalls:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := &scriptedSource{steps: tt.steps}
			tr := New(testConfig(), nil, nil)
			tr.Register(types.ChainEVM, src)

			record, err := tr.Track(context.Background(), "0xabc", types.ChainEVM)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, record.Status)
			assert.Equal(t, tt.wantReason, record.Reason)
			assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", record.ExplorerURL)
			assert.NotNil(t, record.FinalizedAt)
			assert.Equal(t, tt.wantCalls, src.calls)
		})
	}
}

func TestTrackTimeoutLeavesRecordPending(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.ConfirmationTimeout = 20 * time.Millisecond
	tr := New(cfg, nil, nil)
	tr.Register(types.ChainSolana, &scriptedSource{steps: []step{{status: types.TxStatusPending}}})

	record, err := tr.Track(context.Background(), "sig", types.ChainSolana)
	require.ErrorIs(t, err, types.ErrRPCFailure)
	require.NotNil(t, record)
	assert.Equal(t, types.TxStatusPending, record.Status)
	assert.Nil(t, record.FinalizedAt)
}

func TestTrackGivesUpAfterRepeatedErrors(t *testing.T) {
	t.Parallel()
	src := &scriptedSource{steps: []step{{err: errors.New("connection refused")}}}
	tr := New(testConfig(), nil, nil)
	tr.Register(types.ChainEVM, src)

	record, err := tr.Track(context.Background(), "0xabc", types.ChainEVM)
	require.ErrorIs(t, err, types.ErrRPCFailure)
	assert.Equal(t, types.TxStatusPending, record.Status)
	assert.Equal(t, maxStatusErrors, src.calls)
}

func TestTrackInvalidHashStopsImmediately(t *testing.T) {
	t.Parallel()
	src := &scriptedSource{steps: []step{{err: clients.ErrInvalidHash}}}
	tr := New(testConfig(), nil, nil)
	tr.Register(types.ChainEVM, src)

	_, err := tr.Track(context.Background(), "bad", types.ChainEVM)
	require.ErrorIs(t, err, types.ErrRPCFailure)
	assert.Equal(t, 1, src.calls)
}

func TestTrackUnknownChain(t *testing.T) {
	t.Parallel()
	_, err := New(testConfig(), nil, nil).Track(context.Background(), "x", types.ChainSolana)
	require.ErrorIs(t, err, types.ErrRPCFailure)
}

func TestTrackCancelledContext(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.ConfirmationTimeout = 0
	tr := New(cfg, nil, nil)
	tr.Register(types.ChainEVM, &scriptedSource{steps: []step{{status: types.TxStatusPending}}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	record, err := tr.Track(ctx, "0xabc", types.ChainEVM)
	require.ErrorIs(t, err, types.ErrRPCFailure)
	assert.Equal(t, types.TxStatusPending, record.Status)
}
