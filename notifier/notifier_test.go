package notifier

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vitwit/crosspay/logger"
)

func TestWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.SetBusy(true)
	w.Notify("Transaction confirmed!", "https://sepolia.etherscan.io/tx/0xabc")
	w.SetBusy(false)
	w.Notify("Please enter a valid amount.", "")

	assert.Equal(t,
		"Processing...\nTransaction confirmed!\n  https://sepolia.etherscan.io/tx/0xabc\nPlease enter a valid amount.\n",
		buf.String())
}

func TestLog(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewLog(logger.NewZapLoggerFrom(zap.New(core)))

	n.Notify("Transaction confirmed!", "https://explorer.solana.com/tx/abc?cluster=devnet")

	entries := logs.FilterMessage("Transaction confirmed!").All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "https://explorer.solana.com/tx/abc?cluster=devnet", entries[0].ContextMap()["link"])
}

func TestRecorder(t *testing.T) {
	t.Parallel()
	r := &Recorder{}
	r.SetBusy(true)
	r.Notify("a", "")
	r.SetBusy(false)

	assert.Equal(t, []Message{{Text: "a"}}, r.Snapshot())
	assert.Equal(t, []bool{true, false}, r.Busy)
}

var _ Notifier = Noop{}
