package crosspay

import (
	"time"

	"github.com/vitwit/crosspay/logger"
	"github.com/vitwit/crosspay/metrics"
	"github.com/vitwit/crosspay/notifier"
	"github.com/vitwit/crosspay/wallet"
)

type Option func(*Engine)

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

func WithNotifier(n notifier.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithTimeout bounds every Connect, Approve and Buy call. Zero means no
// bound beyond the tracker's confirmation timeout.
func WithTimeout(t time.Duration) Option {
	return func(e *Engine) {
		e.timeout = t
	}
}

// WithProviders registers wallet providers, one per payment kind.
func WithProviders(p ...wallet.Provider) Option {
	return func(e *Engine) {
		e.providers = append(e.providers, p...)
	}
}
