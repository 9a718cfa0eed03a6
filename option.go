package ormap

import (
	"time"

	"go.uber.org/zap"

	"github.com/syssam/ormap/reflection"
)

// Option configures how a Configuration is built.
type Option func(*options)

type options struct {
	log         *zap.Logger
	mixins      reflection.MixinFinder
	sortWorkers int
	debounce    time.Duration
}

func newOptions(opts []Option) *options {
	o := &options{
		log:      zap.NewNop(),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger. The default discards all logs.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMixinFinder enables the persistent mixin check, comparing the mixins
// recorded on the classes with the ones the finder observes.
func WithMixinFinder(f reflection.MixinFinder) Option {
	return func(o *options) {
		o.mixins = f
	}
}

// WithSortExpressionWorkers bounds the number of sort expressions parsed
// concurrently. Non-positive values use GOMAXPROCS.
func WithSortExpressionWorkers(n int) Option {
	return func(o *options) {
		o.sortWorkers = n
	}
}

// WithReloadDebounce sets how long Watch waits for descriptor changes to
// settle before rebuilding.
func WithReloadDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}
