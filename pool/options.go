package pool

import "log/slog"

// DefaultFramesInFlight is the number of frames a released slot survives when
// WithFramesInFlight is not given.
const DefaultFramesInFlight = 2

// MaxFramesInFlight is the largest accepted frames-in-flight value.
const MaxFramesInFlight = 3

// Option configures a Pool during creation.
type Option func(*options)

type options struct {
	framesInFlight int
	initialPages   int
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{framesInFlight: DefaultFramesInFlight}
}

// WithFramesInFlight sets how many frames the GPU may run behind the CPU.
// Valid values are 1 to MaxFramesInFlight.
func WithFramesInFlight(n int) Option {
	return func(o *options) {
		o.framesInFlight = n
	}
}

// WithInitialPages preallocates n pages.
func WithInitialPages(n int) Option {
	return func(o *options) {
		o.initialPages = n
	}
}

// WithLogger sets the pool's logger. By default the pool logs through
// batchpool.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
