package vm

// Options configures a Runtime. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// GCEnabled turns the tracing collector on. Reference counting is
	// always active.
	GCEnabled bool

	// GCThreshold is the live-object count above which a collection is
	// scheduled. It doubles after every triggered collection.
	GCThreshold int

	// MaxObjects caps the live-object registry. A registry still over the
	// cap after a full collection is an unrecoverable AllocationFailure.
	// Zero means unlimited.
	MaxObjects int

	// ZCTLimit is the number of zero-count candidates queued before a
	// safepoint flushes them.
	ZCTLimit int

	// MaxCallDepth bounds the call stack; deeper calls raise StackOverflow.
	MaxCallDepth int

	// StackSize is the initial operand stack capacity.
	StackSize int
}

// Defaults used by DefaultOptions.
const (
	DefaultGCThreshold  = 256
	DefaultZCTLimit     = 128
	DefaultMaxCallDepth = 512
	DefaultStackSize    = 1024
)

// DefaultOptions returns the options used when no ember.toml is present.
func DefaultOptions() Options {
	return Options{
		GCEnabled:    true,
		GCThreshold:  DefaultGCThreshold,
		ZCTLimit:     DefaultZCTLimit,
		MaxCallDepth: DefaultMaxCallDepth,
		StackSize:    DefaultStackSize,
	}
}

// normalized fills zero fields with defaults.
func (o Options) normalized() Options {
	if o.GCThreshold <= 0 {
		o.GCThreshold = DefaultGCThreshold
	}
	if o.ZCTLimit <= 0 {
		o.ZCTLimit = DefaultZCTLimit
	}
	if o.MaxCallDepth <= 0 {
		o.MaxCallDepth = DefaultMaxCallDepth
	}
	if o.StackSize <= 0 {
		o.StackSize = DefaultStackSize
	}
	return o
}
