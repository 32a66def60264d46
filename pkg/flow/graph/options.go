package graph

type options struct {
	name  string
	local bool
}

// Option configures a node at construction.
type Option func(*options)

// WithName sets the node name used in logs and spans. Generated when empty.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLocal makes the node run its tasks inline on its own goroutine
// instead of the engine's worker pool.
func WithLocal() Option {
	return func(o *options) {
		o.local = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
