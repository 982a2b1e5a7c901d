package cmd

import "context"

type (
	// nodeRunnable is the function that is run after node configuration is loaded.
	nodeRunnable func(ctx context.Context, cfg *nodeConfiguration) error

	Options struct {
		nodeRunFunc nodeRunnable
	}

	Option     func(*Options)
	allOptions struct{}
)

var (
	Opts = &allOptions{}
)

// NodeRunFunc sets the node runnable function. Otherwise, default function will be used.
func (o *allOptions) NodeRunFunc(runFunc nodeRunnable) Option {
	return func(options *Options) {
		options.nodeRunFunc = runFunc
	}
}
