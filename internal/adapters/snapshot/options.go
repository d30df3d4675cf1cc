package snapshot

import "github.com/google/uuid"

// defaultNamespace seeds generated example ids.
var defaultNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("rollcall:example_id"))

type options struct {
	requireVotes bool
	namespace    uuid.UUID
}

// Option applies a configuration option to snapshot decoding.
type Option func(*options)

// WithRequireVotes rejects documents without any vote records.
func WithRequireVotes(require bool) Option {
	return func(o *options) {
		o.requireVotes = require
	}
}

// WithIDNamespace sets the UUID namespace used for generated example ids.
func WithIDNamespace(ns uuid.UUID) Option {
	return func(o *options) {
		if ns != uuid.Nil {
			o.namespace = ns
		}
	}
}

func newOptions(opts ...Option) *options {
	o := &options{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
