package transport

import (
	"net"
	"time"

	"github.com/go-logr/logr"
)

const (
	// DefaultAttemptTimeout bounds a single connection attempt.
	DefaultAttemptTimeout = 2 * time.Second

	// DefaultMaxMessageSize is the largest inbound frame accepted (256 MiB).
	DefaultMaxMessageSize int64 = 256 * 1024 * 1024

	// DefaultHost is sent as the Host header; targets are always addressed as a local proxy.
	DefaultHost = "localhost"
)

// Options holds transport configuration.
type Options struct {
	// AttemptTimeout bounds each connection attempt. The caller's context can still
	// end an attempt sooner.
	AttemptTimeout time.Duration

	// MaxMessageSize limits the size of inbound frames.
	MaxMessageSize int64

	// Host overrides the Host header of the handshake request.
	Host string

	// Resolver classifies the target address as loopback or not.
	Resolver *net.Resolver

	// Log receives diagnostics. The zero value discards them.
	Log logr.Logger
}

// DefaultOptions returns the options used by Connect.
func DefaultOptions() Options {
	return Options{
		AttemptTimeout: DefaultAttemptTimeout,
		MaxMessageSize: DefaultMaxMessageSize,
		Host:           DefaultHost,
		Resolver:       net.DefaultResolver,
		Log:            logr.Discard(),
	}
}

// withDefaults fills zero-valued fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = def.AttemptTimeout
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = def.MaxMessageSize
	}
	if o.Host == "" {
		o.Host = def.Host
	}
	if o.Resolver == nil {
		o.Resolver = def.Resolver
	}
	return o
}
