package transport

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Connect opens a transport to rawURL using DefaultOptions.
// See ConnectWithOptions.
func Connect(ctx context.Context, rawURL string) (*Transport, error) {
	return ConnectWithOptions(ctx, rawURL, DefaultOptions())
}

// ConnectWithOptions opens a transport to rawURL.
//
// Failed attempts are retried immediately and without limit until one succeeds
// or ctx is done, which tolerates targets that are still starting up. Each
// attempt is bounded by opts.AttemptTimeout. A handshake that failed after
// being redirected is retried against the redirect target. The only error
// returned is a *ConnectError, and only once ctx is done.
func ConnectWithOptions(ctx context.Context, rawURL string, opts Options) (*Transport, error) {
	opts = opts.withDefaults()

	id := uuid.NewString()
	log := opts.Log.WithValues("connection", id)

	loopback := IsLoopback(ctx, opts.Resolver, rawURL)
	target := rawURL

	for {
		conn, redirect, err := dial(ctx, target, loopback, opts)
		if err == nil {
			log.V(1).Info("Connection opened", "url", target)
			return newTransport(id, target, conn, log.WithValues("url", target)), nil
		}

		if redirect != "" {
			log.V(1).Info("Handshake was redirected, retrying against redirect target", "url", target, "redirect", redirect)
			target = redirect
			continue
		}

		if ctx.Err() != nil {
			return nil, &ConnectError{URL: target, Err: err}
		}

		log.V(1).Info("Connection attempt failed, retrying", "url", target, "error", err.Error())
	}
}

// dial makes a single connection attempt. On failure it also returns the
// corrected URL when the handshake was redirected.
func dial(ctx context.Context, target string, loopback bool, opts Options) (Conn, string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, opts.AttemptTimeout)
	defer cancel()

	httpTransport := &http.Transport{
		TLSClientConfig:   tlsConfig(SkipCertVerification(isSecure(target), loopback)),
		DisableKeepAlives: true,
	}
	defer httpTransport.CloseIdleConnections()

	conn, resp, err := websocket.Dial(attemptCtx, target, &websocket.DialOptions{
		HTTPClient:      &http.Client{Transport: httpTransport},
		Host:            opts.Host,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, redirectTarget(target, resp), err
	}

	conn.SetReadLimit(opts.MaxMessageSize)
	return conn, "", nil
}
