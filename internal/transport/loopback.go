package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/url"
	"strings"
)

// IsLoopback reports whether the host of rawURL refers to the local machine.
// Host names are resolved and the first address decides. Unparseable URLs and
// failed lookups are treated as non-loopback.
func IsLoopback(ctx context.Context, resolver *net.Resolver, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := u.Hostname()
	if host == "" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}

	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return false
	}
	return addrs[0].IP.IsLoopback()
}

// SkipCertVerification reports whether TLS certificate validation is relaxed.
// Only secure connections to loopback targets skip it, which covers local
// debugging proxies with self-signed certificates.
func SkipCertVerification(secure, loopback bool) bool {
	return secure && loopback
}

// isSecure treats every scheme other than plain ws as secure.
func isSecure(rawURL string) bool {
	return !strings.HasPrefix(strings.ToLower(rawURL), "ws://")
}

func tlsConfig(skipVerify bool) *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: skipVerify, //nolint:gosec // loopback targets only
	}
}
