package transport

import (
	"net/http"
	"net/url"
	"regexp"
)

var httpScheme = regexp.MustCompile(`^http(s?):`)

// redirectTarget returns the URL a failed handshake was redirected to, with the
// scheme mapped back to ws or wss. Some CDP proxies answer the upgrade with a
// redirect that the client follows but then reports as a failure; dialing the
// final URL directly succeeds. Returns "" when no redirect happened.
func redirectTarget(requested string, resp *http.Response) string {
	if resp == nil || resp.Request == nil || resp.Request.URL == nil {
		return ""
	}

	final := httpScheme.ReplaceAllString(resp.Request.URL.String(), "ws$1:")
	if final == requested || final == normalizeURL(requested) {
		return ""
	}
	return final
}

// normalizeURL round-trips rawURL through url.URL so that equivalent spellings compare equal.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.String()
}
