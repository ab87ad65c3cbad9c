package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Headers consulted when the peer is a trusted proxy, highest priority first.
// CDN headers such as CF-Connecting-IP are opt-in through WithHeaders because
// any client can send them.
var defaultHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
}

// Extractor resolves client addresses.
type Extractor struct {
	trusted AllowList
	headers []string
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithTrustedProxies enables forwarding headers for peers inside the given prefixes.
func WithTrustedProxies(prefixes ...string) Option {
	return func(e *Extractor) error {
		list, err := ParseAllowList(prefixes)
		if err != nil {
			return err
		}
		e.trusted = append(e.trusted, list...)
		return nil
	}
}

// WithHeaders replaces the forwarding headers consulted for trusted peers.
func WithHeaders(headers ...string) Option {
	return func(e *Extractor) error {
		e.headers = headers
		return nil
	}
}

// New creates an Extractor. With no trusted proxies only RemoteAddr is used.
func New(opts ...Option) (*Extractor, error) {
	e := &Extractor{headers: defaultHeaders}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// GetIP returns the client's IP address from the request.
func (e *Extractor) GetIP(r *http.Request) string {
	peer := remoteIP(r.RemoteAddr)
	if peer == "" || len(e.trusted) == 0 || !e.trusted.Contains(peer) {
		return peer
	}

	for _, h := range e.headers {
		values := r.Header.Values(h)
		if len(values) == 0 {
			continue
		}
		if ip, ok := e.fromChain(strings.Join(values, ",")); ok {
			return ip
		}
	}

	return peer
}

// fromChain walks a forwarding chain from the right, where proxies append the
// address they received the request from. Trusted hops are skipped and the
// first untrusted hop is the client; entries left of it are client supplied.
// An invalid untrusted hop ends the walk without a result.
func (e *Extractor) fromChain(chain string) (string, bool) {
	hops := strings.Split(chain, ",")
	leftmost := ""
	for i := len(hops) - 1; i >= 0; i-- {
		ip := parseIP(hops[i])
		if ip == "" {
			return "", false
		}
		if !e.trusted.Contains(ip) {
			return ip, true
		}
		leftmost = ip
	}
	// Every hop is a trusted proxy: the request originated inside the trusted network.
	return leftmost, leftmost != ""
}

// GetIP returns the TCP peer address of the request, ignoring forwarding headers.
func GetIP(r *http.Request) string {
	return remoteIP(r.RemoteAddr)
}

func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		// Assume it's already just an IP.
		return parseIP(remoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an IP address string.
// Returns empty string if the IP is invalid.
func parseIP(ipStr string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(ipStr))
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
