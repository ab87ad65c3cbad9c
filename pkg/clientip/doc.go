// Package clientip resolves the originating client address of an HTTP request
// and matches addresses against IP allow-lists.
//
// Forwarding headers are honored only when the TCP peer is a trusted proxy.
// Without trusted proxies the peer address is used as is, so a client cannot
// spoof its way into an allow-list by sending X-Forwarded-For.
//
// Headers are examined in descending priority until one yields an address:
//
//  1. X-Forwarded-For
//  2. X-Real-IP
//  3. RemoteAddr
//
// A forwarding chain is read from the right. Proxies append the address they
// received the request from, so the rightmost hop outside the trusted proxies
// is the client; anything to its left was sent by the client and is ignored.
// WithHeaders replaces the list, for example to prepend CF-Connecting-IP when
// the trusted proxies are the CDN's edge.
//
// # Usage
//
//	ext, err := clientip.New(clientip.WithTrustedProxies("10.0.0.0/8"))
//	if err != nil {
//	    return err
//	}
//	r.Use(ext.Middleware)
//
//	// Later, inside a handler
//	ip := clientip.GetIPFromContext(r.Context())
//
//	allow, err := clientip.ParseAllowList([]string{"192.168.0.0/16", "203.0.113.7"})
//	if err != nil {
//	    return err
//	}
//	allow.Contains(ip)
//
// GetIP never returns an error. If no valid address is found an empty string
// is returned, and an empty string is never inside any allow-list.
package clientip
