package clientip

import (
	"fmt"
	"net/netip"
	"strings"
)

// AllowList is a set of IP prefixes. The zero value contains nothing.
type AllowList []netip.Prefix

// ParseAllowList parses CIDR prefixes and single addresses.
// A single address becomes a full-length prefix (/32 or /128).
func ParseAllowList(entries []string) (AllowList, error) {
	list := make(AllowList, 0, len(entries))
	for _, raw := range entries {
		p, err := parsePrefix(raw)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

func parsePrefix(raw string) (netip.Prefix, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("%w: %q: %w", ErrInvalidPrefix, raw, err)
		}
		return unmapPrefix(p, raw)
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %q: %w", ErrInvalidPrefix, raw, err)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// unmapPrefix rewrites an IPv4-mapped IPv6 prefix to its IPv4 form, since
// addresses are matched unmapped. Mapped prefixes shorter than /96 also cover
// non-IPv4 space and are rejected.
func unmapPrefix(p netip.Prefix, raw string) (netip.Prefix, error) {
	if !p.Addr().Is4In6() {
		return p.Masked(), nil
	}
	if p.Bits() < 96 {
		return netip.Prefix{}, fmt.Errorf("%w: %q: IPv4-mapped prefix must be /96 or longer", ErrInvalidPrefix, raw)
	}
	return netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-96).Masked(), nil
}

// Contains reports whether ip falls inside any prefix.
// Unparsable input is never contained.
func (l AllowList) Contains(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	return l.ContainsAddr(addr)
}

// ContainsAddr is Contains for an already parsed address.
func (l AllowList) ContainsAddr(addr netip.Addr) bool {
	addr = addr.Unmap().WithZone("")
	for _, p := range l {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Strings returns the canonical form of every prefix.
func (l AllowList) Strings() []string {
	out := make([]string, len(l))
	for i, p := range l {
		out[i] = p.String()
	}
	return out
}
