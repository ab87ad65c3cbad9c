package clientip

import "errors"

// ErrInvalidPrefix is returned when an allow-list entry is neither an IP address nor a CIDR prefix.
var ErrInvalidPrefix = errors.New("clientip.invalid_prefix")
