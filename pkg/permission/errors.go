package permission

import "errors"

// ErrInvalidPermission is returned for strings that are not "<namespace>:<action>".
var ErrInvalidPermission = errors.New("permission.invalid")
