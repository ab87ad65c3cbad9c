// Package apikey issues, stores and looks up API keys.
//
// A raw token has the form "ao-" followed by 32 random bytes in unpadded
// base64url. The raw token is returned exactly once, by Manager.Create; the
// store only ever holds a keyed BLAKE2b-256 digest of it, so a leaked store
// dump cannot be replayed against the service.
//
// Store layout:
//
//	apikey:<digest>     JSON encoded Key
//	apikey_id:<id>      digest of the key with that id
//	apikeys             set of all key ids
//	apikey_names        set of all key names
//
// Keys are never cached: revoking a key removes its record, and the next
// GetByToken call returns ErrKeyNotFound.
//
// Basic usage:
//
//	hasher, err := apikey.NewHasher(secret)
//	if err != nil {
//	    return err
//	}
//	keys := apikey.NewManager(s, apikey.WithHasher(hasher), apikey.WithRoleChecker(roles))
//
//	key, token, err := keys.Create(ctx, apikey.CreateParams{
//	    Name:       "ci",
//	    Roles:      []string{"api"},
//	    AllowedIPs: []string{"10.0.0.0/8"},
//	})
package apikey
