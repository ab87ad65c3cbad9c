package apikey

import "errors"

var (
	// ErrKeyNotFound is returned when no key matches the token or id.
	ErrKeyNotFound = errors.New("apikey.not_found")

	// ErrNameTaken is returned when creating a key with a name already in use.
	ErrNameTaken = errors.New("apikey.name_taken")

	// ErrInvalidKey is returned for malformed key parameters.
	ErrInvalidKey = errors.New("apikey.invalid")

	// ErrInvalidSecret is returned when the hashing secret is unusable.
	ErrInvalidSecret = errors.New("apikey.invalid_secret")

	// ErrTokenGeneration is returned when random token generation fails.
	ErrTokenGeneration = errors.New("apikey.token_generation_failed")
)
