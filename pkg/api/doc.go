// Package api exposes the authorization engine and its administration over HTTP.
//
// Routes:
//
//	POST   /v1/authorize                     decide a single request (for gateways)
//	GET    /v1/roles                         list roles, base roles first
//	POST   /v1/roles                         create a role
//	GET    /v1/roles/{name}                  role definition
//	GET    /v1/roles/{name}/effective        effective permission set
//	PUT    /v1/roles/{name}                  replace a role definition
//	DELETE /v1/roles/{name}                  delete a role
//	POST   /v1/roles/{name}/permissions      grant a permission
//	DELETE /v1/roles/{name}/permissions      revoke ?permission=
//	GET    /v1/keys                          list API keys
//	POST   /v1/keys                          create a key, the raw token is returned once
//	GET    /v1/keys/{id}                     key metadata
//	PATCH  /v1/keys/{id}                     toggle active, replace roles or allow-list
//	DELETE /v1/keys/{id}                     revoke a key
//	GET    /v1/audit                         query audit events
//	GET    /v1/audit/export                  matching events as JSON lines
//
// Administration routes are themselves guarded by authz.Middleware with the permissions
// roles:read, roles:write, keys:read, keys:write and audit:read.
package api
