// Package authz decides whether an API key may perform an action.
//
// Engine.Check runs three stages for every request:
//
//  1. authenticate: the token must name an active, unexpired key;
//  2. restrict: a key with an IP allow-list only works from inside it;
//  3. authorize: the key's roles must grant the requested permission.
//
// Every failure is a denial. Store errors deny with ReasonStoreUnavailable and
// are logged at error level, apart from policy denials logged at warn level.
// Each Check emits exactly one audit event whose outcome matches the decision.
//
// Returned errors join a kind with a detail, so both of these hold:
//
//	errors.Is(err, authz.ErrAuthentication)
//	errors.Is(err, authz.ErrKeyExpired)
//
// Usage:
//
//	engine := authz.NewEngine(keys, resolver,
//	    authz.WithLogger(log),
//	    authz.WithEmitter(emitter),
//	)
//
//	d, err := engine.Check(ctx, authz.Request{
//	    Token:      token,
//	    ClientIP:   "10.1.2.3",
//	    Permission: "reports:write",
//	    Resource:   authz.Resource{Type: "report", ID: "42"},
//	})
//	if !d.Allowed {
//	    return err
//	}
//
// Or as HTTP middleware:
//
//	r.With(authz.Middleware(engine, "reports:write")).Post("/reports", create)
package authz
