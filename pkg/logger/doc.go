// Package logger builds *slog.Logger values for the authorization service and
// defines the attribute vocabulary shared by every package.
//
// New applies functional options on top of production-safe defaults (JSON to
// stdout, info level) and returns a logger whose handler:
//
//   - redacts credential-bearing attributes (token, api_key, authorization,
//     secret, password) so raw API keys never reach log storage;
//   - appends attributes pulled from the request context by registered
//     ContextExtractor functions, such as the request id.
//
// Environment presets select level and format:
//
//	log := logger.New(
//		logger.WithEnvironment(os.Getenv("APP_ENV"), "authzd"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers keep key names consistent across packages:
//
//	log.WarnContext(ctx, "access denied",
//		logger.KeyID(keyID),
//		logger.Permission("reports:write"),
//		logger.Reason("insufficient_permission"),
//	)
//
// Helpers return an empty slog.Attr for empty input, and slog drops empty
// attributes, so callers need no nil or empty checks.
package logger
