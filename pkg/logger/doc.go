// Package logger builds *slog.Logger instances for flagkit services and
// provides attribute helpers so feature, group and audit fields are named the
// same way in every component.
//
// New applies functional options (format, level, output, static attributes,
// context extractors) and wraps the chosen slog handler with
// LogHandlerDecorator, which injects attributes pulled from context on every
// record.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "flagkit"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.InfoContext(ctx, "feature toggled",
//	    logger.FeatureUID("beta"),
//	    logger.Action("TOGGLE_ON"),
//	)
//
// Components accept an optional *slog.Logger and fall back to Discard.
// Error and Group return an empty slog.Attr for nil or empty input, so they
// can be passed without nil checks.
package logger
