package audit

import "context"

type sourceCtxKey struct{}

// ContextWithSource marks the entry point of calls made with ctx.
// Listeners stamp it on the events they emit.
func ContextWithSource(ctx context.Context, s Source) context.Context {
	return context.WithValue(ctx, sourceCtxKey{}, s)
}

// SourceFromContext returns the source set by ContextWithSource, or SourceAPI.
func SourceFromContext(ctx context.Context) Source {
	if s, ok := ctx.Value(sourceCtxKey{}).(Source); ok && s != "" {
		return s
	}
	return SourceAPI
}
