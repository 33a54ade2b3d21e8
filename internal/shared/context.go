package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the request's cookie session in context.
// The session middleware installs it before any handler runs.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context, nil outside of
// a session-wrapped request.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
