package httpx

import "context"

// clientIDKey is an unexported context key type to avoid collisions.
type clientIDKey struct{}

// SetClientIDInContext stores the browser's client id in the context.
func SetClientIDInContext(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// ClientIDFromContext returns the client id set by the ClientID middleware.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey{}).(string)
	return id, ok && id != ""
}
