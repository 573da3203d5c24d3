package ctxkeys

import (
	"context"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	TokenKey     contextKey = "token"
	RequestIDKey contextKey = "request_id"
)

// Token returns the verified bearer token of the request, if any.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}

func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
