package auth

import "context"

type contextKey string

const userIDContextKey contextKey = "splitfit-user-id"

// ContextWithUserID is used by the auth middleware to attach the
// authenticated user to the request context.
func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int)
	return userID, ok
}
