package audio

import "context"

type userGestureKey struct{}

// WithUserGesture marks ctx as originating from an explicit user action.
// Players may refuse to start audio without one.
func WithUserGesture(ctx context.Context) context.Context {
	return context.WithValue(ctx, userGestureKey{}, true)
}

func IsUserGesture(ctx context.Context) bool {
	gesture, _ := ctx.Value(userGestureKey{}).(bool)
	return gesture
}
