package extraction

import (
	"context"

	"policyvault-backend/internal/shared/server/middleware"
)

func requestIDFromContext(ctx context.Context) string {
	return middleware.RequestIDFromRequestContext(ctx)
}

// backgroundWithRequestID detaches from the request's cancellation while
// keeping its request ID for log correlation.
func backgroundWithRequestID(ctx context.Context) context.Context {
	id := requestIDFromContext(ctx)
	if id == "" {
		return context.Background()
	}
	return middleware.ContextWithRequestID(context.Background(), id)
}
