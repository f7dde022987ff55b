package context

import (
	"context"
	"strconv"
	"strings"

	"github.com/smallbiznis/agrimarket/internal/orgcontext"
)

type requestIDKey struct{}
type actorRoleKey struct{}

// WithRequestID stores the inbound request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey{}).(string); ok {
		return value
	}
	return ""
}

// WithActorRole stores the acting role resolved for the request.
func WithActorRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, actorRoleKey{}, strings.TrimSpace(role))
}

// ActorRoleFromContext returns the acting role or an empty string.
func ActorRoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(actorRoleKey{}).(string); ok {
		return value
	}
	return ""
}

// OrgIDFromContext returns the company ID as a string for log fields.
func OrgIDFromContext(ctx context.Context) string {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return ""
	}
	return strconv.FormatInt(int64(orgID), 10)
}
