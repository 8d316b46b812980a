package tenancy

import "context"

type ctxKey string

const (
	businessKey ctxKey = "agenda.business_id"
	userKey     ctxKey = "agenda.user_id"
	requestKey  ctxKey = "agenda.request_id"
)

// WithBusinessID stores the business id in context.
func WithBusinessID(ctx context.Context, businessID uint) context.Context {
	return context.WithValue(ctx, businessKey, businessID)
}

// BusinessIDFromContext extracts the business id if present.
func BusinessIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(businessKey).(uint)
	return id, ok && id != 0
}

func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userKey).(uint)
	return id, ok && id != 0
}

// WithRequestID guarda o id da requisição para ser repassado ao serviço
// remoto.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestKey, requestID)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestKey).(string)
	return id, ok && id != ""
}
