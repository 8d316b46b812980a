package appointment

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/archive"
	"github.com/BruksfildServices01/studio-agenda/internal/audit"
	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	"github.com/BruksfildServices01/studio-agenda/internal/metrics"
	"github.com/BruksfildServices01/studio-agenda/internal/tenancy"
)

// Auditor recebe os eventos de auditoria (*audit.Dispatcher em produção).
type Auditor interface {
	Dispatch(ev audit.Event)
}

// ReceiptArchiver guarda o recibo de um atendimento concluído.
type ReceiptArchiver interface {
	Archive(ctx context.Context, r archive.Receipt) (string, error)
}

// Effects é o que todo gesto faz depois que o serviço remoto confirma.
type Effects struct {
	Cache    cache.Store
	Audit    Auditor
	Metrics  *metrics.Metrics
	Receipts ReceiptArchiver
	Logger   zerolog.Logger
	Now      func() time.Time
}

func (e *Effects) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// scope lê estabelecimento e usuário do contexto.
func scope(ctx context.Context) (uint, *uint, error) {
	businessID, ok := tenancy.BusinessIDFromContext(ctx)
	if !ok {
		return 0, nil, apperr.Validation("business_required", "Estabelecimento não identificado.")
	}

	var userID *uint
	if id, ok := tenancy.UserIDFromContext(ctx); ok {
		userID = &id
	}
	return businessID, userID, nil
}

// committed invalida o cache do estabelecimento e registra a auditoria.
// Falha de invalidação só é logada: o remoto já confirmou a mudança.
func (e *Effects) committed(ctx context.Context, businessID uint, userID *uint, action string, entityID uint, meta any) {
	if e.Cache != nil {
		if err := cache.InvalidateBusiness(ctx, e.Cache, businessID); err != nil {
			e.Logger.Error().Err(err).
				Uint("business_id", businessID).
				Str("action", action).
				Msg("cache invalidation failed")
		}
	}

	e.record(ctx, businessID, userID, action, entityID, meta)
}

// record só enfileira a auditoria, sem tocar no cache.
func (e *Effects) record(ctx context.Context, businessID uint, userID *uint, action string, entityID uint, meta any) {
	if e.Audit == nil {
		return
	}

	requestID, _ := tenancy.RequestIDFromContext(ctx)
	id := entityID
	e.Audit.Dispatch(audit.Event{
		BusinessID: businessID,
		UserID:     userID,
		RequestID:  requestID,
		Action:     action,
		Entity:     "appointment",
		EntityID:   &id,
		Metadata:   meta,
	})
}

// outcome é o rótulo de métrica de um resultado; códigos livres do remoto
// viram "rejected".
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperr.IsNetwork(err):
		return "network_error"
	case apperr.IsValidation(err):
		return "rejected"
	}
	if code, ok := apperr.CodeOf(err); ok {
		return code
	}
	return "error"
}
