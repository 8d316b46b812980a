package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/studio-agenda/internal/audit"
	"github.com/BruksfildServices01/studio-agenda/internal/middleware"
	"github.com/BruksfildServices01/studio-agenda/internal/tenancy"
)

// Auditor é satisfeito por *audit.Dispatcher.
type Auditor interface {
	Dispatch(ev audit.Event)
}

// writeAudit registra uma mudança de cadastro feita pelo usuário logado.
func writeAudit(
	d Auditor,
	c *gin.Context,
	action string,
	entity string,
	entityID *uint,
	meta any,
) {
	if d == nil {
		return
	}

	businessID := c.GetUint(middleware.ContextBusinessID)

	var userID *uint
	if id := c.GetUint(middleware.ContextUserID); id != 0 {
		userID = &id
	}

	requestID, _ := tenancy.RequestIDFromContext(c.Request.Context())

	d.Dispatch(audit.Event{
		BusinessID: businessID,
		UserID:     userID,
		RequestID:  requestID,
		Action:     action,
		Entity:     entity,
		EntityID:   entityID,
		Metadata:   meta,
	})
}
