package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/studio-agenda/internal/audit"
	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	"github.com/BruksfildServices01/studio-agenda/internal/config"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/handlers"
	"github.com/BruksfildServices01/studio-agenda/internal/metrics"
	"github.com/BruksfildServices01/studio-agenda/internal/middleware"
	"github.com/BruksfildServices01/studio-agenda/internal/optimistic"
	ucAppointment "github.com/BruksfildServices01/studio-agenda/internal/usecase/appointment"
)

// Deps são os singletons montados em main.
type Deps struct {
	DB          *gorm.DB
	Config      *config.Config
	Remote      domain.Remote
	Cache       cache.Store
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Audit       *audit.Dispatcher
	Coordinator *optimistic.Coordinator
	Receipts    ucAppointment.ReceiptArchiver
	Logger      zerolog.Logger
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	db, cfg := deps.DB, deps.Config

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORSMiddleware())

	// ======================================================
	// 🧠 USE CASES — APPOINTMENTS
	// ======================================================
	effects := &ucAppointment.Effects{
		Cache:    deps.Cache,
		Audit:    deps.Audit,
		Metrics:  deps.Metrics,
		Receipts: deps.Receipts,
		Logger:   deps.Logger,
	}

	ledgers := ucAppointment.NewLedgers(deps.Remote, time.Duration(cfg.SnapshotMaxAge)*time.Second)
	rewardsUC := ucAppointment.NewListRewards(deps.Remote)

	useCases := handlers.AppointmentUseCases{
		Create:     ucAppointment.NewCreateAppointment(deps.Remote, effects),
		Edit:       ucAppointment.NewEditAppointment(deps.Remote, effects),
		Status:     ucAppointment.NewChangeAppointmentStatus(deps.Remote, effects),
		Reactivate: ucAppointment.NewReactivateAppointment(deps.Remote, effects),
		Cancel:     ucAppointment.NewCancelAppointment(deps.Remote, effects),
		Complete:   ucAppointment.NewCompleteAppointment(deps.Remote, ledgers, effects),
		Delete:     ucAppointment.NewDeleteAppointment(deps.Remote, effects),
		List:       ucAppointment.NewListAppointments(deps.Remote, effects),
		Reschedule: ucAppointment.NewRescheduleOnCalendar(deps.Coordinator, effects),
		Revenue:    ucAppointment.NewDailyRevenue(deps.Remote, effects),
		Quote:      ucAppointment.NewQuotePrice(deps.Remote),
	}

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg, deps.Audit)
	meHandler := handlers.NewMeHandler(db)
	businessHandler := handlers.NewBusinessHandler(db, deps.Audit)

	serviceHandler := handlers.NewServiceHandler(db, deps.Audit)
	materialHandler := handlers.NewMaterialHandler(db, deps.Audit, ucAppointment.NewLowStock(ledgers))
	rewardHandler := handlers.NewRewardHandler(db, deps.Audit)
	clientHandler := handlers.NewClientHandler(db, deps.Audit, rewardsUC)

	appointmentHandler := handlers.NewAppointmentHandler(db, useCases)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// 🔧 OPERAÇÃO
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// 🔐 AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// 🔐 API PRIVADA
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)

			secured.GET("/me/business", businessHandler.GetMeBusiness)
			secured.PATCH("/me/business", businessHandler.UpdateMeBusiness)

			secured.GET("/me/clients", clientHandler.List)
			secured.POST("/me/clients", clientHandler.Create)
			secured.GET("/me/clients/:id", clientHandler.Get)
			secured.GET("/me/clients/:id/rewards", clientHandler.Rewards)

			secured.GET("/me/services", serviceHandler.List)
			secured.POST("/me/services", serviceHandler.Create)
			secured.PATCH("/me/services/:id", serviceHandler.Update)

			secured.GET("/me/materials", materialHandler.List)
			secured.GET("/me/materials/low-stock", materialHandler.LowStock)
			secured.POST("/me/materials", materialHandler.Create)
			secured.PATCH("/me/materials/:id", materialHandler.Update)
			secured.POST("/me/materials/:id/restock", materialHandler.Restock)

			secured.GET("/me/rewards", rewardHandler.List)
			secured.POST("/me/rewards", rewardHandler.Create)
			secured.PATCH("/me/rewards/:id", rewardHandler.Update)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.POST("/me/appointments", appointmentHandler.Create)
			secured.GET("/me/appointments", appointmentHandler.List)
			secured.PATCH("/me/appointments/:id", appointmentHandler.Edit)
			secured.PATCH("/me/appointments/:id/status", appointmentHandler.ChangeStatus)
			secured.PATCH("/me/appointments/:id/reactivate", appointmentHandler.Reactivate)
			secured.PATCH("/me/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/me/appointments/:id/complete", appointmentHandler.Complete)
			secured.PATCH("/me/appointments/:id/move", appointmentHandler.Move)
			secured.PATCH("/me/appointments/:id/resize", appointmentHandler.Resize)
			secured.GET("/me/appointments/:id/delete-confirmation", appointmentHandler.DeleteConfirmation)
			secured.DELETE("/me/appointments/:id", appointmentHandler.Delete)

			secured.POST("/me/quotes", appointmentHandler.Quote)
			secured.GET("/me/revenue/daily", appointmentHandler.DailyRevenue)

			secured.GET("/me/audit-logs", auditLogsHandler.List)
		}
	}
}
