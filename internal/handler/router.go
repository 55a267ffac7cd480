package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nextlevel-sports/academy-api/internal/middleware"
	"github.com/nextlevel-sports/academy-api/internal/service"
	"github.com/nextlevel-sports/academy-api/pkg/config"
)

// Handlers groups every endpoint handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Agenda      *AgendaHandler
	Lessons     *LessonHandler
	Blocks      *BlockHandler
	Contracts   *ContractHandler
	Receivables *ReceivableHandler
	Commissions *CommissionHandler
	Users       *UserHandler
	Students    *StudentHandler
	Metrics     *MetricsHandler
}

// Register mounts all routes under the configured API prefix. When JWT
// enforcement is on, everything except login, student enrollment and the
// observability endpoints requires a valid token.
func Register(r *gin.Engine, cfg *config.Config, h *Handlers, auth *service.AuthService) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/students", h.Students.Register)

	protected := api.Group("")
	if cfg.JWT.Required {
		protected.Use(middleware.JWT(auth))
	} else {
		protected.Use(middleware.OptionalJWT(auth))
	}

	protected.GET("/auth/me", h.Auth.Me)

	protected.GET("/agenda", h.Agenda.Day)
	protected.GET("/agenda/availability", h.Agenda.Availability)
	protected.GET("/agenda/export", h.Agenda.Export)

	protected.POST("/lessons", h.Lessons.Create)
	protected.PUT("/lessons/:id/reschedule", h.Lessons.Reschedule)
	protected.PATCH("/lessons/:id/status", h.Lessons.UpdateStatus)
	protected.POST("/lessons/:id/discount", h.Lessons.Discount)
	protected.DELETE("/lessons/:id", h.Lessons.Delete)

	protected.GET("/blocks", h.Blocks.List)
	protected.POST("/blocks", h.Blocks.CreateBatch)
	protected.DELETE("/blocks/:id", h.Blocks.Delete)

	protected.GET("/contracts/:id", h.Contracts.Get)
	protected.POST("/contracts", h.Contracts.Create)
	protected.PUT("/contracts/:id", h.Contracts.Update)
	protected.DELETE("/contracts/:id", h.Contracts.Delete)
	protected.POST("/contracts/:id/materialize", h.Contracts.Materialize)

	protected.GET("/receivables", h.Receivables.List)
	protected.POST("/receivables/:id/pay", h.Receivables.MarkPaid)

	protected.GET("/commissions/report", h.Commissions.Report)
	protected.GET("/commissions/rules", h.Commissions.ListRules)
	protected.PUT("/commissions/rules", h.Commissions.UpsertRule)
	protected.DELETE("/commissions/rules/:id", h.Commissions.DeleteRule)

	protected.GET("/users", h.Users.List)
	protected.POST("/users", h.Users.Create)

	protected.GET("/students", h.Students.List)
	protected.GET("/students/:id", h.Students.Snapshot)
	protected.GET("/students/:id/contracts", h.Contracts.ListByStudent)
}
