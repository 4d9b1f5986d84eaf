package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/OpenSundsvall/api-service-case-data/internal/http/handlers"
	httpMW "github.com/OpenSundsvall/api-service-case-data/internal/http/middleware"
	"github.com/OpenSundsvall/api-service-case-data/internal/observability"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	ErrandHandler  *httpH.ErrandHandler
	HistoryHandler *httpH.HistoryHandler
	HealthHandler  *httpH.HealthHandler
}

// historyCollections are the entity collections that expose /:id/history.
var historyCollections = []string{"errands", "attachments", "decisions", "facilities", "notes", "stakeholders"}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachAttribution())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// Errands
	if h := cfg.ErrandHandler; h != nil {
		errands := r.Group("/errands")
		errands.POST("", h.CreateErrand)
		errands.GET("/:id", h.GetErrand)
		errands.PATCH("/:id", h.PatchErrand)

		errands.GET("/:id/decisions", h.GetDecisions)
		errands.GET("/:id/stakeholders", h.GetStakeholders)
		errands.GET("/:id/stakeholders/:childId", h.GetStakeholder)
		errands.GET("/:id/attachments/:childId", h.GetAttachment)
		errands.GET("/:id/decisions/:childId", h.GetDecision)
		errands.GET("/:id/notes/:childId", h.GetNote)
		errands.GET("/:id/message-ids", h.GetMessageIDs)
		errands.PATCH("/:id/message-ids", h.AppendMessageIDs)

		errands.PATCH("/:id/stakeholders", h.AddStakeholder)
		errands.PATCH("/:id/attachments", h.AddAttachment)
		errands.PATCH("/:id/decisions", h.AddDecision)
		errands.PATCH("/:id/notes", h.AddNote)
		errands.PATCH("/:id/stakeholders/:childId", h.UpdateStakeholder)
		errands.PATCH("/:id/decisions/:childId", h.UpdateDecision)
		errands.PATCH("/:id/notes/:childId", h.UpdateNote)
		errands.PATCH("/:id/statuses", h.AddStatus)

		errands.PUT("/:id/stakeholders", h.ReplaceStakeholders)
		errands.PUT("/:id/attachments", h.ReplaceAttachments)
		errands.PUT("/:id/statuses", h.ReplaceStatuses)
		errands.PUT("/:id/stakeholders/:childId", h.ReplaceStakeholder)
		errands.PUT("/:id/attachments/:childId", h.ReplaceAttachment)
		errands.PUT("/:id/decisions/:childId", h.ReplaceDecision)
		errands.PUT("/:id/notes/:childId", h.ReplaceNote)

		errands.DELETE("/:id/stakeholders/:childId", h.DeleteStakeholder)
		errands.DELETE("/:id/attachments/:childId", h.DeleteAttachment)
		errands.DELETE("/:id/decisions/:childId", h.DeleteDecision)
		errands.DELETE("/:id/notes/:childId", h.DeleteNote)
	}

	// History
	if h := cfg.HistoryHandler; h != nil {
		for _, collection := range historyCollections {
			r.GET("/"+collection+"/:id/history", h.EntityHistory(collection))
		}
	}

	return r
}
