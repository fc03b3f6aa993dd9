package api

import (
	stdhttp "net/http"

	intconfig "github.com/Angelicablandonn/chatbot-whatsapp/internal/config"
	h "github.com/Angelicablandonn/chatbot-whatsapp/internal/http/handlers"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/http/middleware"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env, hs *h.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Log.Warnf("failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "ruta no encontrada",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.POST("/webhook/messages", middleware.WebhookToken(env.WebhookToken), hs.Webhook)

	api := r.Group("/api")
	{
		api.GET("/health", hs.Health)
		api.GET("/routes", hs.Routes)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", hs.Login)

		// Admin
		admin := api.Group("/admin", middleware.RequireAdmin([]byte(env.JWTSecret)))
		admin.GET("/reservations", hs.ListReservations)
		admin.GET("/reservations/:id/ticket", hs.ReservationTicket)
		admin.GET("/reports/preview", hs.ReportPreview)
		admin.POST("/reports/run", hs.ReportRun)
		admin.GET("/sessions", hs.SessionCount)
	}

	return r
}
