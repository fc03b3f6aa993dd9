package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "chatbot en ejecución"})
}

// Routes lists the public route catalog with fares and departure times.
func (h *Handlers) Routes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": h.Catalog.ListRoutes()})
}

// GET /api/admin/sessions
func (h *Handlers) SessionCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"active": h.Sessions.Count()})
}
