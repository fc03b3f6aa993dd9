package handlers

import (
	"net/http"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/http/middleware"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsPersistence(err):
		utils.LogError(middleware.GetRequestID(c), "http", c.FullPath(), err)
		respondError(c, http.StatusServiceUnavailable, "ledger_unavailable", "no se pudo acceder al registro de ventas", nil)
	default:
		utils.LogError(middleware.GetRequestID(c), "http", c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "internal_error", "ocurrió un error interno", nil)
	}
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "empty_body", "cuerpo vacío", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "payload inválido", err.Error())
		return false
	}
	return true
}
