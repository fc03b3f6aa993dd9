package handlers

import (
	"net/http"
	"strings"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/http/middleware"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/services"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/reservations?status=&document=
func (h *Handlers) ListReservations(c *gin.Context) {
	var status models.Status
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		s, err := models.ParseStatus(v)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		status = s
	}
	doc := utils.DigitsOnly(c.Query("document"))

	records, err := h.Ledger.LoadAll(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out := make([]models.Reservation, 0, len(records))
	for _, r := range records {
		if status != "" && r.Status != status {
			continue
		}
		if doc != "" && r.DocumentID != doc {
			continue
		}
		out = append(out, r)
	}
	c.JSON(http.StatusOK, gin.H{"reservations": out, "count": len(out)})
}

// GET /api/admin/reservations/:id/ticket
func (h *Handlers) ReservationTicket(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	records, err := h.Ledger.LoadAll(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	var found *models.Reservation
	for i := range records {
		if records[i].ID == id {
			found = &records[i]
			break
		}
	}
	if found == nil {
		RespondDomainError(c, domain.NotFoundError{Resource: "reservation " + id})
		return
	}
	if found.Status != models.StatusPaymentConfirmed {
		respondError(c, http.StatusConflict, "payment_pending", "el pago aún no está confirmado", nil)
		return
	}

	pdfBytes, filename, err := services.GenerateTicket(*found)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Msg: "no se pudo generar el tiquete", Err: err})
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// GET /api/admin/reports/preview
func (h *Handlers) ReportPreview(c *gin.Context) {
	sum, _, err := h.Reports.Preview(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// POST /api/admin/reports/run
func (h *Handlers) ReportRun(c *gin.Context) {
	rc, _ := middleware.GetAuth(c)
	utils.LogEvent(middleware.GetRequestID(c), "report", "manual_run", "by="+rc.Username)

	res, err := h.Reports.Run(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
