package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/http/middleware"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/gin-gonic/gin"
)

type webhookMedia struct {
	MimeType string `json:"mime_type" binding:"required"`
	Data     string `json:"data" binding:"required,base64"`
	Filename string `json:"filename"`
}

type webhookMessage struct {
	Sender  string        `json:"sender" binding:"required"`
	Text    string        `json:"text"`
	IsGroup bool          `json:"is_group"`
	Media   *webhookMedia `json:"media"`
}

// POST /webhook/messages
//
// The bridge posts every inbound chat message here. The reply is sent back
// through the gateway and also returned in the body.
func (h *Handlers) Webhook(c *gin.Context) {
	var req webhookMessage
	if !BindJSONOrError(c, &req) {
		return
	}
	rid := middleware.GetRequestID(c)

	ev := models.InboundEvent{
		SenderID: req.Sender,
		Text:     req.Text,
		IsGroup:  req.IsGroup,
	}
	if req.Media != nil {
		data, err := base64.StdEncoding.DecodeString(req.Media.Data)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_media", "adjunto inválido", nil)
			return
		}
		ev.Media = &models.Media{MimeType: req.Media.MimeType, Filename: req.Media.Filename, Data: data}
	}

	// a ledger failure still yields the retry reply, so it is sent as usual
	reply, err := h.Conversation.Handle(utils.WithRequestID(c.Request.Context(), rid), ev)
	if err != nil {
		utils.LogError(rid, "webhook", "handle", err)
	}
	if reply == "" {
		c.JSON(http.StatusOK, gin.H{"reply": "", "ignored": true, "request_id": rid})
		return
	}

	delivered := false
	if h.Sender != nil {
		if err := h.Sender.SendText(c.Request.Context(), ev.SenderID, reply); err != nil {
			utils.LogError(rid, "webhook", "send_reply", err)
		} else {
			delivered = true
		}
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply, "delivered": delivered, "request_id": rid})
}
