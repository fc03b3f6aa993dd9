package handlers

import (
	"context"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/repositories"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/services"
)

// MessageSender delivers a reply back to the chat.
type MessageSender interface {
	SendText(ctx context.Context, to, text string) error
}

// AuthConfig holds the single admin account of the dashboard.
type AuthConfig struct {
	Username     string
	PasswordHash string
	Secret       []byte
	TokenTTL     time.Duration
}

// Handlers carries the services the HTTP endpoints call into.
type Handlers struct {
	Conversation *services.ConversationService
	Sender       MessageSender
	Ledger       *repositories.LedgerRepository
	Catalog      *repositories.RouteCatalog
	Reports      *services.ReportService
	Sessions     services.SessionRegistry
	Auth         AuthConfig
}
