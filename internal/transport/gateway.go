package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"
)

// Gateway posts outbound text messages to the messaging bridge that owns the
// WhatsApp connection. An empty BaseURL disables sending.
type Gateway struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewGateway(baseURL, token string) *Gateway {
	return &Gateway{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type sendTextRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// Enabled reports whether a bridge URL is configured.
func (g *Gateway) Enabled() bool {
	return g != nil && g.BaseURL != ""
}

// SendText delivers text to the chat identified by to.
func (g *Gateway) SendText(ctx context.Context, to, text string) error {
	if !g.Enabled() {
		return nil
	}
	if strings.TrimSpace(to) == "" || strings.TrimSpace(text) == "" {
		return domain.ValidationError{Field: "to", Msg: "recipient and text are required"}
	}

	body, err := json.Marshal(sendTextRequest{To: to, Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
