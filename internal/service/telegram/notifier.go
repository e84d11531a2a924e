package telegram

import (
	"context"
	"fmt"
	"time"

	domrepo "MarketSentry/internal/domain/repository"
	xhttp "MarketSentry/pkg/http"
	applogger "MarketSentry/pkg/logger"
)

const apiBase = "https://api.telegram.org"

// Notifier sends alert messages to a Telegram chat via the Bot API.
type Notifier struct {
	token  string
	chatID string
	http   *xhttp.Client
	l      *applogger.Logger
}

func New(token, chatID string, timeout time.Duration, l *applogger.Logger) domrepo.Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		token:  token,
		chatID: chatID,
		http:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		l:      l,
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts one message. The symbol becomes the message heading.
func (n *Notifier) Send(ctx context.Context, symbol, message string) error {
	if n.token == "" || n.chatID == "" {
		return fmt.Errorf("telegram not configured")
	}

	var resp sendMessageResponse
	err := n.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     fmt.Sprintf("%s/bot%s/sendMessage", apiBase, n.token),
		Headers: map[string]string{"Content-Type": "application/json"},
		Body: sendMessageRequest{
			ChatID: n.chatID,
			Text:   fmt.Sprintf("🚨 %s\n%s", symbol, message),
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram send: %s", resp.Description)
	}
	n.l.Debug("telegram message sent", applogger.String("symbol", symbol))
	return nil
}

// NoopNotifier is used when Telegram credentials are absent; alerts are still
// stored and logged, just not pushed.
type NoopNotifier struct {
	l *applogger.Logger
}

func NewNoop(l *applogger.Logger) domrepo.Notifier {
	return &NoopNotifier{l: l}
}

func (n *NoopNotifier) Send(ctx context.Context, symbol, message string) error {
	n.l.Info("alert (notifier disabled)",
		applogger.String("symbol", symbol),
		applogger.String("message", message),
	)
	return nil
}
