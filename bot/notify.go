package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/ovoloshin/blogd/user"
)

// Sender delivers one outbound message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// WebhookSender posts outbound messages as JSON to a chat gateway webhook.
type WebhookSender struct {
	http *resty.Client
	url  string
}

// NewWebhookSender creates a sender targeting the given webhook URL.
func NewWebhookSender(url string) *WebhookSender {
	c := resty.New()
	c.SetTimeout(10 * time.Second)
	return &WebhookSender{http: c, url: url}
}

// Send posts {chat_id, text} to the webhook.
func (w *WebhookSender) Send(ctx context.Context, chatID, text string) error {
	resp, err := w.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"chat_id": chatID, "text": text}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook post returned %d", resp.StatusCode())
	}
	return nil
}

// Notifier fans a new-article announcement out to every subscriber.
type Notifier struct {
	sender Sender
}

// NewNotifier creates a notifier delivering through the given sender.
func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// NotifyNewArticle sends one message per subscriber. Delivery failures are
// logged and skipped; one unreachable subscriber never blocks the rest.
func (n *Notifier) NotifyNewArticle(ctx context.Context, title string, subscribers []user.User) {
	text := "New article was added to the blog: " + title
	for _, sub := range subscribers {
		if sub.ChatID == nil || *sub.ChatID == "" {
			continue
		}
		if err := n.sender.Send(ctx, *sub.ChatID, text); err != nil {
			log.Warn("failed to notify subscriber", "chat_id", *sub.ChatID, "err", err)
		}
	}
}
