package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PubMedScanner/internal/domain"
	"PubMedScanner/internal/ports"
)

// Notifier sends digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// SendDigest posts a Markdown digest message to Telegram.
func (n *Notifier) SendDigest(ctx context.Context, digest domain.Digest) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", RenderMessage(digest))
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// RenderMessage builds a compact Markdown digest.
func RenderMessage(digest domain.Digest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s*: %d new article(s)\n\n", digest.Topic, len(digest.Articles))

	if len(digest.Articles) == 0 {
		b.WriteString("No new articles today.\n")
	}

	for _, article := range digest.Articles {
		fmt.Fprintf(&b, "*%s*\n%s (%s)\n%s\n", article.Title, article.Journal, article.PubDate, article.URL)
		for _, bullet := range article.Summary {
			fmt.Fprintf(&b, "%s\n", bullet)
		}
		b.WriteString("\n")
	}

	return b.String()
}
