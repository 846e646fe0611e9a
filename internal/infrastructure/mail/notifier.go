package mail

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"PubMedScanner/internal/config"
	"PubMedScanner/internal/domain"
	"PubMedScanner/internal/ports"
)

// Notifier sends the digest as a plain-text email over SMTP with
// STARTTLS (the Gmail app-password flow of the original setup).
type Notifier struct {
	host     string
	port     int
	from     string
	password string
	to       string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier wires SMTP credentials and the recipient address.
func NewNotifier(cfg config.MailConfig) *Notifier {
	return &Notifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.From,
		password: cfg.Password,
		to:       cfg.To,
		send:     smtp.SendMail,
	}
}

// SendDigest builds and sends the digest email. The error propagates so
// the pipeline can withhold its ledger commit.
func (n *Notifier) SendDigest(ctx context.Context, digest domain.Digest) error {
	if n.host == "" || n.from == "" || n.to == "" {
		return fmt.Errorf("mail notifier misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("[PubMed] %s - %s", digest.Topic, digest.Date.Format("2006-01-02"))

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", n.to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(RenderBody(digest))

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.from, n.password, n.host)
	if err := n.send(addr, auth, n.from, []string{n.to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send digest mail: %w", err)
	}

	return nil
}

// RenderBody lays out the digest body: a per-article block with
// metadata, links, and summary bullets, then a ledger stats footer.
func RenderBody(digest domain.Digest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New article digest - %s\n\n", digest.Topic)
	fmt.Fprintf(&b, "%d new article(s) today.\n\n", len(digest.Articles))

	if len(digest.Articles) == 0 {
		b.WriteString("No new articles were found in the monitored journals.\n\n")
	}

	for i, article := range digest.Articles {
		fmt.Fprintf(&b, "[Article %d]\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", article.Title)
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(article.Authors, ", "))
		fmt.Fprintf(&b, "Journal: %s\n", article.Journal)
		fmt.Fprintf(&b, "Published: %s\n", article.PubDate)
		fmt.Fprintf(&b, "PubMed: %s\n", article.URL)
		if article.DOI != "" {
			fmt.Fprintf(&b, "DOI: https://doi.org/%s\n", article.DOI)
		}
		b.WriteString("\nSummary (AI generated):\n")
		for _, bullet := range article.Summary {
			fmt.Fprintf(&b, "%s\n", bullet)
		}
		b.WriteString("\n---\n\n")
	}

	if digest.Stats.TotalSent > 0 {
		fmt.Fprintf(&b, "Ledger: %d article(s) notified since %s.\n",
			digest.Stats.TotalSent,
			digest.Stats.Oldest.Format("2006-01-02"))
	}

	return b.String()
}
