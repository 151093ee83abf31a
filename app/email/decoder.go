package email

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/emersion/go-message/mail"
)

// Decoder turns a RawMessage into a ParsedEmail. Decoding never fails past
// this boundary: malformed input degrades to a best-effort ParsedEmail with
// placeholder fields and the Error field set.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Run(raw RawMessage) ParsedEmail {
	var parsed ParsedEmail
	var err error

	switch {
	case raw.MIMESource != "":
		parsed, err = d.decodeMIME(raw.MIMESource)
	case raw.Webhook != nil:
		parsed, err = d.decodeWebhook(raw.Webhook)
	default:
		err = fmt.Errorf("raw message is empty")
	}

	if err != nil {
		slog.Warn("Message decode degraded", "error", err)
		return degradedEmail(err)
	}

	return parsed
}

func (d *Decoder) decodeMIME(source string) (ParsedEmail, error) {
	mr, err := mail.CreateReader(strings.NewReader(source))
	if err != nil {
		return ParsedEmail{}, fmt.Errorf("failed to create MIME reader: %w", err)
	}

	parsed := ParsedEmail{
		Subject: "Unknown",
		Date:    time.Now().UTC(),
	}

	if subject, err := mr.Header.Subject(); err == nil && subject != "" {
		parsed.Subject = subject
	}

	if msgID, err := mr.Header.MessageID(); err == nil {
		parsed.MessageID = msgID
	}

	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		parsed.Date = date.UTC()
	}

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		parsed.From = toAddress(from[0].Name, from[0].Address)
	} else {
		parsed.From = Address{Name: "Unknown", Email: "unknown@unknown"}
	}

	if to, err := mr.Header.AddressList("To"); err == nil {
		for _, addr := range to {
			parsed.To = append(parsed.To, toAddress(addr.Name, addr.Address))
		}
	}

	parsed.ListUnsubscribe = mr.Header.Get("List-Unsubscribe")
	parsed.ListID = mr.Header.Get("List-Id")
	parsed.ReplyTo = mr.Header.Get("Reply-To")
	parsed.CampaignID = firstHeader(mr.Header.Get, "X-Campaign-Id", "X-Mailchimp-Campaign", "X-Mailgun-Campaign-Id")
	parsed.Mailer = firstHeader(mr.Header.Get, "X-Mailer", "User-Agent")

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A broken part does not discard what was already decoded.
			slog.Warn("Failed to read MIME part, stopping part walk", "error", err)
			break
		}

		switch header := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, err := header.ContentType()
			if err != nil {
				continue
			}
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch contentType {
			case "text/html":
				if parsed.HTMLBody == "" {
					parsed.HTMLBody = string(body)
				}
			case "text/plain":
				if parsed.TextBody == "" {
					parsed.TextBody = string(body)
				}
			}
		case *mail.AttachmentHeader:
			filename, _ := header.Filename()
			contentType, _, _ := header.ContentType()
			// Count attachment bytes, then discard them.
			size, _ := io.Copy(io.Discard, part.Body)
			parsed.Attachments = append(parsed.Attachments, AttachmentMeta{
				Filename:    filename,
				ContentType: contentType,
				Size:        size,
			})
		}
	}

	return parsed, nil
}

func (d *Decoder) decodeWebhook(payload *WebhookPayload) (ParsedEmail, error) {
	// Some providers include the full raw MIME source; prefer it.
	if payload.Email != "" {
		parsed, err := d.decodeMIME(payload.Email)
		if err == nil {
			return parsed, nil
		}
		slog.Warn("Webhook raw MIME unparseable, using structured fields", "error", err)
	}

	parsed := ParsedEmail{
		Subject: payload.Subject,
		From:    ParseAddressString(payload.Envelope.From),
		Date:    time.Now().UTC(),

		HTMLBody: payload.HTML,
		TextBody: payload.Text,

		Attachments: payload.Attachments,
	}

	if parsed.Subject == "" {
		parsed.Subject = "Unknown"
	}

	for _, to := range payload.Envelope.To {
		parsed.To = append(parsed.To, ParseAddressString(to))
	}

	if payload.Timestamp != "" {
		if date, err := dateparse.ParseAny(payload.Timestamp); err == nil {
			parsed.Date = date.UTC()
		} else {
			slog.Warn("Unparseable webhook timestamp, using current time", "timestamp", payload.Timestamp)
		}
	}

	headerGet := func(key string) string {
		for k, v := range payload.Headers {
			if strings.EqualFold(k, key) {
				return v
			}
		}
		return ""
	}
	parsed.MessageID = strings.Trim(headerGet("Message-Id"), "<>")
	parsed.ListUnsubscribe = headerGet("List-Unsubscribe")
	parsed.ListID = headerGet("List-Id")
	parsed.ReplyTo = headerGet("Reply-To")
	parsed.CampaignID = firstHeader(headerGet, "X-Campaign-Id", "X-Mailchimp-Campaign", "X-Mailgun-Campaign-Id")
	parsed.Mailer = firstHeader(headerGet, "X-Mailer", "User-Agent")

	return parsed, nil
}

// ParseAddressString parses envelope address strings: either
// "Display Name <addr@domain>" or a bare address, whose localpart becomes the
// display name. Email addresses are lower-cased.
func ParseAddressString(raw string) Address {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{Name: "Unknown", Email: "unknown@unknown"}
	}

	if open := strings.LastIndex(raw, "<"); open >= 0 {
		end := strings.LastIndex(raw, ">")
		if end > open {
			name := strings.Trim(strings.TrimSpace(raw[:open]), `"`)
			addr := strings.ToLower(strings.TrimSpace(raw[open+1 : end]))
			if name == "" {
				return toAddress("", addr)
			}
			return Address{Name: name, Email: addr}
		}
	}

	return toAddress("", strings.ToLower(raw))
}

// toAddress lower-cases the address and defaults the display name to the
// localpart.
func toAddress(name, addr string) Address {
	addr = strings.ToLower(strings.TrimSpace(addr))
	name = strings.TrimSpace(name)
	if name == "" {
		if at := strings.Index(addr, "@"); at > 0 {
			name = addr[:at]
		} else {
			name = addr
		}
	}
	return Address{Name: name, Email: addr}
}

// SenderBaseURL derives the base URL used to resolve relative links from the
// sender's domain.
func SenderBaseURL(from Address) string {
	at := strings.Index(from.Email, "@")
	if at < 0 || at == len(from.Email)-1 {
		return ""
	}
	return "https://" + from.Email[at+1:]
}

func firstHeader(get func(string) string, keys ...string) string {
	for _, key := range keys {
		if v := get(key); v != "" {
			return v
		}
	}
	return ""
}

func degradedEmail(err error) ParsedEmail {
	return ParsedEmail{
		Subject: "Unknown",
		From:    Address{Name: "Unknown", Email: "unknown@unknown"},
		Date:    time.Now().UTC(),
		Error:   err.Error(),
	}
}
