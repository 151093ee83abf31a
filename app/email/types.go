package email

import (
	"time"
)

// RawMessage is the unprocessed inbound payload: either raw MIME source or a
// structured webhook payload. Exactly one of the two is set.
type RawMessage struct {
	MIMESource string
	Webhook    *WebhookPayload
}

func (r RawMessage) IsEmpty() bool {
	return r.MIMESource == "" && r.Webhook == nil
}

// WebhookPayload is the JSON object inbound-forwarding providers POST.
type WebhookPayload struct {
	Envelope    Envelope         `json:"envelope"`
	Subject     string           `json:"subject"`
	HTML        string           `json:"html,omitempty"`
	Text        string           `json:"text,omitempty"`
	Email       string           `json:"email,omitempty"` // full raw MIME source, when the provider includes it
	Timestamp   string           `json:"timestamp,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Attachments []AttachmentMeta `json:"attachments,omitempty"`
}

type Envelope struct {
	From string   `json:"from"`
	To   []string `json:"to"`
}

type Address struct {
	Name  string
	Email string
}

// AttachmentMeta describes an attachment. Content bytes are never retained.
type AttachmentMeta struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// ParsedEmail is the decoder output: structured headers plus the selected
// body parts.
type ParsedEmail struct {
	MessageID string
	Subject   string
	From      Address
	To        []Address
	Date      time.Time

	// Selected newsletter-relevant headers.
	ListUnsubscribe string
	ListID          string
	ReplyTo         string
	CampaignID      string
	Mailer          string

	HTMLBody string
	TextBody string

	Attachments []AttachmentMeta

	// Error is set when decoding degraded to best-effort placeholder values.
	Error string
}
