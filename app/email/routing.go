package email

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// RoutingInfo extracts the recipient addresses and Message-Id from a raw
// message without running a full decode. The webhook intake uses it to route
// a message to a forwarding source and to key the seen-filter before the
// processing task is enqueued.
func RoutingInfo(raw RawMessage) (recipients []string, messageID string) {
	if raw.Webhook != nil {
		for _, to := range raw.Webhook.Envelope.To {
			recipients = append(recipients, ParseAddressString(to).Email)
		}
		for k, v := range raw.Webhook.Headers {
			if strings.EqualFold(k, "Message-Id") {
				messageID = strings.Trim(v, "<>")
				break
			}
		}
		return recipients, messageID
	}

	if raw.MIMESource == "" {
		return nil, ""
	}

	mr, err := mail.CreateReader(strings.NewReader(raw.MIMESource))
	if err != nil {
		return nil, ""
	}

	if to, err := mr.Header.AddressList("To"); err == nil {
		for _, addr := range to {
			recipients = append(recipients, strings.ToLower(addr.Address))
		}
	}
	if id, err := mr.Header.MessageID(); err == nil {
		messageID = id
	}

	return recipients, messageID
}
