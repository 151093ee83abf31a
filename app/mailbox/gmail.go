package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const gmailAPIBase = "https://gmail.googleapis.com/gmail/v1/users/me"

type gmailClient struct {
	httpClient *http.Client
}

type gmailListResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type gmailMessageResponse struct {
	ID  string `json:"id"`
	Raw string `json:"raw"` // base64url-encoded MIME source
}

func (c *gmailClient) ListMessageIDs(ctx context.Context, label string, max int) ([]string, error) {
	query := url.Values{}
	query.Set("maxResults", fmt.Sprintf("%d", max))
	if label != "" {
		query.Set("labelIds", label)
	} else {
		query.Set("labelIds", "INBOX")
	}

	var list gmailListResponse
	endpoint := fmt.Sprintf("%s/messages?%s", gmailAPIBase, query.Encode())
	if err := getJSON(ctx, c.httpClient, endpoint, &list); err != nil {
		return nil, fmt.Errorf("gmail list: %w", err)
	}

	ids := make([]string, 0, len(list.Messages))
	for _, m := range list.Messages {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (c *gmailClient) FetchRaw(ctx context.Context, messageID string) (string, error) {
	var msg gmailMessageResponse
	endpoint := fmt.Sprintf("%s/messages/%s?format=raw", gmailAPIBase, url.PathEscape(messageID))
	if err := getJSON(ctx, c.httpClient, endpoint, &msg); err != nil {
		return "", fmt.Errorf("gmail fetch: %w", err)
	}

	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(msg.Raw)
	if err != nil {
		return "", fmt.Errorf("gmail raw decode: %w", err)
	}
	return string(decoded), nil
}

func decodeJSON(data []byte, out interface{}) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}
	return nil
}
