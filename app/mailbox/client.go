// Package mailbox fetches raw messages from OAuth-backed provider mailboxes
// (Gmail, Outlook). Token acquisition and refresh are an external concern;
// clients consume an already-valid access token.
package mailbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Client lists and fetches raw MIME messages from a provider mailbox.
type Client interface {
	ListMessageIDs(ctx context.Context, label string, max int) ([]string, error)
	FetchRaw(ctx context.Context, messageID string) (string, error)
}

// NewClient returns the provider client for a source type.
func NewClient(sourceType, accessToken string, timeout time.Duration) (Client, error) {
	httpClient := oauth2.NewClient(context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	httpClient.Timeout = timeout

	switch sourceType {
	case "gmail":
		return &gmailClient{httpClient: httpClient}, nil
	case "outlook":
		return &outlookClient{httpClient: httpClient}, nil
	default:
		return nil, fmt.Errorf("unsupported mailbox source type: %s", sourceType)
	}
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	body, err := get(ctx, client, url, "application/json")
	if err != nil {
		return err
	}
	return decodeJSON(body, out)
}

func get(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}
