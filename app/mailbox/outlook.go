package mailbox

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const graphAPIBase = "https://graph.microsoft.com/v1.0/me"

type outlookClient struct {
	httpClient *http.Client
}

type graphListResponse struct {
	Value []struct {
		ID string `json:"id"`
	} `json:"value"`
}

func (c *outlookClient) ListMessageIDs(ctx context.Context, label string, max int) ([]string, error) {
	folder := label
	if folder == "" {
		folder = "inbox"
	}

	var list graphListResponse
	endpoint := fmt.Sprintf("%s/mailFolders/%s/messages?%s", graphAPIBase, url.PathEscape(folder),
		url.Values{"$top": {fmt.Sprintf("%d", max)}, "$select": {"id"}}.Encode())
	if err := getJSON(ctx, c.httpClient, endpoint, &list); err != nil {
		return nil, fmt.Errorf("outlook list: %w", err)
	}

	ids := make([]string, 0, len(list.Value))
	for _, m := range list.Value {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// FetchRaw downloads the full MIME source of a message via the $value
// endpoint.
func (c *outlookClient) FetchRaw(ctx context.Context, messageID string) (string, error) {
	endpoint := fmt.Sprintf("%s/messages/%s/$value", graphAPIBase, url.PathEscape(messageID))
	data, err := get(ctx, c.httpClient, endpoint, "text/plain")
	if err != nil {
		return "", fmt.Errorf("outlook fetch: %w", err)
	}
	return string(data), nil
}
