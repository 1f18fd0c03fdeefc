// Package history fetches recent chat events from the external history
// service. The relay does not persist messages itself; whatever this API
// returns is forwarded to newly admitted sessions as a snapshot.
package history

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chatwire/chatwire/internal/protocol"
)

type Client struct {
	baseURL string
	limit   int
	client  *http.Client
}

// NewClient targets the given history endpoint. limit caps how many events
// a single fetch asks for.
func NewClient(baseURL string, limit int) *Client {
	return &Client{
		baseURL: baseURL,
		limit:   limit,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Recent fetches the most recent events, oldest first.
func (c *Client) Recent() ([]protocol.RawEvent, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("history url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(c.limit))
	u.RawQuery = q.Encode()

	resp, err := c.client.Get(u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GET %s: %d %s", u.Path, resp.StatusCode, string(body))
	}

	var events []protocol.RawEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return events, nil
}
