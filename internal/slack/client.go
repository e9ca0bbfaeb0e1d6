// Package slack posts messages back to Slack interaction response URLs.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// ExpiredURLError is the error Slack returns once a response_url can no longer be used.
const ExpiredURLError = "Expired url"

// maxResponseBody caps how much of a response body is kept for logging.
const maxResponseBody = 64 << 10

// ResponseTypeEphemeral makes a message visible only to the user who triggered the interaction.
const ResponseTypeEphemeral = "ephemeral"

// Message is the payload posted to a response URL.
type Message struct {
	ReplaceOriginal bool   `json:"replace_original"`
	ResponseType    string `json:"response_type"`
	Text            string `json:"text"`
}

// Response is Slack's reply to a response URL post. Body holds the raw reply.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Body  string `json:"-"`
}

// Expired reports whether Slack rejected the post because the response URL expired.
func (r *Response) Expired() bool {
	return r != nil && !r.OK && r.Error == ExpiredURLError
}

// Client posts to Slack response URLs.
type Client struct {
	HTTPClient *http.Client
}

// NewClient returns a client whose requests time out after timeout (10s when zero).
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{HTTPClient: &http.Client{Timeout: timeout}}
}

// PostEphemeral posts text as an ephemeral message that does not replace the original.
// An error is returned only when the request fails or the reply is not Slack's JSON envelope;
// a well-formed {"ok":false} reply is returned as a Response.
func (c *Client) PostEphemeral(ctx context.Context, responseURL, text string) (*Response, error) {
	if responseURL == "" {
		return nil, errors.New("slack: response url is empty")
	}
	raw, err := json.Marshal(Message{
		ReplaceOriginal: false,
		ResponseType:    ResponseTypeEphemeral,
		Text:            text,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responseURL, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}
	out := &Response{Body: string(b)}
	if err := json.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("slack: unexpected reply status=%d body=%s", resp.StatusCode, string(b))
	}
	return out, nil
}
