package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// HTTPClient posts to the Healthyfy backend's /api/chat.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPClient targets endpoint, e.g. http://localhost:8000.
func NewHTTPClient(endpoint string, timeout time.Duration) (*HTTPClient, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("chat endpoint is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{endpoint: endpoint, httpClient: &http.Client{Timeout: timeout}}, nil
}

type errorBody struct {
	Detail  any    `json:"detail"`
	Message string `json:"message"`
}

func (c *HTTPClient) SendChat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is empty")
	}
	if len(req.Message) > MaxMessageLen {
		return nil, fmt.Errorf("message exceeds %d characters", MaxMessageLen)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("Request failed (%d)", resp.StatusCode)
		var eb errorBody
		if json.Unmarshal(respBody, &eb) == nil {
			switch d := eb.Detail.(type) {
			case string:
				if d != "" {
					msg = d
				}
			case nil:
				if eb.Message != "" {
					msg = eb.Message
				}
			}
		}
		return nil, fmt.Errorf("%s", msg)
	}

	var reply ChatReply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &reply, nil
}
