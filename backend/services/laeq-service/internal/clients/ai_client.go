package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"noisemap/backend/services/laeq-service/internal/models"
)

// AIClient posts questions to the n8n LLM workflow webhook.
type AIClient struct {
	base    *BaseClient
	timeout time.Duration
}

// NewAIClient returns client.
func NewAIClient(webhookURL string, timeout time.Duration, httpClient HTTPDoer) *AIClient {
	return &AIClient{
		base:    NewBaseClient("ai", webhookURL, httpClient),
		timeout: timeout,
	}
}

// Ask forwards payload and returns the webhook's JSON. Plain text replies are wrapped as
// {"output": "..."}.
func (c *AIClient) Ask(ctx context.Context, payload models.AskPayload) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	status, resp, err := c.base.PostJSON(ctx, body)
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, c.base.statusError(status, resp)
	}
	if !json.Valid(resp) {
		wrapped, err := json.Marshal(map[string]string{"output": string(resp)})
		if err != nil {
			return nil, err
		}
		return wrapped, nil
	}
	return resp, nil
}
