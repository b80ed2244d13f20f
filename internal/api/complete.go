package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	apierrors "github.com/diogo/supportchat/internal/errors"
	"github.com/diogo/supportchat/internal/models"
)

// maxResponseBytes caps how much of a reply body is read
const maxResponseBytes = 8 << 20

// Complete posts messages to the endpoint and returns content[0].text of the
// reply. Any failure, whether transport, non-2xx status or an unusable body,
// is returned as an error matching apierrors.ErrRequestFailed.
func (c *Client) Complete(ctx context.Context, messages []models.Message) (string, error) {
	if c.IsClosed() {
		return "", apierrors.NewNetworkErrorWithEndpoint("chat", c.endpoint, errors.New("client is closed"))
	}

	body, err := buildRequestBody(messages)
	if err != nil {
		return "", fmt.Errorf("failed to build request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.transportError(ctx, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", c.transportError(ctx, err)
	}

	c.logger.Debug("chat response",
		zap.String("endpoint", c.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, c.endpoint, "chat request failed", string(data))
	}

	return parseReply(data)
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apierrors.NewTimeoutError(c.endpoint, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierrors.NewTimeoutError(c.endpoint, err)
	}
	return apierrors.NewNetworkErrorWithEndpoint("chat", c.endpoint, err)
}

// buildRequestBody encodes {"messages":[...]}
func buildRequestBody(messages []models.Message) ([]byte, error) {
	if messages == nil {
		messages = []models.Message{}
	}
	return json.Marshal(models.ChatRequest{Messages: messages})
}

// parseReply extracts content[0].text. Only the first element is consumed.
func parseReply(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response is not valid JSON", "")
	}

	content := gjson.GetBytes(body, models.PathContent)
	if !content.IsArray() {
		return "", apierrors.NewParseError("missing content array", models.PathContent)
	}

	text := gjson.GetBytes(body, models.PathReplyText)
	if !text.Exists() || text.Type != gjson.String {
		return "", apierrors.NewParseError("missing reply text", models.PathReplyText)
	}
	if text.String() == "" {
		return "", apierrors.NewParseError(apierrors.ErrNoContent.Error(), models.PathReplyText)
	}

	return text.String(), nil
}
