// Package replicate dispatches predictions to the Replicate HTTP API and maps
// its responses onto models.Outcome.
package replicate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/config"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/metrics"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/models"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

type Client struct {
	logger         *zap.Logger
	httpClient     *http.Client
	endpoint       string
	token          string
	maxRetries     uint64
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewClient(logger *zap.Logger, httpClient *http.Client, cfg config.ReplicateConfig) *Client {
	return &Client{
		logger:         logger,
		httpClient:     httpClient,
		endpoint:       strings.TrimRight(cfg.BaseURL, "/") + "/predictions",
		token:          cfg.APIToken,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
	}
}

type predictionRequest struct {
	Version string        `json:"version"`
	Input   models.Params `json:"input"`
}

type response struct {
	code int
	body []byte
}

// retryableStatus marks a response that should be attempted again.
type retryableStatus struct {
	code int
}

func (e *retryableStatus) Error() string {
	return fmt.Sprintf("upstream returned %d", e.code)
}

// Send creates a prediction for version with input. 429 and 5xx responses
// and transport errors are retried with exponential backoff up to the
// configured number of retries; everything else is final.
func (c *Client) Send(ctx context.Context, version string, input models.Params) models.Outcome {
	payload, err := sonic.Marshal(predictionRequest{Version: version, Input: input})
	if err != nil {
		return c.finish(models.Outcome{
			Kind:   models.OutcomeFailed,
			Detail: fmt.Sprintf("failed to encode prediction: %v", err),
		})
	}

	var (
		attempts int
		last     *response
	)
	op := func() error {
		attempts++
		resp, err := c.post(ctx, payload)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			last = nil
			return err
		}
		last = resp
		if resp.code == http.StatusTooManyRequests || resp.code >= http.StatusInternalServerError {
			return &retryableStatus{code: resp.code}
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		metrics.DispatchRetry()
		c.logger.Warn("retrying prediction",
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err = backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx), notify)
	if err != nil && last == nil {
		return c.finish(models.Outcome{
			Kind:     models.OutcomeFailed,
			Detail:   fmt.Sprintf("prediction request failed: %v", err),
			Attempts: attempts,
		})
	}

	out := mapResponse(last.code, last.body)
	out.Attempts = attempts
	return c.finish(out)
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.maxBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (c *Client) post(ctx context.Context, payload []byte) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read prediction response: %w", err)
	}
	return &response{code: resp.StatusCode, body: body}, nil
}

func (c *Client) finish(out models.Outcome) models.Outcome {
	metrics.DispatchTotal(out.Kind.String())
	switch out.Kind {
	case models.OutcomeRejected:
		c.logger.Warn("prediction rejected", zap.String("detail", out.Detail))
	case models.OutcomeFailed:
		c.logger.Error("prediction failed", zap.String("detail", out.Detail), zap.Int("attempts", out.Attempts))
	default:
		c.logger.Debug("prediction dispatched",
			zap.Stringer("outcome", out.Kind),
			zap.String("id", out.ID),
			zap.Int("attempts", out.Attempts),
		)
	}
	return out
}
