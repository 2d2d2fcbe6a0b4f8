package vlm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"vlmscore/pkg/config"
	"vlmscore/pkg/errors"
	"vlmscore/pkg/imaging"
	"vlmscore/pkg/logger"
	"vlmscore/pkg/ratelimit"
	"vlmscore/pkg/retry"
)

// ErrNoResponse reports a successful HTTP response whose choices array
// was empty.
var ErrNoResponse = stderrors.New("api returned no choices")

// Client scores images through an OpenAI-compatible chat-completions
// endpoint.
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	detail      string
	provider    string

	// Resize parameters for the oversized-payload resubmit.
	maxDimension int
	jpegQuality  int

	limiter ratelimit.Limiter
	retrier *retry.APIRetrier
	logger  logger.Logger
}

// NewClient creates a scoring client from endpoint settings. The
// returned client performs single attempts; NewClientWithConfig layers
// rate limiting and retries on top.
func NewClient(cfg *config.APIConfig, log logger.Logger) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}

	timeout := cfg.RequestTimeout.Duration()
	if timeout <= 0 {
		timeout = time.Hour
	}

	imagingDefaults := config.DefaultConfig().Imaging

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + cfg.Token,
		},
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		detail:       cfg.Detail,
		provider:     providerFromEndpoint(cfg.Endpoint),
		maxDimension: imagingDefaults.MaxDimension,
		jpegQuality:  imagingDefaults.JPEGQuality,
		logger:       log,
	}
}

// NewClientWithConfig creates a scoring client with rate limiting,
// retry behavior, and resize parameters taken from the full
// configuration.
func NewClientWithConfig(cfg *config.Config, log logger.Logger) *Client {
	c := NewClient(&cfg.API, log)

	if cfg.Imaging.MaxDimension > 0 {
		c.maxDimension = cfg.Imaging.MaxDimension
	}
	if cfg.Imaging.JPEGQuality > 0 {
		c.jpegQuality = cfg.Imaging.JPEGQuality
	}

	if cfg.RateLimit.RequestsPerMinute > 0 {
		c.limiter = ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Retry.MaxAttempts > 0 {
		c.retrier = retry.NewAPIRetrierWithBackoff(cfg.Retry.MaxAttempts, backoffFromConfig(&cfg.Retry), log)
	}

	return c
}

// backoffFromConfig builds the retry backoff set from configured delays
func backoffFromConfig(rc *config.RetryConfig) *retry.ErrorTypeBackoff {
	base := &retry.ExponentialBackoff{
		BaseDelay:    rc.InitialDelay.Duration(),
		MaxDelay:     rc.MaxDelay.Duration(),
		Multiplier:   rc.BackoffMultiplier,
		JitterFactor: 0.1,
	}
	return &retry.ErrorTypeBackoff{
		NetworkErrorBackoff: base,
		RateLimitBackoff:    base,
		ServerErrorBackoff:  base,
		DefaultBackoff:      base,
	}
}

// providerFromEndpoint labels verdicts with the API host so sidecar
// results record where a score came from
func providerFromEndpoint(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// ConfigInfo reports the client settings for startup logging. The API
// token never appears here.
func (c *Client) ConfigInfo() map[string]interface{} {
	return map[string]interface{}{
		"endpoint":    c.endpoint,
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"detail":      c.detail,
		"timeout":     c.httpClient.Timeout.String(),
	}
}

// ScoreImage reads, encodes, and scores a single image, returning the
// parsed verdict. A 400 from the endpoint triggers one resubmission
// with the image downscaled, which recovers payload rejections of high
// resolution originals.
func (c *Client) ScoreImage(ctx context.Context, path string) (*Evaluation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeImage, fmt.Sprintf("failed to read image %s", path), err)
	}
	return c.ScoreImageBytes(ctx, path, data)
}

// ScoreImageBytes scores an already loaded image. The path is used for
// logging only.
func (c *Client) ScoreImageBytes(ctx context.Context, path string, data []byte) (*Evaluation, error) {
	payload, err := c.encodePayload(data, imaging.DetectMIME(data))
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusBadRequest {
		apiMessage := readAPIError(resp)

		resized, mime, changed, derr := imaging.Downscale(data, c.maxDimension, c.jpegQuality)
		if derr != nil || !changed {
			return nil, c.statusError(http.StatusBadRequest, apiMessage)
		}

		c.logger.InfoWithFields("retrying with downscaled image", map[string]interface{}{
			"image":          path,
			"original_bytes": len(data),
			"resized_bytes":  len(resized),
		})

		payload, err = c.encodePayload(resized, mime)
		if err != nil {
			return nil, err
		}
		resp, err = c.send(ctx, payload)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, readAPIError(resp))
	}

	body, rerr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if rerr != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, "failed to read response body", rerr)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		c.logger.ErrorWithFields("failed to decode scoring response", map[string]interface{}{
			"error":        err.Error(),
			"body_preview": truncate(string(body), 200),
		})
		return nil, errors.Wrap(errors.ErrorTypeParsing, "failed to decode response", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrorTypeParsing, "API returned an empty response", ErrNoResponse)
	}

	content := chatResp.Choices[0].Message.Content
	if content == "" {
		content = chatResp.Choices[0].Message.ReasoningContent
	}

	eval, err := ParseEvaluation(content)
	if err != nil {
		return nil, err
	}

	eval.Usage = chatResp.Usage
	eval.Provider = c.provider
	eval.Model = chatResp.Model
	if eval.Model == "" {
		eval.Model = c.model
	}

	return eval, nil
}

// encodePayload marshals the chat request for one encoded image
func (c *Client) encodePayload(data []byte, mime string) ([]byte, error) {
	request := &chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: ScoringPrompt},
					{Type: "image_url", ImageURL: &imageURL{
						URL:    imaging.DataURLFromBytes(data, mime),
						Detail: c.detail,
					}},
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeUnknown, "failed to encode request", err)
	}
	return payload, nil
}

// send delivers the payload, waiting on the rate limiter before each
// attempt and retrying retryable failures. Responses with non-retryable
// statuses are returned for the caller to inspect.
func (c *Client) send(ctx context.Context, payload []byte) (*http.Response, error) {
	var resp *http.Response

	attempt := func() error {
		if c.limiter != nil {
			if err := c.limiter.WaitContext(ctx); err != nil {
				return errors.Wrap(errors.ErrorTypeTask, "rate limit wait interrupted", err)
			}
		}

		r, err := c.doRequest(ctx, payload)
		if err != nil {
			return err
		}

		if r.StatusCode != http.StatusOK && errors.IsRetryableStatusCode(r.StatusCode) {
			return c.statusError(r.StatusCode, readAPIError(r))
		}

		resp = r
		return nil
	}

	if c.retrier == nil {
		if err := attempt(); err != nil {
			return nil, err
		}
		return resp, nil
	}

	if err := c.retrier.DoWithErrorType(attempt); err != nil {
		return nil, err
	}
	return resp, nil
}

// doRequest performs a single POST with the configured headers
func (c *Client) doRequest(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeUnknown, "failed to create request", err)
	}

	// Set all headers
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	// Log the request
	start := time.Now()
	c.logger.DebugWithFields("sending scoring request", map[string]interface{}{
		"url":        c.endpoint,
		"model":      c.model,
		"body_bytes": len(payload),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("scoring request failed", map[string]interface{}{
			"url":      c.endpoint,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, "network error", err)
	}

	// Log successful response
	c.logger.DebugWithFields("scoring request completed", map[string]interface{}{
		"url":      c.endpoint,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// statusError maps an HTTP status to a typed error carrying whatever
// the API said about the failure
func (c *Client) statusError(status int, apiMessage string) *errors.Error {
	message := fmt.Sprintf("API error (%d)", status)
	if apiMessage != "" {
		message = fmt.Sprintf("API error (%d): %s", status, apiMessage)
	}

	var errType errors.ErrorType
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		errType = errors.ErrorTypeAuth
		c.logger.ErrorWithFields("authentication rejected by API", map[string]interface{}{
			"status": status,
		})
	case status == http.StatusNotFound:
		errType = errors.ErrorTypeNotFound
		c.logger.WarnWithFields("endpoint not found", map[string]interface{}{
			"status": status,
			"url":    c.endpoint,
		})
	case status == http.StatusTooManyRequests:
		errType = errors.ErrorTypeRateLimit
		c.logger.WarnWithFields("rate limited by API", map[string]interface{}{
			"status": status,
		})
	case status == http.StatusBadRequest:
		errType = errors.ErrorTypeBadRequest
	case status >= 500:
		errType = errors.ErrorTypeServerError
		c.logger.ErrorWithFields("server error from API", map[string]interface{}{
			"status":  status,
			"message": apiMessage,
		})
	default:
		errType = errors.ErrorTypeUnknown
	}

	return &errors.Error{Type: errType, Message: message, Code: status}
}

// readAPIError drains and closes an error response body, extracting the
// API's message when the body decodes, and falling back to a truncated
// preview of the raw body.
func readAPIError(resp *http.Response) string {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}

	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Error.Message != "" {
			return apiErr.Error.Message
		}
	}
	return truncate(string(body), 200)
}
