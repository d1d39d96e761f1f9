package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/metrics"
)

const (
	defaultBaseURL = "https://sms.aakashsms.com/sms/v3/send"
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 64 << 10
)

// AakashClient sends SMS via the Aakash SMS v3 API (form POST of auth_token, to, text).
type AakashClient struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewAakashClient returns a client for the given token. An empty token makes every send simulated.
// A non-positive timeout uses the 5s default.
func NewAakashClient(token, baseURL string, timeout time.Duration) *AakashClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AakashClient{
		Token:      token,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Send posts text to the gateway. Message text is never logged since it may carry an OTP.
func (c *AakashClient) Send(ctx context.Context, to, text string) Result {
	r := c.send(ctx, to, text)
	metrics.RecordSMSSend(string(r.Status))
	return r
}

func (c *AakashClient) send(ctx context.Context, to, text string) Result {
	if c.Token == "" {
		logging.Ctx(ctx).Info().Str("to", to).Int("text_len", len(text)).Msg("sms simulated: no gateway token configured")
		return Result{Status: StatusSimulated, Response: map[string]string{"status": "simulated"}}
	}
	form := url.Values{}
	form.Set("auth_token", c.Token)
	form.Set("to", to)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Failed(err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("to", to).Msg("sms gateway request failed")
		return Failed(err.Error())
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		body = string(raw)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Ctx(ctx).Warn().Int("status", resp.StatusCode).Str("to", to).Msg("sms gateway rejected request")
		return Result{Status: StatusFailed, Reason: fmt.Sprintf("gateway status %d", resp.StatusCode), Response: body}
	}
	if m, ok := body.(map[string]any); ok {
		if rejected, _ := m["error"].(bool); rejected {
			reason, _ := m["message"].(string)
			if reason == "" {
				reason = "gateway reported error"
			}
			return Result{Status: StatusFailed, Reason: reason, Response: body}
		}
	}
	logging.Ctx(ctx).Debug().Int("status", resp.StatusCode).Str("to", to).Msg("sms sent")
	return Result{Status: StatusSent, Response: body}
}
