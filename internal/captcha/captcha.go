// Package captcha verifies human challenge tokens before order placement
// and review submission.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrVerificationFailed is returned when the provider rejects the token.
var ErrVerificationFailed = errors.New("captcha verification failed")

// ErrMissingToken is returned when no token accompanies the request.
var ErrMissingToken = errors.New("captcha token is required")

// Verifier checks a challenge token for a given client IP.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Google verifies tokens against the reCAPTCHA siteverify endpoint.
type Google struct {
	Secret   string
	Endpoint string
	Client   *http.Client
}

const defaultEndpoint = "https://www.google.com/recaptcha/api/siteverify"

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token to the provider and maps rejections onto
// ErrVerificationFailed. Transport failures are reported as-is so callers
// can distinguish outages from bad tokens.
func (g *Google) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	form := url.Values{}
	form.Set("secret", g.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call captcha provider: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("captcha provider returned %d", resp.StatusCode)
	}
	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode captcha response: %w", err)
	}
	if !body.Success {
		return ErrVerificationFailed
	}
	return nil
}

// Static accepts or rejects every token; used in development and tests.
type Static struct {
	Allow bool
}

func (s Static) Verify(_ context.Context, token, _ string) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}
	if !s.Allow {
		return ErrVerificationFailed
	}
	return nil
}
