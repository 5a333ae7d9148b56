// Package apiclient holds the typed HTTP clients for the backend services
// the gateway fronts: payments, orders and products. All three share one
// resty base with auth header injection, request logging and a common
// error envelope decode.
package apiclient

import (
	"fmt"
	"time"

	"github.com/cassiomorais/qrpay/internal/session"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// RemoteError is a non-2xx reply from a backend service. Message carries the
// backend's own text verbatim so callers can surface it unchanged.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote service replied %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote service replied %d", e.StatusCode)
}

// errorEnvelope matches the backend services' error body shape.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func newClient(baseURL string, timeout time.Duration, tokens session.TokenSource, log zerolog.Logger) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetError(&errorEnvelope{})

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if tokens != nil {
			if token := tokens.AccessToken(); token != "" {
				req.SetAuthToken(token)
			}
		}
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		log.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("Upstream request completed")
		return nil
	})

	return client
}

// remoteErr turns a non-2xx response into a RemoteError, preferring the
// structured envelope and falling back to the raw body.
func remoteErr(resp *resty.Response) error {
	re := &RemoteError{StatusCode: resp.StatusCode()}
	if env, ok := resp.Error().(*errorEnvelope); ok && env != nil {
		re.Code = env.Error.Code
		switch {
		case env.Error.Message != "":
			re.Message = env.Error.Message
		case env.Message != "":
			re.Message = env.Message
		}
	}
	if re.Message == "" {
		re.Message = string(resp.Body())
	}
	return re
}
