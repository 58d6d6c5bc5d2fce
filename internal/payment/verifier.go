package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, token string) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (bool, error) {
	return f(ctx, token)
}

// RailVerifier confirms QR payments against the external payment rail
// over HTTP. The per-call deadline comes from the caller's context; the
// client timeout is only a hard upper bound.
type RailVerifier struct {
	baseURL string
	client  *http.Client
}

type railResponse struct {
	Token  string `json:"token"`
	Status string `json:"status"` // CONFIRMED, REJECTED, PENDING
}

func NewRailVerifier(baseURL string) *RailVerifier {
	return &RailVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (v *RailVerifier) Verify(ctx context.Context, token string) (bool, error) {
	url := fmt.Sprintf("%s/api/payments/%s", v.baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var res railResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return false, fmt.Errorf("decode response: %w", err)
		}
		return res.Status == "CONFIRMED", nil
	case http.StatusNotFound:
		return false, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(body))
	}
}
