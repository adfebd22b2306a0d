package watson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type iamResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken exchanges the API key for an IAM bearer token, reusing it until
// shortly before it expires.
func (r *Recognizer) accessToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return r.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", r.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.IAMURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("watson: token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("watson: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("watson: token request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok iamResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("watson: decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("watson: empty access token")
	}

	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl <= time.Minute {
		ttl = 2 * time.Minute
	}
	r.token = tok.AccessToken
	r.tokenExpiry = time.Now().Add(ttl - time.Minute)
	return r.token, nil
}
