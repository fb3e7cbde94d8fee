package accountsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// url builds a complete URL by appending the path to the base URL.
func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// doRequest sends body, JSON-encoded when non-nil, with the given headers.
func (c *SDKClient) doRequest(
	ctx context.Context,
	method, path string,
	body any,
	headers map[string]string,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// decodeEnvelope reads an envelope and stores its data in target, which may
// be nil. A non-zero code becomes an *Error.
func decodeEnvelope[T any](resp *http.Response, target *T) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env Response[T]
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return &Error{
			StatusCode: resp.StatusCode,
			Code:       CodeInternal,
			Msg:        strings.TrimSpace(string(bodyBytes)),
		}
	}

	if env.Code != CodeOK || resp.StatusCode != http.StatusOK {
		code := env.Code
		if code == CodeOK {
			code = CodeInternal
		}
		return &Error{StatusCode: resp.StatusCode, Code: code, Msg: env.Msg}
	}

	if target != nil {
		*target = env.Data
	}
	return nil
}

// decodeJSON decodes a plain JSON body, used by the health endpoints.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &Error{StatusCode: resp.StatusCode, Code: CodeInternal, Msg: http.StatusText(resp.StatusCode)}
	}
	return nil
}
