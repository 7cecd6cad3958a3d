package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPGenerator forwards requests to a generator-compatible HTTP endpoint.
type HTTPGenerator struct {
	url    string
	client *http.Client
}

func NewHTTPGenerator(url string) *HTTPGenerator {
	return &HTTPGenerator{
		url: strings.TrimSpace(url),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: marshal request: %w", ErrGeneratorFailure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("%w: create request: %w", ErrGeneratorFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, fmt.Errorf("%w: send request: %w", ErrGeneratorFailure, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Response{}, fmt.Errorf("%w: generator http status %d: %s", ErrGeneratorFailure, res.StatusCode, string(body))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: read response: %w", ErrGeneratorFailure, err)
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		// Plain-text endpoints are tolerated; the raw body is the reply.
		text := strings.TrimSpace(string(body))
		if text == "" {
			return Response{}, fmt.Errorf("%w: empty response body", ErrGeneratorFailure)
		}
		return Response{Text: text}, nil
	}

	text := strings.TrimSpace(extractText(obj))
	if text == "" {
		return Response{}, fmt.Errorf("%w: no reply text in response", ErrGeneratorFailure)
	}
	return Response{Text: text}, nil
}

func extractText(obj map[string]any) string {
	for _, k := range []string{"text", "reply", "output", "message"} {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
