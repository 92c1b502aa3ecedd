package text

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonBody(v any) io.ReadCloser {
	data, _ := json.Marshal(v)
	return io.NopCloser(strings.NewReader(string(data)))
}

func TestOpenAIClientComplete(t *testing.T) {
	client, err := NewOpenAIClient(OpenAIOptions{
		APIKey: "dummy",
		Model:  "test-model",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Fatalf("unexpected path %q", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer dummy" {
				t.Fatalf("Authorization = %q", got)
			}
			var payload chatRequest
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if payload.Model != "test-model" || len(payload.Messages) != 1 {
				t.Fatalf("unexpected payload: %+v", payload)
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body: jsonBody(map[string]any{
					"choices": []map[string]any{
						{"message": map[string]string{"content": `{"title":"Hi"}`}},
					},
				}),
			}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}
	got, err := client.Complete(context.Background(), "write copy")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != `{"title":"Hi"}` {
		t.Fatalf("Complete = %q", got)
	}
}

func TestOpenAIClientSurfacesAPIError(t *testing.T) {
	client, err := NewOpenAIClient(OpenAIOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Body: jsonBody(map[string]any{
					"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
				}),
			}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}
	if _, err := client.Complete(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestOpenAIClientTransportError(t *testing.T) {
	client, err := NewOpenAIClient(OpenAIOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("boom")
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}
	if _, err := client.Complete(context.Background(), "hello"); err == nil {
		t.Fatal("expected transport error to surface")
	}
}

func TestOpenAIClientRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIClient(OpenAIOptions{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestStaticCompleteReturnsParseableJSON(t *testing.T) {
	out, err := NewStatic().Complete(context.Background(), "Topic: premium coffee machines for offices")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	var record map[string]string
	if err := json.Unmarshal([]byte(out), &record); err != nil {
		t.Fatalf("static output is not JSON: %v", err)
	}
	if record["title"] == "" || record["cta"] == "" {
		t.Fatalf("static record incomplete: %+v", record)
	}
}
