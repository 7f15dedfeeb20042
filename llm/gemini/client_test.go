package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DandaAkhilReddy/ReddyFitV2/llm"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{APIKey: "test-key", BaseURL: server.URL}, zap.NewNop())
}

func cannedResponse(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]},"finishReason":"STOP"}],"usageMetadata":{"totalTokenCount":10}}`, text)
}

func TestGenerate_Success(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, cannedResponse("hello"))
	})

	resp, err := client.Generate(context.Background(), &llm.GenerateRequest{
		Model:    "gemini-2.5-pro",
		Contents: []llm.Content{llm.UserContent(llm.TextPart("hi"))},
	})

	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-2.5-pro:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotBody, "contents")
	assert.NotContains(t, gotBody, "tools")
	assert.NotContains(t, gotBody, "generationConfig")

	text, err := llm.ResponseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
}

func TestGenerate_AttachesResponseSchema(t *testing.T) {
	var gotBody struct {
		GenerationConfig struct {
			ResponseMIMEType string      `json:"responseMimeType"`
			ResponseSchema   *llm.Schema `json:"responseSchema"`
		} `json:"generationConfig"`
	}

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, cannedResponse(`{"days":[]}`))
	})

	schema := &llm.Schema{Type: llm.TypeObject, Required: []string{"days"}}
	_, err := client.Generate(context.Background(), &llm.GenerateRequest{
		Model:          "gemini-2.5-pro",
		Contents:       []llm.Content{llm.UserContent(llm.TextPart("plan"))},
		ResponseSchema: schema,
	})

	require.NoError(t, err)
	assert.Equal(t, "application/json", gotBody.GenerationConfig.ResponseMIMEType)
	require.NotNil(t, gotBody.GenerationConfig.ResponseSchema)
	assert.Equal(t, llm.TypeObject, gotBody.GenerationConfig.ResponseSchema.Type)
}

func TestGenerate_AttachesSearchTool(t *testing.T) {
	var gotBody struct {
		Tools []map[string]any `json:"tools"`
	}

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, cannedResponse("grounded answer"))
	})

	_, err := client.Generate(context.Background(), &llm.GenerateRequest{
		Model:        "gemini-2.5-pro",
		Contents:     []llm.Content{llm.UserContent(llm.TextPart("question"))},
		EnableSearch: true,
	})

	require.NoError(t, err)
	require.Len(t, gotBody.Tools, 1)
	assert.Contains(t, gotBody.Tools[0], "google_search")
}

func TestGenerate_SchemaAndSearchAreExclusive(t *testing.T) {
	called := false
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.Generate(context.Background(), &llm.GenerateRequest{
		Model:          "gemini-2.5-pro",
		Contents:       []llm.Content{llm.UserContent(llm.TextPart("x"))},
		ResponseSchema: &llm.Schema{Type: llm.TypeObject},
		EnableSearch:   true,
	})

	assert.True(t, llm.IsKind(err, llm.KindGeneric))
	assert.False(t, called, "validation happens before any network call")
}

func TestGenerate_StatusMapping(t *testing.T) {
	tests := []struct {
		status        int
		expectedKind  llm.Kind
		expectedRetry bool
	}{
		{http.StatusUnauthorized, llm.KindAuth, false},
		{http.StatusForbidden, llm.KindAuth, false},
		{http.StatusNotFound, llm.KindNotFound, false},
		{http.StatusTooManyRequests, llm.KindOverloaded, true},
		{http.StatusInternalServerError, llm.KindOverloaded, true},
		{http.StatusBadGateway, llm.KindOverloaded, true},
		{http.StatusServiceUnavailable, llm.KindOverloaded, true},
		{http.StatusGatewayTimeout, llm.KindOverloaded, true},
		{http.StatusBadRequest, llm.KindGeneric, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprintf(w, `{"error":{"code":%d,"message":"upstream says no","status":"X"}}`, tt.status)
			})

			_, err := client.Generate(context.Background(), &llm.GenerateRequest{
				Model:    "gemini-2.5-pro",
				Contents: []llm.Content{llm.UserContent(llm.TextPart("x"))},
			})

			require.Error(t, err)
			assert.Equal(t, tt.expectedKind, llm.KindOf(err))
			assert.Equal(t, tt.expectedRetry, llm.IsRetryable(err))
			assert.Contains(t, err.Error(), "upstream says no")
		})
	}
}

func TestGenerate_NetworkErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := New(Config{APIKey: "k", BaseURL: server.URL, Timeout: time.Second}, zap.NewNop())
	server.Close() // connection refused from here on

	_, err := client.Generate(context.Background(), &llm.GenerateRequest{
		Model:    "gemini-2.5-pro",
		Contents: []llm.Content{llm.UserContent(llm.TextPart("x"))},
	})

	require.Error(t, err)
	assert.Equal(t, llm.KindOverloaded, llm.KindOf(err))
	assert.True(t, llm.IsRetryable(err))
}

func TestStream_DeliversFragments(t *testing.T) {
	var gotPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: "+`{"candidates":[{"content":{"parts":[{"text":"Let's "}]}}]}`+"\n\n")
		fmt.Fprint(w, ": keepalive comment\n\n")
		fmt.Fprint(w, "data: "+`{"candidates":[{"content":{"parts":[{"text":"train!"}]},"finishReason":"STOP"}]}`+"\n\n")
	})

	stream, err := client.Stream(context.Background(), &llm.GenerateRequest{
		Model:    "gemini-2.5-pro",
		Contents: []llm.Content{llm.UserContent(llm.TextPart("chat"))},
	})
	require.NoError(t, err)

	var texts []string
	var finish string
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		texts = append(texts, chunk.Text)
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}

	assert.Equal(t, "/v1beta/models/gemini-2.5-pro:streamGenerateContent?alt=sse", gotPath)
	assert.Equal(t, []string{"Let's ", "train!"}, texts)
	assert.Equal(t, "STOP", finish)
}

func TestStream_FailedCreationPropagates(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
	})

	_, err := client.Stream(context.Background(), &llm.GenerateRequest{
		Model:    "gemini-2.5-pro",
		Contents: []llm.Content{llm.UserContent(llm.TextPart("chat"))},
	})

	require.Error(t, err)
	assert.Equal(t, llm.KindOverloaded, llm.KindOf(err))
}

func TestNew_Defaults(t *testing.T) {
	client := New(Config{APIKey: "k"}, nil)
	assert.Equal(t, "https://generativelanguage.googleapis.com", client.cfg.BaseURL)
	assert.Equal(t, 60*time.Second, client.cfg.Timeout)
	assert.Nil(t, client.limiter)

	limited := New(Config{APIKey: "k", RequestsPerSecond: 2}, nil)
	assert.NotNil(t, limited.limiter)
}
