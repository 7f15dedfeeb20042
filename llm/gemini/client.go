// Package gemini implements llm.Generator against the Google Generative
// Language REST API.
//
// API characteristics:
//  1. Authentication via the x-goog-api-key request header.
//  2. Multimodal input: text plus base64 inlineData parts.
//  3. Structured output via generationConfig.responseSchema.
//  4. Search grounding via the google_search tool.
//  5. Streaming via :streamGenerateContent with alt=sse framing.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DandaAkhilReddy/ReddyFitV2/llm"
)

// Config configures the transport client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond enables a client-side rate limit when > 0.
	RequestsPerSecond float64
}

// Client is the HTTP transport. It is safe for concurrent use.
type Client struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a Gemini transport client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

type geminiGenerationConfig struct {
	Temperature      float32     `json:"temperature,omitempty"`
	MaxOutputTokens  int         `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string      `json:"responseMimeType,omitempty"`
	ResponseSchema   *llm.Schema `json:"responseSchema,omitempty"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiRequest struct {
	Contents          []llm.Content           `json:"contents"`
	SystemInstruction *llm.Content            `json:"systemInstruction,omitempty"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) buildHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// buildBody validates the request and converts it to the wire shape.
func buildBody(req *llm.GenerateRequest) (*geminiRequest, error) {
	if req.ResponseSchema != nil && req.EnableSearch {
		return nil, llm.NewError(llm.KindGeneric,
			"response schema and search grounding are mutually exclusive")
	}

	body := &geminiRequest{
		Contents:          req.Contents,
		SystemInstruction: req.SystemInstruction,
	}
	if req.EnableSearch {
		body.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	}
	if req.ResponseSchema != nil || req.Temperature > 0 || req.MaxOutputTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		}
		if req.ResponseSchema != nil {
			body.GenerationConfig.ResponseMIMEType = "application/json"
			body.GenerationConfig.ResponseSchema = req.ResponseSchema
		}
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body *geminiRequest) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, llm.NewError(llm.KindGeneric, "rate limit wait canceled").WithCause(err)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, llm.NewError(llm.KindGeneric, "marshal request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, llm.NewError(llm.KindGeneric, "build request").WithCause(err)
	}
	c.buildHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// Network failures are transient from the caller's perspective.
		return nil, llm.NewError(llm.KindOverloaded, err.Error()).
			WithCause(err).
			WithRetryable(true)
	}
	return resp, nil
}

// Generate implements llm.Generator.
func (c *Client) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	body, err := buildBody(req)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), req.Model)

	start := time.Now()
	resp, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, mapStatusError(resp.StatusCode, readErrMsg(resp.Body))
	}

	var out llm.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, llm.NewError(llm.KindOverloaded, "decode response").
			WithCause(err).
			WithRetryable(true)
	}

	c.logger.Debug("generate completed",
		zap.String("model", req.Model),
		zap.Duration("latency", time.Since(start)),
	)
	return &out, nil
}

// Stream implements llm.Generator. Fragments are delivered as they arrive;
// a mid-stream failure terminates the channel with an Err chunk and the
// fragments already delivered remain valid.
func (c *Client) Stream(ctx context.Context, req *llm.GenerateRequest) (<-chan llm.StreamChunk, error) {
	body, err := buildBody(req)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse",
		strings.TrimRight(c.cfg.BaseURL, "/"), req.Model)

	resp, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, mapStatusError(resp.StatusCode, readErrMsg(resp.Body))
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		reader := bufio.NewReader(resp.Body)

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					ch <- llm.StreamChunk{
						Err: llm.NewError(llm.KindOverloaded, err.Error()).
							WithCause(err).
							WithRetryable(true),
					}
				}
				return
			}

			// SSE framing: payload lines are "data: {json}".
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" || data == "[DONE]" {
				continue
			}

			var partial llm.GenerateResponse
			if err := json.Unmarshal([]byte(data), &partial); err != nil {
				continue
			}

			for _, candidate := range partial.Candidates {
				chunk := llm.StreamChunk{FinishReason: candidate.FinishReason}
				for _, part := range candidate.Content.Parts {
					chunk.Text += part.Text
				}
				select {
				case ch <- chunk:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var errResp geminiErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (status: %s)", errResp.Error.Message, errResp.Error.Status)
	}
	return string(data)
}

// mapStatusError assigns a failure kind from the upstream HTTP status.
func mapStatusError(status int, msg string) *llm.Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.NewError(llm.KindAuth, msg).WithHTTPStatus(status)
	case http.StatusNotFound:
		return llm.NewError(llm.KindNotFound, msg).WithHTTPStatus(status)
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return llm.NewError(llm.KindOverloaded, msg).
			WithHTTPStatus(status).
			WithRetryable(true)
	default:
		return llm.NewError(llm.KindGeneric, msg).WithHTTPStatus(status)
	}
}
