package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/voidkat/voidkat/internal/logger"
)

type baseHTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  logger.Logger
}

func NewBaseHTTPClient(client *http.Client, baseURL, apiKey string, log logger.Logger) *baseHTTPClient {
	return &baseHTTPClient{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  log,
	}
}

func (c *baseHTTPClient) logRequest(req *http.Request, body []byte) {
	var bodyData any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &bodyData); err == nil {
			if m, ok := bodyData.(map[string]any); ok {
				truncateLargeFields(m)
			}
		}
	}

	logData := map[string]any{
		"url":    req.URL.String(),
		"method": req.Method,
		"body":   bodyData,
	}

	jsonData, err := json.Marshal(logData)
	if err != nil {
		c.logger.WithError(err).WithField("data", logData).Error("Fail marshal json for request")
	}
	c.logger.WithField("request", string(jsonData)).Debug("HTTP request")
}

// truncateLargeFields keeps base64 image payloads out of the logs.
func truncateLargeFields(data map[string]any) {
	for k, v := range data {
		switch val := v.(type) {
		case string:
			if (k == "url" || k == "content" || k == "text") && len(val) > 1000 {
				data[k] = val[:1000] + "...[truncated]"
			}
		case map[string]any:
			truncateLargeFields(val)
		case []any:
			for _, item := range val {
				if m, ok := item.(map[string]any); ok {
					truncateLargeFields(m)
				}
			}
		}
	}
}

func (c *baseHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.baseURL != "" && !strings.HasPrefix(req.URL.String(), "http") {
		req.URL, _ = url.Parse(fmt.Sprintf(
			"%s/%s",
			strings.TrimSuffix(c.baseURL, "/"),
			strings.TrimPrefix(req.URL.String(), "/"),
		))
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	c.logRequest(req, body)

	return c.client.Do(req)
}

type OpenAICompatibleClient struct {
	name       string
	chatURL    string
	logger     logger.Logger
	httpClient *baseHTTPClient
}

func NewOpenAICompatibleClient(
	name string,
	baseURL string,
	chatURL string,
	apiKey string,
	log logger.Logger,
	httpClient *http.Client,
) *OpenAICompatibleClient {
	if chatURL == "" {
		chatURL = "/chat/completions"
	}
	baseHTTPClient := NewBaseHTTPClient(httpClient, baseURL, apiKey, log)

	return &OpenAICompatibleClient{
		name:       name,
		chatURL:    strings.TrimPrefix(chatURL, "/"),
		httpClient: baseHTTPClient,
		logger:     log,
	}
}

func (c *OpenAICompatibleClient) Name() string {
	return c.name
}

func (c *OpenAICompatibleClient) makeRawRequest(ctx context.Context, method string, endpoint string, body any) (*http.Response, error) {
	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("create request error: %w", err)
	}

	return c.httpClient.Do(req)
}

func (c *OpenAICompatibleClient) Ask(ctx context.Context, request CompletionRequest) (string, *CompletionResponse, error) {
	body, aiErr := c.doRequest(ctx, "POST", c.chatURL, request)
	if aiErr != nil {
		aiErr.ModelName = request.Model
		return "", nil, aiErr
	}

	var result CompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", nil, &AIError{
			OriginalErr:  err,
			ProviderName: c.Name(),
			ModelName:    request.Model,
			Message:      "failed to unmarshal response",
		}
	}

	// some providers report errors inside a 200 OK
	if result.Error != nil {
		return "", nil, &AIError{
			ProviderName: c.Name(),
			ModelName:    request.Model,
			ErrorCode:    result.Error.Code,
			Message:      result.Error.Message,
		}
	}

	if len(result.Choices) == 0 {
		return "", nil, &AIError{
			ProviderName: c.Name(),
			ModelName:    request.Model,
			Message:      "no choices in response",
		}
	}

	return result.Choices[0].Message.Content, &result, nil
}

func (c *OpenAICompatibleClient) doRequest(
	ctx context.Context,
	method string,
	endpoint string,
	body any,
) ([]byte, *AIError) {
	resp, err := c.makeRawRequest(ctx, method, endpoint, body)
	if err != nil {
		return nil, &AIError{
			OriginalErr:  err,
			ProviderName: c.Name(),
			Message:      "network request failed",
		}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AIError{
			OriginalErr:  err,
			ProviderName: c.Name(),
			Message:      "failed to read response body",
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var providerError struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			} `json:"error"`
		}

		aiError := &AIError{
			ProviderName:   c.Name(),
			HTTPStatusCode: resp.StatusCode,
			Message:        fmt.Sprintf("HTTP request failed with status code: %d", resp.StatusCode),
		}

		if len(responseBody) > 0 {
			json.Unmarshal(responseBody, &providerError)
			if providerError.Error.Message != "" {
				aiError.Message = providerError.Error.Message
				aiError.ErrorCode = providerError.Error.Code
			}
		}

		return responseBody, aiError
	}

	return responseBody, nil
}
