// Package llm provides reply generators: an HTTP client for
// OpenAI-compatible chat completion endpoints and a deterministic
// canned generator for deployments without a provider.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatledger/pkg/logger"
	"chatledger/pkg/models"
)

// ErrRequestFailed marks non-200 responses from the provider.
var ErrRequestFailed = errors.New("API request failed")

const systemPrompt = "You are the assistant half of a two-party conversation. " +
	"Answer the latest user message; earlier entries are context only."

// defaultTokenBudget bounds how many history tokens accompany a request.
const defaultTokenBudget = 2048

// Client generates replies through an OpenAI-compatible
// /chat/completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	tokenBudget int
	httpClient  *http.Client
}

// NewClient creates a provider-backed generator. tokenBudget <= 0
// selects the default history budget.
func NewClient(baseURL, apiKey, model string, tokenBudget int) *Client {
	if tokenBudget <= 0 {
		tokenBudget = defaultTokenBudget
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		tokenBudget: tokenBudget,
		httpClient:  &http.Client{},
	}
}

// GenerateReply sends the user text with trimmed history context and
// returns the assistant's response content.
func (c *Client) GenerateReply(ctx context.Context, text string, history []models.Entry) (string, error) {
	msgs := c.historyMessages(text, history)

	reqBody := ChatRequest{Model: c.model, Messages: msgs, Stream: false}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logger.Debug("llm_request", "url", c.baseURL, "model", c.model, "messages", len(msgs))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("llm_error_status", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("%w: %d - %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", err
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrRequestFailed, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message == nil {
		return "", errors.New("no choices in response")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// historyMessages maps merged-view entries onto chat roles, dropping
// the oldest entries once the token budget is exceeded. The latest user
// text is always present.
func (c *Client) historyMessages(text string, history []models.Entry) []ChatMessage {
	msgs := []ChatMessage{{Role: "system", Content: systemPrompt}}

	budget := c.tokenBudget - EstimateTokensSimple(systemPrompt) - EstimateTokensSimple(text)
	kept := make([]ChatMessage, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		cost := EstimateTokensSimple(e.Text)
		if cost > budget {
			break
		}
		budget -= cost
		role := "user"
		if e.Sender == models.SenderAI {
			role = "assistant"
		}
		kept = append(kept, ChatMessage{Role: role, Content: e.Text})
	}
	// kept was collected newest-first; restore chronological order
	for i := len(kept) - 1; i >= 0; i-- {
		msgs = append(msgs, kept[i])
	}

	// history normally ends with the triggering message; if trimming (or
	// an empty history) lost it, append it so the provider always sees
	// the question
	if len(msgs) == 1 || msgs[len(msgs)-1].Content != text {
		msgs = append(msgs, ChatMessage{Role: "user", Content: text})
	}
	return msgs
}
