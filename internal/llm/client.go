// Package llm implements the LLM analyzer collaborator against any
// OpenAI-compatible chat completions endpoint.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/strategy"
	"github.com/schmidb/AI-crypto-bot-sub001/pkg/types"
)

const systemPrompt = "You are a cryptocurrency market analyst. Given a market snapshot, " +
	"respond with a single JSON object: {\"decision\": \"BUY\"|\"SELL\"|\"HOLD\", " +
	"\"confidence\": 0-100, \"reasoning\": \"one sentence\"}. Respond with JSON only."

// Config holds the configuration for the LLM client.
type Config struct {
	BaseURL string // e.g. https://api.openai.com/v1
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat completions API and parses its
// response into the validated LLMDecision contract.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates an LLM analyzer client.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AnalyzeMarket implements strategy.LLMAnalyzer.
func (c *Client) AnalyzeMarket(market types.MarketData, indicators types.Indicators) (*strategy.LLMDecision, error) {
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not configured")
	}

	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(market, indicators)},
		},
		Temperature: 0.2,
		MaxTokens:   300,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(c.config.BaseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM API error: status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode LLM response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty LLM response")
	}

	return parseDecision(chatResp.Choices[0].Message.Content)
}

// buildPrompt renders a compact market context. Only fields present in the
// snapshot are included.
func buildPrompt(market types.MarketData, indicators types.Indicators) string {
	var b strings.Builder
	b.WriteString("Market snapshot:\n")
	for _, k := range []string{types.KeyPrice, types.KeyPriceChange1h, types.KeyPriceChange24, types.KeyPriceChange5d, types.KeyPriceChange7d, types.KeyVolume, types.KeyAvgVolume} {
		if v, ok := market[k]; ok {
			fmt.Fprintf(&b, "%s: %.4f\n", k, v)
		}
	}
	b.WriteString("Technical indicators:\n")
	for _, k := range []string{types.KeyRSI, types.KeyMACD, types.KeyMACDSignal, types.KeyMACDHistogram, types.KeyBBUpper, types.KeyBBMiddle, types.KeyBBLower, types.KeySMA20} {
		if v, ok := indicators[k]; ok {
			fmt.Fprintf(&b, "%s: %.4f\n", k, v)
		}
	}
	return b.String()
}

// parseDecision extracts the JSON decision object from the model output,
// tolerating surrounding prose or markdown fences.
func parseDecision(content string) (*strategy.LLMDecision, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in LLM response")
	}

	var decision strategy.LLMDecision
	if err := json.Unmarshal([]byte(content[start:end+1]), &decision); err != nil {
		return nil, fmt.Errorf("failed to parse LLM decision: %w", err)
	}

	decision.Decision = strings.ToUpper(strings.TrimSpace(decision.Decision))
	return &decision, nil
}
