package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAI calls the OpenAI chat completions API in JSON mode.
type OpenAI struct {
	APIKey   string
	Model    string
	Endpoint string
	client   *http.Client
}

// NewOpenAI builds an OpenAI provider. Model defaults to gpt-4o-mini.
func NewOpenAI(apiKey, model, endpoint string) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	return &OpenAI{
		APIKey:   apiKey,
		Model:    model,
		Endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *OpenAI) Name() string { return "openai" }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float64 `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Diagnose submits the diagnostic prompt and parses the JSON answer.
func (o *OpenAI) Diagnose(ctx context.Context, prompt string) (*Payload, error) {
	if o.APIKey == "" {
		return nil, fmt.Errorf("openai: api key not configured")
	}

	reqBody := openAIRequest{
		Model: o.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	}
	reqBody.ResponseFormat.Type = "json_object"
	body, _ := json.Marshal(reqBody)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.APIKey)

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("openai: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var oaiResp openAIResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&oaiResp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(oaiResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices")
	}
	return parsePayload(oaiResp.Choices[0].Message.Content)
}

// systemPrompt instructs every provider to answer with the Payload schema.
const systemPrompt = `You are an automotive diagnostic assistant. ` +
	`Analyze the vehicle data and respond with a single JSON object of the form ` +
	`{"issues":[{"component":string,"description":string,"probability":number 0..1,` +
	`"repair_complexity":"low"|"medium"|"high","estimated_labor_hours":number,` +
	`"required_parts":[string]}],"confidence":number 0..1}. No prose outside the JSON.`
