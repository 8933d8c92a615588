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

const defaultOllamaEndpoint = "http://localhost:11434"

// Ollama calls a local Ollama daemon. It is the last link of the default
// chain so a fully offline deployment still gets a best-effort answer.
type Ollama struct {
	Model    string
	Endpoint string
	client   *http.Client
}

// NewOllama builds an Ollama provider. Model defaults to llama3.1.
func NewOllama(model, endpoint string) *Ollama {
	if model == "" {
		model = "llama3.1"
	}
	if endpoint == "" {
		endpoint = defaultOllamaEndpoint
	}
	return &Ollama{
		Model:    model,
		Endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *Ollama) Name() string { return "ollama" }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Diagnose submits the diagnostic prompt and parses the JSON answer.
func (o *Ollama) Diagnose(ctx context.Context, prompt string) (*Payload, error) {
	body, _ := json.Marshal(ollamaRequest{
		Model:  o.Model,
		Prompt: systemPrompt + "\n\n" + prompt,
		Format: "json",
		Stream: false,
	})

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("ollama: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var ollResp ollamaResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&ollResp); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	return parsePayload(ollResp.Response)
}
