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

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// Gemini calls the Google Generative Language API.
type Gemini struct {
	APIKey   string
	Model    string
	Endpoint string
	client   *http.Client
}

// NewGemini builds a Gemini provider. Model defaults to gemini-1.5-flash.
func NewGemini(apiKey, model, endpoint string) *Gemini {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	return &Gemini{
		APIKey:   apiKey,
		Model:    model,
		Endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Gemini) Name() string { return "gemini" }

type geminiRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMIMEType string  `json:"response_mime_type"`
		Temperature      float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Diagnose submits the diagnostic prompt and parses the JSON answer.
func (g *Gemini) Diagnose(ctx context.Context, prompt string) (*Payload, error) {
	if g.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key not configured")
	}

	var reqBody geminiRequest
	reqBody.Contents = make([]struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}, 1)
	reqBody.Contents[0].Parts = []struct {
		Text string `json:"text"`
	}{{Text: systemPrompt + "\n\n" + prompt}}
	reqBody.GenerationConfig.ResponseMIMEType = "application/json"
	reqBody.GenerationConfig.Temperature = 0.2
	body, _ := json.Marshal(reqBody)

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.Endpoint, g.Model, g.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("gemini: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var gemResp geminiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&gemResp); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty candidates")
	}
	return parsePayload(gemResp.Candidates[0].Content.Parts[0].Text)
}
