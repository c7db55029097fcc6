package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vbonduro/vistoria/internal/vision"
)

const requestTimeout = 5 * time.Minute

type OllamaAnalyzer struct {
	model  string
	client *resty.Client
}

func NewOllamaAnalyzer(host, model string) *OllamaAnalyzer {
	client := resty.New().
		SetBaseURL(strings.TrimRight(host, "/")).
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &OllamaAnalyzer{
		model:  model,
		client: client,
	}
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

func (a *OllamaAnalyzer) Describe(ctx context.Context, r io.Reader, mimeType, subject string) (string, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(imageData) == 0 {
		return "", errors.New("empty image")
	}

	return a.generate(ctx, generateRequest{
		Model:  a.model,
		Prompt: vision.DescribePrompt(subject),
		Images: []string{base64.StdEncoding.EncodeToString(imageData)},
	})
}

func (a *OllamaAnalyzer) Refine(ctx context.Context, text string) (string, error) {
	return a.generate(ctx, generateRequest{
		Model:  a.model,
		Prompt: vision.RefineRequest(text),
	})
}

func (a *OllamaAnalyzer) generate(ctx context.Context, body generateRequest) (string, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode())
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(resp.Body(), &respBody); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := vision.CleanResponse(respBody.Response)
	if text == "" {
		return "", errors.New("ollama returned no text")
	}
	return text, nil
}
