package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/vistoria/internal/vision"
)

// maxTokens bounds a single description or rewrite.
const maxTokens = 1024

type ClaudeAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
}

func NewClaudeAnalyzer(apiKey, model string) *ClaudeAnalyzer {
	return &ClaudeAnalyzer{
		apiKey: apiKey,
		model:  model,
	}
}

func (a *ClaudeAnalyzer) client() *anthropic.Client {
	var opts []anthropic.ClientOption
	if a.baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(a.baseURL))
	}
	return anthropic.NewClient(a.apiKey, opts...)
}

func (a *ClaudeAnalyzer) Describe(ctx context.Context, r io.Reader, mimeType, subject string) (string, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	source := anthropic.NewMessageContentSource(
		anthropic.MessagesContentSourceTypeBase64,
		normaliseMIME(mimeType),
		base64.StdEncoding.EncodeToString(imageData),
	)
	return a.send(ctx, []anthropic.MessageContent{
		anthropic.NewImageMessageContent(source),
		anthropic.NewTextMessageContent(vision.DescribePrompt(subject)),
	})
}

func (a *ClaudeAnalyzer) Refine(ctx context.Context, text string) (string, error) {
	return a.send(ctx, []anthropic.MessageContent{
		anthropic.NewTextMessageContent(vision.RefineRequest(text)),
	})
}

func (a *ClaudeAnalyzer) send(ctx context.Context, content []anthropic.MessageContent) (string, error) {
	resp, err := a.client().CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role:    anthropic.RoleUser,
			Content: content,
		}},
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("claude returned %s: %s", apiErr.Type, apiErr.Message)
		}
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	var parts []string
	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			parts = append(parts, c.GetText())
		}
	}
	text := vision.CleanResponse(strings.Join(parts, "\n"))
	if text == "" {
		return "", errors.New("claude returned no text")
	}
	return text, nil
}

// normaliseMIME maps browser MIME types to the values the Anthropic API accepts.
// Unknown types are sent as jpeg, which is what uploads are normalised to.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
