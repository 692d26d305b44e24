package claude

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/weddingdb/internal/suggest"
)

// maxTokens bounds a suggestion; a few sentences of advice fit easily.
const maxTokens = 512

type ClaudeSuggester struct {
	client *anthropic.Client
	model  string
}

// NewClaudeSuggester returns a Suggester backed by the Anthropic Messages API.
// Options are passed to the underlying client (for example a base URL).
func NewClaudeSuggester(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeSuggester {
	return &ClaudeSuggester{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *ClaudeSuggester) Suggest(ctx context.Context, members int, place string) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(suggest.Prompt(members, place)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	var text string
	for _, blk := range resp.Content {
		if blk.Type == anthropic.MessagesContentTypeText {
			text = blk.GetText()
			break
		}
	}

	suggestion, err := suggest.ParseResponse(text)
	if err != nil {
		return "", fmt.Errorf("claude response: %w", err)
	}
	return suggestion, nil
}
