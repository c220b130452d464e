package ai

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/pipeline"
)

const classifierSystemPrompt = "You are an expert sentiment analyzer."

// Client implements the pipeline's SentimentClassifier and ReplyGenerator
// ports on top of the Anthropic Messages API.
type Client struct {
	llm       anthropic.Client
	model     string
	maxTokens int64
}

func New(apiKey, model string, maxTokens int64) *Client {
	return &Client{
		llm:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}
}

var (
	_ pipeline.SentimentClassifier = (*Client)(nil)
	_ pipeline.ReplyGenerator      = (*Client)(nil)
)

// Classify labels the text as positive, neutral or negative. Unexpected
// labels normalize to neutral; only transport/API problems surface as
// errors (and the caller degrades those to neutral too).
func (c *Client) Classify(ctx context.Context, text string) (domain.Sentiment, error) {
	prompt := fmt.Sprintf(
		"Classify the sentiment of this user comment into one of: positive, neutral, negative.\n\n"+
			"Answer with the single label only.\n\nComment: %q", text)

	msg, err := c.llm.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 16,
		System:    []anthropic.TextBlockParam{{Text: classifierSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return domain.SentimentNeutral, fmt.Errorf("classify: %w", err)
	}
	if len(msg.Content) == 0 {
		return domain.SentimentNeutral, fmt.Errorf("classify: empty response")
	}

	return domain.ParseSentiment(msg.Content[0].Text), nil
}

// Generate produces reply text from the ordered conversation turns. The
// system turn becomes the API's system prompt; user and assistant turns map
// directly onto message roles.
func (c *Client) Generate(ctx context.Context, turns []pipeline.Turn) (string, error) {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	for _, t := range turns {
		switch t.Role {
		case pipeline.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: t.Content})
		case pipeline.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	// The API rejects conversations that open with an assistant turn, which
	// happens when the thread root is the page's own comment.
	if len(messages) > 0 && messages[0].Role == anthropic.MessageParamRoleAssistant {
		messages = append([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("(conversation opened by the page)")),
		}, messages...)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("generate: no conversation turns")
	}

	msg, err := c.llm.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(msg.Content) == 0 {
		return "", fmt.Errorf("generate: empty response")
	}

	reply := strings.TrimSpace(msg.Content[0].Text)
	if reply == "" {
		return "", fmt.Errorf("generate: blank reply text")
	}
	return reply, nil
}
