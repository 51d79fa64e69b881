package api

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/ticketsmith/internal/draft"
)

var _ draft.StreamingGenerator = (*Client)(nil)

// params converts a drafting request into a single Messages call. The user
// turns are sent as consecutive text blocks of one user message.
func (c *Client) params(req draft.Request) anthropic.MessageNewParams {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Turns))
	for _, turn := range req.Turns {
		blocks = append(blocks, anthropic.NewTextBlock(turn))
	}

	p := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	}
	if req.System != "" {
		p.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	return p
}

// Generate sends one request and returns the concatenated text of the reply.
func (c *Client) Generate(ctx context.Context, req draft.Request) (string, error) {
	resp, err := c.inner.Messages.New(ctx, c.params(req))
	if err != nil {
		return "", err
	}
	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return messageText(resp.Content), nil
}

// GenerateStream sends one streaming request, passing each text delta to
// onChunk, and returns the complete text once the stream ends.
func (c *Client) GenerateStream(ctx context.Context, req draft.Request, onChunk func(string)) (string, error) {
	stream := c.inner.Messages.NewStreaming(ctx, c.params(req))
	defer stream.Close()

	var (
		message anthropic.Message
		text    strings.Builder
	)
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return "", err
		}

		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				text.WriteString(delta.Text)
				if onChunk != nil {
					onChunk(delta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", err
	}

	c.tracker.Add(message.Usage.InputTokens, message.Usage.OutputTokens)
	return text.String(), nil
}

func messageText(content []anthropic.ContentBlockUnion) string {
	var b strings.Builder
	for _, block := range content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String()
}
