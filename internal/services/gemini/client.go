// Package gemini generates Instagram captions from subtitle text using the
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/genai"

	"reelpost/internal/services"
)

const (
	// subtitleLimit bounds the prompt payload to avoid token limits.
	subtitleLimit = 2000

	requestAttempts = 3
	requestBackoff  = 2 * time.Second
)

const captionPrompt = `You are a social media expert. Based on the following English subtitle text from a video, create an engaging Instagram caption in Persian (Farsi).

The caption should:
- Be creative and engaging
- Summarize or highlight the key message from the subtitles
- Be relevant to the content
- Use appropriate emojis
- Include 5-10 relevant hashtags in Persian or English at the end
- Be suitable for Instagram audience

Subtitle text:
%s

Output ONLY the caption with hashtags, nothing else.`

// Client wraps the Gemini API for caption generation.
type Client struct {
	client *genai.Client
	model  string
}

// New constructs a caption client for the given API key and model.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, services.Wrapf(services.ErrConfiguration, "gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "create gemini client", err)
	}

	return &Client{client: client, model: model}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// GenerateCaption produces a Persian Instagram caption from subtitle text.
func (c *Client) GenerateCaption(ctx context.Context, subtitleText string) (string, error) {
	trimmed := strings.TrimSpace(subtitleText)
	if trimmed == "" {
		return "", services.Wrapf(services.ErrValidation, "subtitle text is empty")
	}
	trimmed = truncateRunes(trimmed, subtitleLimit)

	prompt := fmt.Sprintf(captionPrompt, trimmed)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	var lastErr error
	for attempt := 0; attempt < requestAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(requestBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return "", services.Wrap(services.ErrTimeout, "generate caption", ctx.Err())
			}
		}

		result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
		if err != nil {
			lastErr = err
			continue
		}

		caption := strings.TrimSpace(result.Text())
		if caption == "" {
			lastErr = fmt.Errorf("model returned empty caption")
			continue
		}
		return caption, nil
	}

	return "", services.Wrap(services.ErrTransient, "generate caption", lastErr)
}

// truncateRunes caps the text at limit characters without splitting a
// multi-byte sequence, which matters for the Persian subtitle text.
func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}
