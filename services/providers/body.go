package providers

import "fmt"

// OpenAI and Perplexity share the chat completions envelope.

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role string `json:"role"`
	// Content is a string for text-only messages, []chatPart otherwise
	Content any `json:"content"`
}

type chatPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

// Anthropic messages API envelope

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anthropicBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// BuildRequestBody maps a prompt and optional image into the provider's
// payload. It performs no I/O.
func BuildRequestBody(p Provider, prompt string, img *EncodedImage, preamble string) (*WireBody, error) {
	cfg, err := Lookup(p)
	if err != nil {
		return nil, newError(KindInvalidRequest, p, "unsupported provider", err)
	}

	switch p {
	case ProviderOpenAI, ProviderPerplexity:
		return &WireBody{Provider: p, Payload: buildChatRequest(cfg.Model, prompt, img, preamble)}, nil
	case ProviderAnthropic:
		return &WireBody{Provider: p, Payload: buildAnthropicRequest(cfg.Model, prompt, img, preamble)}, nil
	default:
		return nil, newError(KindInvalidRequest, p, fmt.Sprintf("no body builder for %s", p), nil)
	}
}

func buildChatRequest(model, prompt string, img *EncodedImage, preamble string) *chatRequest {
	msg := chatMessage{Role: "user", Content: prompt}
	if img != nil {
		msg.Content = []chatPart{
			{Type: "text", Text: imagePrompt(preamble, prompt)},
			{Type: "image_url", ImageURL: &chatImageURL{URL: img.DataURI()}},
		}
	}
	return &chatRequest{
		Model:     model,
		Messages:  []chatMessage{msg},
		MaxTokens: MaxOutputTokens,
	}
}

func buildAnthropicRequest(model, prompt string, img *EncodedImage, preamble string) *anthropicRequest {
	msg := anthropicMessage{Role: "user", Content: prompt}
	if img != nil {
		msg.Content = []anthropicBlock{
			{Type: "text", Text: imagePrompt(preamble, prompt)},
			{
				Type: "image",
				Source: &anthropicImageSource{
					Type:      "base64",
					MediaType: img.MediaType,
					Data:      img.Base64,
				},
			},
		}
	}
	return &anthropicRequest{
		Model:     model,
		MaxTokens: MaxOutputTokens,
		Messages:  []anthropicMessage{msg},
	}
}
