package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Provider identifies one of the supported AI services
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderPerplexity Provider = "perplexity"
)

const (
	// MaxOutputTokens caps the reply length for every provider
	MaxOutputTokens = 1000

	anthropicVersion = "2023-06-01"
)

// Config is the fixed wiring for a single provider
type Config struct {
	// Endpoint is the chat completion URL
	Endpoint string

	// Model is the model identifier sent in every request
	Model string

	// Headers builds the auth headers for a credential
	Headers func(credential string) http.Header
}

var configs = map[Provider]Config{
	ProviderOpenAI: {
		Endpoint: "https://api.openai.com/v1/chat/completions",
		Model:    "gpt-4o",
		Headers:  bearerHeaders,
	},
	ProviderAnthropic: {
		Endpoint: "https://api.anthropic.com/v1/messages",
		Model:    "claude-3-5-sonnet-20241022",
		Headers: func(credential string) http.Header {
			h := jsonHeaders()
			h.Set("x-api-key", credential)
			h.Set("anthropic-version", anthropicVersion)
			return h
		},
	},
	ProviderPerplexity: {
		Endpoint: "https://api.perplexity.ai/chat/completions",
		Model:    "sonar",
		Headers:  bearerHeaders,
	},
}

func jsonHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return h
}

func bearerHeaders(credential string) http.Header {
	h := jsonHeaders()
	h.Set("Authorization", "Bearer "+credential)
	return h
}

// ErrUnknownProvider is wrapped by ParseProvider for names outside All()
var ErrUnknownProvider = errors.New("unknown provider")

// All returns the supported providers in display order
func All() []Provider {
	return []Provider{ProviderOpenAI, ProviderAnthropic, ProviderPerplexity}
}

// ParseProvider converts a user-supplied name into a Provider
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := configs[p]; !ok {
		return "", fmt.Errorf("%w %q (expected one of %s)", ErrUnknownProvider, name, strings.Join(names(), ", "))
	}
	return p, nil
}

// Lookup returns the fixed configuration of a provider
func Lookup(p Provider) (Config, error) {
	cfg, ok := configs[p]
	if !ok {
		return Config{}, fmt.Errorf("unknown provider %q", p)
	}
	return cfg, nil
}

// Valid reports whether p is one of the supported providers
func (p Provider) Valid() bool {
	_, ok := configs[p]
	return ok
}

// String implements fmt.Stringer
func (p Provider) String() string {
	return string(p)
}

func names() []string {
	out := make([]string, 0, len(configs))
	for _, p := range All() {
		out = append(out, string(p))
	}
	return out
}
