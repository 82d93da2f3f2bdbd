package providers

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Reply text location per provider, in gjson path syntax.
var replyPaths = map[Provider]string{
	ProviderOpenAI:     "choices.0.message.content",
	ProviderPerplexity: "choices.0.message.content",
	ProviderAnthropic:  `content.#(type=="text").text`,
}

// ParseResponse extracts the assistant's reply from a 2xx payload
func ParseResponse(p Provider, raw *RawResponse) (string, error) {
	path, ok := replyPaths[p]
	if !ok {
		return "", newError(KindResponseParse, p, "unsupported provider", nil)
	}
	if raw == nil || !gjson.ValidBytes(raw.Body) {
		return "", newError(KindResponseParse, p, "response body is not valid JSON", nil)
	}

	v := gjson.GetBytes(raw.Body, path)
	if !v.Exists() {
		return "", newError(KindResponseParse, p, fmt.Sprintf("missing %q in response", path), nil)
	}
	if v.Type != gjson.String {
		return "", newError(KindResponseParse, p, fmt.Sprintf("%q is %s, want string", path, v.Type), nil)
	}
	if strings.TrimSpace(v.String()) == "" {
		return "", newError(KindResponseParse, p, "reply text is empty", nil)
	}
	return v.String(), nil
}

// errorMessage pulls the provider-supplied message out of an error body
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"error.message", "error", "message", "detail"} {
		v := gjson.GetBytes(body, path)
		if v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
			return v.String()
		}
	}
	return ""
}
