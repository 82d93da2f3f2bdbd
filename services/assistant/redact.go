package assistant

import (
	"regexp"
	"sort"
)

// SecretType names a kind of credential found in free text
type SecretType string

const (
	SecretTypeAnthropicKey  SecretType = "anthropic_key"
	SecretTypeOpenAIKey     SecretType = "openai_key"
	SecretTypePerplexityKey SecretType = "perplexity_key"
	SecretTypeBearerToken   SecretType = "token"
	SecretTypeJWT           SecretType = "jwt"
	SecretTypePrivateKey    SecretType = "private_key"
	SecretTypeDatabaseURL   SecretType = "database_url"
)

// SecretDetection is one secret found in a text
type SecretDetection struct {
	Type     SecretType
	StartPos int
	EndPos   int
}

// Order matters: earlier patterns win on overlap, so the Anthropic prefix is
// checked before the shorter OpenAI one. There is no generic
// long-token pattern; German compounds would match it.
var secretPatterns = []struct {
	typ     SecretType
	pattern *regexp.Regexp
}{
	{SecretTypeAnthropicKey, regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_\-]{20,}`)},
	{SecretTypeOpenAIKey, regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_\-]{20,}`)},
	{SecretTypePerplexityKey, regexp.MustCompile(`\bpplx-[A-Za-z0-9]{20,}`)},
	{SecretTypeJWT, regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`)},
	{SecretTypeBearerToken, regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-\.]{20,}`)},
	// whole PEM block; an unterminated block runs to the end of the text
	{SecretTypePrivateKey, regexp.MustCompile(`(?s)-----BEGIN\s+(?:RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE\s+KEY-----.*?(?:-----END\s+(?:RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE\s+KEY-----|$)`)},
	{SecretTypeDatabaseURL, regexp.MustCompile(`(?i)(?:postgres|postgresql|mysql|mongodb|redis)://[^\s'"]+:[^\s'"]+@[^\s'"]+`)},
}

// DetectSecrets returns non-overlapping secrets in text, ordered by position
func DetectSecrets(text string) []SecretDetection {
	var detections []SecretDetection
	for _, sp := range secretPatterns {
		for _, m := range sp.pattern.FindAllStringIndex(text, -1) {
			if overlaps(detections, m[0], m[1]) {
				continue
			}
			detections = append(detections, SecretDetection{Type: sp.typ, StartPos: m[0], EndPos: m[1]})
		}
	}
	sort.Slice(detections, func(i, j int) bool {
		return detections[i].StartPos < detections[j].StartPos
	})
	return detections
}

// HasSecrets returns true if any secrets are detected
func HasSecrets(text string) bool {
	return len(DetectSecrets(text)) > 0
}

// RedactSecrets replaces every detected secret with a placeholder
func RedactSecrets(text string) string {
	detections := DetectSecrets(text)
	result := text
	// back to front so earlier offsets stay valid
	for i := len(detections) - 1; i >= 0; i-- {
		d := detections[i]
		result = result[:d.StartPos] + redactionString(d.Type) + result[d.EndPos:]
	}
	return result
}

func redactionString(t SecretType) string {
	switch t {
	case SecretTypeAnthropicKey, SecretTypeOpenAIKey, SecretTypePerplexityKey:
		return "[API_KEY_REDACTED]"
	case SecretTypeBearerToken:
		return "[TOKEN_REDACTED]"
	case SecretTypeJWT:
		return "[JWT_REDACTED]"
	case SecretTypePrivateKey:
		return "[PRIVATE_KEY_REDACTED]"
	case SecretTypeDatabaseURL:
		return "[DATABASE_URL_REDACTED]"
	default:
		return "[SECRET_REDACTED]"
	}
}

func overlaps(detections []SecretDetection, start, end int) bool {
	for _, d := range detections {
		if start < d.EndPos && end > d.StartPos {
			return true
		}
	}
	return false
}
