package providers

// Request is a single question to a provider
type Request struct {
	// Provider to send the request to
	Provider Provider `validate:"required,oneof=openai anthropic perplexity"`

	// Credential authorizes the call; never logged
	Credential string `validate:"required"`

	// Prompt is the user's text, may be empty when an image is attached
	Prompt string `validate:"required_without=ImageRef"`

	// ImageRef is a path, file:// URI or https URL of the source image
	ImageRef string

	// Locale overrides the adapter's preamble language when set
	Locale string
}

// Result is the provider-agnostic reply
type Result struct {
	// Text is the assistant's reply
	Text string `json:"text"`

	// Provider that produced the reply
	Provider Provider `json:"provider"`

	// ResizedImageRef points at the downscaled copy, empty without an image
	ResizedImageRef string `json:"resized_image_ref,omitempty"`
}

// EncodedImage is the transport form of an attached image
type EncodedImage struct {
	// Base64 holds the standard base64 encoding of the JPEG bytes
	Base64 string

	// MediaType is always image/jpeg
	MediaType string

	// Ref is the path of the resized copy
	Ref string

	Width  int
	Height int
}

// DataURI returns the image as an inline data URI
func (e *EncodedImage) DataURI() string {
	return "data:" + e.MediaType + ";base64," + e.Base64
}

// WireBody is a provider-shaped request payload ready for JSON encoding
type WireBody struct {
	Provider Provider
	Payload  any
}

// RawResponse is an undecoded provider reply
type RawResponse struct {
	StatusCode int
	Body       []byte
}
