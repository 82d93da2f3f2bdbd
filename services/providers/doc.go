// Package providers implements the adapter for external AI providers.
//
// This package provides:
//   - A fixed table of endpoint, model and auth headers per provider
//   - Image downscaling and JPEG encoding for image questions
//   - Provider-specific request bodies and reply extraction
//   - A typed error taxonomy shared by all providers
//
// Calls are single-shot: no retries, no streaming, no session state.
package providers
