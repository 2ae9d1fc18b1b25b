// Package genai wraps the hosted text-generation model behind three
// operations: outline, section content, and instruction-driven refinement.
// Transient failures are masked with fixed fallbacks so the authoring flow
// never stalls; only a missing API key fails loudly.
package genai

import "errors"

// ErrMissingAPIKey is the configuration error for an absent model API key.
// Unlike transient call failures it is surfaced immediately to the caller.
var ErrMissingAPIKey = errors.New("genai: missing API key")

// Source tags where a result's content came from, so callers and tests can
// tell real generations from substituted defaults.
type Source string

const (
	// SourceGenerated marks content produced by the model.
	SourceGenerated Source = "generated"
	// SourceFallback marks a fixed default substituted after a failure or
	// empty response.
	SourceFallback Source = "fallback"
	// SourceError marks a human-readable error string returned as content.
	SourceError Source = "error"
)

// OutlineResult is an ordered list of section/slide titles.
type OutlineResult struct {
	Titles []string `json:"titles"`
	Source Source   `json:"source"`
}

// TextResult is generated or rewritten body content.
type TextResult struct {
	Content string `json:"content"`
	Source  Source `json:"source"`
}
