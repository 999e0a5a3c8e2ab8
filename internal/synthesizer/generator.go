// Package synthesizer turns retrieved documents into grounded answers.
package synthesizer

import "context"

// Prompt is a single-turn generation request.
type Prompt struct {
	// System frames the assistant's role.
	System string

	// User is the full user-facing prompt, context included.
	User string
}

// Generator produces answer text from a prompt.
//
// Generators are allowed to fail; the Synthesizer absorbs failures with a
// template fallback so answer synthesis as a whole never errors on provider
// trouble.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}
