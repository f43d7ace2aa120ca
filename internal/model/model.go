// Package model defines ModelClient (spec.md §4.5), the external LLM
// collaborator SchemaPhase and CodePhase issue prompts through.
package model

import "context"

// Client issues a prompt and returns the model's text reply. Must be
// idempotent-safe to retry; implementations decide their own concurrency
// limits. Calls may block for seconds and may fail transiently
// (spec.md §4.5).
type Client interface {
	Complete(ctx context.Context, systemMessage, userPrompt string, expectJSON bool) (string, error)
}
