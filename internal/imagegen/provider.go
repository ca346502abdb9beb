// Package imagegen defines the Provider interface for scene-illustration
// backends used to render an optional portrait or scene image alongside
// DM-approved narration.
//
// Implementations must be safe for concurrent use.
package imagegen

import "context"

// Request describes a single image-generation call.
type Request struct {
	// Prompt is the natural-language description of the image to generate.
	Prompt string

	// NegativePrompt lists concepts the model should avoid rendering, if supported.
	NegativePrompt string

	// ReferenceImageURL optionally points at an existing image to condition on
	// (e.g., a recurring NPC portrait). Ignored by providers that don't support it.
	ReferenceImageURL string

	// Width and Height request specific output dimensions. A provider may round
	// to the nearest size it supports.
	Width  int
	Height int
}

// Result is the output of a successful image-generation call.
type Result struct {
	// URL is a provider-hosted or locally-cached address for the generated image.
	URL string

	// RevisedPrompt holds the provider's rewritten prompt, if it revises prompts
	// before generation. Empty if the provider does not do this.
	RevisedPrompt string
}

// Provider is the abstraction over any image-generation backend.
type Provider interface {
	// Generate renders an image for req and returns its location.
	Generate(ctx context.Context, req Request) (Result, error)

	// ModelID returns the provider-specific model identifier in use
	// (e.g., "dall-e-3", "stable-diffusion-xl").
	ModelID() string
}
