// Package webapp holds the generation backends asked for a web app: the
// self-hosted pipe and the direct Gemini and OpenAI APIs. Each returns raw
// model text; sanitization happens in the generation pipeline.
package webapp

import "autobuilder/internal/generation"

var (
	_ generation.Source = (*PipeSource)(nil)
	_ generation.Source = (*GeminiSource)(nil)
	_ generation.Source = (*OpenAISource)(nil)
)
