// Package brain implements the Brain stage: it consumes commands from the
// command queue, drives the LLM capability, and produces a reply for the
// Speech stage.
package brain

import "context"

// Chatter is the opaque LLM capability. Each call is independent: there is
// no conversational memory across turns, so implementations must not
// retain state between calls beyond whatever process-wide engine handle
// they share.
type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// SamplerChain documents, in order, the sampling stages a native LLM
// engine would apply: temperature, then top-k, then top-p, then a seeded
// distribution sample. An HTTP-backed Chatter (see OllamaChatter) cannot
// run these as discrete native calls, but it passes the same parameters
// through as request options so the effective sampling behavior matches.
type SamplerChain struct {
	Temperature float32
	TopK        int
	TopP        float32
	Seed        int64
}

// DefaultSamplerChain returns temperature(0.7), top-k(40), top-p(0.9),
// seed=0xC0FFEE.
func DefaultSamplerChain() SamplerChain {
	return SamplerChain{
		Temperature: 0.7,
		TopK:        40,
		TopP:        0.9,
		Seed:        0xC0FFEE,
	}
}
