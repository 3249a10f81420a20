// Package provider abstracts the chat completion backend that persona
// agents talk to. The OpenAI implementation is the only real backend;
// tests and mock mode substitute their own.
package provider

import "context"

// Request is a single chat completion call.
type Request struct {
	System      string
	User        string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Provider answers chat completion requests.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to the Provider interface.
type Func func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
