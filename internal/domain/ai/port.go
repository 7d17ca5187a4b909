package ai

import "context"

// Client sends text to a text-generation provider and returns its raw reply.
type Client interface {
	Analyze(ctx context.Context, text string) (string, error)
}
