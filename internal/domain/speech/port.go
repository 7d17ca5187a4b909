package speech

import "context"

// Synthesizer turns text into audio using a hosted provider.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Audio, error)
}

// AudioCache stores previously synthesised audio. Get returns (nil, nil) on a miss.
type AudioCache interface {
	Get(ctx context.Context, key string) (*Audio, error)
	Put(ctx context.Context, key string, a *Audio) error
}
