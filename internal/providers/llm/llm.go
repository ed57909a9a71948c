package llm

import "context"

type Provider interface {
	// Complete returns the full text answer for one prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	// StreamAnswer returns a stream of text chunks (incremental).
	StreamAnswer(ctx context.Context, prompt string) (chunks <-chan string, errs <-chan error)
	Close() error
}
