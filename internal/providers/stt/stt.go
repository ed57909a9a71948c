package stt

import "context"

// Provider turns an uploaded call recording into a transcript. Confidence is
// the provider's own estimate in [0,1]; 0 with no error means silence.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}
