package speech

import (
	"context"
	"io"
)

// Synthesizer turns text into MP3 audio.
type Synthesizer interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

// Transcriber turns an audio stream into text. filename carries the format.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}
