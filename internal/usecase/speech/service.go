package speech

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// DefaultExtension is used when the uploaded file name has none.
const DefaultExtension = ".webm"

// Service passes speech requests through to the model provider.
type Service struct {
	tts Synthesizer
	stt Transcriber
}

// New creates a speech service.
func New(tts Synthesizer, stt Transcriber) *Service {
	return &Service{tts: tts, stt: stt}
}

// Synthesize returns MP3 bytes for text.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	audio, err := s.tts.Speak(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	return audio, nil
}

// Transcribe returns the text spoken in audio. Only the extension of
// filename is forwarded so that client-supplied paths never reach the provider.
func (s *Service) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	text, err := s.stt.Transcribe(ctx, "audio"+Extension(filename), audio)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}

// Extension returns the lower-cased extension of filename, or DefaultExtension.
func Extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == "." {
		return DefaultExtension
	}
	return ext
}
