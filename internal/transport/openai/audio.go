package openai

import (
	"context"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/metrics"
)

// Speaker synthesizes speech with the audio speech API.
type Speaker struct {
	client *openai.Client
	model  string
	voice  string
}

// NewSpeaker creates a text-to-speech adapter, e.g. for "gpt-4o-mini-tts" with voice "alloy".
func NewSpeaker(client *openai.Client, model, voice string) *Speaker {
	return &Speaker{client: client, model: model, voice: voice}
}

// Speak returns MP3 audio for text.
func (s *Speaker) Speak(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err = observe(metrics.OpSpeech, s.model, start, err); err != nil {
		return nil, err
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %v: %w", err, domain.ErrUpstream)
	}
	return audio, nil
}

// Transcriber converts speech to text with the audio transcription API.
type Transcriber struct {
	client *openai.Client
	model  string
}

// NewTranscriber creates a speech-to-text adapter, e.g. for "whisper-1".
func NewTranscriber(client *openai.Client, model string) *Transcriber {
	return &Transcriber{client: client, model: model}
}

// Transcribe streams audio to the API. filename only tells the API the container
// format through its extension.
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	start := time.Now()
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   audio,
	})
	if err = observe(metrics.OpTranscription, t.model, start, err); err != nil {
		return "", err
	}
	return resp.Text, nil
}
