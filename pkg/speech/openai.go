package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIRecognizer transcribes utterances with the audio transcription API.
type OpenAIRecognizer struct {
	api    *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIRecognizer(cfg openai.ClientConfig, model string, logger *zap.Logger) *OpenAIRecognizer {
	return &OpenAIRecognizer{
		api:    openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

func (r *OpenAIRecognizer) Recognize(ctx context.Context, audio Audio) (string, error) {
	resp, err := r.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    r.model,
		FilePath: audio.Name,
		Reader:   audio.Reader,
		Language: "en",
	})
	if err != nil {
		return "", fmt.Errorf("creating transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	r.logger.Debug("transcribed utterance", zap.String("name", audio.Name), zap.Int("chars", len(text)))
	return text, nil
}

// Sink receives synthesized audio.
type Sink interface {
	Play(ctx context.Context, key string, audio io.Reader) error
}

// OpenAISynthesizer renders text with the text-to-speech API.
type OpenAISynthesizer struct {
	api    *openai.Client
	model  string
	voice  string
	sink   Sink
	logger *zap.Logger
}

func NewOpenAISynthesizer(cfg openai.ClientConfig, model, voice string, sink Sink, logger *zap.Logger) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		api:    openai.NewClientWithConfig(cfg),
		model:  model,
		voice:  voice,
		sink:   sink,
		logger: logger,
	}
}

func (s *OpenAISynthesizer) Speak(ctx context.Context, text string) error {
	resp, err := s.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          1,
	})
	if err != nil {
		return fmt.Errorf("creating speech: %w", err)
	}
	defer resp.Close()

	return s.sink.Play(ctx, Key(text), resp)
}

// Key names the audio for text. Equal texts share a key.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:12]
}

// DirSink stores each utterance as speech-<key>.mp3 under Dir, overwriting an
// earlier rendering of the same text.
type DirSink struct {
	Dir string
}

// Path is where the audio for key is written.
func (d DirSink) Path(key string) string {
	return filepath.Join(d.Dir, "speech-"+key+".mp3")
}

func (d DirSink) Play(_ context.Context, key string, audio io.Reader) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("creating speech dir: %w", err)
	}

	f, err := os.Create(d.Path(key))
	if err != nil {
		return fmt.Errorf("creating audio file: %w", err)
	}

	if _, err := io.Copy(f, audio); err != nil {
		f.Close()
		return fmt.Errorf("writing audio file: %w", err)
	}
	return f.Close()
}
