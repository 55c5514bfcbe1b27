package transcriber

import (
	"bytes"
	"context"
	"mime"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/audio-scribe/encoder"
	"github.com/mrsingh-rishi/audio-scribe/model"
)

// OpenAIBackend uses the audio transcription endpoint. The instruction is
// passed as the prompt and Language as the ISO-639-1 hint.
type OpenAIBackend struct {
	Client   *openai.Client
	Model    string
	Language string
}

func NewOpenAIBackend(apiKey, modelName, baseURL, language string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if modelName == "" {
		modelName = openai.Whisper1
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{
		Client:   openai.NewClientWithConfig(cfg),
		Model:    modelName,
		Language: language,
	}, nil
}

func (o *OpenAIBackend) Transcribe(ctx context.Context, req Request) (string, error) {
	audio, err := encoder.Decode(req.Data)
	if err != nil {
		return "", err
	}
	resp, err := o.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.Model,
		FilePath: "audio" + extensionFor(req.MimeType),
		Reader:   bytes.NewReader(audio),
		Prompt:   req.Instruction,
		Language: o.Language,
	})
	if err != nil {
		return "", errors.Wrapf(model.ErrService, "openai transcription: %v", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.Wrap(model.ErrService, "openai returned no text")
	}
	return text, nil
}

// extensionFor picks the file extension the transcription API uses to
// detect the container.
func extensionFor(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = mimeType
	}
	switch mediaType {
	case "audio/webm":
		return ".webm"
	case "audio/mp4", "audio/x-m4a", "audio/m4a":
		return ".m4a"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	default:
		return ".webm"
	}
}
