package transcriber

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/mrsingh-rishi/audio-scribe/encoder"
	"github.com/mrsingh-rishi/audio-scribe/model"
)

// GeminiBackend asks a Gemini model to transcribe inlined audio.
type GeminiBackend struct {
	Client *genai.Client
	Model  string
}

// NewGeminiBackend builds a Gemini API client. An empty baseURL uses the
// public endpoint.
func NewGeminiBackend(apiKey, modelName, baseURL string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if modelName == "" {
		return nil, errors.New("gemini model is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	return &GeminiBackend{Client: client, Model: modelName}, nil
}

func (g *GeminiBackend) Transcribe(ctx context.Context, req Request) (string, error) {
	audio, err := encoder.Decode(req.Data)
	if err != nil {
		return "", errors.Wrap(model.ErrService, err.Error())
	}

	parts := []*genai.Part{genai.NewPartFromBytes(audio, req.MimeType)}
	if req.Instruction != "" {
		parts = append(parts, genai.NewPartFromText(req.Instruction))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.Client.Models.GenerateContent(ctx, g.Model, contents, nil)
	if err != nil {
		return "", errors.Wrapf(model.ErrService, "gemini generateContent: %v", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.Wrap(model.ErrService, "gemini returned no text")
	}
	return text, nil
}
