// Package transcriber sends audio payloads to a remote speech-to-text model.
package transcriber

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/model"
)

//go:generate mockgen -destination=../mocks/mock_backend.go -package=mocks github.com/mrsingh-rishi/audio-scribe/transcriber Backend

// Request is what every backend receives: base64 audio, its MIME type and
// the fixed transcription instruction.
type Request struct {
	MimeType    string
	Data        string
	Instruction string
}

// Backend is a pluggable transcription service.
type Backend interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

// NewRequest builds the service request for p. A payload that was never
// built, or whose encoding is missing, is refused.
func NewRequest(p model.AudioPayload, instruction string) (Request, error) {
	if p.IsZero() {
		return Request{}, model.ErrNoPayload
	}
	if p.Encoded() == "" && p.Size() > 0 {
		return Request{}, errors.Wrap(model.ErrIO, "payload has no encoding")
	}
	return Request{MimeType: p.MimeType(), Data: p.Encoded(), Instruction: instruction}, nil
}

// Prompt holds the configurable parts of the instruction.
type Prompt struct {
	Language    string
	Script      string
	Placeholder string
}

// Instruction renders the fixed instruction: script-only output in the
// target language, no translation, no preamble, and a fixed placeholder for
// audio that cannot be understood.
func Instruction(p Prompt) string {
	script := p.Script
	if script == "" {
		script = "its native"
	}
	return fmt.Sprintf(
		"Transcribe this audio exactly as spoken in %s, written only in %s script. "+
			"Do not translate. Do not add any preamble, labels, timestamps or commentary; output only the transcript. "+
			"If the audio is silent or unintelligible, output exactly: %s",
		p.Language, script, p.Placeholder)
}
