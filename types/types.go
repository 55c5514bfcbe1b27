package types

import (
	"context"

	"github.com/mrsingh-rishi/audio-scribe/model"
)

// TranscriptionJob asks the transcription worker to process one payload.
// The worker answers exactly once on Reply.
type TranscriptionJob struct {
	Ctx     context.Context
	Payload model.AudioPayload
	Reply   chan<- TranscriptionResult
}

type TranscriptionResult struct {
	Transcription model.TranscribedText
	Err           error
}
