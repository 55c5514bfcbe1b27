package model

import "encoding/base64"

// AudioChunk represents a chunk of audio data.
type AudioChunk []byte

// TranscribedText represents text produced by a transcription service.
type TranscribedText string

const (
	// MimeCapture tags blobs assembled from live microphone chunks.
	MimeCapture = "audio/webm"
	// MimeRemote tags audio-only streams pulled through proxy endpoints.
	MimeRemote = "audio/mp4"
)

// AudioPayload is the normalized unit handed to the transcription service.
// The zero value is an empty payload; use NewAudioPayload to build one.
type AudioPayload struct {
	bytes       []byte
	encoded     string
	mimeType    string
	displayName string
}

// NewAudioPayload copies data and derives its base64 text from it.
func NewAudioPayload(data []byte, mimeType, displayName string) AudioPayload {
	owned := make([]byte, len(data))
	copy(owned, data)
	return AudioPayload{
		bytes:       owned,
		encoded:     base64.StdEncoding.EncodeToString(owned),
		mimeType:    mimeType,
		displayName: displayName,
	}
}

// Bytes returns a copy of the audio content.
func (p AudioPayload) Bytes() []byte {
	out := make([]byte, len(p.bytes))
	copy(out, p.bytes)
	return out
}

func (p AudioPayload) Encoded() string     { return p.encoded }
func (p AudioPayload) MimeType() string    { return p.mimeType }
func (p AudioPayload) DisplayName() string { return p.displayName }
func (p AudioPayload) Size() int           { return len(p.bytes) }

// IsZero reports whether p was never built by NewAudioPayload.
func (p AudioPayload) IsZero() bool {
	return p.mimeType == "" && p.bytes == nil
}
