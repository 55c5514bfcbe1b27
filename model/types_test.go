package model

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/pkg/errors"
)

func TestNewAudioPayloadOwnsBytes(t *testing.T) {
	src := []byte{1, 2, 3}
	p := NewAudioPayload(src, "audio/wav", "clip.wav")
	src[0] = 9

	if got := p.Bytes(); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("payload bytes changed with source: %v", got)
	}
	out := p.Bytes()
	out[1] = 9
	if got := p.Bytes(); got[1] != 2 {
		t.Fatalf("payload bytes changed through accessor")
	}
}

func TestNewAudioPayloadEncodingMatchesBytes(t *testing.T) {
	p := NewAudioPayload([]byte("hello audio"), "audio/wav", "")
	decoded, err := base64.StdEncoding.DecodeString(p.Encoded())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded, p.Bytes()) {
		t.Fatalf("encoded text does not match bytes")
	}
	if p.Size() != len("hello audio") {
		t.Fatalf("unexpected size %d", p.Size())
	}
}

func TestZeroPayload(t *testing.T) {
	var p AudioPayload
	if !p.IsZero() {
		t.Fatalf("expected zero payload")
	}
	if NewAudioPayload(nil, MimeCapture, "").IsZero() {
		t.Fatalf("built payload must not be zero")
	}
}

func TestUserMessage(t *testing.T) {
	err := errors.Wrap(ErrPayloadTooLarge, "blob of 30000000 bytes")
	if got := UserMessage(err); got != "The audio is too large to transcribe (limit 20 MB)." {
		t.Fatalf("unexpected message %q", got)
	}
	if UserMessage(nil) != "" {
		t.Fatalf("expected empty message for nil error")
	}
	if UserMessage(errors.New("boom")) == "" {
		t.Fatalf("expected fallback message")
	}
}
