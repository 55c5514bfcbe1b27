// Package encoder turns raw audio blobs into transcription payloads.
package encoder

import (
	"encoding/base64"
	"io"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/model"
)

// Normalize reads r to the end and returns the payload for its bytes.
// mimeType is carried through untouched.
func Normalize(r io.Reader, mimeType, displayName string) (model.AudioPayload, error) {
	if r == nil {
		return model.AudioPayload{}, errors.Wrap(model.ErrIO, "nil audio reader")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return model.AudioPayload{}, errors.Wrapf(model.ErrIO, "reading %q: %v", displayName, err)
	}
	return model.NewAudioPayload(data, mimeType, displayName), nil
}

// Encode returns the base64 text of data.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode reverses Encode.
func Decode(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(model.ErrIO, err.Error())
	}
	return data, nil
}
