package model

import "github.com/pkg/errors"

var (
	ErrValidation         = errors.New("file is not an audio file")
	ErrDeviceAccess       = errors.New("microphone unavailable")
	ErrInvalidReference   = errors.New("invalid video reference")
	ErrRetrievalExhausted = errors.New("all audio endpoints failed")
	ErrPayloadTooLarge    = errors.New("audio payload too large")
	ErrIO                 = errors.New("audio read failed")
	ErrService            = errors.New("transcription service failed")

	ErrSessionBusy  = errors.New("another acquisition is in progress")
	ErrNoPayload    = errors.New("no audio payload")
	ErrNotRecording = errors.New("microphone is not open")
)

var userMessages = []struct {
	target  error
	message string
}{
	{ErrValidation, "Please select an audio file."},
	{ErrDeviceAccess, "Could not access the microphone. Check permissions and that no other recording is running."},
	{ErrInvalidReference, "That does not look like a valid video link."},
	{ErrRetrievalExhausted, "Could not download audio from any server. Try again later or upload the file instead."},
	{ErrPayloadTooLarge, "The audio is too large to transcribe (limit 20 MB)."},
	{ErrIO, "The audio could not be read."},
	{ErrService, "Transcription failed. Please try again."},
	{ErrSessionBusy, "Finish the current recording or download first."},
	{ErrNoPayload, "Add some audio first."},
	{ErrNotRecording, "No recording is running."},
}

// UserMessage returns the sentence shown to the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.target) {
			return m.message
		}
	}
	return "Something went wrong. Please try again."
}
