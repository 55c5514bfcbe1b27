// Package capture records microphone input into a single audio payload.
package capture

import (
	"context"
	"log"
)

//go:generate mockgen -destination=../mocks/mock_capture.go -package=mocks github.com/mrsingh-rishi/audio-scribe/capture Microphone,Stream

// Stream is an open microphone. Chunks yields encoded audio in arrival order
// and is closed once the device has flushed everything it buffered.
type Stream interface {
	Chunks() <-chan []byte
	// Flush asks the device to stop producing and emit what it holds.
	Flush() error
	// Release stops every underlying track. It also ends Chunks.
	Release() error
}

// Microphone grants exclusive access to an input device.
type Microphone interface {
	Open(ctx context.Context) (Stream, error)
}

// State of a Recorder.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	default:
		return "unknown"
	}
}

func logf(logger *log.Logger, format string, v ...any) {
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf(format, v...)
}
