package capture

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/model"
)

// ErrNotRecording is returned when chunks arrive with no stream open.
var ErrNotRecording = model.ErrNotRecording

var errStreamClosed = errors.New("microphone stream already flushed")

// Feed is a Microphone whose chunks are pushed by a transport, such as a
// browser recorder streaming over a WebSocket. Only one stream may be open.
type Feed struct {
	buffer int
	// OnRelease runs after each stream is released so the client can stop
	// its hardware tracks.
	OnRelease func()

	mu      sync.Mutex
	current *feedStream
}

func NewFeed(buffer int) *Feed {
	if buffer < 0 {
		buffer = 0
	}
	return &Feed{buffer: buffer}
}

func (f *Feed) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(model.ErrDeviceAccess, err.Error())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != nil {
		return nil, errors.Wrap(model.ErrDeviceAccess, "microphone already in use")
	}
	f.current = &feedStream{feed: f, ch: make(chan []byte, f.buffer)}
	return f.current, nil
}

// Push hands one chunk to the open stream, blocking until it is accepted.
func (f *Feed) Push(ctx context.Context, chunk []byte) error {
	f.mu.Lock()
	s := f.current
	f.mu.Unlock()
	if s == nil {
		return ErrNotRecording
	}
	return s.push(ctx, chunk)
}

// IsOpen reports whether a stream currently holds the feed.
func (f *Feed) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current != nil
}

type feedStream struct {
	feed *Feed
	ch   chan []byte

	mu       sync.Mutex
	closed   bool
	released bool
}

func (s *feedStream) Chunks() <-chan []byte { return s.ch }

func (s *feedStream) push(ctx context.Context, chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStreamClosed
	}
	data := make([]byte, len(chunk))
	copy(data, chunk)
	select {
	case s.ch <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *feedStream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	return nil
}

func (s *feedStream) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	s.closeLocked()
	s.mu.Unlock()

	f := s.feed
	f.mu.Lock()
	if f.current == s {
		f.current = nil
	}
	onRelease := f.OnRelease
	f.mu.Unlock()

	if onRelease != nil {
		onRelease()
	}
	return nil
}

func (s *feedStream) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
