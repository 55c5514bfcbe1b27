package output

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mrsingh-rishi/audio-scribe/model"
)

// JSONWriter is the part of a WebSocket connection the output needs.
type JSONWriter interface {
	WriteJSON(v interface{}) error
}

// Event is one message sent to the capture client. Numeric fields are
// pointers so a zero count is still sent on the events that carry it.
type Event struct {
	Type        string  `json:"type"`
	State       string  `json:"state,omitempty"`
	Elapsed     *int    `json:"elapsed,omitempty"`
	MimeType    string  `json:"mimeType,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	Size        *int    `json:"size,omitempty"`
	Text        *string `json:"text,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// CaptureOutput funnels events from the ticker and the socket handler into
// a single writer goroutine, since a WebSocket allows one writer at a time.
type CaptureOutput struct {
	ctx    context.Context
	cancel context.CancelFunc
	events chan Event
	done   chan struct{}
	w      JSONWriter

	mu      sync.Mutex
	started bool
	closed  bool
}

func NewCaptureOutput(w JSONWriter, buffer int) (*CaptureOutput, error) {
	if w == nil {
		return nil, fmt.Errorf("writer is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CaptureOutput{
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
		w:      w,
	}, nil
}

func (o *CaptureOutput) Start() {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.mu.Unlock()

	go func() {
		defer close(o.done)
		for {
			select {
			case <-o.ctx.Done():
				return
			case ev, ok := <-o.events:
				if !ok {
					return
				}
				if err := o.w.WriteJSON(ev); err != nil {
					log.Printf("CaptureOutput %s write error: %v", ev.Type, err)
				}
			}
		}
	}()
}

func (o *CaptureOutput) send(ev Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.events <- ev:
	case <-o.ctx.Done():
	}
}

func (o *CaptureOutput) SendState(state string) {
	o.send(Event{Type: "state", State: state})
}

func (o *CaptureOutput) SendTick(elapsed int) {
	o.send(Event{Type: "tick", Elapsed: &elapsed})
}

func (o *CaptureOutput) SendPayload(p model.AudioPayload) {
	size, name := p.Size(), p.DisplayName()
	o.send(Event{Type: "payload", MimeType: p.MimeType(), DisplayName: &name, Size: &size})
}

func (o *CaptureOutput) SendTranscript(text model.TranscribedText) {
	s := string(text)
	o.send(Event{Type: "transcript", Text: &s})
}

// SendReleased tells the client to stop its microphone tracks.
func (o *CaptureOutput) SendReleased() {
	o.send(Event{Type: "released"})
}

func (o *CaptureOutput) SendError(err error) {
	o.send(Event{Type: "error", Message: model.UserMessage(err)})
}

// Stop delivers queued events, then shuts the writer down.
func (o *CaptureOutput) Stop() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.events)
	}
	started := o.started
	o.mu.Unlock()

	if started {
		<-o.done
	}
	o.cancel()
}
