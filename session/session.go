// Package session owns one caller's acquisition state: at most one active
// acquisition strategy and the latest payload it produced.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/capture"
	"github.com/mrsingh-rishi/audio-scribe/model"
	"github.com/mrsingh-rishi/audio-scribe/upload"
)

// Strategy names an acquisition path.
type Strategy string

const (
	None    Strategy = ""
	Upload  Strategy = "upload"
	Capture Strategy = "capture"
	Remote  Strategy = "remote"
)

// Retriever downloads remote video audio.
type Retriever interface {
	Retrieve(ctx context.Context, rawURL string) (model.AudioPayload, error)
}

// Transcriber turns a payload into transcript text.
type Transcriber interface {
	Submit(ctx context.Context, payload model.AudioPayload) (model.TranscribedText, error)
}

type Session struct {
	ID        string
	CreatedAt time.Time

	retriever   Retriever
	transcriber Transcriber

	mu        sync.Mutex
	active    Strategy
	payload   model.AudioPayload
	recorder  *capture.Recorder
	stopWatch func() bool
}

func New(retriever Retriever, transcriber Transcriber) (*Session, error) {
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if transcriber == nil {
		return nil, errors.New("transcriber is required")
	}
	return &Session{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now(),
		retriever:   retriever,
		transcriber: transcriber,
	}, nil
}

// begin claims the session for st and discards the previous payload.
func (s *Session) begin(st Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != None {
		return errors.Wrapf(model.ErrSessionBusy, "%s in progress", s.active)
	}
	s.active = st
	s.payload = model.AudioPayload{}
	return nil
}

func (s *Session) finish(st Strategy, p model.AudioPayload, err error) (model.AudioPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == st {
		s.active = None
	}
	if err != nil {
		log.Printf("❌ session %s: %s failed: %v", s.ID, st, err)
		return model.AudioPayload{}, err
	}
	s.payload = p
	log.Printf("✅ session %s: %s produced %q (%d bytes)", s.ID, st, p.DisplayName(), p.Size())
	return p, nil
}

// Upload acquires audio from a selected file.
func (s *Session) Upload(ctx context.Context, f upload.File) (model.AudioPayload, error) {
	if err := s.begin(Upload); err != nil {
		return model.AudioPayload{}, err
	}
	p, err := upload.Acquire(ctx, f)
	return s.finish(Upload, p, err)
}

// Retrieve acquires audio from a hosted video link.
func (s *Session) Retrieve(ctx context.Context, rawURL string) (model.AudioPayload, error) {
	if err := s.begin(Remote); err != nil {
		return model.AudioPayload{}, err
	}
	p, err := s.retriever.Retrieve(ctx, rawURL)
	return s.finish(Remote, p, err)
}

// StartCapture begins recording from mic. Cancelling ctx abandons the
// recording and frees the session.
func (s *Session) StartCapture(ctx context.Context, mic capture.Microphone, opts capture.Options) error {
	if err := s.begin(Capture); err != nil {
		return err
	}
	rec, err := capture.NewRecorder(mic, opts)
	if err == nil {
		err = rec.Start(ctx)
	}
	if err != nil {
		_, err = s.finish(Capture, model.AudioPayload{}, err)
		return err
	}

	s.mu.Lock()
	s.recorder = rec
	s.stopWatch = context.AfterFunc(ctx, func() { s.abortCapture(rec) })
	s.mu.Unlock()
	return nil
}

// StopCapture finishes the running recording and stores its payload.
func (s *Session) StopCapture(ctx context.Context) (model.AudioPayload, error) {
	s.mu.Lock()
	rec := s.recorder
	if rec == nil {
		s.mu.Unlock()
		return model.AudioPayload{}, capture.ErrNotRecording
	}
	s.recorder = nil
	s.stopWatch()
	s.mu.Unlock()

	p, ok, err := rec.Stop(ctx)
	if !ok && err == nil {
		err = capture.ErrNotRecording
	}
	return s.finish(Capture, p, err)
}

func (s *Session) abortCapture(rec *capture.Recorder) {
	s.mu.Lock()
	if s.recorder != rec {
		s.mu.Unlock()
		return
	}
	s.recorder = nil
	s.active = None
	s.mu.Unlock()

	rec.Teardown()
	log.Printf("session %s: recording abandoned", s.ID)
}

// Elapsed returns the running recording's elapsed seconds.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	rec := s.recorder
	s.mu.Unlock()
	if rec == nil {
		return 0
	}
	return rec.Elapsed()
}

func (s *Session) Active() Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Payload returns the latest payload, if any.
func (s *Session) Payload() (model.AudioPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload, !s.payload.IsZero()
}

// Transcribe sends the current payload to the transcription service.
func (s *Session) Transcribe(ctx context.Context) (model.TranscribedText, error) {
	p, ok := s.Payload()
	if !ok {
		return "", model.ErrNoPayload
	}
	return s.transcriber.Submit(ctx, p)
}

// Reset abandons any recording and drops the payload. Uploads and downloads
// in flight cannot be interrupted, so Reset refuses while one runs.
func (s *Session) Reset() error {
	s.mu.Lock()
	if s.active == Upload || s.active == Remote {
		active := s.active
		s.mu.Unlock()
		return errors.Wrapf(model.ErrSessionBusy, "%s in progress", active)
	}
	rec := s.recorder
	s.mu.Unlock()

	if rec != nil {
		s.abortCapture(rec)
	}
	s.mu.Lock()
	s.payload = model.AudioPayload{}
	s.mu.Unlock()
	return nil
}

// Close releases everything the session holds.
func (s *Session) Close() {
	s.mu.Lock()
	rec := s.recorder
	s.payload = model.AudioPayload{}
	s.mu.Unlock()
	if rec != nil {
		s.abortCapture(rec)
	}
}
