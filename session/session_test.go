package session

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/capture"
	"github.com/mrsingh-rishi/audio-scribe/model"
)

type stubRetriever struct {
	payload model.AudioPayload
	err     error
	gate    chan struct{}
}

func (s *stubRetriever) Retrieve(ctx context.Context, rawURL string) (model.AudioPayload, error) {
	if s.gate != nil {
		<-s.gate
	}
	return s.payload, s.err
}

type stubTranscriber struct {
	got model.AudioPayload
}

func (s *stubTranscriber) Submit(ctx context.Context, p model.AudioPayload) (model.TranscribedText, error) {
	s.got = p
	return model.TranscribedText("text for " + p.DisplayName()), nil
}

type memFile struct {
	name, contentType string
	data              []byte
}

func (m memFile) Name() string        { return m.name }
func (m memFile) ContentType() string { return m.contentType }
func (m memFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func newSession(t *testing.T, r Retriever) (*Session, *stubTranscriber) {
	t.Helper()
	tr := &stubTranscriber{}
	s, err := New(r, tr)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, tr
}

func TestUploadStoresPayload(t *testing.T) {
	s, tr := newSession(t, &stubRetriever{})
	ctx := context.Background()

	if _, err := s.Upload(ctx, memFile{"a.txt", "text/plain", []byte("x")}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, ok := s.Payload(); ok {
		t.Fatalf("failed upload must not leave a payload")
	}

	p, err := s.Upload(ctx, memFile{"a.wav", "audio/wav", []byte("RIFF")})
	if err != nil {
		t.Fatalf("upload after failure: %v", err)
	}
	stored, ok := s.Payload()
	if !ok || stored.DisplayName() != p.DisplayName() {
		t.Fatalf("expected stored payload")
	}

	text, err := s.Transcribe(ctx)
	if err != nil || text != "text for a.wav" {
		t.Fatalf("transcribe: %q %v", text, err)
	}
	if tr.got.Encoded() != p.Encoded() {
		t.Fatalf("transcriber received a different payload")
	}
}

func TestTranscribeWithoutPayload(t *testing.T) {
	s, _ := newSession(t, &stubRetriever{})
	if _, err := s.Transcribe(context.Background()); !errors.Is(err, model.ErrNoPayload) {
		t.Fatalf("expected ErrNoPayload, got %v", err)
	}
}

func TestNewAcquisitionDiscardsPayload(t *testing.T) {
	r := &stubRetriever{err: errors.Wrap(model.ErrRetrievalExhausted, "all down")}
	s, _ := newSession(t, r)
	ctx := context.Background()

	if _, err := s.Upload(ctx, memFile{"a.wav", "audio/wav", []byte("RIFF")}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := s.Retrieve(ctx, "https://youtu.be/dQw4w9WgXcQ"); !errors.Is(err, model.ErrRetrievalExhausted) {
		t.Fatalf("expected ErrRetrievalExhausted, got %v", err)
	}
	if _, ok := s.Payload(); ok {
		t.Fatalf("expected previous payload to be discarded")
	}
	if s.Active() != None {
		t.Fatalf("expected no active strategy, got %q", s.Active())
	}
}

func TestOneStrategyAtATime(t *testing.T) {
	gate := make(chan struct{})
	r := &stubRetriever{payload: model.NewAudioPayload([]byte("m4a"), model.MimeRemote, "v"), gate: gate}
	s, _ := newSession(t, r)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := s.Retrieve(ctx, "https://youtu.be/dQw4w9WgXcQ")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for s.Active() != Remote {
		if time.Now().After(deadline) {
			t.Fatalf("retrieve never became active")
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := s.Upload(ctx, memFile{"a.wav", "audio/wav", []byte("RIFF")}); !errors.Is(err, model.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	if err := s.StartCapture(ctx, capture.NewFeed(0), capture.Options{}); !errors.Is(err, model.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy for capture, got %v", err)
	}
	if err := s.Reset(); !errors.Is(err, model.ErrSessionBusy) {
		t.Fatalf("expected reset to refuse during download, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if p, ok := s.Payload(); !ok || p.MimeType() != model.MimeRemote {
		t.Fatalf("expected remote payload")
	}
}

func TestCaptureCycle(t *testing.T) {
	s, _ := newSession(t, &stubRetriever{})
	ctx := context.Background()
	feed := capture.NewFeed(0)

	if _, err := s.StopCapture(ctx); !errors.Is(err, capture.ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording before start, got %v", err)
	}
	if err := s.StartCapture(ctx, feed, capture.Options{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.Upload(ctx, memFile{"a.wav", "audio/wav", []byte("RIFF")}); !errors.Is(err, model.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy while recording, got %v", err)
	}
	for _, c := range []string{"one", "two"} {
		if err := feed.Push(ctx, []byte(c)); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	p, err := s.StopCapture(ctx)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if string(p.Bytes()) != "onetwo" || p.MimeType() != model.MimeCapture {
		t.Fatalf("unexpected payload %q %q", p.Bytes(), p.MimeType())
	}
	if s.Active() != None || feed.IsOpen() {
		t.Fatalf("expected session idle and microphone released")
	}
}

func TestCancelledCaptureFreesSession(t *testing.T) {
	s, _ := newSession(t, &stubRetriever{})
	feed := capture.NewFeed(0)
	ctx, cancel := context.WithCancel(context.Background())

	if err := s.StartCapture(ctx, feed, capture.Options{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.Active() != None || feed.IsOpen() {
		if time.Now().After(deadline) {
			t.Fatalf("capture not abandoned after cancel")
		}
		time.Sleep(time.Millisecond)
	}
	if _, ok := s.Payload(); ok {
		t.Fatalf("abandoned capture must not produce a payload")
	}
}

func TestResetDuringCapture(t *testing.T) {
	s, _ := newSession(t, &stubRetriever{})
	feed := capture.NewFeed(0)
	if err := s.StartCapture(context.Background(), feed, capture.Options{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.Active() != None || feed.IsOpen() {
		t.Fatalf("expected reset to release the microphone")
	}
	if err := s.StartCapture(context.Background(), feed, capture.Options{}); err != nil {
		t.Fatalf("start after reset: %v", err)
	}
	s.Close()
	if feed.IsOpen() {
		t.Fatalf("expected close to release the microphone")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(func() (*Session, error) {
		return New(&stubRetriever{}, &stubTranscriber{})
	})
	s, err := reg.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got, ok := reg.Get(s.ID); !ok || got != s {
		t.Fatalf("expected to find session")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected one session")
	}
	if !reg.Delete(s.ID) || reg.Delete(s.ID) {
		t.Fatalf("expected delete to succeed once")
	}
	if _, ok := reg.Get(s.ID); ok {
		t.Fatalf("expected session to be gone")
	}
}
