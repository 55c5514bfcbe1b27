package capture

import (
	"bytes"
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/encoder"
	"github.com/mrsingh-rishi/audio-scribe/model"
	"github.com/mrsingh-rishi/audio-scribe/queue"
)

// Options tune a Recorder. Zero values fall back to defaults.
type Options struct {
	MimeType string
	// Tick is the elapsed counter period, one second by default.
	Tick time.Duration
	// OnTick receives the elapsed count; it runs on the ticker goroutine.
	OnTick func(elapsed int)
	Now    func() time.Time
	Logger *log.Logger
}

// Recorder drives one microphone through Idle -> Recording -> Idle cycles.
type Recorder struct {
	mic  Microphone
	opts Options

	mu   sync.Mutex
	sess *recording
}

type recording struct {
	id      string
	stream  Stream
	chunks  *queue.Queue[model.AudioChunk]
	flushed chan struct{}
	elapsed atomic.Int64

	cancelTicker context.CancelFunc
	tickDone     chan struct{}
	stopWatch    func() bool

	releaseOnce sync.Once
	releaseErr  error
}

func NewRecorder(mic Microphone, opts Options) (*Recorder, error) {
	if mic == nil {
		return nil, errors.New("microphone is required")
	}
	if opts.MimeType == "" {
		opts.MimeType = model.MimeCapture
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Recorder{mic: mic, opts: opts}, nil
}

// Start opens the microphone and begins collecting chunks. Cancelling ctx
// tears the recording down without producing a payload.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sess != nil {
		return errors.Wrap(model.ErrDeviceAccess, "recording already in progress")
	}
	stream, err := r.mic.Open(ctx)
	if err != nil {
		if errors.Is(err, model.ErrDeviceAccess) {
			return err
		}
		return errors.Wrap(model.ErrDeviceAccess, err.Error())
	}

	rec := &recording{
		id:       uuid.NewString(),
		stream:   stream,
		chunks:   queue.New[model.AudioChunk](),
		flushed:  make(chan struct{}),
		tickDone: make(chan struct{}),
	}
	go rec.collect(stream.Chunks())

	tickCtx, cancel := context.WithCancel(context.Background())
	rec.cancelTicker = cancel
	go rec.count(tickCtx, r.opts.Tick, r.opts.OnTick)

	r.sess = rec
	rec.stopWatch = context.AfterFunc(ctx, func() { r.teardown(rec) })

	logf(r.opts.Logger, "🎙️ recording %s started", rec.id)
	return nil
}

// Stop finalizes the current recording. It reports false and does nothing
// when no recording is running. The microphone is released on every path.
func (r *Recorder) Stop(ctx context.Context) (model.AudioPayload, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.sess
	if rec == nil {
		return model.AudioPayload{}, false, nil
	}
	r.sess = nil
	rec.stopWatch()
	rec.stopTicker()
	defer rec.release(r.opts.Logger)

	if err := rec.stream.Flush(); err != nil {
		return model.AudioPayload{}, true, errors.Wrapf(model.ErrIO, "flushing recording %s: %v", rec.id, err)
	}
	select {
	case <-rec.flushed:
	case <-ctx.Done():
		return model.AudioPayload{}, true, errors.Wrapf(model.ErrIO, "waiting for recording %s to flush: %v", rec.id, ctx.Err())
	}

	var blob bytes.Buffer
	for _, chunk := range rec.chunks.Drain() {
		blob.Write(chunk)
	}
	name := "Recording " + r.opts.Now().Format("2006-01-02 15:04:05")
	payload, err := encoder.Normalize(&blob, r.opts.MimeType, name)
	if err != nil {
		return model.AudioPayload{}, true, err
	}
	logf(r.opts.Logger, "✅ recording %s finished: %d bytes after %ds", rec.id, payload.Size(), rec.elapsed.Load())
	return payload, true, nil
}

// Teardown abandons the current recording, if any, without a payload.
func (r *Recorder) Teardown() {
	r.mu.Lock()
	rec := r.sess
	r.mu.Unlock()
	if rec != nil {
		r.teardown(rec)
	}
}

func (r *Recorder) teardown(rec *recording) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess != rec {
		return
	}
	r.sess = nil
	rec.stopWatch()
	rec.stopTicker()
	rec.release(r.opts.Logger)
	logf(r.opts.Logger, "recording %s torn down", rec.id)
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess == nil {
		return Idle
	}
	return Recording
}

// Elapsed returns whole seconds counted for the running recording.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess == nil {
		return 0
	}
	return int(r.sess.elapsed.Load())
}

func (rec *recording) collect(chunks <-chan []byte) {
	defer close(rec.flushed)
	if chunks == nil {
		return
	}
	for chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		rec.chunks.Enqueue(model.AudioChunk(chunk))
	}
}

func (rec *recording) count(ctx context.Context, tick time.Duration, onTick func(int)) {
	defer close(rec.tickDone)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			n := rec.elapsed.Add(1)
			if onTick != nil {
				onTick(int(n))
			}
		}
	}
}

// stopTicker cancels the counter and waits for its goroutine, so no OnTick
// call outlives the recording.
func (rec *recording) stopTicker() {
	rec.cancelTicker()
	<-rec.tickDone
}

func (rec *recording) release(logger *log.Logger) error {
	rec.releaseOnce.Do(func() {
		rec.releaseErr = rec.stream.Release()
		if rec.releaseErr != nil {
			logf(logger, "❌ releasing microphone for %s: %v", rec.id, rec.releaseErr)
		}
	})
	return rec.releaseErr
}
