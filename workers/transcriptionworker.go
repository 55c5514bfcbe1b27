package workers

import (
	"context"
	"fmt"
	"log"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/model"
	"github.com/mrsingh-rishi/audio-scribe/transcriber"
	"github.com/mrsingh-rishi/audio-scribe/types"
)

var ErrWorkerStopped = errors.New("transcription worker stopped")

// TranscriptionWorker is the single logical worker that talks to the
// transcription service. Jobs are handled one at a time in arrival order.
type TranscriptionWorker struct {
	ctx         context.Context
	cancel      context.CancelFunc
	Backend     transcriber.Backend
	Instruction string
	JobChannel  chan types.TranscriptionJob
}

func NewTranscriptionWorker(backend transcriber.Backend, instruction string) (*TranscriptionWorker, error) {
	if backend == nil {
		return nil, fmt.Errorf("transcription backend is required")
	}
	if instruction == "" {
		return nil, fmt.Errorf("instruction is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TranscriptionWorker{
		ctx:         ctx,
		cancel:      cancel,
		Backend:     backend,
		Instruction: instruction,
		JobChannel:  make(chan types.TranscriptionJob),
	}, nil
}

func (tw *TranscriptionWorker) Start() {
	go func() {
		for {
			select {
			case <-tw.ctx.Done():
				log.Println("TranscriptionWorker: shutting down")
				return
			case job := <-tw.JobChannel:
				if tw.ctx.Err() != nil {
					job.Reply <- types.TranscriptionResult{Err: ErrWorkerStopped}
					continue
				}
				job.Reply <- tw.process(job)
			}
		}
	}()
}

func (tw *TranscriptionWorker) process(job types.TranscriptionJob) types.TranscriptionResult {
	req, err := transcriber.NewRequest(job.Payload, tw.Instruction)
	if err != nil {
		return types.TranscriptionResult{Err: err}
	}
	ctx := job.Ctx
	if ctx == nil {
		ctx = tw.ctx
	}
	log.Printf("📤 transcribing %q (%s, %d bytes)", job.Payload.DisplayName(), job.Payload.MimeType(), job.Payload.Size())
	text, err := tw.Backend.Transcribe(ctx, req)
	if err != nil {
		log.Printf("❌ transcription of %q failed: %v", job.Payload.DisplayName(), err)
		if !errors.Is(err, model.ErrService) {
			err = errors.Wrap(model.ErrService, err.Error())
		}
		return types.TranscriptionResult{Err: err}
	}
	if text == "" {
		return types.TranscriptionResult{Err: errors.Wrap(model.ErrService, "empty transcript")}
	}
	log.Printf("📝 transcript ready for %q", job.Payload.DisplayName())
	return types.TranscriptionResult{Transcription: model.TranscribedText(text)}
}

// Submit queues payload and waits for its transcript.
func (tw *TranscriptionWorker) Submit(ctx context.Context, payload model.AudioPayload) (model.TranscribedText, error) {
	if tw.ctx.Err() != nil {
		return "", ErrWorkerStopped
	}
	reply := make(chan types.TranscriptionResult, 1)
	job := types.TranscriptionJob{Ctx: ctx, Payload: payload, Reply: reply}

	select {
	case tw.JobChannel <- job:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-tw.ctx.Done():
		return "", ErrWorkerStopped
	}

	select {
	case res := <-reply:
		return res.Transcription, res.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (tw *TranscriptionWorker) Stop() {
	tw.cancel()
}
