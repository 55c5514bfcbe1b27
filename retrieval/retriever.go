// Package retrieval pulls a hosted video's audio through a prioritized chain
// of proxy endpoints, falling back to a CORS relay when a direct fetch fails.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/model"
)

//go:generate mockgen -destination=../mocks/mock_fetcher.go -package=mocks github.com/mrsingh-rishi/audio-scribe/retrieval Fetcher

// MaxBytes is the largest blob accepted for transcription (20 MiB).
const MaxBytes = 20 << 20

// Fetcher performs one GET. A response with a non-2xx status is reported as
// *StatusError; any other error means the request itself failed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StatusError is a completed request that came back unsuccessful.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// Attempt records how one endpoint failed.
type Attempt struct {
	Endpoint Endpoint
	Direct   error
	Relayed  error
}

func (a Attempt) String() string {
	s := fmt.Sprintf("%s: direct: %v", a.Endpoint, a.Direct)
	if a.Relayed != nil {
		s += fmt.Sprintf("; relay: %v", a.Relayed)
	}
	return s
}

// ExhaustedError lists every failed endpoint attempt.
type ExhaustedError struct {
	VideoID  string
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%v for %s [%s]", model.ErrRetrievalExhausted, e.VideoID, strings.Join(parts, " | "))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == model.ErrRetrievalExhausted
}

// Option configures a Retriever.
type Option func(*Retriever)

func WithLogger(l *log.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// WithMaxBytes overrides the size ceiling.
func WithMaxBytes(n int) Option {
	return func(r *Retriever) { r.maxBytes = n }
}

// Retriever tries endpoints strictly in order; the first success wins.
type Retriever struct {
	fetcher   Fetcher
	relay     Relay
	endpoints []Endpoint
	maxBytes  int
	logger    *log.Logger
}

func New(fetcher Fetcher, relay Relay, endpoints []Endpoint, opts ...Option) (*Retriever, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if len(endpoints) == 0 {
		return nil, errors.New("at least one endpoint is required")
	}
	r := &Retriever{
		fetcher:   fetcher,
		relay:     relay,
		endpoints: append([]Endpoint(nil), endpoints...),
		maxBytes:  MaxBytes,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Endpoints returns a copy of the configured priority list.
func (r *Retriever) Endpoints() []Endpoint {
	return append([]Endpoint(nil), r.endpoints...)
}

// Retrieve resolves rawURL to a video identifier and downloads its audio.
func (r *Retriever) Retrieve(ctx context.Context, rawURL string) (model.AudioPayload, error) {
	id, ok := ExtractID(rawURL)
	if !ok {
		return model.AudioPayload{}, errors.Wrapf(model.ErrInvalidReference, "%q", rawURL)
	}

	blob, err := r.download(ctx, id)
	if err != nil {
		return model.AudioPayload{}, err
	}
	// The whole body is already in memory here; the ceiling only protects
	// the encoder and the transcription request.
	if len(blob) > r.maxBytes {
		return model.AudioPayload{}, errors.Wrapf(model.ErrPayloadTooLarge, "%s: %d bytes exceeds %d", id, len(blob), r.maxBytes)
	}
	return model.NewAudioPayload(blob, model.MimeRemote, fmt.Sprintf("Video audio (%s)", id)), nil
}

func (r *Retriever) download(ctx context.Context, id string) ([]byte, error) {
	var attempts []Attempt
	for _, ep := range r.endpoints {
		body, attempt, ok := r.try(ctx, ep, id)
		if ok {
			if len(body) == 0 {
				// A successful response ends the search even when it is empty.
				attempts = append(attempts, attempt)
				break
			}
			return body, nil
		}
		r.logger.Printf("❌ %s", attempt)
		attempts = append(attempts, attempt)
	}
	return nil, &ExhaustedError{VideoID: id, Attempts: attempts}
}

// try fetches id from one endpoint, directly first and through the relay
// only when the direct request could not be completed at all.
func (r *Retriever) try(ctx context.Context, ep Endpoint, id string) ([]byte, Attempt, bool) {
	target := ep.TargetURL(id)
	attempt := Attempt{Endpoint: ep}
	r.logger.Printf("fetching %s from %s", id, ep)

	body, err := r.fetcher.Fetch(ctx, target)
	if err == nil {
		r.logSuccess(id, ep, body, "directly")
		attempt.Direct = errEmptyBody
		return body, attempt, true
	}
	attempt.Direct = err

	var status *StatusError
	if errors.As(err, &status) || !r.relay.Enabled() {
		return nil, attempt, false
	}
	body, err = r.fetcher.Fetch(ctx, r.relay.Wrap(target))
	if err == nil {
		r.logSuccess(id, ep, body, "through relay")
		attempt.Relayed = errEmptyBody
		return body, attempt, true
	}
	attempt.Relayed = err
	return nil, attempt, false
}

var errEmptyBody = errors.New("empty body")

func (r *Retriever) logSuccess(id string, ep Endpoint, body []byte, via string) {
	if len(body) == 0 {
		r.logger.Printf("❌ %s answered %s with an empty body for %s", ep, via, id)
		return
	}
	r.logger.Printf("✅ got %d bytes for %s from %s %s", len(body), id, ep, via)
}
