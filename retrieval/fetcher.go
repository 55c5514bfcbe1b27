package retrieval

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds a single endpoint or relay request.
const DefaultTimeout = 45 * time.Second

// HTTPFetcher issues GET requests through fiber's fasthttp client agent.
type HTTPFetcher struct {
	Timeout   time.Duration
	UserAgent string
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{Timeout: timeout, UserAgent: "audio-scribe/1.0"}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := f.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Get(url)
	agent.Timeout(timeout)
	if f.UserAgent != "" {
		agent.UserAgent(f.UserAgent)
	}
	if err := agent.Parse(); err != nil {
		return nil, errors.Wrapf(err, "GET %s", url)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errors.Wrapf(errs[0], "GET %s", url)
	}
	if code < 200 || code > 299 {
		return nil, &StatusError{URL: url, Code: code}
	}
	return body, nil
}
