package http

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

const maxThrottleChunk = 32 << 10

type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

// NewThrottledReader returns a reader that delivers at most bytesPerSec
// bytes per second from r. Reads stop with the context error once ctx is
// done.
func NewThrottledReader(ctx context.Context, r io.Reader, bytesPerSec int64) io.Reader {
	burst := int(min(bytesPerSec, maxThrottleChunk))
	return &throttledReader{
		ctx:     ctx,
		r:       r,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if len(p) > t.limiter.Burst() {
		p = p[:t.limiter.Burst()]
	}

	n, err := t.r.Read(p)
	if n > 0 {
		if waitErr := t.limiter.WaitN(t.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
