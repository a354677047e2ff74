package qhyccd

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// checkSize must be called with c.mu held.  The buffer handed to the library
// must be exactly the size it last reported for the current configuration.
func (c *Camera) checkSize(size int) error {
	if c.imageSize == 0 {
		return errors.Wrap(ErrImageSizeStale, "call ImageSize after the last configuration change")
	}
	if size != c.imageSize {
		return errors.Wrapf(ErrImageSizeStale, "size %d, camera reports %d", size, c.imageSize)
	}
	return nil
}

func (c *Camera) requireMode(m StreamMode) error {
	if !c.streamSet || c.streamMode != m {
		return errors.Wrapf(ErrWrongStreamMode, "camera is in %s, call needs %s", c.streamMode, m)
	}
	return nil
}

// StartSingleExposure triggers one exposure and blocks until the camera has
// finished integrating.  The camera must be in SingleFrame mode.
func (c *Camera) StartSingleExposure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("start single exposure", StateInitialized, StateCapturing)
	if err != nil {
		return err
	}
	defer done()
	if err := c.requireMode(SingleFrame); err != nil {
		return err
	}
	if err := c.sdk.check(OpExposureStart, c.sdk.native.ExpSingleFrame(c.handle)); err != nil {
		return err
	}
	c.state = StateCapturing
	return nil
}

// ImageSize asks the library how many bytes a frame needs with the current
// configuration.  The answer is what SingleFrame and LiveFrame must be given.
// A length of zero is reported as an OpImageSizeQuery error, the same as the
// library's failure sentinel, since no frame fits in an empty buffer.
func (c *Camera) ImageSize() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("query image size", StateInitialized, StateCapturing)
	if err != nil {
		return 0, err
	}
	defer done()
	n := c.sdk.native.MemLength(c.handle)
	if n == Failure || n == 0 {
		c.imageSize = 0
		return 0, c.sdk.check(OpImageSizeQuery, Failure)
	}
	c.imageSize = int(n)
	return c.imageSize, nil
}

// SingleFrame reads out the exposure begun by StartSingleExposure into a new
// buffer of size bytes.  On success the camera returns to StateInitialized; on
// failure it stays in StateCapturing so the read may be retried.
func (c *Camera) SingleFrame(size int) (*ImageData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("read single frame", StateCapturing)
	if err != nil {
		return nil, err
	}
	defer done()
	if err := c.requireMode(SingleFrame); err != nil {
		return nil, err
	}
	if err := c.checkSize(size); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	info, code := c.sdk.native.SingleFrame(c.handle, buf)
	if err := c.sdk.check(OpSingleFrameRead, code); err != nil {
		return nil, err
	}
	c.state = StateInitialized
	return newImageData(buf, info), nil
}

// BeginLive starts the live stream.  The camera must be in Live mode.
func (c *Camera) BeginLive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("begin live", StateInitialized)
	if err != nil {
		return err
	}
	defer done()
	if err := c.requireMode(Live); err != nil {
		return err
	}
	if err := c.sdk.check(OpLiveBegin, c.sdk.native.BeginLive(c.handle)); err != nil {
		return err
	}
	c.state = StateCapturing
	return nil
}

// LiveFrame makes one attempt to read a live frame into a new buffer of size
// bytes.  When no frame is waiting the error satisfies IsNotReady; any other
// error is a real failure.
func (c *Camera) LiveFrame(size int) (*ImageData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("read live frame", StateCapturing)
	if err != nil {
		return nil, err
	}
	defer done()
	if err := c.requireMode(Live); err != nil {
		return nil, err
	}
	if err := c.checkSize(size); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	info, code := c.sdk.native.LiveFrame(c.handle, buf)
	if err := c.sdk.check(OpLiveFrameRead, code); err != nil {
		return nil, err
	}
	return newImageData(buf, info), nil
}

// EndLive stops the live stream and returns the camera to StateInitialized
func (c *Camera) EndLive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("end live", StateCapturing)
	if err != nil {
		return err
	}
	defer done()
	if err := c.requireMode(Live); err != nil {
		return err
	}
	if err := c.sdk.check(OpLiveEnd, c.sdk.native.StopLive(c.handle)); err != nil {
		return err
	}
	c.state = StateInitialized
	return nil
}

// RetryPolicy bounds how long PollLiveFrame waits for a frame.
// A zero field means no limit of that kind, but polling is always bounded:
// a policy with neither MaxAttempts nor MaxElapsed takes DefaultRetryPolicy's
// MaxElapsed.
type RetryPolicy struct {
	// MaxAttempts is the most LiveFrame calls made
	MaxAttempts int

	// InitialInterval is the wait after the first not ready poll
	InitialInterval time.Duration

	// MaxInterval caps the wait between polls
	MaxInterval time.Duration

	// MaxElapsed is the most time spent polling
	MaxElapsed time.Duration
}

// DefaultRetryPolicy polls starting at 1 ms, backing off to 100 ms, for up to 10 s
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: time.Millisecond,
	MaxInterval:     100 * time.Millisecond,
	MaxElapsed:      10 * time.Second,
}

// bounded fills in a time limit when p has no limit at all
func (p RetryPolicy) bounded() RetryPolicy {
	if p.MaxAttempts <= 0 && p.MaxElapsed <= 0 {
		p.MaxElapsed = DefaultRetryPolicy.MaxElapsed
	}
	return p
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	p = p.bounded()
	eb := backoff.NewExponentialBackOff()
	eb.RandomizationFactor = 0
	eb.InitialInterval = time.Millisecond
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	if eb.MaxInterval < eb.InitialInterval {
		eb.MaxInterval = eb.InitialInterval
	}
	eb.MaxElapsedTime = p.MaxElapsed
	var b backoff.BackOff = eb
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// PollLiveFrame calls LiveFrame until a frame arrives, retrying only while the
// camera reports not ready.  It gives up with ErrLiveTimeout when policy is
// exhausted, or with the context's error when ctx ends first.
func (c *Camera) PollLiveFrame(ctx context.Context, size int, policy RetryPolicy) (*ImageData, error) {
	var (
		img      *ImageData
		attempts int
	)
	op := func() error {
		attempts++
		var err error
		img, err = c.LiveFrame(size)
		if err == nil || IsNotReady(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	err := backoff.Retry(op, policy.backOff(ctx))
	if err == nil {
		return img, nil
	}
	if !IsNotReady(err) {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return nil, errors.Wrapf(ErrLiveTimeout, "%d attempts", attempts)
}

// Stream pulls n live frames, no faster than fps, and hands each to fn.
// A non-positive fps does not limit the rate.  It stops at the first error
// from the camera or fn.  The live stream must already be running.
func (c *Camera) Stream(ctx context.Context, n int, fps float64, policy RetryPolicy, fn func(int, *ImageData) error) error {
	lim := rate.NewLimiter(rate.Inf, 1)
	if fps > 0 {
		lim = rate.NewLimiter(rate.Limit(fps), 1)
	}
	c.mu.Lock()
	size := c.imageSize
	c.mu.Unlock()
	for i := 0; i < n; i++ {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		img, err := c.PollLiveFrame(ctx, size, policy)
		if err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
		if err := fn(i, img); err != nil {
			return err
		}
	}
	return nil
}
