package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"review-backend/internal/backend"
	"review-backend/internal/shared/telemetry"
)

const (
	DefaultInterval = 3 * time.Second
	MinInterval     = 2 * time.Second
	MaxInterval     = 5 * time.Second
	DefaultTimeout  = 5 * time.Minute
)

var (
	// ErrJobFailed is returned when the backend reports FAILED for the product.
	ErrJobFailed = errors.New("job failed")
	// ErrTimeout is returned when the target status is not reached in time.
	ErrTimeout = errors.New("job did not finish before the timeout")
	// ErrUnknownKind is returned for an unsupported job kind.
	ErrUnknownKind = errors.New("unknown job kind")
)

// Kind selects which backend job to start and which status ends it.
type Kind string

const (
	KindCollect   Kind = "collect"
	KindAnalyze   Kind = "analyze"
	KindRecollect Kind = "recollect"
)

// Target is the status that completes a job of kind k.
func (k Kind) Target() (backend.AnalysisStatus, error) {
	switch k {
	case KindCollect, KindRecollect:
		return backend.StatusCollected, nil
	case KindAnalyze:
		return backend.StatusAnalyzed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
}

// Client is the backend surface the watcher drives.
type Client interface {
	StartCollect(ctx context.Context, source, sourceProductID string) (json.RawMessage, error)
	StartAnalyze(ctx context.Context, source, sourceProductID string) (json.RawMessage, error)
	Recollect(ctx context.Context, source, sourceProductID string) (json.RawMessage, error)
	GetProduct(ctx context.Context, source, sourceProductID string) (*backend.Product, error)
}

// Options tunes a Watcher. Zero values select the defaults.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	// OnStatus is called with every polled status.
	OnStatus func(backend.AnalysisStatus)
}

// Watcher starts a backend job and polls the product until it settles.
type Watcher struct {
	client   Client
	interval time.Duration
	timeout  time.Duration
	onStatus func(backend.AnalysisStatus)
}

// NewWatcher constructs a Watcher; the interval is clamped to [MinInterval, MaxInterval].
func NewWatcher(client Client, opts Options) *Watcher {
	interval := opts.Interval
	switch {
	case interval <= 0:
		interval = DefaultInterval
	case interval < MinInterval:
		interval = MinInterval
	case interval > MaxInterval:
		interval = MaxInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Watcher{
		client:   client,
		interval: interval,
		timeout:  timeout,
		onStatus: opts.OnStatus,
	}
}

// Interval reports the effective poll interval.
func (w *Watcher) Interval() time.Duration { return w.interval }

// Run starts the job and blocks until the target status, FAILED, the timeout,
// or ctx cancellation. The start call completes before the first poll.
func (w *Watcher) Run(ctx context.Context, kind Kind, source, sourceProductID string) (*backend.Product, error) {
	target, err := kind.Target()
	if err != nil {
		return nil, err
	}

	if err := w.start(ctx, kind, source, sourceProductID); err != nil {
		return nil, fmt.Errorf("start %s: %w", kind, err)
	}
	telemetry.Info("job.started", map[string]any{
		"kind":       string(kind),
		"source":     source,
		"product_id": sourceProductID,
	})

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrTimeout
		case <-ticker.C:
		}

		product, err := w.client.GetProduct(ctx, source, sourceProductID)
		if err != nil {
			var apiErr *backend.APIError
			if errors.As(err, &apiErr) && apiErr.IsClientError() {
				return nil, fmt.Errorf("poll %s: %w", kind, err)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			telemetry.Warn("job.poll_failed", map[string]any{
				"kind":       string(kind),
				"product_id": sourceProductID,
				"error":      err.Error(),
			})
			continue
		}

		status := product.AnalysisStatus
		if w.onStatus != nil {
			w.onStatus(status)
		}
		switch status {
		case target:
			telemetry.Info("job.finished", map[string]any{
				"kind":       string(kind),
				"product_id": sourceProductID,
				"status":     string(status),
			})
			return product, nil
		case backend.StatusFailed:
			return product, ErrJobFailed
		}
	}
}

func (w *Watcher) start(ctx context.Context, kind Kind, source, sourceProductID string) error {
	var err error
	switch kind {
	case KindCollect:
		_, err = w.client.StartCollect(ctx, source, sourceProductID)
	case KindAnalyze:
		_, err = w.client.StartAnalyze(ctx, source, sourceProductID)
	case KindRecollect:
		_, err = w.client.Recollect(ctx, source, sourceProductID)
	}
	return err
}
