// Package relay exposes the upstream clinic rows over a credential-free
// endpoint. The browser never sees the Airtable key; it only calls
// GET /api/clinics and receives every row at once.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ohan/internal/airtable"
	"github.com/JonMunkholm/ohan/internal/metrics"
	"github.com/JonMunkholm/ohan/internal/sheet"
)

// Source returns every upstream row, or an error and no rows.
type Source interface {
	Name() string
	FetchAll(ctx context.Context) ([]json.RawMessage, error)
}

// Cache stores the last complete retrieval. ok is false on a miss.
type Cache interface {
	Get(ctx context.Context) (records []json.RawMessage, ok bool, err error)
	Set(ctx context.Context, records []json.RawMessage) error
}

// Relay fetches rows from a Source, optionally through a Cache.
// It holds no per-request state and is safe for concurrent use.
type Relay struct {
	source  Source
	cache   Cache
	limiter *Limiter
	logger  *slog.Logger
}

// New builds a Relay. A nil cache disables caching; a nil logger uses
// slog.Default.
func New(source Source, cache Cache, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{source: source, cache: cache, logger: logger}
}

// WithLimiter bounds concurrent upstream walks. Cache hits never wait.
func (r *Relay) WithLimiter(l *Limiter) *Relay {
	r.limiter = l
	return r
}

// SourceName reports which upstream backs the relay.
func (r *Relay) SourceName() string { return r.source.Name() }

// Records returns every upstream row in upstream order. Cache failures are
// logged and otherwise ignored.
func (r *Relay) Records(ctx context.Context) ([]json.RawMessage, error) {
	log := r.logger.With("fetch_id", uuid.NewString(), "source", r.source.Name())

	if r.cache != nil {
		records, ok, err := r.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.RelayCache.WithLabelValues("error").Inc()
			log.Warn("relay cache read failed", "error", err)
		case ok:
			metrics.RelayCache.WithLabelValues("hit").Inc()
			log.Debug("relay cache hit", "records", len(records))
			return records, nil
		default:
			metrics.RelayCache.WithLabelValues("miss").Inc()
		}
	}

	return r.fetch(ctx, log)
}

// Refresh walks the upstream and replaces the cached snapshot, ignoring
// whatever is cached now.
func (r *Relay) Refresh(ctx context.Context) (int, error) {
	log := r.logger.With("fetch_id", uuid.NewString(), "source", r.source.Name(), "refresh", true)
	records, err := r.fetch(ctx, log)
	return len(records), err
}

// fetch runs one full upstream walk and stores the result on success.
func (r *Relay) fetch(ctx context.Context, log *slog.Logger) ([]json.RawMessage, error) {
	if r.limiter != nil {
		if err := r.limiter.Acquire(ctx); err != nil {
			metrics.UpstreamFailures.WithLabelValues(r.source.Name(), FailureReason(err)).Inc()
			log.Warn("no upstream fetch slot", "error", err, "available", r.limiter.Available())
			return nil, err
		}
		defer r.limiter.Release()
	}

	start := time.Now()
	records, err := r.source.FetchAll(ctx)
	elapsed := time.Since(start)

	if err != nil {
		reason := FailureReason(err)
		metrics.UpstreamFetches.WithLabelValues(r.source.Name(), metrics.OutcomeError).Inc()
		metrics.UpstreamFetchDuration.WithLabelValues(r.source.Name(), metrics.OutcomeError).Observe(elapsed.Seconds())
		metrics.UpstreamFailures.WithLabelValues(r.source.Name(), reason).Inc()
		log.Error("upstream fetch failed",
			"reason", reason,
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
		)
		return nil, err
	}

	metrics.UpstreamFetches.WithLabelValues(r.source.Name(), metrics.OutcomeOK).Inc()
	metrics.UpstreamFetchDuration.WithLabelValues(r.source.Name(), metrics.OutcomeOK).Observe(elapsed.Seconds())
	metrics.UpstreamRecords.WithLabelValues(r.source.Name()).Set(float64(len(records)))
	log.Info("upstream fetch complete",
		"records", len(records),
		"duration_ms", elapsed.Milliseconds(),
	)

	if r.cache != nil {
		if err := r.cache.Set(ctx, records); err != nil {
			log.Warn("relay cache write failed", "error", err)
		}
	}

	return records, nil
}

// FailureReason classifies a retrieval error for logs and metrics.
func FailureReason(err error) string {
	var atStatus *airtable.StatusError
	var shStatus *sheet.StatusError
	switch {
	case errors.Is(err, ErrTooManyFetches):
		return "busy"
	case errors.As(err, &atStatus), errors.As(err, &shStatus):
		return "status"
	case errors.Is(err, airtable.ErrMalformedResponse), errors.Is(err, sheet.ErrEmptySheet),
		errors.Is(err, sheet.ErrMalformedExport):
		return "malformed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}
