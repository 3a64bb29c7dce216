// Package fetch drives the extractor to materialize chosen variants
package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
)

// Orchestrator materializes variants with a per-call timeout. Temporary files
// belong to the call that created them and are removed on every failure path;
// a successful result hands ownership of the temp dir to the caller.
type Orchestrator struct {
	extractor deps.Extractor
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewOrchestrator creates a fetch orchestrator
func NewOrchestrator(extractor deps.Extractor, timeout time.Duration, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		timeout:   timeout,
		logger:    logger.With().Str("component", "fetch").Logger(),
	}
}

// Materialize downloads the chosen variant into a local file. Transient
// extractor failures are not retried here; retrying is the user resubmitting.
func (o *Orchestrator) Materialize(ctx context.Context, url string, desc entities.VariantDescriptor, progress deps.ProgressFunc) (*entities.LocalFile, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	started := time.Now()
	file, err := o.extractor.Fetch(fetchCtx, url, desc, progress)
	if err != nil {
		// The extractor removes its own partials, but never trust a partial
		// result to survive an error return.
		if file != nil {
			file.Cleanup()
		}
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			o.logger.Warn().Str("url", url).Str("format", desc.FormatID).Dur("after", time.Since(started)).Msg("fetch timed out")
			return nil, mediaerrors.ErrFetchTimeout
		}
		o.logger.Warn().Err(err).Str("url", url).Str("format", desc.FormatID).Msg("fetch failed")
		return nil, mediaerrors.ErrFetchFailed
	}

	o.logger.Info().
		Str("url", url).
		Str("format", desc.FormatID).
		Int64("size", file.Size).
		Dur("took", time.Since(started)).
		Msg("variant materialized")
	return file, nil
}

// DirectURL asks the extractor for a direct remote URL for the variant.
func (o *Orchestrator) DirectURL(ctx context.Context, url string, desc entities.VariantDescriptor) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.extractor.DirectURL(reqCtx, url, desc)
}
