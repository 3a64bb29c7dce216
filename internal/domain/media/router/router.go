// Package router decides and executes the delivery tier for a chosen variant
package router

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/estimate"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/fetch"
)

// BypassMode selects how files above the inline ceiling are delivered
type BypassMode string

const (
	BypassOff   BypassMode = "off"
	BypassRelay BypassMode = "relay"
)

// Config holds the router's delivery policy
type Config struct {
	// InlineLimit is the inline-upload ceiling in bytes
	InlineLimit int64
	Mode        BypassMode
}

// Request describes one delivery attempt
type Request struct {
	Entry   *entities.SelectionEntry
	Choice  entities.PartialChoice
	Caption string
	// RelayCaption carries the forward marker appended for relay uploads
	RelayCaption string
	// Progress receives download progress; may be nil
	Progress deps.ProgressFunc
	// RelayProgress receives relay upload percentages; may be nil
	RelayProgress func(pct int)
	// Abandoned reports whether the selection was replaced while this
	// delivery ran; may be nil. A delivery found abandoned is discarded
	// before anything reaches the user.
	Abandoned func() bool
}

func (req *Request) abandoned() bool {
	return req.Abandoned != nil && req.Abandoned()
}

// Router executes the three-tier delivery state machine:
// inline upload, relay, direct link. No tier is attempted twice and every
// attempt produces exactly one terminal outcome.
type Router struct {
	fetcher *fetch.Orchestrator
	sender  deps.MessengerSender
	relay   deps.RelayTransport
	cfg     Config
	logger  zerolog.Logger
}

// NewRouter creates a delivery router
func NewRouter(fetcher *fetch.Orchestrator, sender deps.MessengerSender, relay deps.RelayTransport, cfg Config, logger zerolog.Logger) *Router {
	return &Router{
		fetcher: fetcher,
		sender:  sender,
		relay:   relay,
		cfg:     cfg,
		logger:  logger.With().Str("component", "delivery_router").Logger(),
	}
}

// Deliver routes the entry's final choice to a delivery tier.
//
// The pre-fetch estimate picks the starting branch; the realized post-download
// size is authoritative and re-checked right before the inline upload, because
// extractor estimates are frequently wrong and the router must never promise a
// tier it cannot honor. Estimates of zero (unknown) route as provisionally
// large.
func (r *Router) Deliver(ctx context.Context, req *Request) *entities.DeliveryOutcome {
	desc, ok := req.Entry.Catalog.Find(req.Choice.Kind, req.Choice.Class)
	if !ok {
		return failed("", 0, mediaerrors.ErrDeliveryImpossible)
	}

	est := estimate.Choice(req.Entry.Catalog, req.Choice)
	r.logger.Debug().
		Str("url", req.Entry.Catalog.URL).
		Str("format", desc.FormatID).
		Int64("estimate", est).
		Int64("ceiling", r.cfg.InlineLimit).
		Msg("routing delivery")

	if est > 0 && est <= r.cfg.InlineLimit {
		return r.inlineAttempt(ctx, req, desc)
	}
	return r.largeFile(ctx, req, desc, nil, est)
}

// inlineAttempt materializes the file and uploads it through the messaging
// transport. When the realized size exceeds the ceiling despite the estimate,
// or the transport rejects the upload, the attempt falls through to the
// large-file branch exactly once.
func (r *Router) inlineAttempt(ctx context.Context, req *Request, desc entities.VariantDescriptor) *entities.DeliveryOutcome {
	file, err := r.fetcher.Materialize(ctx, req.Entry.Catalog.URL, desc, req.Progress)
	if err != nil {
		return failed(entities.TierInline, 0, err)
	}

	if req.abandoned() {
		file.Cleanup()
		return failed(entities.TierInline, file.Size, mediaerrors.ErrDeliveryAbandoned)
	}

	if file.Size > r.cfg.InlineLimit {
		r.logger.Info().
			Int64("realized", file.Size).
			Int64("ceiling", r.cfg.InlineLimit).
			Msg("realized size over ceiling, skipping inline upload")
		return r.largeFile(ctx, req, desc, file, file.Size)
	}

	fileID, err := r.sender.SendFile(ctx, req.Entry.Context.ChatID, file, req.Caption)
	if err != nil {
		r.logger.Warn().Err(err).Msg("inline upload rejected, falling through")
		return r.largeFile(ctx, req, desc, file, file.Size)
	}

	file.Cleanup()
	return &entities.DeliveryOutcome{
		Tier:      entities.TierInline,
		Size:      file.Size,
		Delivered: true,
		FileID:    fileID,
	}
}

// largeFile handles everything above the inline ceiling. In relay mode the
// file is uploaded through the privileged channel; a relay failure is
// terminal, a raw link is never silently substituted for a file the user
// chose to relay. Otherwise the direct remote URL is returned without
// materializing the full file.
func (r *Router) largeFile(ctx context.Context, req *Request, desc entities.VariantDescriptor, file *entities.LocalFile, size int64) *entities.DeliveryOutcome {
	if r.cfg.Mode == BypassRelay && r.relay != nil && r.relay.Enabled() {
		if file == nil {
			var err error
			file, err = r.fetcher.Materialize(ctx, req.Entry.Catalog.URL, desc, req.Progress)
			if err != nil {
				return failed(entities.TierRelay, 0, err)
			}
		}
		defer file.Cleanup()

		if req.abandoned() {
			return failed(entities.TierRelay, file.Size, mediaerrors.ErrDeliveryAbandoned)
		}

		if err := r.relay.UploadToBot(ctx, r.sender.BotUsername(), file, req.RelayCaption, req.RelayProgress); err != nil {
			return failed(entities.TierRelay, file.Size, err)
		}
		return &entities.DeliveryOutcome{
			Tier:      entities.TierRelay,
			Size:      file.Size,
			Delivered: true,
		}
	}

	// Bypass off or relay unavailable: hand out a direct URL instead of bytes.
	if file != nil {
		file.Cleanup()
	}
	if req.abandoned() {
		return failed(entities.TierDirectLink, size, mediaerrors.ErrDeliveryAbandoned)
	}
	directURL, err := r.fetcher.DirectURL(ctx, req.Entry.Catalog.URL, desc)
	if err != nil || directURL == "" {
		return failed(entities.TierDirectLink, size, mediaerrors.ErrDeliveryImpossible)
	}
	return &entities.DeliveryOutcome{
		Tier:      entities.TierDirectLink,
		Size:      size,
		DirectURL: directURL,
		Delivered: true,
	}
}

func failed(tier entities.Tier, size int64, reason error) *entities.DeliveryOutcome {
	return &entities.DeliveryOutcome{Tier: tier, Size: size, Reason: reason}
}
