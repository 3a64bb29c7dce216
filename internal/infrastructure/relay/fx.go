package relay

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/media-fetch-bot/config"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
)

const connectTimeout = 30 * time.Second

// Module provides the relay transport for fx dependency injection
var Module = fx.Module("relay",
	fx.Provide(provideRelay),
)

// provideRelay creates the relay transport. When bypass mode is off or the
// client cannot be built, a permanently disabled transport is returned and
// oversized files fall back to direct links.
func provideRelay(lc fx.Lifecycle, cfg *config.RelayConfig, logger zerolog.Logger) deps.RelayTransport {
	if cfg.Mode != config.BypassRelay {
		logger.Info().Msg("Relay bypass disabled by configuration")
		return Disabled{}
	}

	client, err := NewClient(Config{
		APIID:      cfg.APIID,
		APIHash:    cfg.APIHash,
		SessionDir: cfg.SessionDir,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Relay misconfigured, running without bypass")
		return Disabled{}
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()
			// A dead relay must not keep the bot from serving the
			// inline and direct-link tiers
			if err := client.Connect(ctx); err != nil {
				logger.Error().Err(err).Msg("Relay connect failed, running without bypass")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return client
}

// Disabled is a relay transport that never accepts uploads
type Disabled struct{}

var _ deps.RelayTransport = Disabled{}

// Enabled always reports false
func (Disabled) Enabled() bool { return false }

// UploadToBot always fails; callers should check Enabled first
func (Disabled) UploadToBot(context.Context, string, *entities.LocalFile, string, func(pct int)) error {
	return mediaerrors.ErrRelayUnavailable
}
