package extractor

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/media-fetch-bot/config"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
)

// Module provides the extractor for fx dependency injection
var Module = fx.Module("extractor",
	fx.Provide(provideExtractor),
)

// provideExtractor creates the yt-dlp backed extractor from config
func provideExtractor(cfg *config.ExtractorConfig, delivery *config.DeliveryConfig, logger zerolog.Logger) deps.Extractor {
	return NewYtDlp(Config{
		BinPath:           cfg.BinPath,
		CookiesFile:       cfg.CookiesFile,
		DirectURLMaxBytes: delivery.DirectURLMaxBytes,
	}, logger)
}
